// Package raster draws graph frames into images.
package raster

import (
	"image"
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Canvas implements render.Canvas on a gg drawing context.
type Canvas struct {
	dc            *gg.Context
	width, height int
}

// New returns a width x height canvas.
func New(width, height int) *Canvas {
	return &Canvas{dc: gg.NewContext(width, height), width: width, height: height}
}

func (c *Canvas) Size() (int, int) { return c.width, c.height }

func (c *Canvas) Clear(bg color.Color) {
	c.dc.SetColor(bg)
	c.dc.Clear()
}

func (c *Canvas) Line(x1, y1, x2, y2, width float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(max(width, 0.5))
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.Stroke()
}

func (c *Canvas) Disc(x, y, radius float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawCircle(x, y, radius)
	c.dc.Fill()
}

func (c *Canvas) Text(x, y float64, s string, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawStringAnchored(s, x, y, 0, 0.5)
}

// Image returns the drawn frame.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// Thumbnail scales the frame to fit within width x height.
func (c *Canvas) Thumbnail(width, height int) image.Image {
	return imaging.Fit(c.dc.Image(), width, height, imaging.Lanczos)
}

// EncodePNG writes the frame as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := imaging.Encode(w, c.dc.Image(), imaging.PNG); err != nil {
		return errors.Wrap(err, "failed to encode png")
	}
	return nil
}

// Save writes the frame to path; the format follows the file extension.
func (c *Canvas) Save(path string) error {
	if err := imaging.Save(c.dc.Image(), path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}
