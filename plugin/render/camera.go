// Package render draws a laid-out knowledge graph onto a Canvas and turns
// pointer, wheel and resize input into camera state and node activation.
package render

import (
	"github.com/hrygo/notegraph/plugin/graph"
)

const (
	// MinZoom and MaxZoom bound the camera zoom.
	MinZoom = 0.3
	MaxZoom = 3.0
	// ZoomStep is the factor applied per wheel notch.
	ZoomStep = 1.1
)

// Camera maps world coordinates to screen pixels:
// screen = viewportCenter + Pan + Zoom*world.
// Pan is in screen pixels, so zooming scales around the pan origin.
type Camera struct {
	Zoom   float64
	Pan    graph.Vec
	Width  int
	Height int
}

// NewCamera returns a camera with zoom 1 and no pan.
func NewCamera(width, height int) Camera {
	return Camera{Zoom: 1, Width: width, Height: height}
}

func (c Camera) center() graph.Vec {
	return graph.Vec{X: float64(c.Width) / 2, Y: float64(c.Height) / 2}
}

// WorldToScreen maps a world position to screen pixels.
func (c Camera) WorldToScreen(p graph.Vec) graph.Vec {
	return c.center().Add(c.Pan).Add(p.Scale(c.Zoom))
}

// ScreenToWorld is the inverse of WorldToScreen.
func (c Camera) ScreenToWorld(s graph.Vec) graph.Vec {
	return s.Sub(c.center()).Sub(c.Pan).Scale(1 / c.Zoom)
}

// ZoomBy multiplies the zoom by factor, clamped to [MinZoom, MaxZoom].
func (c *Camera) ZoomBy(factor float64) {
	c.Zoom = clampZoom(c.Zoom * factor)
}

// Resize updates the viewport dimensions.
func (c *Camera) Resize(width, height int) {
	c.Width, c.Height = width, height
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
