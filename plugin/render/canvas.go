package render

import (
	"image/color"
)

// Canvas is a drawing surface measured in pixels.
type Canvas interface {
	Size() (width, height int)
	Clear(c color.Color)
	Line(x1, y1, x2, y2, width float64, c color.Color)
	Disc(x, y, radius float64, c color.Color)
	Text(x, y float64, s string, c color.Color)
}

// Palette of the graph view.
var (
	Background    = color.RGBA{0x1e, 0x1e, 0x2e, 0xff}
	EdgeExplicit  = color.RGBA{0x6b, 0x80, 0xbf, 0xc0}
	EdgeSharedTag = color.RGBA{0x62, 0x72, 0xa4, 0x60}
	NodeNormal    = color.RGBA{0x8b, 0xe9, 0xfd, 0xff}
	NodeFavorite  = color.RGBA{0xf1, 0xfa, 0x8c, 0xff}
	NodeFocused   = color.RGBA{0xff, 0x79, 0xc6, 0xff}
	TextPrimary   = color.RGBA{0xf8, 0xf8, 0xf2, 0xff}
	TextSecondary = color.RGBA{0xa0, 0xa0, 0xb0, 0xff}
)
