// Package term is a terminal drawing surface. Every character cell holds a
// 2x4 grid of braille dots, so a cols x rows terminal is a
// (2*cols) x (4*rows) pixel canvas.
package term

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const brailleBase = 0x2800

// dotBits maps a pixel offset inside a cell (row, col) to its braille bit.
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type cell struct {
	dots  uint8
	color string
	text  rune
	// tail marks the right half of a double-width rune in the cell before it.
	tail bool
}

// Canvas implements render.Canvas on a grid of terminal cells.
type Canvas struct {
	cols, rows int
	cells      []cell
	background string
}

// New returns a canvas for a terminal of cols x rows cells.
func New(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize changes the cell grid and clears it.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	c.cells = make([]cell, c.cols*c.rows)
}

// Size returns the pixel dimensions.
func (c *Canvas) Size() (int, int) {
	return c.cols * 2, c.rows * 4
}

// CellToPixel returns the pixel at the centre of a terminal cell.
func CellToPixel(col, row int) (float64, float64) {
	return float64(col*2 + 1), float64(row*4 + 2)
}

func (c *Canvas) Clear(bg color.Color) {
	c.background = hex(bg)
	clear(c.cells)
}

func (c *Canvas) Line(x1, y1, x2, y2, _ float64, col color.Color) {
	w, h := c.Size()
	x1, y1, x2, y2, ok := clipLine(x1, y1, x2, y2, float64(w-1), float64(h-1))
	if !ok {
		return
	}
	fg := hex(col)
	ax, ay := int(math.Round(x1)), int(math.Round(y1))
	bx, by := int(math.Round(x2)), int(math.Round(y2))
	dx, dy := abs(bx-ax), -abs(by-ay)
	sx, sy := sign(bx-ax), sign(by-ay)
	err := dx + dy
	for {
		c.set(ax, ay, fg)
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			ax += sx
		}
		if e2 <= dx {
			err += dx
			ay += sy
		}
	}
}

func (c *Canvas) Disc(x, y, radius float64, col color.Color) {
	fg := hex(col)
	r := math.Max(radius, 1)
	for py := int(math.Floor(y - r)); py <= int(math.Ceil(y+r)); py++ {
		for px := int(math.Floor(x - r)); px <= int(math.Ceil(x+r)); px++ {
			dx, dy := float64(px)-x, float64(py)-y
			if dx*dx+dy*dy <= r*r {
				c.set(px, py, fg)
			}
		}
	}
	// Very small discs can fall between dots; keep the centre visible.
	c.set(int(math.Round(x)), int(math.Round(y)), fg)
}

// Text writes s into whole cells starting at the cell containing (x, y).
// Double-width runes take two cells. Text replaces braille dots underneath it.
func (c *Canvas) Text(x, y float64, s string, col color.Color) {
	fg := hex(col)
	cx, cy := int(math.Floor(x/2)), int(math.Floor(y/4))
	if cy < 0 || cy >= c.rows {
		return
	}
	row := c.cells[cy*c.cols : (cy+1)*c.cols]
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if cx+w > c.cols {
			return
		}
		switch {
		case cx >= 0:
			putText(row, cx, r, fg)
			if w == 2 {
				if cx+2 < len(row) && row[cx+2].tail {
					row[cx+2] = cell{text: ' ', color: row[cx+2].color}
				}
				row[cx+1] = cell{color: fg, tail: true}
			}
		case cx+w > 0:
			// Only the right half is visible.
			putText(row, 0, ' ', fg)
		}
		cx += w
	}
}

// putText sets row[i] to r, blanking any double-width rune it cuts in half.
func putText(row []cell, i int, r rune, fg string) {
	if row[i].tail && i > 0 {
		row[i-1] = cell{text: ' ', color: row[i-1].color}
	}
	if i+1 < len(row) && row[i+1].tail {
		row[i+1] = cell{text: ' ', color: row[i+1].color}
	}
	row[i] = cell{text: r, color: fg}
}

func (c *Canvas) set(x, y int, fg string) {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	i := (y/4)*c.cols + x/2
	if c.cells[i].text != 0 || c.cells[i].tail {
		return
	}
	c.cells[i].dots |= dotBits[y%4][x%2]
	c.cells[i].color = fg
}

// Render returns the canvas as styled terminal lines.
func (c *Canvas) Render() string {
	var b strings.Builder
	for row := range c.rows {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		runColor := ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			style := lipgloss.NewStyle()
			if runColor != "" {
				style = style.Foreground(lipgloss.Color(runColor))
			}
			if c.background != "" {
				style = style.Background(lipgloss.Color(c.background))
			}
			b.WriteString(style.Render(run.String()))
			run.Reset()
		}
		for col := range c.cols {
			cl := c.cells[row*c.cols+col]
			if cl.tail {
				continue
			}
			ch := ' '
			switch {
			case cl.text != 0:
				ch = cl.text
			case cl.dots != 0:
				ch = rune(brailleBase + int(cl.dots))
			}
			if cl.color != runColor {
				flush()
				runColor = cl.color
			}
			run.WriteRune(ch)
		}
		flush()
	}
	return b.String()
}

// String renders the dots and text without styling.
func (c *Canvas) String() string {
	var b strings.Builder
	for row := range c.rows {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := range c.cols {
			cl := c.cells[row*c.cols+col]
			switch {
			case cl.tail:
			case cl.text != 0:
				b.WriteRune(cl.text)
			case cl.dots != 0:
				b.WriteRune(rune(brailleBase + int(cl.dots)))
			default:
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

func hex(col color.Color) string {
	if col == nil {
		return ""
	}
	r, g, b, _ := col.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// clipLine clips a segment to [0, maxX] x [0, maxY] (Liang-Barsky).
func clipLine(x1, y1, x2, y2, maxX, maxY float64) (float64, float64, float64, float64, bool) {
	if maxX < 0 || maxY < 0 {
		return 0, 0, 0, 0, false
	}
	dx, dy := x2-x1, y2-y1
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x1},
		{dx, maxX - x1},
		{-dy, y1},
		{dy, maxY - y1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, t)
		}
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
