package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of Braille cells. Its pixel size is (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// Set lights the pixel at (x, y); y grows downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// projector maps data coordinates onto the pixel grid of c.
func (c *Canvas) projector(xs, ys []float64) func(x, y float64) (int, int) {
	xmin, xmax := bounds(xs)
	ymin, ymax := bounds(ys)
	pw, ph := c.Width*2-1, c.Height*4-1
	return func(x, y float64) (int, int) {
		px := int(math.Round((x - xmin) / (xmax - xmin) * float64(pw)))
		py := int(math.Round((ymax - y) / (ymax - ymin) * float64(ph)))
		return px, py
	}
}

// Scatter scales the points (xs[i], ys[i]) into the canvas without joining
// them. Non-finite points are skipped.
func (c *Canvas) Scatter(xs, ys []float64) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return
	}
	project := c.projector(xs[:n], ys[:n])
	for i := 0; i < n; i++ {
		if finite(xs[i]) && finite(ys[i]) {
			c.Set(project(xs[i], ys[i]))
		}
	}
}

// Polyline scales the curve (xs[i], ys[i]) into the canvas and joins
// consecutive points. Non-finite points break the curve.
func (c *Canvas) Polyline(xs, ys []float64) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return
	}
	project := c.projector(xs[:n], ys[:n])

	havePrev := false
	var px, py int
	for i := 0; i < n; i++ {
		if !finite(xs[i]) || !finite(ys[i]) {
			havePrev = false
			continue
		}
		x, y := project(xs[i], ys[i])
		if havePrev {
			c.DrawLine(px, py, x, y)
		} else {
			c.Set(x, y)
		}
		px, py, havePrev = x, y, true
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// bounds returns the finite range of v, widened when it is degenerate.
func bounds(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		if !finite(x) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo > hi {
		return -1, 1
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	return lo, hi
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
