package terrain

import "math/bits"

// Cell addresses a grid position.
type Cell struct {
	Row, Col int
}

// Shape is a paintable and queryable region of the grid. Implementations are
// comparable values so they can key a paint batch.
type Shape interface {
	shape()
}

// Circle is the disk of cells whose squared distance to Center is at most
// Radius squared.
type Circle struct {
	Center Cell
	Radius int
}

func (Circle) shape() {}

// NewCircle builds a Circle shape.
func NewCircle(row, col, radius int) Circle {
	return Circle{Center: Cell{Row: row, Col: col}, Radius: radius}
}

// In reports whether c lies inside a w×h grid.
func (c Cell) In(w, h int) bool {
	return c.Row >= 0 && c.Row < h && c.Col >= 0 && c.Col < w
}

func (c Circle) normalized() Circle {
	if c.Radius < 0 {
		c.Radius = 0
	}
	return c
}

// anchored saturates the center into the grid so the disk always holds at
// least its center cell. Only queries need this; fills skip what is outside.
func (c Circle) anchored(w, h int) Circle {
	c = c.normalized()
	c.Center.Row = min(max(c.Center.Row, 0), h-1)
	c.Center.Col = min(max(c.Center.Col, 0), w-1)
	return c
}

// Overlaps reports whether any cell of the disk lies inside a w×h grid.
func (c Circle) Overlaps(w, h int) bool {
	c = c.normalized()
	y0, y1 := span(c.Center.Row, c.Radius, h)
	x0, x1 := span(c.Center.Col, c.Radius, w)
	if y0 > y1 || x0 > x1 {
		return false
	}
	// Nearest in-window cell to the center.
	y := min(max(c.Center.Row, y0), y1)
	x := min(max(c.Center.Col, x0), x1)
	return inDisk(x-c.Center.Col, y-c.Center.Row, c.Radius)
}

// span returns the in-grid range [lo, hi] covered by center ± r along an
// axis of length n. It never overflows; lo > hi means the range is empty.
func span(center, r, n int) (lo, hi int) {
	if center > r {
		lo = center - r
	}
	hi = n - 1
	if center <= n-1-r {
		hi = center + r
	}
	return lo, hi
}

// sq returns d*d as a 128-bit value.
func sq(d int) (hi, lo uint64) {
	u := uint64(d)
	if d < 0 {
		u = -u
	}
	return bits.Mul64(u, u)
}

// inDisk reports dx²+dy² <= r² without overflow for any int inputs.
func inDisk(dx, dy, r int) bool {
	xh, xl := sq(dx)
	yh, yl := sq(dy)
	sl, carry := bits.Add64(xl, yl, 0)
	sh, _ := bits.Add64(xh, yh, carry)
	rh, rl := sq(r)
	return sh < rh || (sh == rh && sl <= rl)
}
