package terrain

// Blight intensity bounds.
const (
	Clean  uint8 = 0
	Blight uint8 = 255
)

// Default grid dimensions.
const (
	DefaultWidth  = 256
	DefaultHeight = 256
)

// dilateMargin is the border width a 5x5 kernel cannot be centered on.
const dilateMargin = 2

// Grid stores a 2D grid of blight values in row-major order. Dimensions are
// fixed at construction.
type Grid struct {
	w, h int
	data []uint8
}

// NewGrid allocates a clean grid with the given dimensions.
func NewGrid(w, h int) *Grid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Grid{w: w, h: h, data: make([]uint8, w*h)}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.w }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.h }

// Cells exposes the backing slice, one byte per cell, row-major.
func (g *Grid) Cells() []uint8 { return g.data }

// Index returns the linear slice index for a cell.
func (g *Grid) Index(row, col int) int { return row*g.w + col }

// At returns the value at (row, col). Out-of-range cells read as clean.
func (g *Grid) At(row, col int) uint8 {
	if row < 0 || row >= g.h || col < 0 || col >= g.w {
		return Clean
	}
	return g.data[row*g.w+col]
}

// Set writes a single cell, ignoring out-of-range coordinates.
func (g *Grid) Set(row, col int, v uint8) {
	if row < 0 || row >= g.h || col < 0 || col >= g.w {
		return
	}
	g.data[row*g.w+col] = v
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{w: g.w, h: g.h, data: make([]uint8, len(g.data))}
	copy(out.data, g.data)
	return out
}

// Clear fills the grid with clean cells.
func (g *Grid) Clear() {
	for i := range g.data {
		g.data[i] = Clean
	}
}

// Count returns how many cells satisfy pred.
func (g *Grid) Count(pred func(uint8) bool) int {
	n := 0
	for _, v := range g.data {
		if pred(v) {
			n++
		}
	}
	return n
}

// FillShape sets every cell of the shape to value. Cells outside the grid
// are skipped.
func (g *Grid) FillShape(s Shape, value uint8) {
	switch s := s.(type) {
	case Circle:
		g.eachInDisk(s, func(idx int) { g.data[idx] = value })
	}
}

// QueryAverage returns the truncated mean over the in-grid cells of the
// shape. A circle with no cell on the grid is measured from the nearest edge
// cell instead.
func (g *Grid) QueryAverage(s Shape) uint8 {
	switch s := s.(type) {
	case Circle:
		if !s.Overlaps(g.w, g.h) {
			s = s.anchored(g.w, g.h)
		}
		sum, count := 0, 0
		g.eachInDisk(s, func(idx int) {
			sum += int(g.data[idx])
			count++
		})
		if count == 0 {
			// Overlaps or anchored guarantees one cell.
			panic("terrain: QueryAverage over an empty disk")
		}
		return uint8(sum / count)
	}
	panic("terrain: QueryAverage on unknown shape")
}

func (g *Grid) eachInDisk(c Circle, fn func(idx int)) {
	c = c.normalized()
	r := c.Radius
	cy, cx := c.Center.Row, c.Center.Col
	y0, y1 := span(cy, r, g.h)
	x0, x1 := span(cx, r, g.w)
	for y := y0; y <= y1; y++ {
		row := y * g.w
		for x := x0; x <= x1; x++ {
			if inDisk(x-cx, y-cy, r) {
				fn(row + x)
			}
		}
	}
}

// Dilate produces the next generation: every interior cell becomes the
// maximum of its own value and the kernel-weighted maximum over the 5x5
// window centered on it. The kernel is picked per cell by sel. The border
// within dilateMargin of any edge keeps the source values.
func (g *Grid) Dilate(sel KernelSelector) *Grid {
	out := g.Clone()
	if g.w <= 2*dilateMargin || g.h <= 2*dilateMargin {
		return out
	}
	nk := len(kernels)
	for y := dilateMargin; y < g.h-dilateMargin; y++ {
		for x := dilateMargin; x < g.w-dilateMargin; x++ {
			idx := y*g.w + x
			best := g.data[idx]
			if best == Blight {
				continue
			}
			k := sel.Select(y, x)
			if k < 0 || k >= nk {
				k = ((k % nk) + nk) % nk
			}
			kernel := &kernels[k]
			for ky := 0; ky < kernelSize; ky++ {
				base := (y+ky-dilateMargin)*g.w + x - dilateMargin
				for kx := 0; kx < kernelSize; kx++ {
					if kernel[ky][kx] == 0 {
						continue
					}
					if v := g.data[base+kx]; v > best {
						best = v
					}
				}
			}
			out.data[idx] = best
		}
	}
	return out
}
