package session

import (
	"math"

	"blight/internal/core"
	"blight/internal/terrain"
)

// Projection maps world positions onto grid cells.
type Projection struct {
	Origin       core.Vec2
	CellsPerUnit float64
}

// CenteredProjection places world (0, 0) at the middle of a w×h grid.
func CenteredProjection(w, h int, cellsPerUnit float64) Projection {
	if cellsPerUnit <= 0 {
		cellsPerUnit = 1
	}
	return Projection{
		Origin:       core.Vec2{X: -float64(w) / 2 / cellsPerUnit, Y: -float64(h) / 2 / cellsPerUnit},
		CellsPerUnit: cellsPerUnit,
	}
}

// ToCell returns the cell containing p. The result may lie outside the
// grid; fills skip such cells.
func (p Projection) ToCell(pos core.Vec2) terrain.Cell {
	return terrain.Cell{
		Row: int(math.Floor((pos.Y - p.Origin.Y) * p.CellsPerUnit)),
		Col: int(math.Floor((pos.X - p.Origin.X) * p.CellsPerUnit)),
	}
}

// ToWorld returns the world position of the center of c.
func (p Projection) ToWorld(c terrain.Cell) core.Vec2 {
	return core.Vec2{
		X: p.Origin.X + (float64(c.Col)+0.5)/p.CellsPerUnit,
		Y: p.Origin.Y + (float64(c.Row)+0.5)/p.CellsPerUnit,
	}
}

// RadiusCells converts a world radius to whole cells, rounding up.
func (p Projection) RadiusCells(r float64) int {
	if r <= 0 {
		return 0
	}
	return int(math.Ceil(r * p.CellsPerUnit))
}

// Circle builds the grid disk covering a world-space circle.
func (p Projection) Circle(center core.Vec2, radius float64) terrain.Circle {
	return terrain.Circle{Center: p.ToCell(center), Radius: p.RadiusCells(radius)}
}
