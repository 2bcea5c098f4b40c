package ui

import (
	"blight/internal/core"
	"blight/internal/session"
	"blight/internal/structures"
)

// ScreenPoint maps a world position to screen pixels for a grid drawn at
// the given integer scale from the top-left corner.
func ScreenPoint(proj session.Projection, pos core.Vec2, scale int) (float32, float32) {
	s := float64(max(scale, 1)) * proj.CellsPerUnit
	return float32((pos.X - proj.Origin.X) * s), float32((pos.Y - proj.Origin.Y) * s)
}

// WorldPoint is the inverse of ScreenPoint.
func WorldPoint(proj session.Projection, sx, sy, scale int) core.Vec2 {
	s := float64(max(scale, 1)) * proj.CellsPerUnit
	return core.Vec2{X: float64(sx)/s + proj.Origin.X, Y: float64(sy)/s + proj.Origin.Y}
}

// ScreenRadius converts a world radius to pixels.
func ScreenRadius(proj session.Projection, r float64, scale int) float32 {
	return float32(r * proj.CellsPerUnit * float64(max(scale, 1)))
}

// Nearest returns the structure closest to pos within maxDist. Ties go to
// the lower ID.
func Nearest(all []structures.Structure, pos core.Vec2, maxDist float64) (int64, bool) {
	best := int64(0)
	bestD := maxDist * maxDist
	found := false
	for _, st := range all {
		d := st.Position.DistanceSquared(pos)
		if d > bestD || (found && d == bestD && st.ID > best) {
			continue
		}
		best, bestD, found = st.ID, d, true
	}
	return best, found
}
