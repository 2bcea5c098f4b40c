package core

import "math"

// Vec2 is a position on the world plane.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// DistanceSquared returns the squared euclidean distance between v and o.
func (v Vec2) DistanceSquared(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

// Distance returns the euclidean distance between v and o.
func (v Vec2) Distance(o Vec2) float64 { return math.Sqrt(v.DistanceSquared(o)) }
