package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// IntN returns a random int in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Uniform returns a random float64 in [lo, hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.r.Float64()*(hi-lo)
}

// Int64 returns a non-negative pseudo-random int64.
func (r *RNG) Int64() int64 { return r.r.Int64() }

// Positions scatters n points uniformly inside the square [-extent, extent).
func (r *RNG) Positions(n int, extent float64) []Vec2 {
	out := make([]Vec2, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Vec2{X: r.Uniform(-extent, extent), Y: r.Uniform(-extent, extent)})
	}
	return out
}
