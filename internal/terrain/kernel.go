package terrain

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

const kernelSize = 5

type kernel [kernelSize][kernelSize]uint8

// kernels are the structuring elements used by Dilate. Every kernel keeps
// its center so dilation can never lower a cell.
var kernels = [...]kernel{
	{ // rounded square
		{0, 1, 1, 1, 0},
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
		{0, 1, 1, 1, 0},
	},
	{ // plus
		{0, 0, 1, 0, 0},
		{0, 0, 1, 0, 0},
		{1, 1, 1, 1, 1},
		{0, 0, 1, 0, 0},
		{0, 0, 1, 0, 0},
	},
	{ // diagonal cross
		{1, 0, 0, 0, 1},
		{0, 1, 0, 1, 0},
		{0, 0, 1, 0, 0},
		{0, 1, 0, 1, 0},
		{1, 0, 0, 0, 1},
	},
	{ // small core
		{0, 0, 0, 0, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 1, 1, 1, 0},
		{0, 0, 0, 0, 0},
	},
}

// KernelCount reports how many structuring elements Dilate chooses from.
func KernelCount() int { return len(kernels) }

// KernelSelector picks a kernel index for a cell.
type KernelSelector interface {
	Select(row, col int) int
}

// FixedSelector always selects the same kernel.
type FixedSelector int

// Select implements KernelSelector.
func (f FixedSelector) Select(int, int) int { return int(f) }

// NoiseSelector picks kernels from OpenSimplex noise so neighbouring cells
// tend to share a kernel. Advance shifts the sampling plane so the pattern
// drifts from one step to the next.
type NoiseSelector struct {
	noise opensimplex.Noise
	scale float64
	phase float64
	drift float64
}

// DefaultNoiseScale is the spatial frequency used when none is configured.
const DefaultNoiseScale = 0.08

// NewNoiseSelector returns a NoiseSelector seeded with seed. A non-positive
// scale falls back to DefaultNoiseScale.
func NewNoiseSelector(seed int64, scale float64) *NoiseSelector {
	if scale <= 0 {
		scale = DefaultNoiseScale
	}
	return &NoiseSelector{
		noise: opensimplex.NewNormalized(seed),
		scale: scale,
		drift: 0.37,
	}
}

// Select implements KernelSelector.
func (n *NoiseSelector) Select(row, col int) int {
	v := n.noise.Eval2(float64(col)*n.scale+n.phase, float64(row)*n.scale-n.phase)
	k := int(math.Floor(v * float64(len(kernels))))
	if k < 0 {
		return 0
	}
	if k >= len(kernels) {
		return len(kernels) - 1
	}
	return k
}

// Advance moves the sampling plane for the next step.
func (n *NoiseSelector) Advance() {
	n.phase += n.drift
}
