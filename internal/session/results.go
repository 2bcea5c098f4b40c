package session

import (
	"blight/internal/core"
	"blight/internal/structures"
)

// TerrainUpdated carries a freshly published grid for texture upload.
type TerrainUpdated struct {
	Generation uint64 `json:"generation"`
	// Cells is W×H bytes, row-major, 0 clean to 255 blighted.
	Cells []uint8 `json:"-"`
}

// BlightUpdated reports structures that died this call and the pipes that
// went with them.
type BlightUpdated struct {
	RemovedStructureIDs []int64 `json:"removed_structure_ids"`
	RemovedPipeIDs      []int64 `json:"removed_pipe_ids"`
	PowerChanged        bool    `json:"power_changed"`
}

// AmountsUpdated reports a mining pass.
type AmountsUpdated struct {
	TotalOre int `json:"total_ore"`
	// AnimatedPositions and AnimatedDiffs are parallel: where ore moved and
	// by how much.
	AnimatedPositions []core.Vec2 `json:"animated_positions"`
	AnimatedDiffs     []int       `json:"animated_diffs"`
	// WaterRemaining lists the sources debited this pass.
	WaterRemaining map[int64]int `json:"water_remaining"`
	DepletedIDs    []int64       `json:"depleted_ids,omitempty"`
	PowerChanged   bool          `json:"power_changed"`
}

// QueryResult answers QueryEffectRadius.
type QueryResult struct {
	AffectedIDs []int64 `json:"affected_ids"`
	Radius      float64 `json:"radius"`
}

// AddStructure is a placement request from the host.
type AddStructure struct {
	Position core.Vec2
	Type     structures.Type
	// PipeFrom connects the new structure to an existing one when non-zero.
	PipeFrom int64
}

// AddStructureResult describes a placement.
type AddStructureResult struct {
	ID           int64 `json:"id"`
	PipeID       int64 `json:"pipe_id,omitempty"`
	PowerChanged bool  `json:"power_changed"`
}

// TickResult bundles the three per-frame entry points.
type TickResult struct {
	Terrain *TerrainUpdated
	Blight  *BlightUpdated
	Amounts *AmountsUpdated
}

// Empty reports whether nothing changed this tick.
func (r TickResult) Empty() bool {
	return r.Terrain == nil && r.Blight == nil && r.Amounts == nil
}
