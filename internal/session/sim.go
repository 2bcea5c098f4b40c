package session

import (
	"strconv"

	"blight/internal/core"
)

// Name is the key the session registers under.
const Name = "blight"

func init() {
	core.Register(Name, func(cfg map[string]string) core.Sim {
		return New(FromMap(cfg))
	})
}

// Name implements core.Sim.
func (s *Session) Name() string { return Name }

// Size implements core.Sim.
func (s *Session) Size() core.Size { return core.Size{W: s.cfg.Width, H: s.cfg.Height} }

// Reset stops the current terrain worker and rebuilds the session from
// seed. Structures, pipes and counters start over.
func (s *Session) Reset(seed int64) {
	if !s.closed {
		s.terrain.Shutdown()
	}
	s.cfg.Seed = seed
	s.build()
}

// Step runs one Tick with the configured frame time.
func (s *Session) Step() { s.Tick(s.cfg.Params.StepDt) }

// Cells implements core.Sim.
func (s *Session) Cells() []uint8 { return s.Texture() }

var (
	_ core.Sim                       = (*Session)(nil)
	_ core.Closer                    = (*Session)(nil)
	_ core.ParameterProvider         = (*Session)(nil)
	_ core.ParameterControlsProvider = (*Session)(nil)
	_ core.IntParameterSetter        = (*Session)(nil)
	_ core.FloatParameterSetter      = (*Session)(nil)
)

// Parameters reports the current configuration and a few live counters.
func (s *Session) Parameters() core.ParameterSnapshot {
	params := s.cfg.Params
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", s.cfg.Width),
				intParam("h", "Height", s.cfg.Height),
				int64Param("seed", "Seed", s.cfg.Seed),
				floatParam("cells_per_unit", "Cells per unit", s.cfg.CellsPerUnit),
			},
		},
		{
			Name: "Blight",
			Params: []core.Parameter{
				floatParam("damage_per_second", "Damage per second", params.DamagePerSecond),
				intParam("damage_threshold", "Damage threshold", params.DamageThreshold),
				floatParam("structure_health", "Structure health", params.StructureHealth),
				intParam("seed_patch_count", "Seed patch count", params.SeedPatchCount),
			},
		},
		{
			Name: "Mining",
			Params: []core.Parameter{
				intParam("mining_interval", "Mining interval", params.MiningInterval),
				intParam("ore_mine_per_tick", "Ore per tick", params.OreMinePerTick),
				intParam("water_debit_per_tick", "Water per tick", params.WaterDebitPerTick),
			},
		},
		{
			Name:    "Status",
			Summary: "live counters",
			Params: []core.Parameter{
				intParam("structures", "Structures", s.registry.Len()),
				intParam("pipes", "Pipes", s.network.Len()),
				intParam("powered", "Powered", len(s.power.Powered)),
				intParam("total_ore", "Total ore", s.totalOre),
				int64Param("generation", "Generation", int64(s.terrain.Generation())),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the values the HUD may adjust at runtime.
func (s *Session) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "damage_per_second", Label: "Damage/s", Type: core.ParamTypeFloat, Step: 10, Min: 0, HasMin: true, Max: 1000, HasMax: true},
		{Key: "damage_threshold", Label: "Threshold", Type: core.ParamTypeInt, Step: 4, Min: 0, HasMin: true, Max: 255, HasMax: true},
		{Key: "mining_interval", Label: "Mining every", Type: core.ParamTypeInt, Step: 5, Min: 1, HasMin: true, Max: 600, HasMax: true},
		{Key: "ore_mine_per_tick", Label: "Ore/tick", Type: core.ParamTypeInt, Step: 1, Min: 0, HasMin: true, Max: 20, HasMax: true},
		{Key: "water_debit_per_tick", Label: "Water/tick", Type: core.ParamTypeInt, Step: 1, Min: 0, HasMin: true, Max: 20, HasMax: true},
	}
}

// SetIntParameter updates an integer tunable. Unknown keys and out of
// range values are rejected.
func (s *Session) SetIntParameter(key string, value int) bool {
	p := &s.cfg.Params
	switch key {
	case "damage_threshold":
		if value < 0 || value > 255 {
			return false
		}
		p.DamageThreshold = value
	case "mining_interval":
		if value <= 0 {
			return false
		}
		p.MiningInterval = value
	case "ore_mine_per_tick":
		if value < 0 {
			return false
		}
		p.OreMinePerTick = value
	case "water_debit_per_tick":
		if value < 0 {
			return false
		}
		p.WaterDebitPerTick = value
	default:
		return false
	}
	s.log.Debug("parameter updated", "key", key, "value", value)
	return true
}

// SetFloatParameter updates a floating point tunable.
func (s *Session) SetFloatParameter(key string, value float64) bool {
	switch key {
	case "damage_per_second":
		if value < 0 {
			return false
		}
		s.cfg.Params.DamagePerSecond = value
	default:
		return false
	}
	s.log.Debug("parameter updated", "key", key, "value", value)
	return true
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}
