package session

import (
	"flag"
	"log/slog"
	"strconv"
	"time"

	"blight/internal/structures"
	"blight/internal/terrain"
)

// Params holds the tunable rates and thresholds of a session.
type Params struct {
	// DamagePerSecond is applied at full blight; damage scales with avg/256.
	DamagePerSecond float64
	// DamageThreshold is the average blight a structure tolerates.
	DamageThreshold int
	StructureHealth float64

	// MiningInterval is the cadence of UpdateAmounts in frames.
	MiningInterval    int
	OreMinePerTick    int
	WaterDebitPerTick int

	SeedPatchCount     int
	SeedPatchRadiusMin int
	SeedPatchRadiusMax int

	// InitialOre and InitialWater are scattered on every build.
	InitialOre   int
	InitialWater int
	// ScatterExtent bounds random placement to [-extent, extent) on both axes.
	ScatterExtent float64
	// StepDt is the frame time used when the session is driven as a core.Sim.
	StepDt float64
}

// Config controls a session.
type Config struct {
	Width  int
	Height int

	Seed int64

	StepInterval time.Duration
	NoiseScale   float64
	CellsPerUnit float64

	Params Params

	Logger *slog.Logger
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:        terrain.DefaultWidth,
		Height:       terrain.DefaultHeight,
		Seed:         1337,
		StepInterval: terrain.DefaultStepInterval,
		NoiseScale:   terrain.DefaultNoiseScale,
		CellsPerUnit: 1,
		Params: Params{
			DamagePerSecond:    80,
			DamageThreshold:    8,
			StructureHealth:    structures.DefaultHealth,
			MiningInterval:     30,
			OreMinePerTick:     1,
			WaterDebitPerTick:  1,
			SeedPatchCount:     6,
			SeedPatchRadiusMin: 3,
			SeedPatchRadiusMax: 9,
			InitialOre:         16,
			InitialWater:       4,
			ScatterExtent:      40,
			StepDt:             1.0 / 60,
		},
	}
}

// FromMap populates the config from a string map (flag-style key/value
// pairs). Unparseable or out-of-range values keep their defaults.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	positiveInt(cfg, "w", &c.Width)
	positiveInt(cfg, "h", &c.Height)
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["step_ms"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.StepInterval = time.Duration(parsed) * time.Millisecond
		}
	}
	positiveFloat(cfg, "noise_scale", &c.NoiseScale)
	positiveFloat(cfg, "cells_per_unit", &c.CellsPerUnit)

	p := &c.Params
	positiveFloat(cfg, "damage_per_second", &p.DamagePerSecond)
	if v, ok := cfg["damage_threshold"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 && parsed <= 255 {
			p.DamageThreshold = parsed
		}
	}
	positiveFloat(cfg, "structure_health", &p.StructureHealth)
	positiveInt(cfg, "mining_interval", &p.MiningInterval)
	nonNegativeInt(cfg, "ore_mine_per_tick", &p.OreMinePerTick)
	nonNegativeInt(cfg, "water_debit_per_tick", &p.WaterDebitPerTick)
	nonNegativeInt(cfg, "seed_patch_count", &p.SeedPatchCount)
	nonNegativeInt(cfg, "seed_patch_radius_min", &p.SeedPatchRadiusMin)
	nonNegativeInt(cfg, "seed_patch_radius_max", &p.SeedPatchRadiusMax)
	if p.SeedPatchRadiusMax < p.SeedPatchRadiusMin {
		p.SeedPatchRadiusMax = p.SeedPatchRadiusMin
	}
	nonNegativeInt(cfg, "initial_ore", &p.InitialOre)
	nonNegativeInt(cfg, "initial_water", &p.InitialWater)
	positiveFloat(cfg, "scatter_extent", &p.ScatterExtent)
	positiveFloat(cfg, "step_dt", &p.StepDt)
	return c
}

// Map renders the config in the key/value form FromMap reads, which is what
// registered sim factories take. StepInterval is truncated to milliseconds
// and the Logger is not carried.
func (c Config) Map() map[string]string {
	p := c.Params
	return map[string]string{
		"w":                     strconv.Itoa(c.Width),
		"h":                     strconv.Itoa(c.Height),
		"seed":                  strconv.FormatInt(c.Seed, 10),
		"step_ms":               strconv.FormatInt(c.StepInterval.Milliseconds(), 10),
		"noise_scale":           formatFloat(c.NoiseScale),
		"cells_per_unit":        formatFloat(c.CellsPerUnit),
		"damage_per_second":     formatFloat(p.DamagePerSecond),
		"damage_threshold":      strconv.Itoa(p.DamageThreshold),
		"structure_health":      formatFloat(p.StructureHealth),
		"mining_interval":       strconv.Itoa(p.MiningInterval),
		"ore_mine_per_tick":     strconv.Itoa(p.OreMinePerTick),
		"water_debit_per_tick":  strconv.Itoa(p.WaterDebitPerTick),
		"seed_patch_count":      strconv.Itoa(p.SeedPatchCount),
		"seed_patch_radius_min": strconv.Itoa(p.SeedPatchRadiusMin),
		"seed_patch_radius_max": strconv.Itoa(p.SeedPatchRadiusMax),
		"initial_ore":           strconv.Itoa(p.InitialOre),
		"initial_water":         strconv.Itoa(p.InitialWater),
		"scatter_extent":        formatFloat(p.ScatterExtent),
		"step_dt":               formatFloat(p.StepDt),
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func positiveInt(cfg map[string]string, key string, dst *int) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			*dst = parsed
		}
	}
}

func nonNegativeInt(cfg map[string]string, key string, dst *int) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			*dst = parsed
		}
	}
}

func positiveFloat(cfg map[string]string, key string, dst *float64) {
	if v, ok := cfg[key]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			*dst = parsed
		}
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "w", c.Width, "grid width in cells")
	fs.IntVar(&c.Height, "h", c.Height, "grid height in cells")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for blight patches, scatter and kernel noise")
	fs.DurationVar(&c.StepInterval, "step", c.StepInterval, "terrain dilation interval (0 runs unpaced)")
	fs.Float64Var(&c.NoiseScale, "noise-scale", c.NoiseScale, "spatial frequency of kernel selection noise")
	fs.Float64Var(&c.CellsPerUnit, "cells-per-unit", c.CellsPerUnit, "grid cells per world unit")
	fs.Float64Var(&c.Params.DamagePerSecond, "damage", c.Params.DamagePerSecond, "damage per second at full blight")
	fs.IntVar(&c.Params.DamageThreshold, "threshold", c.Params.DamageThreshold, "average blight tolerated before damage")
	fs.IntVar(&c.Params.MiningInterval, "mining-interval", c.Params.MiningInterval, "frames between mining passes")
	fs.IntVar(&c.Params.SeedPatchCount, "patches", c.Params.SeedPatchCount, "initial blight patches")
	fs.IntVar(&c.Params.InitialOre, "ore", c.Params.InitialOre, "ore deposits scattered at start")
	fs.IntVar(&c.Params.InitialWater, "water", c.Params.InitialWater, "water sources scattered at start")
}
