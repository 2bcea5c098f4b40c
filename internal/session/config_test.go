package session

import (
	"flag"
	"testing"
	"time"

	"blight/internal/core"
	"blight/internal/terrain"
)

func TestFromMapOverridesAndFallbacks(t *testing.T) {
	cfg := FromMap(map[string]string{
		"w":                "64",
		"h":                "-3",
		"seed":             "7",
		"step_ms":          "0",
		"damage_threshold": "300",
		"mining_interval":  "0",
		"initial_ore":      "3",
		"noise_scale":      "bogus",
		"unknown":          "x",
	})
	def := DefaultConfig()
	if cfg.Width != 64 || cfg.Height != def.Height {
		t.Fatalf("expected 64x%d, got %dx%d", def.Height, cfg.Width, cfg.Height)
	}
	if cfg.Seed != 7 {
		t.Fatalf("expected seed 7, got %d", cfg.Seed)
	}
	if cfg.StepInterval != 0 {
		t.Fatalf("expected unpaced terrain, got %v", cfg.StepInterval)
	}
	if cfg.Params.DamageThreshold != def.Params.DamageThreshold {
		t.Fatalf("out of range threshold should keep the default, got %d", cfg.Params.DamageThreshold)
	}
	if cfg.Params.MiningInterval != def.Params.MiningInterval {
		t.Fatalf("zero interval should keep the default, got %d", cfg.Params.MiningInterval)
	}
	if cfg.Params.InitialOre != 3 {
		t.Fatalf("expected 3 ore, got %d", cfg.Params.InitialOre)
	}
	if cfg.NoiseScale != terrain.DefaultNoiseScale {
		t.Fatalf("unparseable scale should keep the default, got %v", cfg.NoiseScale)
	}
}

func TestFromMapPatchRadiusOrdering(t *testing.T) {
	cfg := FromMap(map[string]string{"seed_patch_radius_min": "10", "seed_patch_radius_max": "4"})
	if cfg.Params.SeedPatchRadiusMax != 10 {
		t.Fatalf("max radius should be raised to the min, got %d", cfg.Params.SeedPatchRadiusMax)
	}
}

func TestBindParsesFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.Bind(fs)
	if err := fs.Parse([]string{"-seed", "11", "-step", "25ms", "-ore", "0", "-threshold", "40"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Seed != 11 || cfg.StepInterval != 25*time.Millisecond {
		t.Fatalf("unexpected seed/step %d/%v", cfg.Seed, cfg.StepInterval)
	}
	if cfg.Params.InitialOre != 0 || cfg.Params.DamageThreshold != 40 {
		t.Fatalf("unexpected params %+v", cfg.Params)
	}
}

func TestProjectionCenteredOnOrigin(t *testing.T) {
	p := CenteredProjection(256, 256, 1)
	if p.Origin != (core.Vec2{X: -128, Y: -128}) {
		t.Fatalf("expected origin (-128,-128), got %+v", p.Origin)
	}
	if c := p.ToCell(core.Vec2{}); c != (terrain.Cell{Row: 128, Col: 128}) {
		t.Fatalf("expected world origin at the grid center, got %+v", c)
	}
	if c := p.ToCell(core.Vec2{X: -128, Y: -128}); c != (terrain.Cell{}) {
		t.Fatalf("expected the corner cell, got %+v", c)
	}
	if c := p.ToCell(core.Vec2{X: -0.5, Y: 0.25}); c != (terrain.Cell{Row: 128, Col: 127}) {
		t.Fatalf("expected floor rounding, got %+v", c)
	}
	if w := p.ToWorld(terrain.Cell{Row: 128, Col: 128}); w != (core.Vec2{X: 0.5, Y: 0.5}) {
		t.Fatalf("expected the cell center, got %+v", w)
	}
}

func TestProjectionRadiusRoundsUp(t *testing.T) {
	p := CenteredProjection(256, 256, 1)
	for _, tc := range []struct {
		r    float64
		want int
	}{{5, 5}, {4.2, 5}, {0, 0}, {-1, 0}} {
		if got := p.RadiusCells(tc.r); got != tc.want {
			t.Fatalf("RadiusCells(%v): expected %d, got %d", tc.r, tc.want, got)
		}
	}
	dense := CenteredProjection(256, 256, 2)
	if got := dense.RadiusCells(2.3); got != 5 {
		t.Fatalf("expected ceil(4.6)=5, got %d", got)
	}
	if dense.Origin != (core.Vec2{X: -64, Y: -64}) {
		t.Fatalf("expected origin (-64,-64) at 2 cells per unit, got %+v", dense.Origin)
	}
}

func TestMapRoundTripsThroughFromMap(t *testing.T) {
	want := DefaultConfig()
	want.Width, want.Height = 96, 64
	want.Seed = -42
	want.StepInterval = 250 * time.Millisecond
	want.NoiseScale = 0.125
	want.CellsPerUnit = 2.5
	want.Params.DamagePerSecond = 12.75
	want.Params.DamageThreshold = 200
	want.Params.MiningInterval = 7
	want.Params.SeedPatchRadiusMin, want.Params.SeedPatchRadiusMax = 2, 11
	want.Params.InitialOre = 0
	want.Params.StepDt = 1.0 / 30

	if got := FromMap(want.Map()); got != want {
		t.Fatalf("round trip changed the config:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestRegisteredFactoryUsesConfigMap(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 32, 48
	cfg.Seed = 9

	sim := core.Sims()[Name](cfg.Map())
	closer, ok := sim.(core.Closer)
	if !ok {
		t.Fatal("the session owns a worker and must be a core.Closer")
	}
	defer closer.Close()

	if got := sim.Size(); got != (core.Size{W: 32, H: 48}) {
		t.Fatalf("expected 32x48, got %+v", got)
	}
	sess := sim.(*Session)
	if sess.Config().Seed != 9 || sess.Config().Params.MiningInterval != 1 {
		t.Fatalf("factory dropped config values: %+v", sess.Config())
	}
	sim.Step()
	if sess.Frame() != 1 {
		t.Fatalf("Step should advance one frame, got %d", sess.Frame())
	}
}
