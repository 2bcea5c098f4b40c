package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"blight/internal/core"
	"blight/internal/structures"
	"blight/internal/terrain"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StepInterval = 0
	cfg.Params.SeedPatchCount = 0
	cfg.Params.InitialOre = 0
	cfg.Params.InitialWater = 0
	cfg.Params.MiningInterval = 1
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s := New(cfg)
	t.Cleanup(s.Close)
	return s
}

func mustAdd(t *testing.T, s *Session, req AddStructure) AddStructureResult {
	t.Helper()
	res, err := s.AddStructure(req)
	if err != nil {
		t.Fatalf("AddStructure(%+v): %v", req, err)
	}
	return res
}

func awaitTerrain(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.AwaitTerrain(ctx); err != nil {
		t.Fatalf("terrain did not publish: %v", err)
	}
}

// blightAt paints a fully blighted disk and waits until it is readable.
func blightAt(t *testing.T, s *Session, pos core.Vec2, radius float64) {
	t.Helper()
	s.terrain.RequestPaint(s.proj.Circle(pos, radius), terrain.Blight)
	awaitTerrain(t, s)
	awaitTerrain(t, s)
}

func TestIrrigationDrainsWaterUntilUnpowered(t *testing.T) {
	s := newTestSession(t, testConfig())
	water := mustAdd(t, s, AddStructure{Position: core.Vec2{}, Type: structures.Water})
	irr := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 1}, Type: structures.Irrigation, PipeFrom: water.ID})

	if irr.PipeID == 0 || !irr.PowerChanged {
		t.Fatalf("expected a pipe and a power change, got %+v", irr)
	}
	if !s.Power().IsPowered(irr.ID) {
		t.Fatal("irrigation should be powered by the water source")
	}

	res := s.UpdateAmounts()
	if res == nil || res.WaterRemaining[water.ID] != 49 {
		t.Fatalf("expected water debited to 49, got %+v", res)
	}

	for i := 0; i < 48; i++ {
		s.AdvanceFrameCount()
		if res := s.UpdateAmounts(); res == nil || len(res.DepletedIDs) != 0 {
			t.Fatalf("pass %d: expected a plain debit, got %+v", i, res)
		}
	}

	s.AdvanceFrameCount()
	res = s.UpdateAmounts()
	if res == nil || !slices.Equal(res.DepletedIDs, []int64{water.ID}) {
		t.Fatalf("expected the source to run dry, got %+v", res)
	}
	if !res.PowerChanged {
		t.Fatal("depletion should change power")
	}
	if st, _ := s.Structure(irr.ID); st.Powered {
		t.Fatal("irrigation still powered by an empty source")
	}

	s.AdvanceFrameCount()
	if res := s.UpdateAmounts(); res != nil {
		t.Fatalf("nothing should move once unpowered, got %+v", res)
	}
}

func TestIrrigationMinesOreInCleanRadius(t *testing.T) {
	s := newTestSession(t, testConfig())
	water := mustAdd(t, s, AddStructure{Type: structures.Water})
	mustAdd(t, s, AddStructure{Position: core.Vec2{X: 1}, Type: structures.Irrigation, PipeFrom: water.ID})
	near := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 3}, Type: structures.Ore})
	far := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 20}, Type: structures.Ore})

	res := s.UpdateAmounts()
	if res == nil {
		t.Fatal("expected a mining pass")
	}
	if res.TotalOre != 1 || !slices.Equal(res.AnimatedDiffs, []int{1}) {
		t.Fatalf("expected one unit mined, got total=%d diffs=%v", res.TotalOre, res.AnimatedDiffs)
	}
	if len(res.AnimatedPositions) != 1 || res.AnimatedPositions[0] != (core.Vec2{X: 3}) {
		t.Fatalf("expected the near deposit animated, got %v", res.AnimatedPositions)
	}
	if st, _ := s.Structure(near.ID); st.Amount != 19 {
		t.Fatalf("expected near ore at 19, got %d", st.Amount)
	}
	if st, _ := s.Structure(far.ID); st.Amount != 20 {
		t.Fatalf("far ore must be untouched, got %d", st.Amount)
	}
}

func TestUnpoweredIrrigationDoesNothing(t *testing.T) {
	s := newTestSession(t, testConfig())
	mustAdd(t, s, AddStructure{Type: structures.Irrigation})
	mustAdd(t, s, AddStructure{Position: core.Vec2{X: 2}, Type: structures.Ore})
	if res := s.UpdateAmounts(); res != nil {
		t.Fatalf("expected nil without power, got %+v", res)
	}
}

func TestMiningCadence(t *testing.T) {
	cfg := testConfig()
	cfg.Params.MiningInterval = 3
	s := newTestSession(t, cfg)
	water := mustAdd(t, s, AddStructure{Type: structures.Water})
	mustAdd(t, s, AddStructure{Position: core.Vec2{X: 1}, Type: structures.Irrigation, PipeFrom: water.ID})

	if s.UpdateAmounts() == nil {
		t.Fatal("frame 0 is on cadence")
	}
	if s.UpdateAmounts() != nil {
		t.Fatal("a second pass in the same frame must be skipped")
	}
	for frame := 1; frame < 3; frame++ {
		s.AdvanceFrameCount()
		if s.UpdateAmounts() != nil {
			t.Fatalf("frame %d is off cadence", frame)
		}
	}
	s.AdvanceFrameCount()
	if res := s.UpdateAmounts(); res == nil || res.WaterRemaining[water.ID] != 48 {
		t.Fatalf("frame 3 should debit again, got %+v", res)
	}
}

func TestBlightDestroysStructureAndPrunesPipes(t *testing.T) {
	s := newTestSession(t, testConfig())
	water := mustAdd(t, s, AddStructure{Position: core.Vec2{X: -40}, Type: structures.Water})
	pump := mustAdd(t, s, AddStructure{Type: structures.Pump, PipeFrom: water.ID})
	blightAt(t, s, core.Vec2{}, 12)

	if res := s.UpdateBlight(1); res != nil {
		t.Fatalf("one second of full blight should not kill yet, got %+v", res)
	}
	st, _ := s.Structure(pump.ID)
	if st.Health >= DefaultConfig().Params.StructureHealth {
		t.Fatalf("expected damage, health %.2f", st.Health)
	}

	res := s.UpdateBlight(1)
	if res == nil {
		t.Fatal("expected the pump to die")
	}
	if !slices.Equal(res.RemovedStructureIDs, []int64{pump.ID}) {
		t.Fatalf("expected pump removed, got %v", res.RemovedStructureIDs)
	}
	if !slices.Equal(res.RemovedPipeIDs, []int64{pump.PipeID}) {
		t.Fatalf("expected pipe %d pruned, got %v", pump.PipeID, res.RemovedPipeIDs)
	}
	if !res.PowerChanged {
		t.Fatal("losing a powered pump changes power")
	}
	if len(s.Pipes()) != 0 {
		t.Fatalf("no pipes should remain, got %v", s.Pipes())
	}
	if _, ok := s.Structure(water.ID); !ok {
		t.Fatal("water is immune to blight")
	}
}

func TestBelowThresholdNoDamage(t *testing.T) {
	cfg := testConfig()
	cfg.Params.DamageThreshold = 255
	s := newTestSession(t, cfg)
	pump := mustAdd(t, s, AddStructure{Type: structures.Pump})
	blightAt(t, s, core.Vec2{}, 12)

	s.UpdateBlight(10)
	if st, _ := s.Structure(pump.ID); st.Health != cfg.Params.StructureHealth {
		t.Fatalf("average at threshold must not damage, health %.2f", st.Health)
	}
}

func TestPoweredCleanerPaintsAndDeadOnesStop(t *testing.T) {
	cfg := testConfig()
	cfg.Params.StructureHealth = 1
	s := newTestSession(t, cfg)
	water := mustAdd(t, s, AddStructure{Position: core.Vec2{X: -40}, Type: structures.Water})
	mustAdd(t, s, AddStructure{Type: structures.Pump, PipeFrom: water.ID})
	blightAt(t, s, core.Vec2{}, 12)

	res := s.UpdateBlight(1)
	if res == nil || len(res.RemovedStructureIDs) != 1 {
		t.Fatalf("expected the fragile pump to die, got %+v", res)
	}
	if s.terrain.Pending() != 1 {
		t.Fatalf("the pump was powered when the pass started and should have queued one clean, got %d", s.terrain.Pending())
	}

	awaitTerrain(t, s)
	s.UpdateBlight(1)
	if s.terrain.Pending() != 0 {
		t.Fatalf("a removed cleaner must not paint, got %d pending", s.terrain.Pending())
	}
}

func TestUnpoweredCleanerDoesNotPaint(t *testing.T) {
	s := newTestSession(t, testConfig())
	mustAdd(t, s, AddStructure{Type: structures.Irrigation})
	s.UpdateBlight(0)
	if s.terrain.Pending() != 0 {
		t.Fatalf("expected no paint without power, got %d", s.terrain.Pending())
	}
}

func TestCleaningReachesTheGrid(t *testing.T) {
	s := newTestSession(t, testConfig())
	blightAt(t, s, core.Vec2{}, 20)
	water := mustAdd(t, s, AddStructure{Position: core.Vec2{X: -60}, Type: structures.Water})
	mustAdd(t, s, AddStructure{Type: structures.Irrigation, PipeFrom: water.ID})

	center := s.proj.Circle(core.Vec2{}, 2)
	if got := s.terrain.QueryAverage(center); got != terrain.Blight {
		t.Fatalf("expected blight before cleaning, got %d", got)
	}
	s.UpdateBlight(0)
	awaitTerrain(t, s)
	awaitTerrain(t, s)
	if got := s.terrain.QueryAverage(center); got != terrain.Clean {
		t.Fatalf("expected the cleaned center to read 0, got %d", got)
	}
}

func TestStructuresOffTheGridIgnoreEdgeBlight(t *testing.T) {
	s := newTestSession(t, testConfig())
	blightAt(t, s, core.Vec2{X: 125}, 12)
	edge := s.proj.Circle(core.Vec2{X: 127}, 1)
	if got := s.terrain.QueryAverage(edge); got != terrain.Blight {
		t.Fatalf("expected blight on the right edge, got %d", got)
	}

	water := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 190}, Type: structures.Water})
	irr := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 200}, Type: structures.Irrigation, PipeFrom: water.ID})
	pump := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 210}, Type: structures.Pump, PipeFrom: water.ID})
	if !s.Power().IsPowered(irr.ID) {
		t.Fatal("irrigation should be powered")
	}

	if res := s.UpdateBlight(10); res != nil {
		t.Fatalf("nothing off the grid should die, got %+v", res)
	}
	if st, _ := s.Structure(pump.ID); st.Health != s.cfg.Params.StructureHealth {
		t.Fatalf("off-grid pump took damage, health %.2f", st.Health)
	}
	awaitTerrain(t, s)
	awaitTerrain(t, s)
	if got := s.terrain.QueryAverage(edge); got != terrain.Blight {
		t.Fatalf("an off-grid cleaner must not clean the edge, got %d", got)
	}
}

func TestAddStructureRejectsUnknownPipeSource(t *testing.T) {
	s := newTestSession(t, testConfig())
	_, err := s.AddStructure(AddStructure{Type: structures.Pump, PipeFrom: 99})
	if !errors.Is(err, ErrUnknownStructure) {
		t.Fatalf("expected ErrUnknownStructure, got %v", err)
	}
	if len(s.Structures()) != 0 {
		t.Fatal("a rejected request must not place anything")
	}

	_, err = s.AddStructure(AddStructure{Type: structures.Type(42)})
	if !errors.Is(err, structures.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestAddPipeAndRemovePipe(t *testing.T) {
	s := newTestSession(t, testConfig())
	water := mustAdd(t, s, AddStructure{Type: structures.Water})
	pump := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 5}, Type: structures.Pump})

	if _, err := s.AddPipe(pump.ID, pump.ID); !errors.Is(err, ErrSelfPipe) {
		t.Fatalf("expected ErrSelfPipe, got %v", err)
	}
	if _, err := s.AddPipe(pump.ID, 1234); !errors.Is(err, ErrUnknownStructure) {
		t.Fatalf("expected ErrUnknownStructure, got %v", err)
	}

	p, err := s.AddPipe(water.ID, pump.ID)
	if err != nil {
		t.Fatalf("AddPipe: %v", err)
	}
	again, _ := s.AddPipe(pump.ID, water.ID)
	if again.ID != p.ID {
		t.Fatalf("expected the existing pipe %d, got %d", p.ID, again.ID)
	}
	if !s.Power().IsPowered(pump.ID) {
		t.Fatal("pump should be powered once piped")
	}

	if !s.RemovePipe(p.ID) {
		t.Fatal("expected pipe removal")
	}
	if st, _ := s.Structure(pump.ID); st.Powered {
		t.Fatal("pump should lose power with its pipe")
	}
	if s.RemovePipe(p.ID) {
		t.Fatal("second removal must report false")
	}
}

func TestRemoveStructure(t *testing.T) {
	s := newTestSession(t, testConfig())
	water := mustAdd(t, s, AddStructure{Type: structures.Water})
	pump := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 5}, Type: structures.Pump, PipeFrom: water.ID})

	res := s.RemoveStructure(water.ID)
	if res == nil || !slices.Equal(res.RemovedPipeIDs, []int64{pump.PipeID}) {
		t.Fatalf("expected the pipe pruned with its source, got %+v", res)
	}
	if st, _ := s.Structure(pump.ID); st.Powered {
		t.Fatal("pump should be unpowered after its source is demolished")
	}
	if s.RemoveStructure(water.ID) != nil {
		t.Fatal("removing an unknown structure returns nil")
	}
}

func TestQueryEffectRadius(t *testing.T) {
	s := newTestSession(t, testConfig())
	irr := mustAdd(t, s, AddStructure{Type: structures.Irrigation})
	ore := mustAdd(t, s, AddStructure{Position: core.Vec2{X: 3}, Type: structures.Ore})
	mustAdd(t, s, AddStructure{Position: core.Vec2{X: 10}, Type: structures.Ore})
	pump := mustAdd(t, s, AddStructure{Position: core.Vec2{X: -2}, Type: structures.Pump})
	water := mustAdd(t, s, AddStructure{Position: core.Vec2{Y: 50}, Type: structures.Water})

	res := s.QueryEffectRadius(irr.ID)
	if res == nil || res.Radius != 10 {
		t.Fatalf("expected radius 10, got %+v", res)
	}
	if !slices.Equal(res.AffectedIDs, []int64{ore.ID, pump.ID}) {
		t.Fatalf("expected %v, got %v", []int64{ore.ID, pump.ID}, res.AffectedIDs)
	}
	if s.QueryEffectRadius(water.ID) != nil {
		t.Fatal("water has no clean radius")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("querying an unknown id should panic")
		}
	}()
	s.QueryEffectRadius(9999)
}

func TestScatterStaysInExtent(t *testing.T) {
	s := newTestSession(t, testConfig())
	ids, err := s.Scatter(200, structures.Ore, 5)
	if err != nil {
		t.Fatalf("Scatter: %v", err)
	}
	if len(ids) != 200 || len(s.Structures()) != 200 {
		t.Fatalf("expected 200 structures, got %d/%d", len(ids), len(s.Structures()))
	}
	extent := s.cfg.Params.ScatterExtent
	for _, st := range s.Structures() {
		if st.Position.X < -extent || st.Position.X >= extent || st.Position.Y < -extent || st.Position.Y >= extent {
			t.Fatalf("structure %d at %+v outside extent", st.ID, st.Position)
		}
		if st.Amount != 20 {
			t.Fatalf("scattered ore should start full, got %d", st.Amount)
		}
	}
	pipe, err := s.AddPipe(ids[0], ids[1])
	if err != nil {
		t.Fatalf("AddPipe: %v", err)
	}
	if slices.Contains(ids, pipe.ID) {
		t.Fatal("pipe id must not collide with scattered ids")
	}
}

func TestCloseIsIdempotentAndGuards(t *testing.T) {
	s := New(testConfig())
	s.Close()
	s.Close()
	if _, err := s.AddStructure(AddStructure{Type: structures.Ore}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("ticking a closed session should panic")
		}
	}()
	s.AdvanceFrameCount()
}

func TestRegisteredSimResets(t *testing.T) {
	factory, ok := core.Sims()[Name]
	if !ok {
		t.Fatal("session should register itself")
	}
	sim := factory(map[string]string{
		"step_ms":          "0",
		"seed_patch_count": "0",
		"initial_ore":      "5",
		"initial_water":    "2",
		"w":                "64",
		"h":                "64",
	})
	closer, ok := sim.(core.Closer)
	if !ok {
		t.Fatal("session owns a worker and must be closable")
	}
	defer closer.Close()

	if size := sim.Size(); size.W != 64 || size.H != 64 {
		t.Fatalf("expected 64x64, got %+v", size)
	}
	if len(sim.Cells()) != 64*64 {
		t.Fatalf("expected %d cells, got %d", 64*64, len(sim.Cells()))
	}
	s := sim.(*Session)
	if len(s.Structures()) != 7 {
		t.Fatalf("expected 7 scattered structures, got %d", len(s.Structures()))
	}
	s.Step()
	sim.Reset(99)
	if s.Frame() != 0 || len(s.Structures()) != 7 || s.Config().Seed != 99 {
		t.Fatalf("reset should rebuild from the new seed, frame=%d structures=%d seed=%d",
			s.Frame(), len(s.Structures()), s.Config().Seed)
	}
}

func TestParameterSetters(t *testing.T) {
	s := newTestSession(t, testConfig())
	if !s.SetIntParameter("mining_interval", 7) || s.Config().Params.MiningInterval != 7 {
		t.Fatal("expected mining interval updated")
	}
	if s.SetIntParameter("mining_interval", 0) {
		t.Fatal("zero mining interval must be rejected")
	}
	if s.SetIntParameter("damage_threshold", 256) {
		t.Fatal("threshold above 255 must be rejected")
	}
	if !s.SetFloatParameter("damage_per_second", 12.5) || s.Config().Params.DamagePerSecond != 12.5 {
		t.Fatal("expected damage rate updated")
	}
	if s.SetFloatParameter("nope", 1) || s.SetIntParameter("nope", 1) {
		t.Fatal("unknown keys must be rejected")
	}

	found := false
	for _, group := range s.Parameters().Groups {
		for _, p := range group.Params {
			if p.Key == "mining_interval" && p.Value == "7" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("snapshot should reflect the updated interval")
	}
}
