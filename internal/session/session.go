package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"blight/internal/core"
	"blight/internal/pipes"
	"blight/internal/structures"
	"blight/internal/terrain"
)

var (
	// ErrUnknownStructure reports a request that names a structure the
	// session does not hold.
	ErrUnknownStructure = errors.New("session: unknown structure")
	// ErrSelfPipe reports a pipe request whose endpoints are the same.
	ErrSelfPipe = errors.New("session: pipe endpoints must differ")
	// ErrClosed reports a call after Close.
	ErrClosed = errors.New("session: closed")
)

// Session ties the blight field, the structures standing on it and the pipe
// network together. It is driven from a single goroutine; only the terrain
// dilation runs in the background.
type Session struct {
	cfg  Config
	log  *slog.Logger
	proj Projection

	seq      *core.IDSequence
	terrain  *terrain.Simulator
	registry *structures.Registry
	network  *pipes.Network
	power    pipes.PowerState

	frame     uint64
	lastMined uint64
	hasMined  bool
	totalOre  int
	closed    bool
}

// New builds a session, seeds the initial blight and starts the terrain
// worker. Close must be called to stop it.
func New(cfg Config) *Session {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		def := DefaultConfig()
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Params.MiningInterval <= 0 {
		cfg.Params.MiningInterval = 1
	}
	s := &Session{cfg: cfg, log: cfg.Logger.With("component", "session")}
	s.build()
	return s
}

func (s *Session) build() {
	cfg := s.cfg
	s.proj = CenteredProjection(cfg.Width, cfg.Height, cfg.CellsPerUnit)
	s.seq = core.NewIDSequence()
	s.registry = structures.NewRegistry(s.seq, cfg.Params.StructureHealth)
	s.network = pipes.NewNetwork(s.seq)
	s.power = pipes.PowerState{}
	s.frame, s.lastMined, s.hasMined, s.totalOre = 0, 0, false, 0

	initial := terrain.NewGrid(cfg.Width, cfg.Height)
	s.seedPatches(initial, core.NewRNG(cfg.Seed))
	s.terrain = terrain.NewSimulator(initial, terrain.SimulatorConfig{
		Interval: cfg.StepInterval,
		Selector: terrain.NewNoiseSelector(cfg.Seed, cfg.NoiseScale),
		Logger:   cfg.Logger,
	})
	s.closed = false
	rng := core.NewRNG(cfg.Seed ^ 0x5eed)
	for _, batch := range []struct {
		n int
		t structures.Type
	}{
		{cfg.Params.InitialWater, structures.Water},
		{cfg.Params.InitialOre, structures.Ore},
	} {
		if batch.n == 0 {
			continue
		}
		if _, err := s.Scatter(batch.n, batch.t, rng.Int64()); err != nil {
			panic(err)
		}
	}
	s.log.Info("session started",
		"w", cfg.Width, "h", cfg.Height, "seed", cfg.Seed,
		"seed_patches", cfg.Params.SeedPatchCount, "step", cfg.StepInterval)
}

func (s *Session) seedPatches(g *terrain.Grid, rng *core.RNG) {
	p := s.cfg.Params
	for i := 0; i < p.SeedPatchCount; i++ {
		row := rng.IntN(g.Height())
		col := rng.IntN(g.Width())
		r := p.SeedPatchRadiusMin + rng.IntN(p.SeedPatchRadiusMax-p.SeedPatchRadiusMin+1)
		g.FillShape(terrain.NewCircle(row, col, r), terrain.Blight)
	}
}

func (s *Session) mustOpen(op string) {
	if s.closed {
		panic(fmt.Sprintf("session: %s after Close", op))
	}
}

// AdvanceFrameCount counts a frame and adopts a newly published grid if
// the worker has one. It returns nil when the texture is unchanged.
func (s *Session) AdvanceFrameCount() *TerrainUpdated {
	s.mustOpen("AdvanceFrameCount")
	s.frame++
	if !s.terrain.TryAdvance() {
		return nil
	}
	return s.terrainUpdated()
}

// AwaitTerrain blocks until the next grid is published. Headless drivers
// use it in place of AdvanceFrameCount.
func (s *Session) AwaitTerrain(ctx context.Context) (*TerrainUpdated, error) {
	s.mustOpen("AwaitTerrain")
	s.frame++
	if err := s.terrain.Await(ctx); err != nil {
		return nil, err
	}
	return s.terrainUpdated(), nil
}

func (s *Session) terrainUpdated() *TerrainUpdated {
	return &TerrainUpdated{Generation: s.terrain.Generation(), Cells: s.terrain.Cells()}
}

// UpdateBlight runs one blight pass: powered cleaners queue clean paint,
// every structure with a damage radius takes damage from the blight under
// it, and structures at zero health are removed with their pipes. Cleaning
// is queued before damage is read and lands on the grid after the next
// publish, so a structure dying now still cleaned this frame. Dead
// structures never clean.
func (s *Session) UpdateBlight(dt float64) *BlightUpdated {
	s.mustOpen("UpdateBlight")
	p := s.cfg.Params

	s.registry.Each(func(st structures.Structure) {
		cr := st.Type.CleanRadius()
		if cr <= 0 || !st.Powered || !st.Alive() {
			return
		}
		s.terrain.RequestPaint(s.proj.Circle(st.Position, cr), terrain.Clean)
	})

	if dt > 0 {
		s.registry.Each(func(st structures.Structure) {
			dr := st.Type.DamageRadius()
			if dr <= 0 || !st.Alive() {
				return
			}
			disk := s.proj.Circle(st.Position, dr)
			if !disk.Overlaps(s.cfg.Width, s.cfg.Height) {
				// No blight exists off the grid.
				return
			}
			avg := s.terrain.QueryAverage(disk)
			if int(avg) <= p.DamageThreshold {
				return
			}
			s.registry.DealDamage(st.ID, dt*p.DamagePerSecond*float64(avg)/256)
		})
	}

	dead := s.registry.Dead()
	if len(dead) == 0 {
		return nil
	}
	res := &BlightUpdated{RemovedStructureIDs: dead}
	for _, id := range dead {
		res.RemovedPipeIDs = append(res.RemovedPipeIDs, s.removeStructure(id)...)
	}
	res.PowerChanged = s.recomputePower()
	s.log.Info("structures destroyed by blight",
		"frame", s.frame, "structures", len(dead), "pipes", len(res.RemovedPipeIDs))
	return res
}

func (s *Session) removeStructure(id int64) []int64 {
	s.registry.Remove(id)
	return s.network.PruneStructure(id)
}

// UpdateAmounts runs a mining pass once every MiningInterval frames. Each
// powered irrigator mines the ore in its clean radius and debits the water
// source that powers it. A source running dry triggers a power recompute.
// It returns nil off-cadence or when nothing moved.
func (s *Session) UpdateAmounts() *AmountsUpdated {
	s.mustOpen("UpdateAmounts")
	p := s.cfg.Params
	if s.frame%uint64(p.MiningInterval) != 0 {
		return nil
	}
	if s.hasMined && s.lastMined == s.frame {
		return nil
	}
	s.hasMined, s.lastMined = true, s.frame

	res := &AmountsUpdated{WaterRemaining: make(map[int64]int)}
	for _, id := range s.power.PoweredIDs() {
		st, ok := s.registry.Get(id)
		if !ok || st.Type != structures.Irrigation || !st.Powered {
			continue
		}
		for _, oid := range s.registry.QueryRadius(st.Position, st.Type.CleanRadius()) {
			ore := s.registry.MustGet(oid)
			if ore.Type != structures.Ore || ore.Amount == 0 {
				continue
			}
			mined, _ := s.registry.Mine(oid, p.OreMinePerTick)
			if mined == 0 {
				continue
			}
			s.totalOre += mined
			res.AnimatedPositions = append(res.AnimatedPositions, ore.Position)
			res.AnimatedDiffs = append(res.AnimatedDiffs, mined)
		}

		src, ok := s.power.SourceOf[id]
		if !ok {
			continue
		}
		if _, exists := s.registry.Get(src); !exists {
			continue
		}
		before := s.registry.MustGet(src).Amount
		_, remaining := s.registry.Mine(src, p.WaterDebitPerTick)
		res.WaterRemaining[src] = remaining
		if before > 0 && remaining == 0 {
			res.DepletedIDs = append(res.DepletedIDs, src)
		}
	}

	if len(res.DepletedIDs) > 0 {
		res.PowerChanged = s.recomputePower()
		s.log.Info("water sources depleted", "frame", s.frame, "ids", res.DepletedIDs)
	}
	if len(res.AnimatedDiffs) == 0 && len(res.WaterRemaining) == 0 {
		return nil
	}
	res.TotalOre = s.totalOre
	return res
}

// recomputePower rebuilds the power state from the current registry and
// network and syncs each structure's Powered flag. It reports whether any
// flag changed.
func (s *Session) recomputePower() bool {
	nodes := make([]pipes.Node, 0, s.registry.Len())
	s.registry.Each(func(st structures.Structure) {
		nodes = append(nodes, pipes.Node{
			ID:        st.ID,
			Source:    st.IsSource(),
			Powerable: st.Type.CanBePowered(),
		})
	})
	prev := s.power.Powered
	s.power = s.network.Recompute(nodes)

	for _, n := range nodes {
		if !n.Powerable {
			continue
		}
		if want := s.power.IsPowered(n.ID); s.registry.MustGet(n.ID).Powered != want {
			s.registry.SetPowered(n.ID, want)
		}
	}
	return !maps.Equal(prev, s.power.Powered)
}

// AddStructure places a structure and optionally pipes it to an existing
// one.
func (s *Session) AddStructure(req AddStructure) (AddStructureResult, error) {
	if s.closed {
		return AddStructureResult{}, ErrClosed
	}
	if !req.Type.Valid() {
		return AddStructureResult{}, fmt.Errorf("%w: %d", structures.ErrUnknownType, req.Type)
	}
	if req.PipeFrom != 0 {
		if _, ok := s.registry.Get(req.PipeFrom); !ok {
			return AddStructureResult{}, fmt.Errorf("%w: pipe from %d", ErrUnknownStructure, req.PipeFrom)
		}
	}
	id := s.registry.Place(req.Type, req.Position)
	res := AddStructureResult{ID: id}
	if req.PipeFrom != 0 {
		pipe, _ := s.network.Add(req.PipeFrom, id)
		res.PipeID = pipe.ID
		res.PowerChanged = s.recomputePower()
	}
	s.log.Debug("structure placed", "id", id, "type", req.Type, "x", req.Position.X, "y", req.Position.Y)
	return res, nil
}

// AddPipe connects two existing structures. Connecting an already
// connected pair returns the existing pipe.
func (s *Session) AddPipe(a, b int64) (pipes.Pipe, error) {
	if s.closed {
		return pipes.Pipe{}, ErrClosed
	}
	if a == b {
		return pipes.Pipe{}, fmt.Errorf("%w: %d", ErrSelfPipe, a)
	}
	for _, id := range []int64{a, b} {
		if _, ok := s.registry.Get(id); !ok {
			return pipes.Pipe{}, fmt.Errorf("%w: %d", ErrUnknownStructure, id)
		}
	}
	pipe, added := s.network.Add(a, b)
	if added {
		s.recomputePower()
	}
	return pipe, nil
}

// RemovePipe deletes a pipe by ID and reports whether it existed.
func (s *Session) RemovePipe(pipeID int64) bool {
	s.mustOpen("RemovePipe")
	if !s.network.Remove(pipeID) {
		return false
	}
	s.recomputePower()
	return true
}

// RemoveStructure demolishes a structure and its pipes. It returns nil
// when id is unknown.
func (s *Session) RemoveStructure(id int64) *BlightUpdated {
	s.mustOpen("RemoveStructure")
	if _, ok := s.registry.Get(id); !ok {
		return nil
	}
	res := &BlightUpdated{
		RemovedStructureIDs: []int64{id},
		RemovedPipeIDs:      s.removeStructure(id),
	}
	res.PowerChanged = s.recomputePower()
	return res
}

// QueryEffectRadius lists the other structures inside id's clean radius.
// It returns nil for types without one and panics when id is unknown.
func (s *Session) QueryEffectRadius(id int64) *QueryResult {
	st := s.registry.MustGet(id)
	cr := st.Type.CleanRadius()
	if cr <= 0 {
		return nil
	}
	res := &QueryResult{Radius: cr, AffectedIDs: []int64{}}
	for _, other := range s.registry.QueryRadius(st.Position, cr) {
		if other != id {
			res.AffectedIDs = append(res.AffectedIDs, other)
		}
	}
	return res
}

// Scatter places n structures of type t at random positions inside the
// configured extent using the registry's bulk loader.
func (s *Session) Scatter(n int, t structures.Type, seed int64) ([]int64, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", structures.ErrUnknownType, t)
	}
	positions := core.NewRNG(seed).Positions(n, s.cfg.Params.ScatterExtent)
	batch := make([]structures.Structure, len(positions))
	ids := make([]int64, len(positions))
	for i, pos := range positions {
		ids[i] = s.seq.Next()
		batch[i] = structures.New(ids[i], t, pos, s.cfg.Params.StructureHealth)
	}
	if err := s.registry.BulkLoad(batch); err != nil {
		return nil, fmt.Errorf("scatter %s: %w", t, err)
	}
	return ids, nil
}

// Tick runs the three per-frame entry points in order.
func (s *Session) Tick(dt float64) TickResult {
	return TickResult{
		Terrain: s.AdvanceFrameCount(),
		Blight:  s.UpdateBlight(dt),
		Amounts: s.UpdateAmounts(),
	}
}

// Close stops the terrain worker. Later calls are no-ops.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.terrain.Shutdown()
	s.closed = true
	s.log.Info("session closed", "frames", s.frame, "total_ore", s.totalOre)
}

// Texture returns the current grid bytes, row-major.
func (s *Session) Texture() []uint8 { return s.terrain.Cells() }

// Generation returns the number of adopted terrain grids.
func (s *Session) Generation() uint64 { return s.terrain.Generation() }

// Frame returns the frame counter.
func (s *Session) Frame() uint64 { return s.frame }

// TotalOre returns the ore mined so far.
func (s *Session) TotalOre() int { return s.totalOre }

// Power returns the last computed power state.
func (s *Session) Power() pipes.PowerState { return s.power }

// Structure returns a copy of one structure.
func (s *Session) Structure(id int64) (structures.Structure, bool) { return s.registry.Get(id) }

// Structures returns copies of every structure in ID order.
func (s *Session) Structures() []structures.Structure {
	out := make([]structures.Structure, 0, s.registry.Len())
	s.registry.Each(func(st structures.Structure) { out = append(out, st) })
	return out
}

// Pipes returns the pipe edge list.
func (s *Session) Pipes() []pipes.Pipe { return s.network.Pipes() }

// Projection returns the world-to-grid mapping.
func (s *Session) Projection() Projection { return s.proj }

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }
