package main

import (
	"context"
	"fmt"

	"blight/internal/core"
	"blight/internal/session"
	"blight/internal/structures"
	"blight/internal/terrain"

	"golang.org/x/sync/errgroup"
)

// scenario describes what each run builds on top of the scattered layout.
type scenario struct {
	frames      int
	irrigators  int
	pumps       int
	dt          float64
	keepTexture bool
}

type runResult struct {
	seed        int64
	frames      int
	generations uint64
	placed      int
	destroyed   int
	prunedPipes int
	depleted    int
	totalOre    int
	powered     int
	blighted    float64
	texture     []uint8
}

// runScenario plays one seeded session to completion. Terrain is awaited
// every frame so results do not depend on wall-clock pacing.
func runScenario(ctx context.Context, cfg session.Config, sc scenario) (runResult, error) {
	cfg.StepInterval = 0
	sess := session.New(cfg)
	defer sess.Close()

	res := runResult{seed: cfg.Seed}
	placed, err := placeConsumers(sess, sc, cfg.Seed)
	if err != nil {
		return res, err
	}
	res.placed = placed

	for frame := 0; frame < sc.frames; frame++ {
		if _, err := sess.AwaitTerrain(ctx); err != nil {
			return res, fmt.Errorf("seed %d frame %d: %w", cfg.Seed, frame, err)
		}
		if b := sess.UpdateBlight(sc.dt); b != nil {
			res.destroyed += len(b.RemovedStructureIDs)
			res.prunedPipes += len(b.RemovedPipeIDs)
		}
		if a := sess.UpdateAmounts(); a != nil {
			res.depleted += len(a.DepletedIDs)
		}
		res.frames++
	}

	res.generations = sess.Generation()
	res.totalOre = sess.TotalOre()
	res.powered = len(sess.Power().Powered)
	cells := sess.Texture()
	blighted := 0
	for _, c := range cells {
		if c == terrain.Blight {
			blighted++
		}
	}
	res.blighted = float64(blighted) / float64(len(cells))
	if sc.keepTexture {
		res.texture = append([]uint8(nil), cells...)
	}
	return res, nil
}

// placeConsumers drops irrigators and pumps at random and pipes each to
// the nearest water source, if there is one.
func placeConsumers(sess *session.Session, sc scenario, seed int64) (int, error) {
	var water []structures.Structure
	for _, st := range sess.Structures() {
		if st.Type == structures.Water {
			water = append(water, st)
		}
	}
	rng := core.NewRNG(seed)
	extent := sess.Config().Params.ScatterExtent
	placed := 0
	for _, batch := range []struct {
		n int
		t structures.Type
	}{{sc.irrigators, structures.Irrigation}, {sc.pumps, structures.Pump}} {
		for _, pos := range rng.Positions(batch.n, extent) {
			req := session.AddStructure{Position: pos, Type: batch.t}
			if src, ok := nearest(water, pos); ok {
				req.PipeFrom = src
			}
			if _, err := sess.AddStructure(req); err != nil {
				return placed, fmt.Errorf("place %s: %w", batch.t, err)
			}
			placed++
		}
	}
	return placed, nil
}

func nearest(candidates []structures.Structure, pos core.Vec2) (int64, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Position.DistanceSquared(pos) < best.Position.DistanceSquared(pos) {
			best = c
		}
	}
	return best.ID, true
}

// runAll fans the seeds out over a bounded errgroup. Results keep seed
// order regardless of completion order.
func runAll(ctx context.Context, base session.Config, sc scenario, runs, workers int) ([]runResult, error) {
	results := make([]runResult, runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := 0; i < runs; i++ {
		cfg := base
		cfg.Seed = base.Seed + int64(i)
		run := sc
		run.keepTexture = sc.keepTexture && i == 0
		g.Go(func() error {
			res, err := runScenario(ctx, cfg, run)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
