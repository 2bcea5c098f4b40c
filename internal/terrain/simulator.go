package terrain

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultStepInterval is the pacing of the background dilation loop.
const DefaultStepInterval = 500 * time.Millisecond

// PaintBatch coalesces paint commands keyed by shape. Setting a shape twice
// keeps the last value but the first insertion position, so a batch always
// applies in a deterministic order.
type PaintBatch struct {
	order  []Shape
	values map[Shape]uint8
}

// NewPaintBatch returns an empty batch.
func NewPaintBatch() *PaintBatch {
	return &PaintBatch{values: make(map[Shape]uint8)}
}

// Set records value for shape.
func (b *PaintBatch) Set(s Shape, value uint8) {
	if _, ok := b.values[s]; !ok {
		b.order = append(b.order, s)
	}
	b.values[s] = value
}

// Len returns the number of distinct shapes in the batch.
func (b *PaintBatch) Len() int { return len(b.order) }

// Value returns the value recorded for s.
func (b *PaintBatch) Value(s Shape) (uint8, bool) {
	v, ok := b.values[s]
	return v, ok
}

// ApplyTo paints every command onto g in insertion order.
func (b *PaintBatch) ApplyTo(g *Grid) {
	for _, s := range b.order {
		g.FillShape(s, b.values[s])
	}
}

// SimulatorConfig tunes the background loop.
type SimulatorConfig struct {
	// Interval paces the loop; zero runs steps back to back.
	Interval time.Duration
	Selector KernelSelector
	Logger   *slog.Logger
}

// Simulator owns a read buffer for the caller and a write buffer for a
// background worker. The two sides only exchange values over channels: the
// caller hands over paint batches, the worker hands back finished grids.
//
// At most one batch and one grid are in flight at any time, so the
// capacity-one channels never block the caller.
type Simulator struct {
	current    *Grid
	pending    *PaintBatch
	generation uint64

	batches   chan *PaintBatch
	published chan *Grid
	quit      chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup
	stopped  bool

	log *slog.Logger
}

// NewSimulator starts the background loop from a copy of initial.
func NewSimulator(initial *Grid, cfg SimulatorConfig) *Simulator {
	if cfg.Selector == nil {
		cfg.Selector = FixedSelector(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Simulator{
		current:   initial.Clone(),
		pending:   NewPaintBatch(),
		batches:   make(chan *PaintBatch, 1),
		published: make(chan *Grid, 1),
		quit:      make(chan struct{}),
		log:       cfg.Logger,
	}
	// Prime the worker so the first cycle runs without a caller flush.
	s.batches <- NewPaintBatch()
	s.wg.Add(1)
	go s.workerLoop(initial.Clone(), cfg.Selector, cfg.Interval)
	return s
}

func (s *Simulator) workerLoop(write *Grid, sel KernelSelector, interval time.Duration) {
	defer s.wg.Done()

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	advancer, _ := sel.(interface{ Advance() })

	for {
		var batch *PaintBatch
		select {
		case <-s.quit:
			return
		case b, ok := <-s.batches:
			if !ok {
				panic("terrain: paint channel closed while the worker is running")
			}
			batch = b
		}

		if tick != nil {
			select {
			case <-s.quit:
				return
			case <-tick:
			}
		}

		started := time.Now()
		batch.ApplyTo(write)
		write = write.Dilate(sel)
		if advancer != nil {
			advancer.Advance()
		}
		s.log.Debug("terrain step", "paints", batch.Len(), "took", time.Since(started))

		select {
		case <-s.quit:
			return
		case s.published <- write.Clone():
		}
	}
}

// RequestPaint queues a paint command for the next flush. It is not visible
// to QueryAverage until a later step publishes it.
func (s *Simulator) RequestPaint(shape Shape, value uint8) {
	if s.stopped {
		panic("terrain: RequestPaint after Shutdown")
	}
	s.pending.Set(shape, value)
}

// Pending returns the number of distinct shapes waiting for the next flush.
func (s *Simulator) Pending() int { return s.pending.Len() }

// QueryAverage reads the last published grid.
func (s *Simulator) QueryAverage(shape Shape) uint8 {
	return s.current.QueryAverage(shape)
}

// TryAdvance swaps in a newly published grid, if any, and flushes the
// pending paint batch to the worker. It never blocks.
func (s *Simulator) TryAdvance() bool {
	if s.stopped {
		panic("terrain: TryAdvance after Shutdown")
	}
	select {
	case g, ok := <-s.published:
		if !ok {
			panic("terrain: publish channel closed while the worker is running")
		}
		s.adopt(g)
		return true
	default:
		return false
	}
}

// Await blocks until the worker publishes a grid or ctx is done, then
// behaves like a successful TryAdvance. Headless drivers use it to make
// runs independent of wall-clock pacing.
func (s *Simulator) Await(ctx context.Context) error {
	if s.stopped {
		panic("terrain: Await after Shutdown")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case g, ok := <-s.published:
		if !ok {
			panic("terrain: publish channel closed while the worker is running")
		}
		s.adopt(g)
		return nil
	}
}

func (s *Simulator) adopt(g *Grid) {
	s.current = g
	s.generation++
	// The worker drained its previous batch before publishing g.
	s.batches <- s.pending
	s.pending = NewPaintBatch()
}

// Shutdown stops the worker after its current cycle and waits for it to
// exit. Later calls are no-ops.
func (s *Simulator) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.wg.Wait()
		s.stopped = true
	})
}

// Cells returns the bytes of the current grid, row-major.
func (s *Simulator) Cells() []uint8 { return s.current.Cells() }

// Current returns the grid QueryAverage reads from.
func (s *Simulator) Current() *Grid { return s.current }

// Generation counts how many published grids the caller has adopted.
func (s *Simulator) Generation() uint64 { return s.generation }

// Size returns the grid dimensions.
func (s *Simulator) Size() (w, h int) { return s.current.w, s.current.h }
