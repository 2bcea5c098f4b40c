package structures

import (
	"errors"
	"fmt"
	"slices"

	"blight/internal/core"

	"github.com/dhconnelly/rtreego"
)

// DefaultHealth is the starting health of a placed structure.
const DefaultHealth = 100.0

// ErrDuplicateID reports an Insert whose ID is already registered.
var ErrDuplicateID = errors.New("structures: duplicate id")

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	// pointTolerance gives point entries a non-degenerate envelope.
	pointTolerance = 1e-9
)

// Structure is a placed building and its mutable state.
type Structure struct {
	ID       int64
	Type     Type
	Position core.Vec2
	Health   float64
	Powered  bool
	// Amount is the remaining resource. Only meaningful when
	// Type.HasAmount().
	Amount int
}

// New returns a structure with the defaults its type prescribes.
func New(id int64, t Type, pos core.Vec2, health float64) Structure {
	tr := t.Traits()
	return Structure{
		ID:       id,
		Type:     t,
		Position: pos,
		Health:   health,
		Powered:  tr.InitialPowered,
		Amount:   tr.InitialAmount,
	}
}

// Alive reports whether health is still positive.
func (s Structure) Alive() bool { return s.Health > 0 }

// IsSource reports whether s currently roots the power graph.
func (s Structure) IsSource() bool {
	return s.Type.Traits().Source && s.Amount > 0
}

// indexEntry is what the R-tree stores: identity and position only. It is a
// comparable value so Delete can match it.
type indexEntry struct {
	id   int64
	x, y float64
}

func (e indexEntry) Bounds() rtreego.Rect {
	return rtreego.Point{e.x, e.y}.ToRect(pointTolerance)
}

func entryFor(s *Structure) indexEntry {
	return indexEntry{id: s.ID, x: s.Position.X, y: s.Position.Y}
}

// Registry is the authoritative table of live structures backed by an
// R-tree for radius queries. The table and the index always hold the same
// ID set when a public method returns.
type Registry struct {
	seq    *core.IDSequence
	health float64
	byID   map[int64]*Structure
	index  *rtreego.Rtree
}

// NewRegistry returns an empty registry drawing IDs from seq. A
// non-positive health falls back to DefaultHealth.
func NewRegistry(seq *core.IDSequence, health float64) *Registry {
	if seq == nil {
		seq = core.NewIDSequence()
	}
	if health <= 0 {
		health = DefaultHealth
	}
	return &Registry{
		seq:    seq,
		health: health,
		byID:   make(map[int64]*Structure),
		index:  rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren),
	}
}

// Place registers a new structure of type t at pos and returns its ID.
func (r *Registry) Place(t Type, pos core.Vec2) int64 {
	if !t.Valid() {
		panic(fmt.Sprintf("structures: Place with unknown type %d", t))
	}
	id := r.seq.Next()
	s := New(id, t, pos, r.health)
	r.byID[id] = &s
	r.index.Insert(entryFor(&s))
	return id
}

// Insert registers a structure with a caller-assigned ID.
func (r *Registry) Insert(s Structure) error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownType, s.Type)
	}
	if _, ok := r.byID[s.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, s.ID)
	}
	r.seq.Observe(s.ID)
	r.byID[s.ID] = &s
	r.index.Insert(entryFor(&s))
	return nil
}

// BulkLoad adds many structures at once and rebuilds the index with the
// R-tree bulk loader. Nothing is added when any entry is rejected.
func (r *Registry) BulkLoad(batch []Structure) error {
	seen := make(map[int64]bool, len(batch))
	for _, s := range batch {
		if !s.Type.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownType, s.Type)
		}
		if _, ok := r.byID[s.ID]; ok || seen[s.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, s.ID)
		}
		seen[s.ID] = true
	}
	for i := range batch {
		s := batch[i]
		r.seq.Observe(s.ID)
		r.byID[s.ID] = &s
	}
	r.rebuildIndex()
	return nil
}

func (r *Registry) rebuildIndex() {
	entries := make([]rtreego.Spatial, 0, len(r.byID))
	for _, id := range r.IDs() {
		entries = append(entries, entryFor(r.byID[id]))
	}
	r.index = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, entries...)
}

// Get returns a copy of the structure with the given ID.
func (r *Registry) Get(id int64) (Structure, bool) {
	s, ok := r.byID[id]
	if !ok {
		return Structure{}, false
	}
	return *s, true
}

// MustGet is Get for callers that know the ID is live.
func (r *Registry) MustGet(id int64) Structure {
	return *r.mustLookup(id, "MustGet")
}

func (r *Registry) mustLookup(id int64, op string) *Structure {
	s, ok := r.byID[id]
	if !ok {
		panic(fmt.Sprintf("structures: %s on %d: no such structure", op, id))
	}
	return s
}

// QueryRadius returns the IDs of structures strictly inside the circle,
// ascending. The R-tree narrows the search to the bounding square first.
func (r *Registry) QueryRadius(center core.Vec2, radius float64) []int64 {
	if radius <= 0 || len(r.byID) == 0 {
		return nil
	}
	box, err := rtreego.NewRect(
		rtreego.Point{center.X - radius, center.Y - radius},
		[]float64{2 * radius, 2 * radius},
	)
	if err != nil {
		return nil
	}
	r2 := radius * radius
	var ids []int64
	for _, hit := range r.index.SearchIntersect(box) {
		e := hit.(indexEntry)
		if center.DistanceSquared(core.Vec2{X: e.x, Y: e.y}) < r2 {
			ids = append(ids, e.id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Remove deletes a structure from the table and the index. Pipes that
// reference it are the pipe network's business.
func (r *Registry) Remove(id int64) bool {
	s, ok := r.byID[id]
	if !ok {
		return false
	}
	if !r.index.Delete(entryFor(s)) {
		panic(fmt.Sprintf("structures: index lost entry for %d", id))
	}
	delete(r.byID, id)
	return true
}

// Move relocates a structure. The index holds positions by value, so the
// old entry is removed and a fresh one inserted.
func (r *Registry) Move(id int64, pos core.Vec2) {
	s := r.mustLookup(id, "Move")
	if !r.index.Delete(entryFor(s)) {
		panic(fmt.Sprintf("structures: index lost entry for %d", id))
	}
	s.Position = pos
	r.index.Insert(entryFor(s))
}

// Mine takes up to amount from the structure's remaining resource and
// returns what was actually taken and what is left.
func (r *Registry) Mine(id int64, amount int) (mined, remaining int) {
	s := r.mustLookup(id, "Mine")
	if !s.Type.HasAmount() {
		panic(fmt.Sprintf("structures: Mine on %s %d: type has no amount", s.Type, id))
	}
	if amount < 0 {
		amount = 0
	}
	mined = min(amount, s.Amount)
	s.Amount -= mined
	return mined, s.Amount
}

// DealDamage lowers the structure's health.
func (r *Registry) DealDamage(id int64, amount float64) {
	s := r.mustLookup(id, "DealDamage")
	if s.Type.DamageRadius() == 0 {
		panic(fmt.Sprintf("structures: DealDamage on %s %d: type has no damage radius", s.Type, id))
	}
	s.Health -= amount
}

// SetPowered updates the power flag.
func (r *Registry) SetPowered(id int64, powered bool) {
	s := r.mustLookup(id, "SetPowered")
	if !s.Type.CanBePowered() {
		panic(fmt.Sprintf("structures: SetPowered on %s %d: type cannot be powered", s.Type, id))
	}
	s.Powered = powered
}

// Dead returns the IDs of structures whose health dropped to zero or below,
// ascending.
func (r *Registry) Dead() []int64 {
	var ids []int64
	for id, s := range r.byID {
		if !s.Alive() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// IDs returns every live ID, ascending.
func (r *Registry) IDs() []int64 {
	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Each calls fn with a copy of every structure in ascending ID order.
func (r *Registry) Each(fn func(Structure)) {
	for _, id := range r.IDs() {
		fn(*r.byID[id])
	}
}

// Len returns the number of live structures.
func (r *Registry) Len() int { return len(r.byID) }

// IndexLen returns the number of entries in the spatial index.
func (r *Registry) IndexLen() int { return r.index.Size() }
