package pipes

import (
	"fmt"
	"slices"

	"blight/internal/core"
)

// Pipe is an undirected connection between two structures. Endpoints are
// stored in canonical (min, max) order.
type Pipe struct {
	ID   int64
	A, B int64
}

// NewPipe canonicalizes the endpoints. It panics when the pipe would loop
// onto one structure or reuse an endpoint's ID.
func NewPipe(id, a, b int64) Pipe {
	if a == b {
		panic(fmt.Sprintf("pipes: pipe %d connects structure %d to itself", id, a))
	}
	if id == a || id == b {
		panic(fmt.Sprintf("pipes: pipe id %d collides with an endpoint", id))
	}
	return Pipe{ID: id, A: min(a, b), B: max(a, b)}
}

// SameConnection reports whether p and o join the same pair of structures.
func (p Pipe) SameConnection(o Pipe) bool { return p.A == o.A && p.B == o.B }

// Touches reports whether the pipe has id as an endpoint.
func (p Pipe) Touches(id int64) bool { return p.A == id || p.B == id }

// Other returns the endpoint opposite id.
func (p Pipe) Other(id int64) int64 {
	if p.A == id {
		return p.B
	}
	return p.A
}

// Network is the edge list of the pipe graph in insertion order.
type Network struct {
	seq   *core.IDSequence
	pipes []Pipe
}

// NewNetwork returns an empty network drawing pipe IDs from seq.
func NewNetwork(seq *core.IDSequence) *Network {
	if seq == nil {
		seq = core.NewIDSequence()
	}
	return &Network{seq: seq}
}

// Add connects a and b. When the pair is already connected the existing
// pipe is returned with added=false.
func (n *Network) Add(a, b int64) (p Pipe, added bool) {
	if a == b {
		panic(fmt.Sprintf("pipes: Add connects structure %d to itself", a))
	}
	lo, hi := min(a, b), max(a, b)
	for _, existing := range n.pipes {
		if existing.A == lo && existing.B == hi {
			return existing, false
		}
	}
	p = NewPipe(n.seq.Next(), a, b)
	n.pipes = append(n.pipes, p)
	return p, true
}

// Remove deletes a pipe by ID.
func (n *Network) Remove(pipeID int64) bool {
	i := slices.IndexFunc(n.pipes, func(p Pipe) bool { return p.ID == pipeID })
	if i < 0 {
		return false
	}
	n.pipes = slices.Delete(n.pipes, i, i+1)
	return true
}

// PruneStructure removes every pipe touching id and returns their IDs in
// insertion order. The result is empty when no pipe referenced id.
func (n *Network) PruneStructure(id int64) []int64 {
	var removed []int64
	kept := n.pipes[:0]
	for _, p := range n.pipes {
		if p.Touches(id) {
			removed = append(removed, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	clear(n.pipes[len(kept):])
	n.pipes = kept
	return removed
}

// Connected reports whether a pipe joins a and b.
func (n *Network) Connected(a, b int64) bool {
	lo, hi := min(a, b), max(a, b)
	return slices.ContainsFunc(n.pipes, func(p Pipe) bool { return p.A == lo && p.B == hi })
}

// Get returns the pipe with the given ID.
func (n *Network) Get(pipeID int64) (Pipe, bool) {
	i := slices.IndexFunc(n.pipes, func(p Pipe) bool { return p.ID == pipeID })
	if i < 0 {
		return Pipe{}, false
	}
	return n.pipes[i], true
}

// Pipes returns a copy of the edge list.
func (n *Network) Pipes() []Pipe { return slices.Clone(n.pipes) }

// Len returns the number of pipes.
func (n *Network) Len() int { return len(n.pipes) }
