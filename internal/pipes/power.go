package pipes

import "slices"

// Node is the power-relevant view of one structure.
type Node struct {
	ID int64
	// Source nodes root the traversal.
	Source bool
	// Powerable nodes are marked powered when reached.
	Powerable bool
}

// PowerState is the result of one propagation pass. It is derived data and
// goes stale as soon as a structure or pipe changes.
type PowerState struct {
	Powered      map[int64]bool
	PoweredPipes map[int64]bool
	// SourceOf maps each powered structure to the root that reached it.
	SourceOf map[int64]int64
}

// IsPowered reports whether id was reached.
func (s PowerState) IsPowered(id int64) bool { return s.Powered[id] }

// PoweredIDs returns the powered structure IDs, ascending.
func (s PowerState) PoweredIDs() []int64 { return sortedKeys(s.Powered) }

// PoweredPipeIDs returns the powered pipe IDs, ascending.
func (s PowerState) PoweredPipeIDs() []int64 { return sortedKeys(s.PoweredPipes) }

func sortedKeys(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

type adjacency struct {
	pipe     int64
	neighbor int64
}

// Recompute walks the pipe graph depth first from every source node, in the
// order the nodes are given. All roots share one visited set, so a
// structure reachable from two sources belongs to the first one. Pipes that
// reference IDs absent from nodes are ignored.
func (n *Network) Recompute(nodes []Node) PowerState {
	state := PowerState{
		Powered:      make(map[int64]bool),
		PoweredPipes: make(map[int64]bool),
		SourceOf:     make(map[int64]int64),
	}

	byID := make(map[int64]Node, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}
	adj := make(map[int64][]adjacency, len(nodes))
	for _, p := range n.pipes {
		_, okA := byID[p.A]
		_, okB := byID[p.B]
		if !okA || !okB {
			continue
		}
		adj[p.A] = append(adj[p.A], adjacency{pipe: p.ID, neighbor: p.B})
		adj[p.B] = append(adj[p.B], adjacency{pipe: p.ID, neighbor: p.A})
	}

	visited := make(map[int64]bool, len(nodes))
	var stack []int64
	for _, root := range nodes {
		if !root.Source || visited[root.ID] {
			continue
		}
		visited[root.ID] = true
		stack = append(stack[:0], root.ID)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if byID[cur].Powerable {
				state.Powered[cur] = true
				state.SourceOf[cur] = root.ID
			}
			edges := adj[cur]
			// Push in reverse so the first pipe is explored first.
			for i := len(edges) - 1; i >= 0; i-- {
				e := edges[i]
				state.PoweredPipes[e.pipe] = true
				if visited[e.neighbor] {
					continue
				}
				visited[e.neighbor] = true
				stack = append(stack, e.neighbor)
			}
		}
	}
	return state
}
