package graph

import (
	"context"

	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// TraverseHop is one entry of a breadth-first traversal result: the node
// reached, the edge that reached it, and its distance from the start
// (spec §4.5 "returns flat list of {node, edge, depth} with depth >= 1").
type TraverseHop struct {
	NodeID string
	Edge   EdgeView
	Depth  int
}

// Traverse walks the graph breadth-first from nodeID, following edges of
// typeFilter (or every type when empty) in direction, up to depth hops.
// Path-tracking across the whole walk — not just per-type — prevents
// cycles even when a walk crosses between parent_of and depends_on edges
// in the same traversal (spec §4.5).
func (s *Service) Traverse(ctx context.Context, tenantID, nodeID string, direction Direction, typeFilter string, depth int) ([]TraverseHop, error) {
	if depth < 1 || depth > MaxTraverseDepth {
		return nil, store.NewValidationError("depth", "must be between 1 and 5")
	}

	visited := map[string]bool{nodeID: true}
	frontier := []string{nodeID}
	var out []TraverseHop

	for d := 1; d <= depth; d++ {
		var next []string
		for _, n := range frontier {
			edges, err := s.GetEdges(ctx, tenantID, n, direction, typeFilter)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				other := e.ToNodeID
				if other == n {
					other = e.FromNodeID
				}
				if visited[other] {
					continue
				}
				visited[other] = true
				out = append(out, TraverseHop{NodeID: other, Edge: e, Depth: d})
				next = append(next, other)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	return out, nil
}
