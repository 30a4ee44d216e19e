// Package graph implements GraphService (spec §4.5): a uniform,
// typed-edge view over knowledge notes, tasks-as-notes, agent feedback,
// and capsules — the "cross-type polymorphic nodes" pattern re-architected
// (spec §9) into resolve_node dispatching on the node_index registry
// instead of runtime type probing.
//
// New code: the teacher has no graph-shaped component. Grounded in its
// idiom regardless — context-first functions, a *store.Store-backed
// struct, typed errors from pkg/store — per the "rewrite in the teacher's
// manner where it doesn't fit" rule.
package graph

import (
	"context"

	"github.com/callin2/agent-memory-sub001/pkg/events"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// Direction selects which side of an edge a node-relative query follows.
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// MaxTraverseDepth is the cap spec §4.5/§6.2 place on traverse: "depth ≤ 5".
const MaxTraverseDepth = 5

// Service implements every GraphService verb.
type Service struct {
	store  *store.Store
	events *events.Publisher
}

// New wires a GraphService instance.
func New(st *store.Store, pub *events.Publisher) *Service {
	return &Service{store: st, events: pub}
}
