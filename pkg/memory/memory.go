// Package memory implements MemoryOperations (spec §4.2): the core
// write/read verbs for handoffs, knowledge notes, capsules, decisions,
// and agent feedback.
//
// Every exported method takes tenantID explicitly as its first argument
// after ctx, rather than pulling it from a context.Context value — spec §9
// calls out "implicit request-scoped current tenant" as a pattern that
// needs re-architecting into an explicit, threaded value. MCPDispatcher is
// the only caller, and it resolves tenantID once per request from the
// verified bearer token.
//
// Grounded on pkg/services/session_service.go's shape: a single struct
// wrapping *store.Store, one method per verb, validate-then-Tx-then-return.
package memory

import (
	"context"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/nodeindex"
	"github.com/callin2/agent-memory-sub001/pkg/embedding"
	"github.com/callin2/agent-memory-sub001/pkg/events"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// Operations exposes every MemoryOperations verb from spec §4.2.
type Operations struct {
	store     *store.Store
	events    *events.Publisher
	embedPool *embedding.Pool
}

// New wires a MemoryOperations instance. embedPool may be nil in tests
// that don't care about async embedding (writes never fail because of it).
func New(st *store.Store, pub *events.Publisher, embedPool *embedding.Pool) *Operations {
	return &Operations{store: st, events: pub, embedPool: embedPool}
}

// enqueueEmbed asynchronously embeds text and stores the resulting vector
// via store, never blocking or failing the write path that called it
// (spec §9 "async embedding side effects on write").
func (o *Operations) enqueueEmbed(text string, store func(ctx context.Context, vec []float32) error) {
	if o.embedPool == nil || text == "" {
		return
	}
	o.embedPool.Enqueue(embedding.Request{Text: text, Store: store})
}

// registerNode inserts the node_index row GraphService.resolve_node relies
// on (spec §4.5) inside the same transaction as the entity's own creation,
// so a node is never addressable before it exists or vice versa.
func registerNode(ctx context.Context, tx *ent.Tx, tenantID, id string, kind nodeindex.Kind) error {
	return tx.NodeIndex.Create().
		SetID(id).
		SetTenantID(tenantID).
		SetKind(kind).
		Exec(ctx)
}
