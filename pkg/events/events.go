// Package events implements the observability trail every mutating
// MemoryOperations call appends (spec §4.2 "Side effects": every mutating
// op appends an event record {tenant_id, kind, subject_id, created_at}).
//
// This is a deliberate cut-down of the teacher's pkg/events/publisher.go:
// the teacher's EventPublisher also drives a websocket ConnectionManager
// and Postgres LISTEN/NOTIFY fan-out for a live dashboard. spec.md places
// "streaming subscriptions" and dashboards out of scope (§1), so only the
// persistence half survives — see DESIGN.md.
package events

import (
	"context"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/google/uuid"
)

// Publisher appends event rows inside the same transaction as the mutation
// it records, so an event is never observed without its corresponding
// write having committed.
type Publisher struct{}

// NewPublisher constructs a Publisher. It holds no state: every call takes
// the active *ent.Tx explicitly so event emission always shares the
// mutation's transaction (spec §4.2).
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish appends one event row for (tenantID, kind, subjectID) inside tx.
func (p *Publisher) Publish(ctx context.Context, tx *ent.Tx, tenantID, kind, subjectID string) error {
	return tx.Event.Create().
		SetID("evt_" + uuid.NewString()).
		SetTenantID(tenantID).
		SetKind(kind).
		SetSubjectID(subjectID).
		Exec(ctx)
}
