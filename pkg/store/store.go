// Package store wraps the generated ent client with the cross-cutting
// concerns the spec assigns to a single Store component: transactional
// writes with consistent error mapping, keyset pagination, hybrid
// full-text/vector search, and idempotent-replay bookkeeping. Individual
// entities are still created/queried through ent's own typed builders
// (pkg/memory, pkg/graph, pkg/consolidation hold a *Store and call
// store.Client().Handoff.Create()... directly) the same way the teacher's
// service layer calls client.AlertSession.Create() directly rather than
// routing through a generic untyped CRUD method.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/pkg/database"
)

// Store is the durable backing store for every memory entity.
type Store struct {
	db *database.Client
}

// New wraps an already-connected database client.
func New(db *database.Client) *Store {
	return &Store{db: db}
}

// Client exposes the generated ent client for typed, entity-specific
// queries. Callers MUST still go through Tx for multi-statement writes so
// invariants (decision supersession, edge cycle checks, idempotency
// recording) commit atomically.
func (s *Store) Client() *ent.Client {
	return s.db.Client
}

// Tx runs fn inside an ent transaction, mapping ent's own error types into
// the Store error taxonomy and rolling back on any error or panic.
// Read-your-writes is guaranteed because fn only ever sees tx.Client.
func (s *Store) Tx(ctx context.Context, fn func(ctx context.Context, tx *ent.Tx) error) error {
	tx, err := s.db.Client.Tx(ctx)
	if err != nil {
		return NewTemporaryUnavailable(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return MapEntError(err)
	}

	if err := tx.Commit(); err != nil {
		return MapEntError(err)
	}
	return nil
}

// MapEntError translates an ent-level error (or a context error) into the
// Store error taxonomy. Errors already in that taxonomy pass through
// unchanged so domain code can raise *Error directly inside a Tx callback.
func MapEntError(err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewDeadlineExceeded()
	}
	if errors.Is(err, context.Canceled) {
		return NewDeadlineExceeded()
	}

	if ent.IsNotFound(err) {
		return &Error{Code: CodeNotFound, Message: err.Error(), Err: err}
	}
	if ent.IsConstraintError(err) {
		return &Error{Code: CodeConflict, Message: err.Error(), Err: err}
	}
	if ent.IsValidationError(err) {
		return &Error{Code: CodeValidationError, Message: err.Error(), Err: err}
	}

	return NewPermanentError(fmt.Errorf("store: %w", err))
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
