package store

import (
	"context"
	"time"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/idempotency"
)

// IdempotencyTTL is the minimum retention window for op_id records
// (spec §4.7 "TTL >= 24h"). ent has no row-TTL primitive; rows are only
// deleted when ReapIdempotency is called, and nothing in this module calls
// it, so records are kept indefinitely.
const IdempotencyTTL = 24 * time.Hour

// CheckIdempotency looks up a previously recorded result for op_id. The
// second return value is false when no record exists, meaning the caller
// should execute the operation normally.
func (s *Store) CheckIdempotency(ctx context.Context, tenantID, opID string) (*ent.Idempotency, bool, error) {
	rec, err := s.db.Client.Idempotency.Query().
		Where(idempotency.ID(opID), idempotency.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, MapEntError(err)
	}
	return rec, true, nil
}

// RecordIdempotency persists the result of a mutating call so a replay of
// the same op_id short-circuits to the stored result (spec §4.7/§8
// "Idempotency"). Must be called inside the same transaction as the
// mutation it records, so a crash between the two never happens.
func RecordIdempotency(ctx context.Context, tx *ent.Tx, tenantID, opID, resultRef string, snapshot map[string]any) error {
	err := tx.Idempotency.Create().
		SetID(opID).
		SetTenantID(tenantID).
		SetResultRef(resultRef).
		SetResultSnapshot(snapshot).
		Exec(ctx)
	if err != nil {
		return MapEntError(err)
	}
	return nil
}

// CountIdempotency reports the current idempotency table size, surfaced by
// get_system_health alongside the embedding pool's queue depth.
func (s *Store) CountIdempotency(ctx context.Context) (int, error) {
	n, err := s.db.Client.Idempotency.Query().Count(ctx)
	if err != nil {
		return 0, MapEntError(err)
	}
	return n, nil
}

// ReapIdempotency deletes idempotency records older than IdempotencyTTL.
// No scheduler in this module invokes it.
func (s *Store) ReapIdempotency(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-IdempotencyTTL)
	n, err := s.db.Client.Idempotency.Delete().
		Where(idempotency.CreatedAtLT(cutoff)).
		Exec(ctx)
	if err != nil {
		return 0, MapEntError(err)
	}
	return n, nil
}
