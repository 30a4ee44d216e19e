package consolidation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/consolidationstats"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// recordStats folds one compression event into the day's rolling
// before/after token totals for (tenant_id, stat_date, compression_type)
// (spec §3 ConsolidationStats). before_count/after_count are cumulative
// token totals, not item counts, so percentage_saved stays a simple ratio
// of the two running sums.
func (e *Engine) recordStats(ctx context.Context, tx *ent.Tx, tenantID string, when time.Time, compressionType consolidationstats.CompressionType, beforeTokens, afterTokens int) error {
	statDate := time.Date(when.Year(), when.Month(), when.Day(), 0, 0, 0, 0, time.UTC)

	existing, err := tx.ConsolidationStats.Query().
		Where(
			consolidationstats.TenantID(tenantID),
			consolidationstats.StatDate(statDate),
			consolidationstats.CompressionTypeEQ(compressionType),
		).Only(ctx)
	if err == nil {
		return applyStatsDelta(ctx, tx, existing, beforeTokens, afterTokens)
	}
	if !ent.IsNotFound(err) {
		return store.MapEntError(err)
	}

	createErr := tx.ConsolidationStats.Create().
		SetID("stat_" + uuid.NewString()).
		SetTenantID(tenantID).
		SetStatDate(statDate).
		SetCompressionType(compressionType).
		SetBeforeCount(beforeTokens).
		SetAfterCount(afterTokens).
		SetTokensSaved(beforeTokens - afterTokens).
		SetPercentageSaved(ratio(beforeTokens-afterTokens, beforeTokens)).
		Exec(ctx)
	if createErr == nil {
		return nil
	}
	if !ent.IsConstraintError(createErr) {
		return store.MapEntError(createErr)
	}

	// Lost a race with a concurrent compression of the same day/type; retry
	// as an update against the row the other transaction just created.
	existing, err = tx.ConsolidationStats.Query().
		Where(
			consolidationstats.TenantID(tenantID),
			consolidationstats.StatDate(statDate),
			consolidationstats.CompressionTypeEQ(compressionType),
		).Only(ctx)
	if err != nil {
		return store.MapEntError(err)
	}
	return applyStatsDelta(ctx, tx, existing, beforeTokens, afterTokens)
}

func applyStatsDelta(ctx context.Context, tx *ent.Tx, row *ent.ConsolidationStats, beforeTokens, afterTokens int) error {
	newBefore := row.BeforeCount + beforeTokens
	newAfter := row.AfterCount + afterTokens
	newSaved := row.TokensSaved + (beforeTokens - afterTokens)
	return tx.ConsolidationStats.UpdateOneID(row.ID).
		SetBeforeCount(newBefore).
		SetAfterCount(newAfter).
		SetTokensSaved(newSaved).
		SetPercentageSaved(ratio(newSaved, newBefore)).
		Exec(ctx)
}

func ratio(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// GetCompressionStats backs the get_compression_stats tool (spec §4.6):
// the rolling per-day, per-type savings rows, optionally narrowed to the
// last sinceDays days.
func (e *Engine) GetCompressionStats(ctx context.Context, tenantID string, sinceDays int) ([]*ent.ConsolidationStats, error) {
	q := e.store.Client().ConsolidationStats.Query().Where(consolidationstats.TenantID(tenantID))
	if sinceDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -sinceDays)
		q = q.Where(consolidationstats.StatDateGTE(cutoff))
	}
	rows, err := q.Order(ent.Desc(consolidationstats.FieldStatDate)).All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	return rows, nil
}
