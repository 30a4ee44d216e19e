package consolidation

import (
	"context"
	"time"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/consolidationjob"
	"github.com/callin2/agent-memory-sub001/ent/decision"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// ArchiveDecisions transitions active decisions older than
// decision_archive_threshold_days to archived (spec §4.3.3). Superseded
// decisions are untouched: only status=active rows are eligible.
func (e *Engine) ArchiveDecisions(ctx context.Context, tenantID string) (*ent.ConsolidationJob, error) {
	job, isNew, err := e.claim(ctx, tenantID, consolidationjob.JobTypeDecisionArchival)
	if err != nil {
		return nil, err
	}
	if !isNew {
		return job, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -e.cfg.DecisionArchiveThresholdDays)
	stale, err := e.store.Client().Decision.Query().
		Where(decision.TenantID(tenantID), decision.StatusEQ(decision.StatusActive), decision.CreatedAtLT(cutoff)).
		Order(ent.Asc(decision.FieldCreatedAt), ent.Asc(decision.FieldID)).
		All(ctx)
	if err != nil {
		_ = e.fail(ctx, job, 0, 0, err)
		return job, store.MapEntError(err)
	}

	processed, affected := 0, 0
	for _, d := range stale {
		processed++
		err := e.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
			if err := tx.Decision.UpdateOneID(d.ID).SetStatus(decision.StatusArchived).Exec(ctx); err != nil {
				return err
			}
			return e.events.Publish(ctx, tx, tenantID, "decision.archived", d.ID)
		})
		if err != nil {
			_ = e.fail(ctx, job, processed, affected, err)
			return job, store.MapEntError(err)
		}
		affected++
	}

	if err := e.finish(ctx, job, processed, affected); err != nil {
		return job, err
	}
	return job, nil
}
