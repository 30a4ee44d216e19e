// Package consolidation implements ConsolidationEngine (spec §4.3): the
// scheduled/triggered compression of handoffs, identity-thread clustering,
// and decision archival that bounds token growth over time.
//
// Every run creates one ConsolidationJob per (tenant, job_type); jobs are
// idempotent and safe to retry, and at most one job per (tenant, job_type)
// may be running at a time (spec §4.3.4), enforced by the partial unique
// index on consolidation_jobs (ent/schema/consolidationjob.go) rather than
// a separate advisory-lock call — grounded on the teacher's own
// orphan-detection pattern (pkg/queue/worker.go's runOrphanDetection) for
// reclaiming a job that has been running too long.
package consolidation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/consolidationjob"
	"github.com/callin2/agent-memory-sub001/pkg/config"
	"github.com/callin2/agent-memory-sub001/pkg/embedding"
	"github.com/callin2/agent-memory-sub001/pkg/events"
	"github.com/callin2/agent-memory-sub001/pkg/llmsvc"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// Engine runs every consolidation job type against the Store, degrading to
// deterministic fallbacks when LLMService/EmbeddingService are unavailable
// (spec §7 "LLM-optional paths").
type Engine struct {
	store  *store.Store
	events *events.Publisher
	llm    llmsvc.Service
	embed  embedding.Service
	cfg    *config.ConsolidationConfig
}

// New wires a ConsolidationEngine instance.
func New(st *store.Store, pub *events.Publisher, llm llmsvc.Service, embed embedding.Service, cfg *config.ConsolidationConfig) *Engine {
	return &Engine{store: st, events: pub, llm: llm, embed: embed, cfg: cfg}
}

// claim acquires the (tenant, job_type) running slot, or returns the
// already-running job's id when a second trigger races it (spec §4.3.4 "a
// second trigger returns existing job id"). reclaimStale is tried first so
// a job orphaned by a crashed process doesn't block forever.
func (e *Engine) claim(ctx context.Context, tenantID string, jobType consolidationjob.JobType) (*ent.ConsolidationJob, bool, error) {
	if err := e.reclaimStale(ctx, tenantID, jobType); err != nil {
		return nil, false, err
	}

	if existing, err := e.store.Client().ConsolidationJob.Query().
		Where(
			consolidationjob.TenantID(tenantID),
			consolidationjob.JobTypeEQ(jobType),
			consolidationjob.StatusEQ(consolidationjob.StatusRunning),
		).Only(ctx); err == nil {
		return existing, false, nil
	} else if !ent.IsNotFound(err) {
		return nil, false, store.MapEntError(err)
	}

	now := time.Now().UTC()
	job, err := e.store.Client().ConsolidationJob.Create().
		SetID("cj_" + uuid.NewString()).
		SetTenantID(tenantID).
		SetJobType(jobType).
		SetStatus(consolidationjob.StatusRunning).
		SetStartedAt(now).
		Save(ctx)
	if err != nil {
		// Lost the race to the partial unique index: another goroutine/pod
		// created the running row between our query and our insert.
		if ent.IsConstraintError(err) {
			existing, qErr := e.store.Client().ConsolidationJob.Query().
				Where(
					consolidationjob.TenantID(tenantID),
					consolidationjob.JobTypeEQ(jobType),
					consolidationjob.StatusEQ(consolidationjob.StatusRunning),
				).Only(ctx)
			if qErr != nil {
				return nil, false, store.MapEntError(qErr)
			}
			return existing, false, nil
		}
		return nil, false, store.MapEntError(err)
	}
	return job, true, nil
}

// reclaimStale marks any running job of jobType that has exceeded
// cfg.StaleJobTimeout as failed, freeing its running slot (spec §4.3.4).
func (e *Engine) reclaimStale(ctx context.Context, tenantID string, jobType consolidationjob.JobType) error {
	cutoff := time.Now().UTC().Add(-e.cfg.StaleJobTimeout)
	stale, err := e.store.Client().ConsolidationJob.Query().
		Where(
			consolidationjob.TenantID(tenantID),
			consolidationjob.JobTypeEQ(jobType),
			consolidationjob.StatusEQ(consolidationjob.StatusRunning),
			consolidationjob.StartedAtLT(cutoff),
		).All(ctx)
	if err != nil {
		return store.MapEntError(err)
	}
	for _, j := range stale {
		msg := "job exceeded stale timeout and was reclaimed"
		if err := e.store.Client().ConsolidationJob.UpdateOneID(j.ID).
			SetStatus(consolidationjob.StatusFailed).
			SetCompletedAt(time.Now().UTC()).
			SetErrorMessage(msg).
			Exec(ctx); err != nil {
			return store.MapEntError(err)
		}
	}
	return nil
}

// finish marks job completed with the given item counts.
func (e *Engine) finish(ctx context.Context, job *ent.ConsolidationJob, processed, affected int) error {
	updated, err := e.store.Client().ConsolidationJob.UpdateOneID(job.ID).
		SetStatus(consolidationjob.StatusCompleted).
		SetCompletedAt(time.Now().UTC()).
		SetItemsProcessed(processed).
		SetItemsAffected(affected).
		Save(ctx)
	if err != nil {
		return err
	}
	*job = *updated
	return nil
}

// fail marks job failed, recording the error so operators can see why
// (spec §4.3.4 "Store errors mark job failed and write error_message").
func (e *Engine) fail(ctx context.Context, job *ent.ConsolidationJob, processed, affected int, cause error) error {
	return e.store.Client().ConsolidationJob.UpdateOneID(job.ID).
		SetStatus(consolidationjob.StatusFailed).
		SetCompletedAt(time.Now().UTC()).
		SetItemsProcessed(processed).
		SetItemsAffected(affected).
		SetErrorMessage(cause.Error()).
		Exec(ctx)
}
