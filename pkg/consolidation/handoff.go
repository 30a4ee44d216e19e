package consolidation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/consolidationjob"
	"github.com/callin2/agent-memory-sub001/ent/handoff"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// summaryTargetTokens/quickRefTargetTokens are the approximate output
// budgets named in spec §4.3.1.
const (
	summaryTargetTokens  = 500
	quickRefTargetTokens = 100
	charsPerToken        = 4 // spec §9 "tokens ~ ceil(len_chars/4)"
)

// estimateTokens is the documented-estimate formula shared by every
// tokens_saved computation (spec §9); grounded verbatim on the teacher's
// pkg/mcp/tokens.go EstimateTokens.
func estimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// CompressHandoffs runs spec §4.3.1 steps 1 and 2 (full->summary,
// summary->quick_ref) for tenantID, scoped to one consolidation_jobs row.
// If another job of this type is already running, it returns that job's
// id without doing any work (spec §4.3.4).
func (e *Engine) CompressHandoffs(ctx context.Context, tenantID string) (*ent.ConsolidationJob, error) {
	job, isNew, err := e.claim(ctx, tenantID, consolidationjob.JobTypeHandoffCompression)
	if err != nil {
		return nil, err
	}
	if !isNew {
		return job, nil
	}

	processed, affected := 0, 0
	now := time.Now().UTC()

	summaryCutoff := now.AddDate(0, 0, -e.cfg.SummaryThresholdDays)
	n, a, err := e.compressLevel(ctx, tenantID, handoff.CompressionLevelFull, summaryCutoff, e.toSummary)
	processed += n
	affected += a
	if err != nil {
		_ = e.fail(ctx, job, processed, affected, err)
		return job, err
	}

	quickRefCutoff := now.AddDate(0, 0, -e.cfg.QuickRefThresholdDays)
	n, a, err = e.compressLevel(ctx, tenantID, handoff.CompressionLevelSummary, quickRefCutoff, e.toQuickRef)
	processed += n
	affected += a
	if err != nil {
		_ = e.fail(ctx, job, processed, affected, err)
		return job, err
	}

	if err := e.finish(ctx, job, processed, affected); err != nil {
		return job, err
	}
	return job, nil
}

// IntegrateHandoffs runs spec §4.3.1 step 3 (quick_ref -> integrated),
// folding each eligible handoff into its identity thread's consolidated
// principle (spec §4.3.2). Filed under job_type chunk_reorganization: the
// spec's four job types have no dedicated "integration" slot, and folding
// a handoff's remaining chunks into a principle is exactly a
// reorganization of chunks, not a new compression step nor an identity
// merge in its own right.
func (e *Engine) IntegrateHandoffs(ctx context.Context, tenantID string) (*ent.ConsolidationJob, error) {
	job, isNew, err := e.claim(ctx, tenantID, consolidationjob.JobTypeChunkReorganization)
	if err != nil {
		return nil, err
	}
	if !isNew {
		return job, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -e.cfg.IntegrationThresholdDays)
	candidates, err := e.store.Client().Handoff.Query().
		Where(
			handoff.TenantID(tenantID),
			handoff.CompressionLevelEQ(handoff.CompressionLevelQuickRef),
			handoff.CreatedAtLT(cutoff),
		).
		Order(ent.Asc(handoff.FieldCreatedAt), ent.Asc(handoff.FieldID)).
		All(ctx)
	if err != nil {
		_ = e.fail(ctx, job, 0, 0, err)
		return job, store.MapEntError(err)
	}

	processed, affected := 0, 0
	for _, h := range candidates {
		processed++
		principleID, err := e.integrateHandoff(ctx, tenantID, h)
		if err != nil {
			_ = e.fail(ctx, job, processed, affected, err)
			return job, err
		}
		if principleID != "" {
			affected++
		}
	}

	if err := e.finish(ctx, job, processed, affected); err != nil {
		return job, err
	}
	return job, nil
}

// compressLevel selects handoffs at fromLevel older than cutoff and applies
// transform to each inside its own sub-transaction, stable-ordered by
// (created_at asc, handoff_id asc) per spec §4.3.1's tie-break.
func (e *Engine) compressLevel(ctx context.Context, tenantID string, fromLevel handoff.CompressionLevel, cutoff time.Time, transform func(ctx context.Context, h *ent.Handoff) error) (processed, affected int, err error) {
	rows, err := e.store.Client().Handoff.Query().
		Where(handoff.TenantID(tenantID), handoff.CompressionLevelEQ(fromLevel), handoff.CreatedAtLT(cutoff)).
		Order(ent.Asc(handoff.FieldCreatedAt), ent.Asc(handoff.FieldID)).
		All(ctx)
	if err != nil {
		return 0, 0, store.MapEntError(err)
	}

	for _, h := range rows {
		processed++
		if txErr := transform(ctx, h); txErr != nil {
			return processed, affected, txErr
		}
		affected++
	}
	return processed, affected, nil
}

// toSummary computes h's summary via LLMService (or the deterministic
// fallback) and records the before/after token savings (spec §4.3.1 step
// 1, §3 ConsolidationStats).
func (e *Engine) toSummary(ctx context.Context, h *ent.Handoff) error {
	source := handoffSourceText(h)
	summary, err := e.llm.Summarize(ctx, source, summaryTargetTokens)
	if err != nil {
		return err
	}

	beforeTokens := estimateTokens(source)
	afterTokens := estimateTokens(summary)

	now := time.Now().UTC()
	return e.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		if err := tx.Handoff.UpdateOneID(h.ID).
			SetSummary(summary).
			SetCompressionLevel(handoff.CompressionLevelSummary).
			SetConsolidatedAt(now).
			Exec(ctx); err != nil {
			return err
		}
		if err := e.events.Publish(ctx, tx, h.TenantID, "handoff.compressed.summary", h.ID); err != nil {
			return err
		}
		return e.recordStats(ctx, tx, h.TenantID, now, "summary", beforeTokens, afterTokens)
	})
}

// toQuickRef computes h's quick_ref line (spec §4.3.1 step 2: "single-line
// 'date — with_whom — becoming if any — one-sentence summary'").
func (e *Engine) toQuickRef(ctx context.Context, h *ent.Handoff) error {
	becoming := ""
	if h.Becoming != nil {
		becoming = *h.Becoming
	}

	var source string
	if h.Summary != nil {
		source = *h.Summary
	} else {
		source = handoffSourceText(h)
	}

	condensed, err := e.llm.Summarize(ctx, source, quickRefTargetTokens)
	if err != nil {
		return err
	}
	sentence := firstSentence(condensed)

	line := fmt.Sprintf("%s — %s", h.CreatedAt.Format("2006-01-02"), h.WithWhom)
	if becoming != "" {
		line += " — " + becoming
	}
	line += " — " + sentence

	before := estimateTokens(source)
	after := estimateTokens(line)

	now := time.Now().UTC()
	return e.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		if err := tx.Handoff.UpdateOneID(h.ID).
			SetQuickRef(line).
			SetCompressionLevel(handoff.CompressionLevelQuickRef).
			SetConsolidatedAt(now).
			Exec(ctx); err != nil {
			return err
		}
		if err := e.events.Publish(ctx, tx, h.TenantID, "handoff.compressed.quick_ref", h.ID); err != nil {
			return err
		}
		return e.recordStats(ctx, tx, h.TenantID, now, "quick_ref", before, after)
	})
}

// integrateHandoff folds h into its identity thread's consolidated
// principle (creating one via clustering if none exists yet) and advances
// h to compression_level=integrated. Returns the principle's decision id,
// or "" if h has no becoming statement to integrate (it still advances to
// integrated — spec §4.3.1 step 3 applies to age alone, not to whether a
// becoming statement exists).
func (e *Engine) integrateHandoff(ctx context.Context, tenantID string, h *ent.Handoff) (string, error) {
	var principleID string
	if h.Becoming != nil && *h.Becoming != "" {
		id, err := e.consolidateIdentityFor(ctx, tenantID, h.WithWhom)
		if err != nil {
			return "", err
		}
		principleID = id
	}

	now := time.Now().UTC()
	source := handoffSourceText(h)
	err := e.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		update := tx.Handoff.UpdateOneID(h.ID).
			SetCompressionLevel(handoff.CompressionLevelIntegrated).
			SetConsolidatedAt(now)
		if principleID != "" {
			update = update.SetIntegratedInto(principleID)
		}
		if err := update.Exec(ctx); err != nil {
			return err
		}
		if err := e.events.Publish(ctx, tx, tenantID, "handoff.compressed.integrated", h.ID); err != nil {
			return err
		}
		quickRef := ""
		if h.QuickRef != nil {
			quickRef = *h.QuickRef
		}
		return e.recordStats(ctx, tx, tenantID, now, "integrated", estimateTokens(source), estimateTokens(quickRef))
	})
	if err != nil {
		return "", err
	}
	return principleID, nil
}

// firstSentence returns the leading sentence of text, stripping the
// bullet-list formatting Deterministic.Summarize produces so a quick_ref
// line reads as prose rather than repeating a "- " marker.
func firstSentence(text string) string {
	text = strings.TrimPrefix(strings.TrimSpace(text), "- ")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[:idx]
	}
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.Index(text, sep); idx >= 0 {
			return strings.TrimSpace(text[:idx+1])
		}
	}
	return strings.TrimSpace(text)
}

func handoffSourceText(h *ent.Handoff) string {
	parts := []string{h.Experienced, h.Noticed, h.Learned}
	if h.Story != "" {
		parts = append(parts, h.Story)
	}
	if h.Becoming != nil {
		parts = append(parts, *h.Becoming)
	}
	return strings.Join(parts, " ")
}
