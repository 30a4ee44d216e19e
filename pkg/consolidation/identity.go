package consolidation

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/callin2/agent-memory-sub001/ent"
	"github.com/callin2/agent-memory-sub001/ent/consolidationjob"
	"github.com/callin2/agent-memory-sub001/ent/decision"
	"github.com/callin2/agent-memory-sub001/ent/handoff"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// identityCosineThreshold/identityKeywordThreshold/identityJaccardThreshold
// are the clustering thresholds fixed by spec §4.3.2.
const (
	identityCosineThreshold  = 0.82
	identityKeywordThreshold = 0.30
	identityJaccardThreshold = 0.40
)

// becomingStatement is one clustering candidate: a handoff whose becoming
// field drives the identity thread, not yet folded into a principle.
type becomingStatement struct {
	handoffID string
	withWhom  string
	text      string
	createdAt time.Time
	vector    []float32 // nil when the async embed hasn't landed yet
	keywords  map[string]bool
}

// ConsolidateIdentityThreads runs spec §4.3.2 for every with_whom in
// tenantID: clusters unintegrated becoming statements, and for every
// cluster reaching identity_consolidation_min_count, emits one new
// consolidated principle Decision and links the cluster's handoffs to it.
func (e *Engine) ConsolidateIdentityThreads(ctx context.Context, tenantID string) (*ent.ConsolidationJob, error) {
	job, isNew, err := e.claim(ctx, tenantID, consolidationjob.JobTypeIdentityConsolidation)
	if err != nil {
		return nil, err
	}
	if !isNew {
		return job, nil
	}

	counterparts, err := e.distinctWithWhom(ctx, tenantID)
	if err != nil {
		_ = e.fail(ctx, job, 0, 0, err)
		return job, err
	}

	processed, affected := 0, 0
	for _, withWhom := range counterparts {
		statements, err := e.loadBecomingStatements(ctx, tenantID, withWhom)
		if err != nil {
			_ = e.fail(ctx, job, processed, affected, err)
			return job, err
		}
		processed += len(statements)

		for _, cluster := range clusterBecomingStatements(statements) {
			if len(cluster) < e.cfg.IdentityConsolidationMinCount {
				continue
			}
			n, err := e.emitPrinciple(ctx, tenantID, withWhom, cluster)
			if err != nil {
				_ = e.fail(ctx, job, processed, affected, err)
				return job, err
			}
			affected += n
		}
	}

	if err := e.finish(ctx, job, processed, affected); err != nil {
		return job, err
	}
	return job, nil
}

// consolidateIdentityFor is the single-counterpart entry point used by the
// handoff-integration step (spec §4.3.1 step 3, "integrate into an
// integrated_principle (see identity consolidation)"): it runs the same
// clustering for one with_whom and returns the principle id a qualifying
// cluster containing handoffID would be linked to, or "" if no cluster
// reaches identity_consolidation_min_count.
func (e *Engine) consolidateIdentityFor(ctx context.Context, tenantID, withWhom string) (string, error) {
	statements, err := e.loadBecomingStatements(ctx, tenantID, withWhom)
	if err != nil {
		return "", err
	}

	var principleID string
	for _, cluster := range clusterBecomingStatements(statements) {
		if len(cluster) < e.cfg.IdentityConsolidationMinCount {
			continue
		}
		if _, err := e.emitPrinciple(ctx, tenantID, withWhom, cluster); err != nil {
			return "", err
		}
		// emitPrinciple links every member's integrated_into itself; report
		// that id back so the caller's own in-flight update carries it too.
		refreshed, err := e.store.Client().Handoff.Get(ctx, cluster[0].handoffID)
		if err != nil {
			return "", store.MapEntError(err)
		}
		if refreshed.IntegratedInto != nil {
			principleID = *refreshed.IntegratedInto
		}
	}
	return principleID, nil
}

func (e *Engine) distinctWithWhom(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := e.store.Client().Handoff.Query().
		Where(handoff.TenantID(tenantID), handoff.BecomingNotNil()).
		Select(handoff.FieldWithWhom).
		Strings(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}
	seen := map[string]bool{}
	var out []string
	for _, w := range rows {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out, nil
}

func (e *Engine) loadBecomingStatements(ctx context.Context, tenantID, withWhom string) ([]becomingStatement, error) {
	rows, err := e.store.Client().Handoff.Query().
		Where(
			handoff.TenantID(tenantID),
			handoff.WithWhom(withWhom),
			handoff.BecomingNotNil(),
			handoff.CompressionLevelNEQ(handoff.CompressionLevelIntegrated),
			handoff.IntegratedIntoIsNil(),
		).
		Order(ent.Asc(handoff.FieldCreatedAt), ent.Asc(handoff.FieldID)).
		All(ctx)
	if err != nil {
		return nil, store.MapEntError(err)
	}

	out := make([]becomingStatement, 0, len(rows))
	for _, h := range rows {
		text := *h.Becoming
		var vec []float32
		if h.Embedding != nil {
			vec = h.Embedding.Slice()
		}
		out = append(out, becomingStatement{
			handoffID: h.ID,
			withWhom:  withWhom,
			text:      text,
			createdAt: h.CreatedAt,
			vector:    vec,
			keywords:  keywordSet(text),
		})
	}
	return out, nil
}

// clusterBecomingStatements groups statements via single-link clustering:
// a statement joins the first cluster any of whose members it matches
// under the cosine+keyword rule (or the Jaccard fallback when either side
// lacks an embedding) — spec §4.3.2 step 2.
func clusterBecomingStatements(statements []becomingStatement) [][]becomingStatement {
	var clusters [][]becomingStatement

	for _, s := range statements {
		placed := false
		for i, cluster := range clusters {
			if matchesCluster(s, cluster) {
				clusters[i] = append(cluster, s)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []becomingStatement{s})
		}
	}
	return clusters
}

func matchesCluster(s becomingStatement, cluster []becomingStatement) bool {
	for _, member := range cluster {
		if s.vector != nil && member.vector != nil {
			if cosineSimilarity(s.vector, member.vector) >= identityCosineThreshold &&
				keywordOverlap(s.keywords, member.keywords) >= identityKeywordThreshold {
				return true
			}
			continue
		}
		if jaccard(s.keywords, member.keywords) >= identityJaccardThreshold {
			return true
		}
	}
	return false
}

// emitPrinciple creates a new consolidated principle Decision for cluster and links every member's
// integrated_into to it (spec §4.3.2 steps 3-4). Returns the number of
// handoffs newly linked.
func (e *Engine) emitPrinciple(ctx context.Context, tenantID, withWhom string, cluster []becomingStatement) (int, error) {
	text, err := e.principleText(ctx, cluster)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	linked := 0
	err = e.store.Tx(ctx, func(ctx context.Context, tx *ent.Tx) error {
		principle, err := tx.Decision.Create().
			SetID("dec_" + uuid.NewString()).
			SetTenantID(tenantID).
			SetScope(decision.ScopeGlobal).
			SetText(text).
			SetStatus(decision.StatusActive).
			Save(ctx)
		if err != nil {
			return err
		}
		if err := e.events.Publish(ctx, tx, tenantID, "decision.created", principle.ID); err != nil {
			return err
		}

		for _, member := range cluster {
			if err := tx.Handoff.UpdateOneID(member.handoffID).
				SetIntegratedInto(principle.ID).
				SetConsolidatedAt(now).
				Exec(ctx); err != nil {
				return err
			}
			linked++
		}
		return e.events.Publish(ctx, tx, tenantID, "identity.consolidated", principle.ID)
	})
	if err != nil {
		return 0, store.MapEntError(err)
	}
	return linked, nil
}

// principleText derives the consolidated principle's text via LLMService,
// falling back to the deterministic most-frequent-noun-phrase heuristic on
// backend failure (spec §4.3.2 step 3).
func (e *Engine) principleText(ctx context.Context, cluster []becomingStatement) (string, error) {
	texts := make([]string, len(cluster))
	for i, s := range cluster {
		texts[i] = s.text
	}
	return e.llm.ExtractPrinciples(ctx, texts)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func keywordOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared) / float64(smaller)
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	union := map[string]bool{}
	for w := range a {
		union[w] = true
	}
	for w := range b {
		union[w] = true
	}
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(shared) / float64(len(union))
}

var identityStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "for": true, "with": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"it": true, "that": true, "this": true, "i": true, "we": true, "my": true,
	"our": true, "as": true, "at": true, "by": true, "from": true, "so": true,
}

func keywordSet(text string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := map[string]bool{}
	for _, w := range fields {
		if len(w) < 3 || identityStopwords[w] {
			continue
		}
		out[w] = true
	}
	return out
}
