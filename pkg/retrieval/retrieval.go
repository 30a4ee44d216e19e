// Package retrieval implements the recall operation (spec §4.4): a hybrid
// full-text + approximate-nearest-neighbor search across every memory
// type, merged and ranked by a single weighted score. There is no teacher
// analogue for ranked retrieval — this package is grounded directly on
// the Store's fulltext/ann primitives (pkg/store/search.go) plus the
// fan-out/fan-in idiom the teacher's worker pool uses context.Context for
// throughout (_examples/codeready-toolchain-tarsy/pkg/queue).
package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/callin2/agent-memory-sub001/pkg/embedding"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

// fanoutMultiplier is how far past the requested limit each sub-search
// casts its net before merge/dedupe/truncate (spec §4.4 step 1, "4 x limit").
const fanoutMultiplier = 4

// recencyHalfLifeDays sets the exponential decay rate of recency_boost
// (spec §4.4 step 3, "exp(-age_days / 30)").
const recencyHalfLifeDays = 30.0

// TimeRange bounds a recall by created_at; a zero value on either side is
// unbounded on that side.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Request mirrors the recall tool argument schema (spec §4.4, §6.2).
type Request struct {
	Query         string
	Types         []string
	ProjectPath   string
	WithWhom      string
	TimeRange     *TimeRange
	Limit         int
	MinSimilarity float64
	Expand        bool
}

func (r Request) limit() int {
	if r.Limit <= 0 {
		return 5
	}
	return r.Limit
}

func (r Request) minSimilarity() float64 {
	if r.MinSimilarity <= 0 {
		return 0.5
	}
	return r.MinSimilarity
}

// Hit is one ranked recall result (spec §4.4 "Results include {type, id,
// score, snippet, metadata}").
type Hit struct {
	Type      store.EntityKind
	ID        string
	Score     float64
	Snippet   string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Service runs recall against the Store, embedding the query via
// EmbeddingService when available (spec §4.4 step 1, "if embedding fails,
// fall back to FTS only").
type Service struct {
	store *store.Store
	embed embedding.Service
}

// New wires a retrieval Service.
func New(st *store.Store, embed embedding.Service) *Service {
	return &Service{store: st, embed: embed}
}

// candidate accumulates every score component contributed to one
// (type, id) pair across its fulltext and ANN sub-searches.
type candidate struct {
	kind      store.EntityKind
	id        string
	ftsRank   float64
	hasFts    bool
	annSim    float64
	hasAnn    bool
	createdAt time.Time
	snippet   string
	metadata  map[string]any
}

// Recall runs spec §4.4's hybrid search algorithm. On context
// cancellation or deadline, in-flight sub-searches are abandoned and no
// partial results are returned (spec §4.4 "Cancellation").
func (s *Service) Recall(ctx context.Context, tenantID string, req Request) ([]Hit, error) {
	if req.Query == "" {
		return nil, store.NewValidationError("query", "required")
	}

	kinds := resolveKinds(req.Types)
	fetchLimit := req.limit() * fanoutMultiplier

	qVec, embedErr := s.embed.Embed(ctx, req.Query)
	embedOK := embedErr == nil

	type kindResult struct {
		kind     store.EntityKind
		fts      []store.FulltextHit
		ann      []store.ANNHit
		ftsErr   error
		annErr   error
	}

	results := make([]kindResult, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		i, kind := i, kind
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i].kind = kind
			results[i].fts, results[i].ftsErr = s.store.Fulltext(ctx, tenantID, kind, req.Query, fetchLimit)
			if embedOK {
				results[i].ann, results[i].annErr = s.store.ANN(ctx, tenantID, kind, qVec, fetchLimit)
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	candidates := map[string]*candidate{}
	maxFtsRankByKind := map[store.EntityKind]float64{}

	for _, r := range results {
		if r.ftsErr != nil {
			return nil, r.ftsErr
		}
		if r.annErr != nil {
			return nil, r.annErr
		}
		for _, h := range r.fts {
			if h.Rank > maxFtsRankByKind[r.kind] {
				maxFtsRankByKind[r.kind] = h.Rank
			}
			c := candidateFor(candidates, r.kind, h.ID)
			c.ftsRank = h.Rank
			c.hasFts = true
		}
		for _, h := range r.ann {
			c := candidateFor(candidates, r.kind, h.ID)
			c.annSim = h.Similarity
			c.hasAnn = true
		}
	}

	minSim := req.minSimilarity()
	var hits []Hit
	now := time.Now().UTC()

	for _, c := range candidates {
		row, ok, err := s.loadRow(ctx, c.kind, tenantID, c.id, req.Expand)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !matchesFilters(row, req) {
			continue
		}
		c.createdAt = row.createdAt
		c.snippet = row.snippet
		c.metadata = row.metadata

		ftsNorm := 0.0
		if c.hasFts && maxFtsRankByKind[c.kind] > 0 {
			ftsNorm = c.ftsRank / maxFtsRankByKind[c.kind]
		}
		annNorm := 0.0
		if c.hasAnn {
			annNorm = clip01((c.annSim - minSim) / (1 - minSim))
		}
		ageDays := now.Sub(c.createdAt).Hours() / 24
		recencyBoost := math.Exp(-ageDays / recencyHalfLifeDays)

		score := 0.6*annNorm + 0.3*ftsNorm + 0.1*recencyBoost

		hits = append(hits, Hit{
			Type:      c.kind,
			ID:        c.id,
			Score:     score,
			Snippet:   c.snippet,
			Metadata:  c.metadata,
			CreatedAt: c.createdAt,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].CreatedAt.After(hits[j].CreatedAt)
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > req.limit() {
		hits = hits[:req.limit()]
	}
	return hits, nil
}

func candidateFor(m map[string]*candidate, kind store.EntityKind, id string) *candidate {
	key := string(kind) + ":" + id
	c, ok := m[key]
	if !ok {
		c = &candidate{kind: kind, id: id}
		m[key] = c
	}
	return c
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// resolveKinds expands the recall `types` argument; an empty list or the
// ["all"] sentinel searches every registered kind (spec §4.4).
func resolveKinds(types []string) []store.EntityKind {
	if len(types) == 0 {
		return store.AllKinds
	}
	for _, t := range types {
		if t == "all" {
			return store.AllKinds
		}
	}
	out := make([]store.EntityKind, 0, len(types))
	for _, t := range types {
		out = append(out, store.EntityKind(t))
	}
	return out
}

// rowData is the subset of a candidate's underlying row recall needs:
// a human-readable snippet, JSON-able metadata, and the fields filters
// and scoring need (created_at, project_path, with_whom).
type rowData struct {
	createdAt   time.Time
	snippet     string
	metadata    map[string]any
	projectPath string
	withWhom    string
}

func matchesFilters(row rowData, req Request) bool {
	if req.ProjectPath != "" && row.projectPath != "" && row.projectPath != req.ProjectPath {
		return false
	}
	if req.WithWhom != "" && row.withWhom != "" && row.withWhom != req.WithWhom {
		return false
	}
	if req.TimeRange != nil {
		if !req.TimeRange.Start.IsZero() && row.createdAt.Before(req.TimeRange.Start) {
			return false
		}
		if !req.TimeRange.End.IsZero() && row.createdAt.After(req.TimeRange.End) {
			return false
		}
	}
	return true
}

func snippetOf(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return strings.TrimSpace(text[:max]) + "…"
}
