package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// EntityKind names a searchable memory type using the same wire strings
// recall's `types` filter accepts (spec §4.4/§6.2), so callers can pass a
// tool argument straight through without translation.
type EntityKind string

const (
	KindHandoff       EntityKind = "session_handoffs"
	KindKnowledgeNote EntityKind = "knowledge_notes"
	KindAgentFeedback EntityKind = "agent_feedback"
	KindCapsule       EntityKind = "capsules"
)

// AllKinds is the default scope when recall's `types` is omitted or ["all"].
var AllKinds = []EntityKind{KindHandoff, KindKnowledgeNote, KindAgentFeedback, KindCapsule}

type searchTarget struct {
	table    string
	idColumn string
	tsvector string
}

var searchTargets = map[EntityKind]searchTarget{
	KindHandoff: {
		table:    "handoffs",
		idColumn: "handoff_id",
		tsvector: `to_tsvector('english', coalesce(experienced,'') || ' ' || coalesce(noticed,'') || ' ' || coalesce(learned,'') || ' ' || coalesce(story,'') || ' ' || coalesce(remember,'') || ' ' || coalesce(summary,'') || ' ' || coalesce(quick_ref,''))`,
	},
	KindKnowledgeNote: {
		table:    "knowledge_notes",
		idColumn: "note_id",
		tsvector: `to_tsvector('english', text)`,
	},
	KindAgentFeedback: {
		table:    "agent_feedback",
		idColumn: "feedback_id",
		tsvector: `to_tsvector('english', text)`,
	},
	KindCapsule: {
		table:    "capsules",
		idColumn: "capsule_id",
		tsvector: `to_tsvector('english', items->>'chunks')`,
	},
}

// FulltextHit is one BM25-like ranked candidate.
type FulltextHit struct {
	ID   string
	Rank float64
}

// Fulltext ranks rows of kind in tenant against queryText using Postgres's
// ts_rank over the precomputed GIN index (pkg/database/migrations.go),
// limited to limit rows, highest rank first.
func (s *Store) Fulltext(ctx context.Context, tenantID string, kind EntityKind, queryText string, limit int) ([]FulltextHit, error) {
	target, ok := searchTargets[kind]
	if !ok {
		return nil, NewValidationError("types", fmt.Sprintf("unsupported search type %q", kind))
	}

	query := fmt.Sprintf(
		`SELECT %s, ts_rank(%s, plainto_tsquery('english', $1)) AS rank
		 FROM %s
		 WHERE tenant_id = $2 AND %s @@ plainto_tsquery('english', $1)
		 ORDER BY rank DESC
		 LIMIT $3`,
		target.idColumn, target.tsvector, target.table, target.tsvector,
	)

	rows, err := s.db.DB().QueryContext(ctx, query, queryText, tenantID, limit)
	if err != nil {
		return nil, NewTemporaryUnavailable(err)
	}
	defer rows.Close()

	var hits []FulltextHit
	for rows.Next() {
		var h FulltextHit
		if err := rows.Scan(&h.ID, &h.Rank); err != nil {
			return nil, NewPermanentError(err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ANNHit is one approximate-nearest-neighbor candidate; Similarity is
// cosine similarity in [-1, 1] (pgvector's "<=>" operator returns cosine
// distance, so Similarity = 1 - distance).
type ANNHit struct {
	ID         string
	Similarity float64
}

// ANN ranks rows of kind in tenant by cosine similarity to vec, using the
// HNSW index built in pkg/database/migrations.go. Rows with a NULL
// embedding are excluded, matching the "missing embeddings are allowed
// and excluded from ANN" rule in spec §4.1.
func (s *Store) ANN(ctx context.Context, tenantID string, kind EntityKind, vec []float32, limit int) ([]ANNHit, error) {
	target, ok := searchTargets[kind]
	if !ok {
		return nil, NewValidationError("types", fmt.Sprintf("unsupported search type %q", kind))
	}

	query := fmt.Sprintf(
		`SELECT %s, 1 - (embedding <=> $1) AS similarity
		 FROM %s
		 WHERE tenant_id = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		target.idColumn, target.table,
	)

	rows, err := s.db.DB().QueryContext(ctx, query, pgvector.NewVector(vec), tenantID, limit)
	if err != nil {
		return nil, NewTemporaryUnavailable(err)
	}
	defer rows.Close()

	var hits []ANNHit
	for rows.Next() {
		var h ANNHit
		if err := rows.Scan(&h.ID, &h.Similarity); err != nil {
			return nil, NewPermanentError(err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
