package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates the full-text search GIN indexes and pgvector
// HNSW indexes that ent's portable schema DSL cannot express. The vector
// extension itself must already exist; this function does not create it.
// Mirrors the teacher's pattern of layering raw-SQL indexes on top of
// migrate-applied DDL: ent.Schema.Create/the embedded migrations build the
// tables, this builds the Postgres-specific search infrastructure on top.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	for _, stmt := range ginIndexStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create GIN index: %w", err)
		}
	}

	for _, stmt := range hnswIndexStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create HNSW index: %w", err)
		}
	}

	return nil
}

// ginIndexStatements builds one combined tsvector per searchable entity
// rather than per-column indexes, since recall (spec §4.4) scores a whole
// row against a single query string.
var ginIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_handoffs_fts ON handoffs USING gin(
		to_tsvector('english',
			coalesce(experienced, '') || ' ' || coalesce(noticed, '') || ' ' ||
			coalesce(learned, '') || ' ' || coalesce(story, '') || ' ' ||
			coalesce(remember, '') || ' ' || coalesce(summary, '') || ' ' ||
			coalesce(quick_ref, '')
		)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_knowledge_notes_fts ON knowledge_notes
		USING gin(to_tsvector('english', text))`,
	`CREATE INDEX IF NOT EXISTS idx_agent_feedback_fts ON agent_feedback
		USING gin(to_tsvector('english', text))`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_fts ON decisions
		USING gin(to_tsvector('english', text))`,
	`CREATE INDEX IF NOT EXISTS idx_capsules_fts ON capsules USING gin(
		to_tsvector('english', items->>'chunks')
	)`,
}

// hnswIndexStatements indexes every embeddingMixin column for approximate
// nearest-neighbor search (spec §3 "approximate nearest-neighbor index on
// a fixed-dimension embedding column"). vector_cosine_ops matches the
// cosine-similarity scoring recall (spec §4.4) performs.
var hnswIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_handoffs_embedding_hnsw ON handoffs
		USING hnsw (embedding vector_cosine_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_knowledge_notes_embedding_hnsw ON knowledge_notes
		USING hnsw (embedding vector_cosine_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_feedback_embedding_hnsw ON agent_feedback
		USING hnsw (embedding vector_cosine_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_capsules_embedding_hnsw ON capsules
		USING hnsw (embedding vector_cosine_ops)`,
}
