// Package embedding implements the EmbeddingService capability (spec §1,
// §4.1, §4.4): embed(text) -> vec[d], async on the write path, with a batch
// interface and bounded worker concurrency so a consolidation sweep can't
// saturate the backend (spec §5).
package embedding

import (
	"context"
	"fmt"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

// Service embeds text into the pinned-dimension vector space the Store's
// embedding columns are fixed to (ent/schema/embedding.go's
// EmbeddingDimension). Every implementation must return vectors of
// Dimension() length or fail.
type Service interface {
	// Embed computes a single embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch computes embeddings for multiple texts in one round trip
	// where the backend supports it; implementations MAY simply loop.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the fixed width of vectors this Service returns.
	Dimension() int
}

// New builds the configured Service. Backend selection never fails a
// caller's write path: the deterministic fallback is always available and
// is what New returns when cfg.Backend is deterministic or when no real
// backend is configured.
func New(cfg *config.EmbeddingConfig) (Service, error) {
	switch cfg.Backend {
	case config.EmbeddingBackendDeterministic:
		return NewDeterministic(cfg.Dimension), nil
	case config.EmbeddingBackendOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("embedding: unsupported backend %q", cfg.Backend)
	}
}
