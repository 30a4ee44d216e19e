package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// Deterministic is the always-available EmbeddingService fallback: a stable
// hash-projection of the input text into a fixed-dimension unit vector. It
// is not semantically meaningful beyond exact/near-duplicate detection —
// see DESIGN.md — but it lets every write path, recall, and consolidation
// sweep run correctly with zero external dependencies and zero network
// calls, exactly as spec §1 requires ("the core consumes embed(text) ->
// vec[d]... specific embedding model... out of scope").
type Deterministic struct {
	dim int
}

// NewDeterministic returns a Deterministic embedder producing vectors of
// the given width.
func NewDeterministic(dim int) *Deterministic {
	return &Deterministic{dim: dim}
}

func (d *Deterministic) Dimension() int { return d.dim }

// Embed hashes text through a per-dimension FNV-1a seed, maps each hash to
// a signed float in [-1, 1], then L2-normalizes the result so cosine
// similarity behaves sensibly under pgvector's "<=>" operator.
func (d *Deterministic) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, d.dim)
	for i := 0; i < d.dim; i++ {
		h := fnv.New64a()
		_, _ = h.Write([]byte{byte(i), byte(i >> 8)})
		_, _ = h.Write([]byte(text))
		sum := h.Sum64()
		// Map to [-1, 1) via the top bits of the hash.
		vec[i] = float32(int64(sum>>11)-(1<<52)) / float32(1<<52)
	}
	normalize(vec)
	return vec, nil
}

func (d *Deterministic) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := d.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}
