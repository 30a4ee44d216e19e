package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

// OpenAI routes EmbeddingService calls through the OpenAI embeddings API.
// It is a pluggable, disabled-by-default provider (SPEC_FULL.md §B): the
// core never hard-depends on it, and every write path still succeeds if
// this backend errors: embedding runs asynchronously in the Pool, and a
// failed request leaves the row without an embedding (there is no fallback
// to Deterministic).
type OpenAI struct {
	client  openai.Client
	model   string
	dim     int
	timeout func() context.Context
}

// NewOpenAI constructs the OpenAI-backed embedder from config. cfg.Model
// and cfg.APIKeyEnv are required and validated at config-load time
// (pkg/config/validator.go).
func NewOpenAI(cfg *config.EmbeddingConfig) (*OpenAI, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: environment variable %s is not set", cfg.APIKeyEnv)
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  cfg.Model,
		dim:    cfg.Dimension,
	}, nil
}

func (o *OpenAI) Dimension() int { return o.dim }

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(o.model),
		Dimensions:     openai.Int(int64(o.dim)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: openai request failed: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}
