package config

import "time"

// EmbeddingConfig controls the EmbeddingService worker pool and backend
// selection.
type EmbeddingConfig struct {
	// Backend selects the EmbeddingService implementation.
	Backend EmbeddingBackend `yaml:"backend"`

	// Model is the provider-specific model name, used when Backend is
	// not deterministic.
	Model string `yaml:"model,omitempty"`

	// APIKeyEnv names the environment variable holding the provider API
	// key, used when Backend is not deterministic.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// Dimension is the length of every embedding vector this module
	// stores (pgvector columns are fixed-width). EMBEDDING_DIMENSION.
	Dimension int `yaml:"dimension"`

	// WorkerCount bounds the number of embedding requests in flight at
	// once, so a consolidation sweep can't saturate the backend.
	WorkerCount int `yaml:"worker_count"`

	// RequestTimeout bounds a single embed() call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultEmbeddingConfig returns the built-in embedding defaults.
func DefaultEmbeddingConfig() *EmbeddingConfig {
	return &EmbeddingConfig{
		Backend:        EmbeddingBackendDeterministic,
		Dimension:      1536,
		WorkerCount:    8,
		RequestTimeout: 10 * time.Second,
	}
}
