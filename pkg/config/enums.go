package config

// LLMBackend selects which implementation answers LLMService calls
// (summarize, question, answer, extract_principles).
type LLMBackend string

const (
	// LLMBackendDeterministic uses the built-in truncation/extraction
	// fallback — no network calls, always available.
	LLMBackendDeterministic LLMBackend = "deterministic"
	// LLMBackendOpenAI routes LLMService calls through the OpenAI API.
	LLMBackendOpenAI LLMBackend = "openai"
)

// IsValid reports whether b is a recognized backend.
func (b LLMBackend) IsValid() bool {
	return b == LLMBackendDeterministic || b == LLMBackendOpenAI
}

// EmbeddingBackend selects which implementation answers EmbeddingService
// calls.
type EmbeddingBackend string

const (
	// EmbeddingBackendDeterministic hashes text into a fixed-dimension
	// vector — no network calls, always available, not semantically
	// meaningful beyond exact/near-duplicate detection.
	EmbeddingBackendDeterministic EmbeddingBackend = "deterministic"
	// EmbeddingBackendOpenAI calls the OpenAI embeddings API.
	EmbeddingBackendOpenAI EmbeddingBackend = "openai"
)

// IsValid reports whether b is a recognized backend.
func (b EmbeddingBackend) IsValid() bool {
	return b == EmbeddingBackendDeterministic || b == EmbeddingBackendOpenAI
}

// IdentityMode selects which IdentityProvider implementation verifies
// bearer tokens.
type IdentityMode string

const (
	// IdentityModeDevToken accepts a single configurable bearer token and
	// maps it to the "default" tenant. Refused in production.
	IdentityModeDevToken IdentityMode = "dev_token"
)

// IsValid reports whether m is a recognized identity mode.
func (m IdentityMode) IsValid() bool {
	return m == IdentityModeDevToken
}
