package config

// LLMConfig controls the LLMService backend used for summarize, question,
// answer, and extract_principles calls.
type LLMConfig struct {
	// Backend selects the LLMService implementation.
	Backend LLMBackend `yaml:"backend"`

	// Model is the provider-specific model name, used when Backend is
	// not deterministic.
	Model string `yaml:"model,omitempty"`

	// APIKeyEnv names the environment variable holding the provider API
	// key, used when Backend is not deterministic.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// DefaultLLMConfig returns the built-in LLM defaults.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		Backend: LLMBackendDeterministic,
	}
}
