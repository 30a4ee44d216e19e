package config

// IdentityConfig controls the IdentityProvider that verifies bearer tokens
// on every MCP request.
type IdentityConfig struct {
	// Mode selects the IdentityProvider implementation.
	Mode IdentityMode `yaml:"mode"`

	// Environment gates the dev-token provider: it refuses to start
	// unless Environment != "production" (spec §6.3).
	Environment string `yaml:"environment"`

	// DevTokenEnv names the environment variable holding the literal
	// bearer token the dev-token provider accepts (MCP_DEV_TOKEN).
	DevTokenEnv string `yaml:"dev_token_env"`
}

// DefaultIdentityConfig returns the built-in identity defaults.
func DefaultIdentityConfig() *IdentityConfig {
	return &IdentityConfig{
		Mode:        IdentityModeDevToken,
		Environment: "development",
		DevTokenEnv: "MCP_DEV_TOKEN",
	}
}
