package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDir(t *testing.T) {
	cfg := &Config{configDir: "/etc/memoryd"}
	assert.Equal(t, "/etc/memoryd", cfg.ConfigDir())
}

func TestConfigHoldsAllSections(t *testing.T) {
	cfg := &Config{
		configDir:     "/tmp",
		Consolidation: DefaultConsolidationConfig(),
		Embedding:     DefaultEmbeddingConfig(),
		LLM:           DefaultLLMConfig(),
		Identity:      DefaultIdentityConfig(),
		Dispatcher:    DefaultDispatcherConfig(),
		Retention:     DefaultRetentionConfig(),
	}

	assert.NotNil(t, cfg.Consolidation)
	assert.NotNil(t, cfg.Embedding)
	assert.NotNil(t, cfg.LLM)
	assert.NotNil(t, cfg.Identity)
	assert.NotNil(t, cfg.Dispatcher)
	assert.NotNil(t, cfg.Retention)
}
