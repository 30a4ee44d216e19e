package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		configDir:     "/tmp",
		Consolidation: DefaultConsolidationConfig(),
		Embedding:     DefaultEmbeddingConfig(),
		LLM:           DefaultLLMConfig(),
		Identity:      DefaultIdentityConfig(),
		Dispatcher:    DefaultDispatcherConfig(),
		Retention:     DefaultRetentionConfig(),
	}
}

func TestValidateAll_DefaultsPass(t *testing.T) {
	t.Setenv("MCP_DEV_TOKEN", "test-dev-token")
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidateConsolidation_ThresholdOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Consolidation.QuickRefThresholdDays = cfg.Consolidation.SummaryThresholdDays
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quick_ref_threshold_days")

	cfg = validConfig()
	cfg.Consolidation.IntegrationThresholdDays = cfg.Consolidation.QuickRefThresholdDays
	err = NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integration_threshold_days")
}

func TestValidateConsolidation_InvalidCron(t *testing.T) {
	cfg := validConfig()
	cfg.Consolidation.Schedule.Daily = "not a cron expression"
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule.daily")
}

func TestValidateConsolidation_MissingSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Consolidation.Schedule.Weekly = ""
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule.weekly")
}

func TestValidateConsolidation_MinCountAndStaleTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Consolidation.IdentityConsolidationMinCount = 0
	require.Error(t, NewValidator(cfg).ValidateAll())

	cfg = validConfig()
	cfg.Consolidation.StaleJobTimeout = 0
	require.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidateEmbedding_InvalidBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Backend = EmbeddingBackend("invalid")
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend")
}

func TestValidateEmbedding_OpenAIRequiresModelAndKey(t *testing.T) {
	t.Setenv("MCP_DEV_TOKEN", "test-dev-token")
	cfg := validConfig()
	cfg.Embedding.Backend = EmbeddingBackendOpenAI
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")

	cfg.Embedding.Model = "text-embedding-3-small"
	err = NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key_env")

	cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	err = NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateEmbedding_DimensionAndWorkerCount(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimension = 0
	require.Error(t, NewValidator(cfg).ValidateAll())

	cfg = validConfig()
	cfg.Embedding.WorkerCount = 0
	require.Error(t, NewValidator(cfg).ValidateAll())

	cfg = validConfig()
	cfg.Embedding.RequestTimeout = 0
	require.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidateLLM_OpenAIRequiresModelAndKey(t *testing.T) {
	t.Setenv("MCP_DEV_TOKEN", "test-dev-token")
	cfg := validConfig()
	cfg.LLM.Backend = LLMBackendOpenAI
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")

	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	t.Setenv("OPENAI_API_KEY", "sk-test")
	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateIdentity_DevTokenRequiresEnvVar(t *testing.T) {
	cfg := validConfig()
	cfg.Identity.Environment = "development"
	cfg.Identity.DevTokenEnv = ""
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev_token_env")
}

func TestValidateIdentity_ProductionSkipsDevTokenEnvCheck(t *testing.T) {
	cfg := validConfig()
	cfg.Identity.Environment = "production"
	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateDispatcher_StatementTimeoutExceedsDeadline(t *testing.T) {
	t.Setenv("MCP_DEV_TOKEN", "test-dev-token")
	cfg := validConfig()
	cfg.Dispatcher.StatementTimeout = cfg.Dispatcher.RequestDeadline + time.Second
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement_timeout")
}

func TestValidateRetention_MinimumIdempotencyTTL(t *testing.T) {
	t.Setenv("MCP_DEV_TOKEN", "test-dev-token")
	cfg := validConfig()
	cfg.Retention.IdempotencyTTL = time.Hour
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idempotency_ttl")
}

func TestValidateAll_FailFast(t *testing.T) {
	cfg := validConfig()
	cfg.Consolidation.SummaryThresholdDays = 0
	cfg.Embedding.Dimension = 0
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consolidation validation failed")
}
