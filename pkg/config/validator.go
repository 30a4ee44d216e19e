package config

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration comprehensively with clear error messages
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *Validator) ValidateAll() error {
	if err := v.validateConsolidation(); err != nil {
		return fmt.Errorf("consolidation validation failed: %w", err)
	}
	if err := v.validateEmbedding(); err != nil {
		return fmt.Errorf("embedding validation failed: %w", err)
	}
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("llm validation failed: %w", err)
	}
	if err := v.validateIdentity(); err != nil {
		return fmt.Errorf("identity validation failed: %w", err)
	}
	if err := v.validateDispatcher(); err != nil {
		return fmt.Errorf("dispatcher validation failed: %w", err)
	}
	if err := v.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateConsolidation() error {
	c := v.cfg.Consolidation
	if c == nil {
		return fmt.Errorf("consolidation configuration is nil")
	}

	if c.SummaryThresholdDays < 1 {
		return NewValidationError("consolidation", "", "summary_threshold_days", fmt.Errorf("must be at least 1"))
	}
	if c.QuickRefThresholdDays <= c.SummaryThresholdDays {
		return NewValidationError("consolidation", "", "quick_ref_threshold_days",
			fmt.Errorf("must be greater than summary_threshold_days (%d), got %d", c.SummaryThresholdDays, c.QuickRefThresholdDays))
	}
	if c.IntegrationThresholdDays <= c.QuickRefThresholdDays {
		return NewValidationError("consolidation", "", "integration_threshold_days",
			fmt.Errorf("must be greater than quick_ref_threshold_days (%d), got %d", c.QuickRefThresholdDays, c.IntegrationThresholdDays))
	}
	if c.DecisionArchiveThresholdDays < 1 {
		return NewValidationError("consolidation", "", "decision_archive_threshold_days", fmt.Errorf("must be at least 1"))
	}
	if c.IdentityConsolidationMinCount < 1 {
		return NewValidationError("consolidation", "", "identity_consolidation_min_count", fmt.Errorf("must be at least 1"))
	}
	if c.StaleJobTimeout <= 0 {
		return NewValidationError("consolidation", "", "stale_job_timeout", fmt.Errorf("must be positive"))
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for field, expr := range map[string]string{
		"schedule.daily":   c.Schedule.Daily,
		"schedule.weekly":  c.Schedule.Weekly,
		"schedule.monthly": c.Schedule.Monthly,
	} {
		if expr == "" {
			return NewValidationError("consolidation", "", field, fmt.Errorf("required"))
		}
		if _, err := parser.Parse(expr); err != nil {
			return NewValidationError("consolidation", "", field, fmt.Errorf("invalid cron expression %q: %w", expr, err))
		}
	}

	return nil
}

func (v *Validator) validateEmbedding() error {
	e := v.cfg.Embedding
	if e == nil {
		return fmt.Errorf("embedding configuration is nil")
	}

	if !e.Backend.IsValid() {
		return NewValidationError("embedding", "", "backend", fmt.Errorf("invalid backend: %s", e.Backend))
	}
	if e.Dimension < 1 {
		return NewValidationError("embedding", "", "dimension", fmt.Errorf("must be at least 1"))
	}
	if e.WorkerCount < 1 {
		return NewValidationError("embedding", "", "worker_count", fmt.Errorf("must be at least 1"))
	}
	if e.RequestTimeout <= 0 {
		return NewValidationError("embedding", "", "request_timeout", fmt.Errorf("must be positive"))
	}
	if e.Backend == EmbeddingBackendOpenAI {
		if e.Model == "" {
			return NewValidationError("embedding", "", "model", fmt.Errorf("required when backend is openai"))
		}
		if e.APIKeyEnv == "" {
			return NewValidationError("embedding", "", "api_key_env", fmt.Errorf("required when backend is openai"))
		}
		if os.Getenv(e.APIKeyEnv) == "" {
			return NewValidationError("embedding", "", "api_key_env", fmt.Errorf("environment variable %s is not set", e.APIKeyEnv))
		}
	}

	return nil
}

func (v *Validator) validateLLM() error {
	l := v.cfg.LLM
	if l == nil {
		return fmt.Errorf("llm configuration is nil")
	}

	if !l.Backend.IsValid() {
		return NewValidationError("llm", "", "backend", fmt.Errorf("invalid backend: %s", l.Backend))
	}
	if l.Backend == LLMBackendOpenAI {
		if l.Model == "" {
			return NewValidationError("llm", "", "model", fmt.Errorf("required when backend is openai"))
		}
		if l.APIKeyEnv == "" {
			return NewValidationError("llm", "", "api_key_env", fmt.Errorf("required when backend is openai"))
		}
		if os.Getenv(l.APIKeyEnv) == "" {
			return NewValidationError("llm", "", "api_key_env", fmt.Errorf("environment variable %s is not set", l.APIKeyEnv))
		}
	}

	return nil
}

func (v *Validator) validateIdentity() error {
	i := v.cfg.Identity
	if i == nil {
		return fmt.Errorf("identity configuration is nil")
	}

	if !i.Mode.IsValid() {
		return NewValidationError("identity", "", "mode", fmt.Errorf("invalid mode: %s", i.Mode))
	}
	if i.Environment == "" {
		return NewValidationError("identity", "", "environment", fmt.Errorf("required"))
	}
	if i.Mode == IdentityModeDevToken {
		if i.DevTokenEnv == "" {
			return NewValidationError("identity", "", "dev_token_env", fmt.Errorf("required"))
		}
		if i.Environment != "production" && os.Getenv(i.DevTokenEnv) == "" {
			return NewValidationError("identity", "", "dev_token_env",
				fmt.Errorf("environment variable %s is not set", i.DevTokenEnv))
		}
	}

	return nil
}

func (v *Validator) validateDispatcher() error {
	d := v.cfg.Dispatcher
	if d == nil {
		return fmt.Errorf("dispatcher configuration is nil")
	}

	if d.RequestDeadline <= 0 {
		return NewValidationError("dispatcher", "", "request_deadline", fmt.Errorf("must be positive"))
	}
	if d.StatementTimeout <= 0 {
		return NewValidationError("dispatcher", "", "statement_timeout", fmt.Errorf("must be positive"))
	}
	if d.StatementTimeout > d.RequestDeadline {
		return NewValidationError("dispatcher", "", "statement_timeout",
			fmt.Errorf("must not exceed request_deadline (%v), got %v", d.RequestDeadline, d.StatementTimeout))
	}

	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention
	if r == nil {
		return fmt.Errorf("retention configuration is nil")
	}

	if r.IdempotencyTTL < 24*time.Hour {
		return NewValidationError("retention", "", "idempotency_ttl", fmt.Errorf("must be at least 24h"))
	}
	if r.EventTTL <= 0 {
		return NewValidationError("retention", "", "event_ttl", fmt.Errorf("must be positive"))
	}
	if r.CleanupInterval <= 0 {
		return NewValidationError("retention", "", "cleanup_interval", fmt.Errorf("must be positive"))
	}

	return nil
}
