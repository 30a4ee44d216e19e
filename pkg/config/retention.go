package config

import "time"

// RetentionConfig holds the retention windows for append-only bookkeeping
// rows (events and idempotency records). The values are validated at load
// time; no background cleanup loop in this module reads them, so rows are
// not deleted automatically.
type RetentionConfig struct {
	// IdempotencyTTL is the minimum age before an idempotency row is
	// eligible for deletion (spec §4.7 requires at least 24h).
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`

	// EventTTL is the maximum age of an events row before deletion.
	EventTTL time.Duration `yaml:"event_ttl"`

	// CleanupInterval is the configured interval for a cleanup pass; no
	// reaper loop currently reads it.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		IdempotencyTTL:  24 * time.Hour,
		EventTTL:        30 * 24 * time.Hour,
		CleanupInterval: 1 * time.Hour,
	}
}
