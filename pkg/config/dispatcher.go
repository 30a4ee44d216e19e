package config

import "time"

// DispatcherConfig controls the JSON-RPC dispatcher's per-request limits.
type DispatcherConfig struct {
	// RequestDeadline bounds the total time a single JSON-RPC call may
	// run before the dispatcher returns DeadlineExceeded.
	RequestDeadline time.Duration `yaml:"request_deadline"`

	// StatementTimeout is applied to every Postgres session in the pool
	// (as a "-c statement_timeout" startup option in the DSN), so a runaway query can't
	// outlive RequestDeadline and hold a connection indefinitely.
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// DefaultDispatcherConfig returns the built-in dispatcher defaults.
func DefaultDispatcherConfig() *DispatcherConfig {
	return &DispatcherConfig{
		RequestDeadline:  30 * time.Second,
		StatementTimeout: 30 * time.Second,
	}
}
