package config

import "time"

// ConsolidationConfig controls the age thresholds and scheduling for the
// background consolidation engine (handoff compression, identity-thread
// clustering, decision archival).
type ConsolidationConfig struct {
	// SummaryThresholdDays is the age at which a full handoff is
	// compressed to its summary form.
	SummaryThresholdDays int `yaml:"summary_threshold_days"`

	// QuickRefThresholdDays is the age at which a summarized handoff is
	// compressed further to quick_ref form.
	QuickRefThresholdDays int `yaml:"quick_ref_threshold_days"`

	// IntegrationThresholdDays is the age at which a quick_ref handoff is
	// folded into its identity thread's integrated narrative.
	IntegrationThresholdDays int `yaml:"integration_threshold_days"`

	// DecisionArchiveThresholdDays is the age at which an unsuperseded
	// decision is marked archived.
	DecisionArchiveThresholdDays int `yaml:"decision_archive_threshold_days"`

	// IdentityConsolidationMinCount is the minimum number of becoming
	// statements a cluster must hold before a consolidated principle is
	// emitted for it.
	IdentityConsolidationMinCount int `yaml:"identity_consolidation_min_count"`

	// StaleJobTimeout is how long a consolidation_jobs row may sit in
	// "running" before it is marked failed and its one-running-job-per-type
	// slot cleared; the check runs when the next job of that type is claimed.
	StaleJobTimeout time.Duration `yaml:"stale_job_timeout"`

	// Schedule holds the cron expressions driving each job type's ticks.
	Schedule ConsolidationSchedule `yaml:"schedule"`
}

// ConsolidationSchedule holds the robfig/cron expressions for each
// consolidation cadence named in the environment (CONSOLIDATION_SCHEDULE_*).
type ConsolidationSchedule struct {
	Daily   string `yaml:"daily"`
	Weekly  string `yaml:"weekly"`
	Monthly string `yaml:"monthly"`
}

// DefaultConsolidationConfig returns the built-in consolidation defaults.
func DefaultConsolidationConfig() *ConsolidationConfig {
	return &ConsolidationConfig{
		SummaryThresholdDays:          30,
		QuickRefThresholdDays:         90,
		IntegrationThresholdDays:      180,
		DecisionArchiveThresholdDays:  60,
		IdentityConsolidationMinCount: 10,
		StaleJobTimeout:               1 * time.Hour,
		Schedule: ConsolidationSchedule{
			Daily:   "0 3 * * *",
			Weekly:  "0 4 * * 0",
			Monthly: "0 5 1 * *",
		},
	}
}
