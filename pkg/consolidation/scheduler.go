package consolidation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

// Scheduler drives Engine's daily/weekly/monthly ticks across every tenant
// on the cron expressions in config.ConsolidationConfig.Schedule (spec
// §4.3.4), grounded on the teacher's WorkerPool Start/Stop lifecycle
// (pkg/queue/pool.go) with cron ticks standing in for the queue poll loop.
type Scheduler struct {
	engine *Engine
	cfg    *config.ConsolidationConfig
	cron   *cron.Cron

	mu       sync.Mutex
	lastTick map[string]time.Time
}

// NewScheduler wires a Scheduler around engine.
func NewScheduler(engine *Engine, cfg *config.ConsolidationConfig) *Scheduler {
	return &Scheduler{engine: engine, cfg: cfg, cron: cron.New(), lastTick: map[string]time.Time{}}
}

// LastTicks reports the UTC time each of daily/weekly/monthly last
// completed a run, for get_system_health's scheduler section. A tick
// absent from the map has never fired since process start.
func (s *Scheduler) LastTicks() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.lastTick))
	for k, v := range s.lastTick {
		out[k] = v
	}
	return out
}

func (s *Scheduler) recordTick(tick string) {
	s.mu.Lock()
	s.lastTick[tick] = time.Now().UTC()
	s.mu.Unlock()
}

// Start registers the three schedule entries and begins ticking. Returns an
// error if a configured cron expression fails to parse — config.Validator
// already checks this at startup, so this should never fire in practice.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule.Daily, func() { s.runDaily(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.Schedule.Weekly, func() { s.runWeekly(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.Schedule.Monthly, func() { s.runMonthly(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("consolidation scheduler started",
		"daily", s.cfg.Schedule.Daily, "weekly", s.cfg.Schedule.Weekly, "monthly", s.cfg.Schedule.Monthly)
	return nil
}

// Stop waits for any in-flight tick to finish before returning, the same
// drain semantics the teacher's WorkerPool.Stop uses for its workers.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("consolidation scheduler stopped")
}

// runDaily runs compression steps 1-2 (spec §4.3.4 "Daily tick runs
// compression steps 1-2 only").
func (s *Scheduler) runDaily(ctx context.Context) {
	s.forEachTenant(ctx, "daily", func(ctx context.Context, tenantID string) error {
		_, err := s.engine.CompressHandoffs(ctx, tenantID)
		return err
	})
}

// runWeekly adds identity consolidation and decision archival.
func (s *Scheduler) runWeekly(ctx context.Context) {
	s.forEachTenant(ctx, "weekly", func(ctx context.Context, tenantID string) error {
		if _, err := s.engine.ConsolidateIdentityThreads(ctx, tenantID); err != nil {
			return err
		}
		_, err := s.engine.ArchiveDecisions(ctx, tenantID)
		return err
	})
}

// runMonthly adds integration (step 3).
func (s *Scheduler) runMonthly(ctx context.Context) {
	s.forEachTenant(ctx, "monthly", func(ctx context.Context, tenantID string) error {
		_, err := s.engine.IntegrateHandoffs(ctx, tenantID)
		return err
	})
}

func (s *Scheduler) forEachTenant(ctx context.Context, tick string, run func(ctx context.Context, tenantID string) error) {
	defer s.recordTick(tick)

	tenants, err := s.engine.store.ListTenants(ctx)
	if err != nil {
		slog.Error("consolidation scheduler: failed to list tenants", "tick", tick, "error", err)
		return
	}
	for _, tenantID := range tenants {
		if err := run(ctx, tenantID); err != nil {
			slog.Error("consolidation tick failed", "tick", tick, "tenant_id", tenantID, "error", err)
		}
	}
}
