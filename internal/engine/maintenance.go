package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alsk1992/Flip-God-sub007/internal/store"
)

const (
	staleRunThreshold = 30 * time.Minute
	cycleRunRetention = 30 * 24 * time.Hour
)

// Maintenance runs periodic housekeeping: recovering cycle runs orphaned by
// a crash, pruning old cycle runs, and logging a daily state snapshot. The
// history ledger is never pruned.
type Maintenance struct {
	cron  *cron.Cron
	store store.Store
	log   *slog.Logger
}

// NewMaintenance creates the housekeeping scheduler.
func NewMaintenance(s store.Store, log *slog.Logger) (*Maintenance, error) {
	c := cron.New()

	m := &Maintenance{
		cron:  c,
		store: s,
		log:   log,
	}

	if _, err := c.AddFunc("@every 10m", m.recoverStaleRuns); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@daily", m.pruneCycleRuns); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@daily", m.logSnapshot); err != nil {
		return nil, err
	}

	return m, nil
}

// Start begins running housekeeping tasks.
func (m *Maintenance) Start() {
	m.log.Info("maintenance scheduler started")
	m.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (m *Maintenance) Stop() context.Context {
	m.log.Info("maintenance scheduler stopping")
	return m.cron.Stop()
}

func (m *Maintenance) recoverStaleRuns() {
	ctx := context.Background()
	n, err := m.store.RecoverStaleCycleRuns(ctx, staleRunThreshold)
	if err != nil {
		m.log.Error("recovering stale cycle runs failed", "error", err)
		return
	}
	if n > 0 {
		m.log.Warn("recovered stale cycle runs", "count", n)
	}
}

func (m *Maintenance) pruneCycleRuns() {
	ctx := context.Background()
	n, err := m.store.DeleteOldCycleRuns(ctx, cycleRunRetention)
	if err != nil {
		m.log.Error("pruning cycle runs failed", "error", err)
		return
	}
	m.log.Info("pruned old cycle runs", "count", n)
}

func (m *Maintenance) logSnapshot() {
	ctx := context.Background()
	state, err := m.store.GetSystemState(ctx)
	if err != nil {
		m.log.Error("reading system state failed", "error", err)
		return
	}
	m.log.Info("daily state snapshot",
		"rules_enabled", state.RulesEnabled,
		"configs_enabled", state.ConfigsEnabled,
		"listings_active", state.ListingsActive,
		"changes_24h", state.Changes24h,
		"blocked_24h", state.Blocked24h,
	)
}
