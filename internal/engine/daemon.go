package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alsk1992/Flip-God-sub007/internal/metrics"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// Daemon lifecycle errors.
var (
	ErrDaemonRunning    = errors.New("daemon already running")
	ErrDaemonNotRunning = errors.New("daemon not running")
)

const configRefreshInterval = 30 * time.Second

// Daemon runs one ticker loop per enabled config. Each loop re-reads its
// config before every cycle so edits take effect on the next tick without a
// restart. A per-config in-flight flag guarantees single-flight: a tick that
// lands while the previous cycle is still running is skipped, never queued.
type Daemon struct {
	store   store.Store
	engine  *Engine
	log     *slog.Logger
	refresh time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	loops   map[string]context.CancelFunc

	flights sync.Map // config ID -> *atomic.Bool
}

// NewDaemon creates a Daemon driving the given engine.
func NewDaemon(s store.Store, eng *Engine, log *slog.Logger) *Daemon {
	return &Daemon{
		store:   s,
		engine:  eng,
		log:     log,
		refresh: configRefreshInterval,
		loops:   make(map[string]context.CancelFunc),
	}
}

// Start launches ticker loops for all enabled configs plus a supervisor that
// picks up configs enabled later. It returns ErrDaemonRunning when already
// started.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return ErrDaemonRunning
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	d.running = true

	configs, err := d.store.ListConfigs(ctx, true)
	if err != nil {
		cancel()
		d.running = false
		return fmt.Errorf("listing enabled configs: %w", err)
	}

	for i := range configs {
		d.startLoopLocked(runCtx, configs[i].ID, configs[i].Interval())
	}

	d.wg.Add(1)
	go d.supervise(runCtx)

	d.log.Info("daemon started", "configs", len(configs))
	return nil
}

// Stop cancels all loops and waits for in-flight cycles to finish. It
// returns ErrDaemonNotRunning when the daemon is stopped.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return ErrDaemonNotRunning
	}
	d.cancel()
	d.running = false
	d.loops = make(map[string]context.CancelFunc)
	d.mu.Unlock()

	d.wg.Wait()
	metrics.DaemonConfigsRunning.Set(0)
	d.log.Info("daemon stopped")
	return nil
}

// Running reports whether the daemon is started.
func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// ActiveConfigs returns the IDs of configs with a live ticker loop.
func (d *Daemon) ActiveConfigs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, len(d.loops))
	for id := range d.loops {
		out = append(out, id)
	}
	return out
}

// RunNow triggers one immediate cycle for a config, subject to the same
// single-flight guarantee as scheduled ticks. dryRun forces a dry run even
// when the config itself is live; it never forces a live run.
func (d *Daemon) RunNow(ctx context.Context, configID string, dryRun bool) (*domain.CycleRun, error) {
	cfg, err := d.store.GetConfig(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dryRun {
		cfg.DryRun = true
	}

	flight := d.flight(configID)
	if !flight.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: %s", ErrCycleInProgress, configID)
	}
	defer flight.Store(false)

	return d.engine.RunCycle(ctx, cfg)
}

// startLoopLocked launches the ticker loop for one config. Callers must
// hold d.mu.
func (d *Daemon) startLoopLocked(ctx context.Context, configID string, interval time.Duration) {
	if _, ok := d.loops[configID]; ok {
		return
	}
	if interval <= 0 {
		d.log.Warn("config has no interval, skipping", "config", configID)
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.loops[configID] = cancel
	metrics.DaemonConfigsRunning.Set(float64(len(d.loops)))

	d.wg.Add(1)
	go d.loop(loopCtx, configID, interval)
}

// loop ticks at the config's interval. The config is re-read each tick; a
// disabled or deleted config ends the loop, and an interval change resets
// the ticker.
func (d *Daemon) loop(ctx context.Context, configID string, interval time.Duration) {
	defer d.wg.Done()
	defer d.removeLoop(configID)

	d.log.Info("config loop started", "config", configID, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("config loop stopped", "config", configID)
			return
		case <-ticker.C:
		}

		cfg, err := d.store.GetConfig(ctx, configID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				d.log.Info("config deleted, stopping loop", "config", configID)
				return
			}
			d.log.Error("re-reading config failed", "config", configID, "error", err)
			continue
		}
		if !cfg.Enabled {
			d.log.Info("config disabled, stopping loop", "config", configID)
			return
		}
		if next := cfg.Interval(); next != interval && next > 0 {
			interval = next
			ticker.Reset(interval)
			d.log.Info("config interval changed", "config", configID, "interval", interval)
		}

		d.runOnce(ctx, cfg)
	}
}

func (d *Daemon) runOnce(ctx context.Context, cfg *domain.DaemonConfig) {
	flight := d.flight(cfg.ID)
	if !flight.CompareAndSwap(false, true) {
		metrics.DaemonCyclesSkipped.Inc()
		d.log.Warn("previous cycle still running, skipping tick", "config", cfg.ID)
		return
	}
	defer flight.Store(false)

	if _, err := d.engine.RunCycle(ctx, cfg); err != nil {
		if errors.Is(err, ErrCycleInProgress) {
			metrics.DaemonCyclesSkipped.Inc()
			d.log.Warn("cycle lock held elsewhere, skipping tick", "config", cfg.ID)
			return
		}
		d.log.Error("cycle failed", "config", cfg.ID, "error", err)
	}
}

// supervise periodically reconciles running loops against enabled configs,
// starting loops for configs enabled after the daemon came up.
func (d *Daemon) supervise(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		configs, err := d.store.ListConfigs(ctx, true)
		if err != nil {
			d.log.Error("listing configs failed", "error", err)
			continue
		}

		d.mu.Lock()
		if !d.running {
			d.mu.Unlock()
			return
		}
		for i := range configs {
			d.startLoopLocked(ctx, configs[i].ID, configs[i].Interval())
		}
		d.mu.Unlock()
	}
}

func (d *Daemon) removeLoop(configID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cancel, ok := d.loops[configID]; ok {
		cancel()
		delete(d.loops, configID)
	}
	metrics.DaemonConfigsRunning.Set(float64(len(d.loops)))
}

func (d *Daemon) flight(configID string) *atomic.Bool {
	v, _ := d.flights.LoadOrStore(configID, &atomic.Bool{})
	return v.(*atomic.Bool)
}
