package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alsk1992/Flip-God-sub007/internal/marketplace"
	"github.com/alsk1992/Flip-God-sub007/internal/notify"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func newDaemonFixture(t *testing.T, intervalMs int64) (*Daemon, *store.MemoryStore, *marketplace.StaticClient, *domain.DaemonConfig) {
	t.Helper()

	ms := store.NewMemoryStore()
	mc := marketplace.NewStaticClient()

	cfg := &domain.DaemonConfig{
		Name:       "ticker-config",
		Enabled:    true,
		IntervalMs: intervalMs,
		Strategies: []string{"beat_lowest"},
	}
	require.NoError(t, ms.CreateConfig(context.Background(), cfg))

	eng := NewEngine(ms, mc, notify.NewNoop(),
		WithLogger(quietLogger()),
		WithHolder("daemon-test"),
	)
	d := NewDaemon(ms, eng, quietLogger())
	return d, ms, mc, cfg
}

func TestDaemon_StartStop(t *testing.T) {
	t.Parallel()

	d, _, _, _ := newDaemonFixture(t, 60_000)

	require.NoError(t, d.Start(context.Background()))
	assert.True(t, d.Running())

	err := d.Start(context.Background())
	assert.True(t, errors.Is(err, ErrDaemonRunning))

	require.NoError(t, d.Stop())
	assert.False(t, d.Running())

	err = d.Stop()
	assert.True(t, errors.Is(err, ErrDaemonNotRunning))
}

func TestDaemon_Restartable(t *testing.T) {
	t.Parallel()

	d, _, _, _ := newDaemonFixture(t, 60_000)

	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Stop())
	require.NoError(t, d.Start(context.Background()))
	assert.True(t, d.Running())
	require.NoError(t, d.Stop())
}

func TestDaemon_TicksRunCycles(t *testing.T) {
	t.Parallel()

	d, ms, mc, cfg := newDaemonFixture(t, 20)

	l := &domain.Listing{
		SKU: "SKU-T", Platform: domain.PlatformAmazon, ExternalID: "ext-t",
		CurrentPrice: 30.00, CostPrice: 10.00, Active: true,
	}
	require.NoError(t, ms.UpsertListing(context.Background(), l))
	mc.SetMarketData("ext-t", &domain.MarketData{CompetitorPrices: []float64{25.00}})

	require.NoError(t, d.Start(context.Background()))
	defer func() { _ = d.Stop() }()

	require.Eventually(t, func() bool {
		got, err := ms.GetConfig(context.Background(), cfg.ID)
		return err == nil && got.TotalCycles >= 1
	}, 3*time.Second, 10*time.Millisecond, "no cycle ran")

	assert.Contains(t, d.ActiveConfigs(), cfg.ID)
}

func TestDaemon_DisabledConfigStopsLoop(t *testing.T) {
	t.Parallel()

	d, ms, _, cfg := newDaemonFixture(t, 20)

	require.NoError(t, d.Start(context.Background()))
	defer func() { _ = d.Stop() }()

	require.NoError(t, ms.SetConfigEnabled(context.Background(), cfg.ID, false))

	require.Eventually(t, func() bool {
		return len(d.ActiveConfigs()) == 0
	}, 3*time.Second, 10*time.Millisecond, "loop kept running after disable")
}

func TestDaemon_RunNow(t *testing.T) {
	t.Parallel()

	d, ms, mc, cfg := newDaemonFixture(t, 3_600_000)

	l := &domain.Listing{
		SKU: "SKU-N", Platform: domain.PlatformAmazon, ExternalID: "ext-n",
		CurrentPrice: 30.00, CostPrice: 10.00, Active: true,
	}
	require.NoError(t, ms.UpsertListing(context.Background(), l))
	mc.SetMarketData("ext-n", &domain.MarketData{CompetitorPrices: []float64{25.00}})

	// RunNow works without the daemon started.
	run, err := d.RunNow(context.Background(), cfg.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Changed)
}

func TestDaemon_RunNow_DryRunOverride(t *testing.T) {
	t.Parallel()

	d, ms, mc, cfg := newDaemonFixture(t, 3_600_000)

	l := &domain.Listing{
		SKU: "SKU-D", Platform: domain.PlatformAmazon, ExternalID: "ext-d",
		CurrentPrice: 30.00, CostPrice: 10.00, Active: true,
	}
	require.NoError(t, ms.UpsertListing(context.Background(), l))
	mc.SetMarketData("ext-d", &domain.MarketData{CompetitorPrices: []float64{25.00}})

	run, err := d.RunNow(context.Background(), cfg.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Changed)

	// Forced dry run: nothing reaches the marketplace, price stays put.
	assert.Empty(t, mc.AppliedPrices("ext-d"))
	got, err := ms.GetListing(context.Background(), l.ID)
	require.NoError(t, err)
	assert.InDelta(t, 30.00, got.CurrentPrice, 0.001)
}

func TestDaemon_RunNow_UnknownConfig(t *testing.T) {
	t.Parallel()

	d, _, _, _ := newDaemonFixture(t, 60_000)

	_, err := d.RunNow(context.Background(), "missing", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDaemon_RunNow_SingleFlight(t *testing.T) {
	t.Parallel()

	d, _, _, cfg := newDaemonFixture(t, 60_000)

	flight := d.flight(cfg.ID)
	flight.Store(true)
	defer flight.Store(false)

	_, err := d.RunNow(context.Background(), cfg.ID, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycleInProgress))
}

func TestDaemon_SupervisorPicksUpNewConfig(t *testing.T) {
	t.Parallel()

	d, ms, _, cfg := newDaemonFixture(t, 3_600_000)
	d.refresh = 20 * time.Millisecond

	// Start with the config disabled so no loop exists.
	require.NoError(t, ms.SetConfigEnabled(context.Background(), cfg.ID, false))
	require.NoError(t, d.Start(context.Background()))
	defer func() { _ = d.Stop() }()
	require.Empty(t, d.ActiveConfigs())

	require.NoError(t, ms.SetConfigEnabled(context.Background(), cfg.ID, true))

	assert.Eventually(t, func() bool {
		return len(d.ActiveConfigs()) == 1
	}, 3*time.Second, 10*time.Millisecond, "supervisor never picked up the config")
}
