//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("fg_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func testRule() *domain.RepricingRule {
	return &domain.RepricingRule{
		Name:     "undercut widgets",
		Platform: domain.PlatformAmazon,
		Family:   domain.FamilyBeatLowest,
		Params: domain.RuleParams{
			BeatLowest: &domain.BeatLowestParams{
				UndercutPct: 2.0,
				MinPrice:    15.0,
			},
		},
		Priority: 10,
		Enabled:  true,
	}
}

func testIntListing(externalID string) *domain.Listing {
	listed := time.Now().Add(-30 * 24 * time.Hour).Truncate(time.Microsecond)
	return &domain.Listing{
		SKU:          "WIDGET-001",
		Platform:     domain.PlatformAmazon,
		ExternalID:   externalID,
		Title:        "Blue Widget, Pack of 3",
		Category:     "widgets",
		CurrentPrice: 25.00,
		CostPrice:    10.00,
		LandedCost:   12.00,
		ShippingCost: 2.50,
		Currency:     "USD",
		Active:       true,
		ListedAt:     &listed,
	}
}

func testConfig() *domain.DaemonConfig {
	lo, hi := 5.0, 500.0
	return &domain.DaemonConfig{
		Name:         "nightly",
		Enabled:      true,
		BatchSize:    100,
		IntervalMs:   60_000,
		CooldownMs:   3_600_000,
		Strategies:   []string{"beat_lowest", "margin_target"},
		MinPrice:     &lo,
		MaxPrice:     &hi,
		MaxChangePct: 15,
		Platforms:    []domain.Platform{domain.PlatformAmazon, domain.PlatformEbay},
		ActiveOnly:   true,
	}
}

func ptrf(v float64) *float64 { return &v }

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_Rules(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		r := testRule()
		require.NoError(t, s.CreateRule(ctx, r))
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.CreatedAt.IsZero())
		assert.False(t, r.UpdatedAt.IsZero())
	})

	t.Run("params and window survive a round trip", func(t *testing.T) {
		r := testRule()
		r.Name = "weekend undercut"
		r.Window = &domain.TimeCondition{
			DaysOfWeek: []time.Weekday{time.Sunday, time.Saturday},
			StartHour:  ptri(9),
			EndHour:    ptri(17),
			Timezone:   "America/New_York",
		}
		require.NoError(t, s.CreateRule(ctx, r))

		got, err := s.GetRule(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "weekend undercut", got.Name)
		assert.Equal(t, domain.FamilyBeatLowest, got.Family)
		require.NotNil(t, got.Params.BeatLowest)
		assert.InDelta(t, 2.0, got.Params.BeatLowest.UndercutPct, 0.001)
		require.NotNil(t, got.Window)
		assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, got.Window.DaysOfWeek)
		assert.Equal(t, "America/New_York", got.Window.Timezone)
	})

	t.Run("list orders by priority then creation", func(t *testing.T) {
		s := setupPostgres(t)

		low := testRule()
		low.Name = "low"
		low.Priority = 1
		require.NoError(t, s.CreateRule(ctx, low))

		high := testRule()
		high.Name = "high"
		high.Priority = 100
		require.NoError(t, s.CreateRule(ctx, high))

		tied := testRule()
		tied.Name = "tied"
		tied.Priority = 100
		require.NoError(t, s.CreateRule(ctx, tied))

		rules, err := s.ListRules(ctx, false)
		require.NoError(t, err)
		require.Len(t, rules, 3)
		assert.Equal(t, "high", rules[0].Name)
		assert.Equal(t, "tied", rules[1].Name)
		assert.Equal(t, "low", rules[2].Name)
	})

	t.Run("enabled only filter", func(t *testing.T) {
		s := setupPostgres(t)

		r := testRule()
		require.NoError(t, s.CreateRule(ctx, r))
		require.NoError(t, s.SetRuleEnabled(ctx, r.ID, false))

		rules, err := s.ListRules(ctx, true)
		require.NoError(t, err)
		assert.Empty(t, rules)

		rules, err = s.ListRules(ctx, false)
		require.NoError(t, err)
		assert.Len(t, rules, 1)
	})

	t.Run("update and delete", func(t *testing.T) {
		r := testRule()
		r.Name = "to update"
		require.NoError(t, s.CreateRule(ctx, r))

		r.Name = "updated"
		r.Priority = 42
		require.NoError(t, s.UpdateRule(ctx, r))

		got, err := s.GetRule(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Name)
		assert.Equal(t, 42, got.Priority)

		require.NoError(t, s.DeleteRule(ctx, r.ID))
		_, err = s.GetRule(ctx, r.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.GetRule(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, store.ErrNotFound)

		err = s.DeleteRule(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func ptri(v int) *int { return &v }

func TestPostgresStore_CrossPlatformRules(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	r := &domain.CrossPlatformRule{
		Name:             "follow ebay drops",
		WatchedPlatform:  domain.PlatformEbay,
		AdjustedPlatform: domain.PlatformAmazon,
		Trigger:          domain.TriggerPriceDrop,
		AdjustmentPct:    -5,
		MinPrice:         ptrf(10),
		Enabled:          true,
	}
	require.NoError(t, s.CreateCrossPlatformRule(ctx, r))
	assert.NotEmpty(t, r.ID)

	rules, err := s.ListCrossPlatformRules(ctx, true)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, domain.PlatformEbay, rules[0].WatchedPlatform)
	assert.Equal(t, domain.TriggerPriceDrop, rules[0].Trigger)
	require.NotNil(t, rules[0].MinPrice)
	assert.InDelta(t, 10, *rules[0].MinPrice, 0.001)

	require.NoError(t, s.DeleteCrossPlatformRule(ctx, r.ID))
	rules, err = s.ListCrossPlatformRules(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestPostgresStore_PriceObservations(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Microsecond)
	for i, price := range []float64{30, 28, 27} {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.RecordPriceObservation(ctx, domain.PlatformEbay, "WIDGET-001", price, at))
	}

	t.Run("oldest first within limit", func(t *testing.T) {
		points, err := s.ListPriceObservations(ctx, domain.PlatformEbay, "WIDGET-001", 10)
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.InDelta(t, 30, points[0].Price, 0.001)
		assert.InDelta(t, 27, points[2].Price, 0.001)
	})

	t.Run("limit keeps the most recent rows", func(t *testing.T) {
		points, err := s.ListPriceObservations(ctx, domain.PlatformEbay, "WIDGET-001", 2)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.InDelta(t, 28, points[0].Price, 0.001)
		assert.InDelta(t, 27, points[1].Price, 0.001)
	})

	t.Run("other platform is isolated", func(t *testing.T) {
		points, err := s.ListPriceObservations(ctx, domain.PlatformAmazon, "WIDGET-001", 10)
		require.NoError(t, err)
		assert.Empty(t, points)
	})
}

func TestPostgresStore_Configs(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	c := testConfig()
	require.NoError(t, s.CreateConfig(ctx, c))
	assert.NotEmpty(t, c.ID)

	t.Run("arrays survive a round trip", func(t *testing.T) {
		got, err := s.GetConfig(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"beat_lowest", "margin_target"}, got.Strategies)
		assert.Equal(t, []domain.Platform{domain.PlatformAmazon, domain.PlatformEbay}, got.Platforms)
		require.NotNil(t, got.MinPrice)
		assert.InDelta(t, 5.0, *got.MinPrice, 0.001)
	})

	t.Run("increment totals", func(t *testing.T) {
		require.NoError(t, s.IncrementConfigTotals(ctx, c.ID, 1, 3))
		require.NoError(t, s.IncrementConfigTotals(ctx, c.ID, 1, 2))

		got, err := s.GetConfig(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalCycles)
		assert.Equal(t, 5, got.TotalChanges)
	})

	t.Run("disable hides from enabled listing", func(t *testing.T) {
		require.NoError(t, s.SetConfigEnabled(ctx, c.ID, false))

		configs, err := s.ListConfigs(ctx, true)
		require.NoError(t, err)
		assert.Empty(t, configs)

		configs, err = s.ListConfigs(ctx, false)
		require.NoError(t, err)
		assert.Len(t, configs, 1)
	})
}

func TestPostgresStore_Listings(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	t.Run("upsert keeps identity on conflict", func(t *testing.T) {
		l := testIntListing("ext-1")
		require.NoError(t, s.UpsertListing(ctx, l))
		firstID := l.ID

		l2 := testIntListing("ext-1")
		l2.CurrentPrice = 19.99
		require.NoError(t, s.UpsertListing(ctx, l2))
		assert.Equal(t, firstID, l2.ID)

		got, err := s.GetListing(ctx, firstID)
		require.NoError(t, err)
		assert.InDelta(t, 19.99, got.CurrentPrice, 0.001)
	})

	t.Run("eligible listings honor filters", func(t *testing.T) {
		inactive := testIntListing("ext-2")
		inactive.Active = false
		require.NoError(t, s.UpsertListing(ctx, inactive))

		ebay := testIntListing("ext-3")
		ebay.Platform = domain.PlatformEbay
		require.NoError(t, s.UpsertListing(ctx, ebay))

		all, err := s.ListEligibleListings(ctx, &store.ListingQuery{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		active, err := s.ListEligibleListings(ctx, &store.ListingQuery{ActiveOnly: true, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, active, 2)

		ebayOnly, err := s.ListEligibleListings(ctx, &store.ListingQuery{
			Platforms: []domain.Platform{domain.PlatformEbay},
			Limit:     10,
		})
		require.NoError(t, err)
		require.Len(t, ebayOnly, 1)
		assert.Equal(t, domain.PlatformEbay, ebayOnly[0].Platform)
	})

	t.Run("update price stamps last repriced", func(t *testing.T) {
		l := testIntListing("ext-4")
		require.NoError(t, s.UpsertListing(ctx, l))

		at := time.Now().Truncate(time.Microsecond)
		require.NoError(t, s.UpdateListingPrice(ctx, l.ID, 22.50, at))

		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.InDelta(t, 22.50, got.CurrentPrice, 0.001)
		require.NotNil(t, got.LastRepricedAt)
		assert.WithinDuration(t, at, *got.LastRepricedAt, time.Second)
	})
}

func TestPostgresStore_HistoryAndStats(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	l := testIntListing("hist-1")
	require.NoError(t, s.UpsertListing(ctx, l))

	cfg := testConfig()
	require.NoError(t, s.CreateConfig(ctx, cfg))

	for i, name := range []string{"beat_lowest", "beat_lowest", "margin_target"} {
		r := &domain.HistoryRecord{
			ListingID: l.ID,
			ConfigID:  &cfg.ID,
			RuleName:  name,
			OldPrice:  25.00,
			NewPrice:  25.00 - float64(i),
			Reason:    "test",
		}
		require.NoError(t, s.AppendHistory(ctx, r))
		assert.NotEmpty(t, r.ID)
	}

	t.Run("list newest first with total", func(t *testing.T) {
		records, total, err := s.ListHistory(ctx, &store.HistoryQuery{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, records, 2)
		assert.Equal(t, "margin_target", records[0].RuleName)
	})

	t.Run("filter by rule name", func(t *testing.T) {
		name := "beat_lowest"
		records, total, err := s.ListHistory(ctx, &store.HistoryQuery{RuleName: &name})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, records, 2)
	})

	t.Run("stats aggregate by strategy", func(t *testing.T) {
		stats, err := s.GetRepriceStats(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalChanges)
		assert.Equal(t, 2, stats.ByStrategy["beat_lowest"])
		assert.Equal(t, 1, stats.ByStrategy["margin_target"])
		require.Len(t, stats.ByDay, 1)
		assert.Equal(t, 3, stats.ByDay[0].Count)
	})

	t.Run("stats respect since filter", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		stats, err := s.GetRepriceStats(ctx, nil, &future)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalChanges)
	})
}

func TestPostgresStore_CycleRuns(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	cfg := testConfig()
	require.NoError(t, s.CreateConfig(ctx, cfg))

	id, err := s.InsertCycleRun(ctx, cfg.ID)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run := &domain.CycleRun{Processed: 10, Changed: 4, Blocked: 2, Failed: 1}
	require.NoError(t, s.CompleteCycleRun(ctx, id, domain.CycleStatusCompleted, "", run))

	runs, err := s.ListCycleRuns(ctx, cfg.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.CycleStatusCompleted, runs[0].Status)
	assert.Equal(t, 10, runs[0].Processed)
	assert.Equal(t, 4, runs[0].Changed)
	require.NotNil(t, runs[0].CompletedAt)

	t.Run("stale recovery only touches old running rows", func(t *testing.T) {
		_, err := s.InsertCycleRun(ctx, cfg.ID)
		require.NoError(t, err)

		n, err := s.RecoverStaleCycleRuns(ctx, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		n, err = s.RecoverStaleCycleRuns(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("prune removes finished runs past retention", func(t *testing.T) {
		n, err := s.DeleteOldCycleRuns(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestPostgresStore_CycleLocks(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	cfg := testConfig()
	require.NoError(t, s.CreateConfig(ctx, cfg))

	got, err := s.AcquireCycleLock(ctx, cfg.ID, "holder-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, got)

	t.Run("other holder is rejected while held", func(t *testing.T) {
		got, err := s.AcquireCycleLock(ctx, cfg.ID, "holder-b", time.Minute)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("same holder reacquires", func(t *testing.T) {
		got, err := s.AcquireCycleLock(ctx, cfg.ID, "holder-a", time.Minute)
		require.NoError(t, err)
		assert.True(t, got)
	})

	t.Run("release frees the lock", func(t *testing.T) {
		require.NoError(t, s.ReleaseCycleLock(ctx, cfg.ID, "holder-a"))

		got, err := s.AcquireCycleLock(ctx, cfg.ID, "holder-b", time.Minute)
		require.NoError(t, err)
		assert.True(t, got)
	})

	t.Run("expired lock is stealable", func(t *testing.T) {
		got, err := s.AcquireCycleLock(ctx, cfg.ID, "holder-b", -time.Second)
		require.NoError(t, err)
		assert.True(t, got)

		got, err = s.AcquireCycleLock(ctx, cfg.ID, "holder-c", time.Minute)
		require.NoError(t, err)
		assert.True(t, got)
	})
}

func TestPostgresStore_SystemState(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRule(ctx, testRule()))
	require.NoError(t, s.UpsertListing(ctx, testIntListing("state-1")))

	cfg := testConfig()
	require.NoError(t, s.CreateConfig(ctx, cfg))
	_, err := s.InsertCycleRun(ctx, cfg.ID)
	require.NoError(t, err)

	state, err := s.GetSystemState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.RulesTotal)
	assert.Equal(t, 1, state.RulesEnabled)
	assert.Equal(t, 1, state.ConfigsTotal)
	assert.Equal(t, 1, state.ListingsTotal)
	assert.Equal(t, 1, state.ListingsActive)
	assert.Equal(t, 1, state.CyclesRunning)
}
