package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func testListing() *domain.Listing {
	return &domain.Listing{
		ID:           "l1",
		SKU:          "WIDGET-001",
		Platform:     domain.PlatformAmazon,
		ExternalID:   "ext-1",
		CurrentPrice: 25.00,
	}
}

func TestRegistry_ResolvesByPlatform(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	amazon := NewStaticClient()
	ebay := NewStaticClient()
	reg.Register(domain.PlatformAmazon, amazon)
	reg.Register(domain.PlatformEbay, ebay)

	require.NoError(t, reg.ApplyPrice(context.Background(), testListing(), 24.00))
	assert.Equal(t, []float64{24.00}, amazon.AppliedPrices("ext-1"))
	assert.Empty(t, ebay.AppliedPrices("ext-1"))

	assert.ElementsMatch(t,
		[]domain.Platform{domain.PlatformAmazon, domain.PlatformEbay},
		reg.Platforms())
}

func TestRegistry_UnknownPlatform(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)

	_, err := reg.GetMarketData(context.Background(), testListing())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPlatform))

	err = reg.ApplyPrice(context.Background(), testListing(), 24.00)
	assert.True(t, errors.Is(err, ErrUnknownPlatform))
}

func TestRegistry_DailyQuotaStopsCalls(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(NewRateLimiter(1000, 1000, 2))
	reg.Register(domain.PlatformAmazon, NewStaticClient())

	ctx := context.Background()
	_, err := reg.GetMarketData(ctx, testListing())
	require.NoError(t, err)
	require.NoError(t, reg.ApplyPrice(ctx, testListing(), 24.00))

	_, err = reg.GetMarketData(ctx, testListing())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDailyLimitReached))
}

func TestRateLimiter_RollingWindow(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1000, 1000, 2)

	current := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	rl.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	ctx := context.Background()
	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))
	assert.Equal(t, 0, rl.Remaining())
	assert.True(t, errors.Is(rl.Wait(ctx), ErrDailyLimitReached))

	// A day later the window has rolled and calls flow again.
	mu.Lock()
	current = current.Add(24*time.Hour + time.Minute)
	mu.Unlock()

	assert.Equal(t, 2, rl.Remaining())
	require.NoError(t, rl.Wait(ctx))
}

func TestRateLimiter_NoQuota(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1000, 1000, 0)
	assert.Equal(t, -1, rl.Remaining())

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, rl.Wait(ctx))
	}
}

func TestHTTPClient_GetMarketData(t *testing.T) {
	t.Parallel()

	buyBox := 23.50
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/listings/ext-1/market-data", r.URL.Path)
		assert.Equal(t, "amazon", r.URL.Query().Get("platform"))
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(marketDataResponse{
			CompetitorPrices: []float64{24.00, 19.99, 22.50},
			BuyBoxPrice:      &buyBox,
			Sales:            &domain.SalesData{SalesLast7Days: 5},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, "sekrit", domain.PlatformAmazon)
	md, err := c.GetMarketData(context.Background(), testListing())
	require.NoError(t, err)

	// Prices come back sorted ascending regardless of gateway order.
	assert.Equal(t, []float64{19.99, 22.50, 24.00}, md.CompetitorPrices)
	require.NotNil(t, md.BuyBoxPrice)
	assert.Equal(t, 23.50, *md.BuyBoxPrice)
	require.NotNil(t, md.Sales)
	assert.Equal(t, 5, md.Sales.SalesLast7Days)
	assert.False(t, md.FetchedAt.IsZero())
}

func TestHTTPClient_ApplyPrice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/listings/ext-1/price", r.URL.Path)

		var body applyPriceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 24.75, body.Price)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, "", domain.PlatformAmazon)
	require.NoError(t, c.ApplyPrice(context.Background(), testListing(), 24.75))
}

func TestHTTPClient_ErrorBodySurfaces(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"listing is locked"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, "", domain.PlatformAmazon)
	err := c.ApplyPrice(context.Background(), testListing(), 24.75)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing is locked")

	_, err = c.GetMarketData(context.Background(), testListing())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing is locked")
}

func TestStaticClient_Failures(t *testing.T) {
	t.Parallel()

	c := NewStaticClient()
	boom := errors.New("boom")

	c.FailGetMarketData(boom)
	_, err := c.GetMarketData(context.Background(), testListing())
	assert.True(t, errors.Is(err, boom))

	c.FailApplyPrice(boom)
	err = c.ApplyPrice(context.Background(), testListing(), 1.00)
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, c.AppliedPrices("ext-1"))
}
