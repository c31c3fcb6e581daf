package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alsk1992/Flip-God-sub007/internal/api/handlers"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func sampleListing(sku string, platform domain.Platform) *domain.Listing {
	return &domain.Listing{
		SKU:          sku,
		Platform:     platform,
		ExternalID:   "ext-" + sku,
		Title:        "Widget " + sku,
		CurrentPrice: 24.99,
		CostPrice:    10.00,
		Currency:     "USD",
		Active:       true,
	}
}

func listingsAPI(t *testing.T, s store.Store) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(s))
	return api
}

func TestListListings_PlatformFilter(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	require.NoError(t, s.UpsertListing(context.Background(), sampleListing("sku-a", domain.PlatformEbay)))
	require.NoError(t, s.UpsertListing(context.Background(), sampleListing("sku-b", domain.PlatformAmazon)))

	api := listingsAPI(t, s)

	resp := api.Get("/api/v1/listings?platform=ebay")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "sku-a")
	assert.NotContains(t, resp.Body.String(), "sku-b")
}

func TestListListings_UnknownPlatform(t *testing.T) {
	t.Parallel()

	api := listingsAPI(t, store.NewMemoryStore())

	resp := api.Get("/api/v1/listings?platform=etsy")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "unknown platform")
}

func TestGetListing_NotFound(t *testing.T) {
	t.Parallel()

	api := listingsAPI(t, store.NewMemoryStore())

	resp := api.Get("/api/v1/listings/00000000-0000-0000-0000-000000000000")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpsertListing_Success(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	api := listingsAPI(t, s)

	resp := api.Post("/api/v1/listings", map[string]any{
		"sku":           "sku-new",
		"platform":      "ebay",
		"external_id":   "ext-sku-new",
		"title":         "New Widget",
		"current_price": 19.99,
		"cost_price":    8.00,
		"active":        true,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	listings, err := s.ListEligibleListings(context.Background(), &store.ListingQuery{})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "sku-new", listings[0].SKU)
}

func TestUpsertListing_MissingFields(t *testing.T) {
	t.Parallel()

	api := listingsAPI(t, store.NewMemoryStore())

	resp := api.Post("/api/v1/listings", map[string]any{
		"sku":      "",
		"platform": "ebay",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestListObservations(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	now := time.Now()
	require.NoError(t, s.RecordPriceObservation(
		context.Background(), domain.PlatformEbay, "sku-a", 22.50, now.Add(-time.Hour)))
	require.NoError(t, s.RecordPriceObservation(
		context.Background(), domain.PlatformEbay, "sku-a", 21.00, now))

	api := listingsAPI(t, s)

	resp := api.Get("/api/v1/observations?platform=ebay&sku=sku-a")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "22.5")
	assert.Contains(t, resp.Body.String(), "21")
}

func TestListObservations_UnknownPlatform(t *testing.T) {
	t.Parallel()

	api := listingsAPI(t, store.NewMemoryStore())

	resp := api.Get("/api/v1/observations?platform=bonanza&sku=sku-a")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
