package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alsk1992/Flip-God-sub007/internal/api/handlers"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func crossPlatformAPI(t *testing.T, s store.Store) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterCrossPlatformRoutes(api, handlers.NewCrossPlatformHandler(s))
	return api
}

func TestListCrossPlatformRules_Success(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	require.NoError(t, s.CreateCrossPlatformRule(context.Background(), &domain.CrossPlatformRule{
		Name:             "follow-amazon-drops",
		WatchedPlatform:  domain.PlatformAmazon,
		AdjustedPlatform: domain.PlatformEbay,
		Trigger:          domain.TriggerPriceDrop,
		AdjustmentPct:    5.0,
		Enabled:          true,
	}))

	api := crossPlatformAPI(t, s)

	resp := api.Get("/api/v1/cross-platform-rules")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "follow-amazon-drops")
}

func TestListCrossPlatformRules_Empty(t *testing.T) {
	t.Parallel()

	api := crossPlatformAPI(t, store.NewMemoryStore())

	resp := api.Get("/api/v1/cross-platform-rules")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "[]")
}

func TestCreateCrossPlatformRule_Success(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	api := crossPlatformAPI(t, s)

	resp := api.Post("/api/v1/cross-platform-rules", map[string]any{
		"name":              "undercut-walmart",
		"watched_platform":  "walmart",
		"adjusted_platform": "ebay",
		"trigger":           "undercut",
		"adjustment_pct":    2.5,
		"enabled":           true,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	rules, err := s.ListCrossPlatformRules(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "undercut-walmart", rules[0].Name)
}

func TestCreateCrossPlatformRule_SamePlatform(t *testing.T) {
	t.Parallel()

	api := crossPlatformAPI(t, store.NewMemoryStore())

	resp := api.Post("/api/v1/cross-platform-rules", map[string]any{
		"name":              "self-referential",
		"watched_platform":  "ebay",
		"adjusted_platform": "ebay",
		"trigger":           "price_drop",
		"adjustment_pct":    2.0,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "must differ")
}

func TestDeleteCrossPlatformRule(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	r := &domain.CrossPlatformRule{
		Name:             "follow-amazon-drops",
		WatchedPlatform:  domain.PlatformAmazon,
		AdjustedPlatform: domain.PlatformEbay,
		Trigger:          domain.TriggerPriceDrop,
		AdjustmentPct:    5.0,
	}
	require.NoError(t, s.CreateCrossPlatformRule(context.Background(), r))

	api := crossPlatformAPI(t, s)

	resp := api.Delete("/api/v1/cross-platform-rules/" + r.ID)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = api.Delete("/api/v1/cross-platform-rules/" + r.ID)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
