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

func sampleConfig(name string) *domain.DaemonConfig {
	return &domain.DaemonConfig{
		Name:       name,
		Enabled:    true,
		IntervalMs: 60_000,
		Strategies: []string{"beat_lowest"},
		Platforms:  []domain.Platform{domain.PlatformEbay},
	}
}

func configsAPI(t *testing.T, s store.Store) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterConfigRoutes(api, handlers.NewConfigsHandler(s))
	return api
}

func TestListConfigs(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	require.NoError(t, s.CreateConfig(context.Background(), sampleConfig("hourly-ebay")))

	api := configsAPI(t, s)

	resp := api.Get("/api/v1/configs")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "hourly-ebay")
}

func TestCreateConfig_Success(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	api := configsAPI(t, s)

	resp := api.Post("/api/v1/configs", map[string]any{
		"name":           "nightly-all",
		"enabled":        true,
		"interval_ms":    3_600_000,
		"strategies":     []string{"beat_lowest", "time_decay"},
		"max_change_pct": 10.0,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	configs, err := s.ListConfigs(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "nightly-all", configs[0].Name)
}

func TestCreateConfig_UnknownStrategy(t *testing.T) {
	t.Parallel()

	api := configsAPI(t, store.NewMemoryStore())

	resp := api.Post("/api/v1/configs", map[string]any{
		"name":        "bad-strategy",
		"interval_ms": 60_000,
		"strategies":  []string{"chase_buybox"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "unknown strategy")
}

func TestCreateConfig_InvalidInterval(t *testing.T) {
	t.Parallel()

	api := configsAPI(t, store.NewMemoryStore())

	resp := api.Post("/api/v1/configs", map[string]any{
		"name":        "zero-interval",
		"interval_ms": 0,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestUpdateConfig_NotFound(t *testing.T) {
	t.Parallel()

	api := configsAPI(t, store.NewMemoryStore())

	resp := api.Put("/api/v1/configs/00000000-0000-0000-0000-000000000000", map[string]any{
		"name":        "ghost",
		"interval_ms": 60_000,
	})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSetConfigEnabled(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	c := sampleConfig("hourly-ebay")
	require.NoError(t, s.CreateConfig(context.Background(), c))

	api := configsAPI(t, s)

	resp := api.Put("/api/v1/configs/"+c.ID+"/enabled", map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, resp.Code)

	got, err := s.GetConfig(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
}

func TestDeleteConfig(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	c := sampleConfig("hourly-ebay")
	require.NoError(t, s.CreateConfig(context.Background(), c))

	api := configsAPI(t, s)

	resp := api.Delete("/api/v1/configs/" + c.ID)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = api.Delete("/api/v1/configs/" + c.ID)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
