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

func cyclesAPI(t *testing.T, s store.Store) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterCycleRoutes(api, handlers.NewCyclesHandler(s))
	return api
}

func completeRun(t *testing.T, s store.Store, configID string, changed int) {
	t.Helper()
	id, err := s.InsertCycleRun(context.Background(), configID)
	require.NoError(t, err)
	require.NoError(t, s.CompleteCycleRun(
		context.Background(), id, domain.CycleStatusCompleted, "",
		&domain.CycleRun{Processed: 5, Changed: changed}))
}

func TestListCycleRuns(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	completeRun(t, s, "cfg-1", 2)
	completeRun(t, s, "cfg-2", 0)

	api := cyclesAPI(t, s)

	resp := api.Get("/api/v1/cycles")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "cfg-1")
	assert.Contains(t, resp.Body.String(), "cfg-2")
}

func TestListCycleRuns_ConfigFilter(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	completeRun(t, s, "cfg-1", 2)
	completeRun(t, s, "cfg-2", 0)

	api := cyclesAPI(t, s)

	resp := api.Get("/api/v1/cycles?config_id=cfg-1")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "cfg-1")
	assert.NotContains(t, resp.Body.String(), "cfg-2")
}

func TestListCycleRuns_Empty(t *testing.T) {
	t.Parallel()

	api := cyclesAPI(t, store.NewMemoryStore())

	resp := api.Get("/api/v1/cycles")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "[]")
}
