package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alsk1992/Flip-God-sub007/internal/api/handlers"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func historyAPI(t *testing.T, s store.Store) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterHistoryRoutes(api, handlers.NewHistoryHandler(s))
	return api
}

func seedHistory(t *testing.T, s store.Store) {
	t.Helper()
	records := []domain.HistoryRecord{
		{ListingID: "listing-1", RuleName: "beat_lowest", OldPrice: 25, NewPrice: 24, Reason: "undercut lowest"},
		{ListingID: "listing-1", RuleName: "time_decay", OldPrice: 24, NewPrice: 23.5, Reason: "stale listing"},
		{ListingID: "listing-2", RuleName: "beat_lowest", OldPrice: 50, NewPrice: 48, Reason: "undercut lowest", DryRun: true},
	}
	for i := range records {
		require.NoError(t, s.AppendHistory(context.Background(), &records[i]))
	}
}

func TestListHistory_Defaults(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	seedHistory(t, s)

	api := historyAPI(t, s)

	resp := api.Get("/api/v1/history")
	require.Equal(t, http.StatusOK, resp.Code)

	var page struct {
		Records []domain.HistoryRecord `json:"records"`
		Total   int                    `json:"total"`
		Limit   int                    `json:"limit"`
		Offset  int                    `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Len(t, page.Records, 3)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 50, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

func TestListHistory_RuleNameFilter(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	seedHistory(t, s)

	api := historyAPI(t, s)

	resp := api.Get("/api/v1/history?rule_name=beat_lowest")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":2`)
	assert.NotContains(t, resp.Body.String(), "time_decay")
}

func TestListHistory_DryRunFilter(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	seedHistory(t, s)

	api := historyAPI(t, s)

	resp := api.Get("/api/v1/history?dry_run=true")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":1`)
	assert.Contains(t, resp.Body.String(), "listing-2")
}

func TestListHistory_Paging(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	seedHistory(t, s)

	api := historyAPI(t, s)

	resp := api.Get("/api/v1/history?limit=2&offset=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var page struct {
		Records []domain.HistoryRecord `json:"records"`
		Total   int                    `json:"total"`
		Limit   int                    `json:"limit"`
		Offset  int                    `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Len(t, page.Records, 1)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 2, page.Offset)
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	seedHistory(t, s)

	api := historyAPI(t, s)

	resp := api.Get("/api/v1/history/stats")
	require.Equal(t, http.StatusOK, resp.Code)

	var stats domain.RepriceStats
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalChanges)
	assert.Equal(t, 2, stats.ByStrategy["beat_lowest"])
	assert.Equal(t, 1, stats.ByStrategy["time_decay"])
}

func TestGetStats_Empty(t *testing.T) {
	t.Parallel()

	api := historyAPI(t, store.NewMemoryStore())

	resp := api.Get("/api/v1/history/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total_changes":0`)
}
