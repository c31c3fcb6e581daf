package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListRules(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListRules(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 500)")
}

func TestClient_ListRules(t *testing.T) {
	t.Parallel()

	rules := []domain.RepricingRule{
		{ID: "r1", Name: "undercut-ebay"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/rules", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("enabled"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rules)
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.ListRules(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "r1", result[0].ID)
}

func TestClient_CreateRule(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var rule domain.RepricingRule
		err := json.NewDecoder(r.Body).Decode(&rule)
		assert.NoError(t, err)
		rule.ID = "r-created"

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rule)
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.CreateRule(context.Background(), &domain.RepricingRule{
		Name:     "undercut-ebay",
		Platform: domain.PlatformEbay,
		Family:   domain.FamilyBeatLowest,
	})
	require.NoError(t, err)
	assert.Equal(t, "r-created", result.ID)
}

func TestClient_DeleteRule(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/rules/r1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.DeleteRule(context.Background(), "r1")
	require.NoError(t, err)
}

func TestClient_RunNow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/daemon/run/cfg-1", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("dry_run"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.CycleRun{
			ID:       "run-1",
			ConfigID: "cfg-1",
			Status:   domain.CycleStatusCompleted,
			Changed:  4,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	run, err := c.RunNow(context.Background(), "cfg-1", true)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 4, run.Changed)
}

func TestClient_ListHistory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/history", r.URL.Path)
		assert.Equal(t, "beat_lowest", r.URL.Query().Get("rule_name"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(HistoryPage{
			Records: []domain.HistoryRecord{{ID: "h1", RuleName: "beat_lowest"}},
			Total:   1,
			Limit:   10,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	page, err := c.ListHistory(context.Background(), HistoryFilter{
		RuleName: "beat_lowest",
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "h1", page.Records[0].ID)
}

func TestClient_GetDaemonStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/daemon/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(DaemonStatus{Running: true, ActiveConfigs: []string{"cfg-1"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	status, err := c.GetDaemonStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, []string{"cfg-1"}, status.ActiveConfigs)
}
