package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// DaemonStatus mirrors the daemon status response.
type DaemonStatus struct {
	Running       bool     `json:"running"`
	ActiveConfigs []string `json:"active_configs"`
}

// GetDaemonStatus returns the scheduler state.
func (c *Client) GetDaemonStatus(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.get(ctx, "/api/v1/daemon/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartDaemon starts the repricing scheduler.
func (c *Client) StartDaemon(ctx context.Context) error {
	return c.post(ctx, "/api/v1/daemon/start", nil, nil)
}

// StopDaemon stops the repricing scheduler.
func (c *Client) StopDaemon(ctx context.Context) error {
	return c.post(ctx, "/api/v1/daemon/stop", nil, nil)
}

// RunNow triggers one reprice cycle for a config and waits for the result.
func (c *Client) RunNow(ctx context.Context, configID string, dryRun bool) (*domain.CycleRun, error) {
	path := "/api/v1/daemon/run/" + url.PathEscape(configID)
	if dryRun {
		path += "?dry_run=true"
	}
	var run domain.CycleRun
	if err := c.post(ctx, path, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListCycleRuns returns recent cycle runs, optionally filtered by config.
func (c *Client) ListCycleRuns(ctx context.Context, configID string, limit int) ([]domain.CycleRun, error) {
	q := url.Values{}
	if configID != "" {
		q.Set("config_id", configID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/cycles"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var runs []domain.CycleRun
	if err := c.get(ctx, path, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetSystemState returns aggregate system counts.
func (c *Client) GetSystemState(ctx context.Context) (*domain.SystemState, error) {
	var state domain.SystemState
	if err := c.get(ctx, "/api/v1/system/state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Healthz checks server liveness.
func (c *Client) Healthz(ctx context.Context) error {
	var resp map[string]string
	if err := c.get(ctx, "/healthz", &resp); err != nil {
		return err
	}
	if resp["status"] != "ok" {
		return fmt.Errorf("unexpected health status %q", resp["status"])
	}
	return nil
}
