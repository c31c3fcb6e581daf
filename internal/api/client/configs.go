package client

import (
	"context"
	"fmt"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// ListConfigs returns all daemon configs, optionally only enabled ones.
func (c *Client) ListConfigs(ctx context.Context, enabledOnly bool) ([]domain.DaemonConfig, error) {
	path := "/api/v1/configs"
	if enabledOnly {
		path += "?enabled=true"
	}
	var configs []domain.DaemonConfig
	if err := c.get(ctx, path, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// GetConfig returns a single daemon config by ID.
func (c *Client) GetConfig(ctx context.Context, id string) (*domain.DaemonConfig, error) {
	var cfg domain.DaemonConfig
	if err := c.get(ctx, "/api/v1/configs/"+id, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateConfig creates a new daemon config.
func (c *Client) CreateConfig(ctx context.Context, cfg *domain.DaemonConfig) (*domain.DaemonConfig, error) {
	var created domain.DaemonConfig
	if err := c.post(ctx, "/api/v1/configs", cfg, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateConfig replaces an existing daemon config.
func (c *Client) UpdateConfig(ctx context.Context, cfg *domain.DaemonConfig) (*domain.DaemonConfig, error) {
	var updated domain.DaemonConfig
	if err := c.put(ctx, "/api/v1/configs/"+cfg.ID, cfg, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetConfigEnabled enables or disables a daemon config.
func (c *Client) SetConfigEnabled(ctx context.Context, id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.put(ctx, fmt.Sprintf("/api/v1/configs/%s/enabled", id), body, nil)
}

// DeleteConfig deletes a daemon config by ID.
func (c *Client) DeleteConfig(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/configs/"+id, nil)
}
