package client

import (
	"context"
	"fmt"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// ListRules returns all repricing rules, optionally only enabled ones.
func (c *Client) ListRules(ctx context.Context, enabledOnly bool) ([]domain.RepricingRule, error) {
	path := "/api/v1/rules"
	if enabledOnly {
		path += "?enabled=true"
	}
	var rules []domain.RepricingRule
	if err := c.get(ctx, path, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// GetRule returns a single rule by ID.
func (c *Client) GetRule(ctx context.Context, id string) (*domain.RepricingRule, error) {
	var r domain.RepricingRule
	if err := c.get(ctx, "/api/v1/rules/"+id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRule creates a new repricing rule.
func (c *Client) CreateRule(ctx context.Context, r *domain.RepricingRule) (*domain.RepricingRule, error) {
	var created domain.RepricingRule
	if err := c.post(ctx, "/api/v1/rules", r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateRule replaces an existing rule.
func (c *Client) UpdateRule(ctx context.Context, r *domain.RepricingRule) (*domain.RepricingRule, error) {
	var updated domain.RepricingRule
	if err := c.put(ctx, "/api/v1/rules/"+r.ID, r, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetRuleEnabled enables or disables a rule.
func (c *Client) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.put(ctx, fmt.Sprintf("/api/v1/rules/%s/enabled", id), body, nil)
}

// DeleteRule deletes a rule by ID.
func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/rules/"+id, nil)
}

// ListCrossPlatformRules returns all cross-platform rules.
func (c *Client) ListCrossPlatformRules(ctx context.Context) ([]domain.CrossPlatformRule, error) {
	var rules []domain.CrossPlatformRule
	if err := c.get(ctx, "/api/v1/cross-platform-rules", &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateCrossPlatformRule creates a new cross-platform rule.
func (c *Client) CreateCrossPlatformRule(ctx context.Context, r *domain.CrossPlatformRule) (*domain.CrossPlatformRule, error) {
	var created domain.CrossPlatformRule
	if err := c.post(ctx, "/api/v1/cross-platform-rules", r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteCrossPlatformRule deletes a cross-platform rule by ID.
func (c *Client) DeleteCrossPlatformRule(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/cross-platform-rules/"+id, nil)
}
