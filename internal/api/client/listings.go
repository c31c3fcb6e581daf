package client

import (
	"context"
	"net/url"
	"strconv"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// ListListings returns tracked listings, optionally filtered by platform.
func (c *Client) ListListings(ctx context.Context, platform string, activeOnly bool) ([]domain.Listing, error) {
	q := url.Values{}
	if platform != "" {
		q.Set("platform", platform)
	}
	if activeOnly {
		q.Set("active", "true")
	}
	path := "/api/v1/listings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var listings []domain.Listing
	if err := c.get(ctx, path, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing returns a single listing by ID.
func (c *Client) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.get(ctx, "/api/v1/listings/"+id, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpsertListing creates a listing or updates the one with the same
// platform and external ID.
func (c *Client) UpsertListing(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	var saved domain.Listing
	if err := c.post(ctx, "/api/v1/listings", l, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListObservations returns competitor price observations for a platform and SKU.
func (c *Client) ListObservations(ctx context.Context, platform, sku string, limit int) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("platform", platform)
	q.Set("sku", sku)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var points []domain.PricePoint
	if err := c.get(ctx, "/api/v1/observations?"+q.Encode(), &points); err != nil {
		return nil, err
	}
	return points, nil
}
