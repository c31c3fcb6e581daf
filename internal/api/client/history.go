package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// HistoryFilter narrows a history query. Zero values are ignored.
type HistoryFilter struct {
	ListingID string
	ConfigID  string
	RuleName  string
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

// HistoryPage is one page of reprice history.
type HistoryPage struct {
	Records []domain.HistoryRecord `json:"records"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// ListHistory returns a page of reprice history records, newest first.
func (c *Client) ListHistory(ctx context.Context, f HistoryFilter) (*HistoryPage, error) {
	q := url.Values{}
	if f.ListingID != "" {
		q.Set("listing_id", f.ListingID)
	}
	if f.ConfigID != "" {
		q.Set("config_id", f.ConfigID)
	}
	if f.RuleName != "" {
		q.Set("rule_name", f.RuleName)
	}
	if !f.Since.IsZero() {
		q.Set("since", f.Since.Format(time.RFC3339))
	}
	if !f.Until.IsZero() {
		q.Set("until", f.Until.Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	path := "/api/v1/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var page HistoryPage
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetRepriceStats returns aggregate reprice statistics.
func (c *Client) GetRepriceStats(ctx context.Context, configID string, since time.Time) (*domain.RepriceStats, error) {
	q := url.Values{}
	if configID != "" {
		q.Set("config_id", configID)
	}
	if !since.IsZero() {
		q.Set("since", since.Format(time.RFC3339))
	}
	path := "/api/v1/history/stats"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var stats domain.RepriceStats
	if err := c.get(ctx, path, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
