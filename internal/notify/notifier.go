// Package notify delivers price change and cycle summary notifications.
package notify

import (
	"context"
	"time"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// PriceChange describes one applied (or dry-run) price change.
type PriceChange struct {
	ListingID  string          `json:"listing_id"`
	SKU        string          `json:"sku"`
	Platform   domain.Platform `json:"platform"`
	RuleName   string          `json:"rule_name"`
	OldPrice   float64         `json:"old_price"`
	NewPrice   float64         `json:"new_price"`
	Reason     string          `json:"reason"`
	DryRun     bool            `json:"dry_run"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// CycleSummary describes the outcome of one reprice cycle.
type CycleSummary struct {
	ConfigID       string        `json:"config_id"`
	ConfigName     string        `json:"config_name"`
	ListingsSeen   int           `json:"listings_seen"`
	ChangesApplied int           `json:"changes_applied"`
	Blocked        int           `json:"blocked"`
	Errors         int           `json:"errors"`
	DryRun         bool          `json:"dry_run"`
	Duration       time.Duration `json:"duration"`
	StartedAt      time.Time     `json:"started_at"`
}

// Notifier delivers notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	SendPriceChange(ctx context.Context, change PriceChange) error
	SendCycleSummary(ctx context.Context, summary CycleSummary) error
}

// Noop discards every notification.
type Noop struct{}

// NewNoop returns a notifier that does nothing.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) SendPriceChange(context.Context, PriceChange) error   { return nil }
func (*Noop) SendCycleSummary(context.Context, CycleSummary) error { return nil }
