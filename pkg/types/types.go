// Package domain defines the core business types for the Flip God repricer.
package domain

import (
	"fmt"
	"time"
)

// Platform identifies a marketplace a listing is sold on.
type Platform string

// Platform constants.
const (
	PlatformAmazon  Platform = "amazon"
	PlatformEbay    Platform = "ebay"
	PlatformWalmart Platform = "walmart"
	PlatformShopify Platform = "shopify"
)

// Valid reports whether p is a known marketplace.
func (p Platform) Valid() bool {
	switch p {
	case PlatformAmazon, PlatformEbay, PlatformWalmart, PlatformShopify:
		return true
	}
	return false
}

// Listing represents one of our own product listings on a marketplace.
type Listing struct {
	ID         string   `json:"id"          db:"id"`
	SKU        string   `json:"sku"         db:"sku"`
	Platform   Platform `json:"platform"    db:"platform"`
	ExternalID string   `json:"external_id" db:"external_id"`
	Title      string   `json:"title"       db:"title"`
	Category   string   `json:"category,omitempty" db:"category"`

	// Pricing
	CurrentPrice float64 `json:"current_price"           db:"current_price"`
	CostPrice    float64 `json:"cost_price"              db:"cost_price"`
	LandedCost   float64 `json:"landed_cost,omitempty"   db:"landed_cost"`
	ShippingCost float64 `json:"shipping_cost,omitempty" db:"shipping_cost"`
	Currency     string  `json:"currency"                db:"currency"`

	Active bool `json:"active" db:"active"`

	// Timestamps
	ListedAt       *time.Time `json:"listed_at,omitempty"        db:"listed_at"`
	LastRepricedAt *time.Time `json:"last_repriced_at,omitempty" db:"last_repriced_at"`
	CreatedAt      time.Time  `json:"created_at"                 db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"                 db:"updated_at"`
}

// DaysListed returns whole days elapsed since the listing went live,
// relative to now. Zero when ListedAt is unset.
func (l *Listing) DaysListed(now time.Time) int {
	if l.ListedAt == nil {
		return 0
	}
	d := int(now.Sub(*l.ListedAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// SalesData holds recent sales velocity for a listing.
type SalesData struct {
	TotalSales      int     `json:"total_sales"`
	SalesLast7Days  int     `json:"sales_last_7_days"`
	SalesLast14Days int     `json:"sales_last_14_days"`
	AvgDailySales   float64 `json:"avg_daily_sales"`
	LookbackDays    int     `json:"lookback_days"`
}

// MarketData is a per-evaluation snapshot of the market around one listing.
// It is fetched fresh for every evaluation and never cached across cycles;
// stale competitor data directly causes mispricing.
type MarketData struct {
	// CompetitorPrices are total prices (item + shipping), ascending.
	CompetitorPrices []float64  `json:"competitor_prices"`
	BuyBoxPrice      *float64   `json:"buy_box_price,omitempty"`
	Sales            *SalesData `json:"sales,omitempty"`
	DaysListed       int        `json:"days_listed"`
	CostPrice        float64    `json:"cost_price"`
	ShippingCost     float64    `json:"shipping_cost"`
	FetchedAt        time.Time  `json:"fetched_at"`
}

// CompetitorMin returns the lowest competitor price, or false when there are
// no competitors.
func (m *MarketData) CompetitorMin() (float64, bool) {
	if len(m.CompetitorPrices) == 0 {
		return 0, false
	}
	return m.CompetitorPrices[0], true
}

// CompetitorAvg returns the mean competitor price, or false when there are
// no competitors.
func (m *MarketData) CompetitorAvg() (float64, bool) {
	if len(m.CompetitorPrices) == 0 {
		return 0, false
	}
	var sum float64
	for _, p := range m.CompetitorPrices {
		sum += p
	}
	return sum / float64(len(m.CompetitorPrices)), true
}

// PricePoint is a single observed price on a watched platform.
type PricePoint struct {
	Price      float64   `json:"price"       db:"price"`
	ObservedAt time.Time `json:"observed_at" db:"observed_at"`
}

// RuleEvalResult is the outcome of evaluating one rule against one listing.
// NewPrice is nil exactly when Triggered is false.
type RuleEvalResult struct {
	NewPrice  *float64 `json:"new_price,omitempty"`
	Reason    string   `json:"reason"`
	Triggered bool     `json:"triggered"`
}

// NotTriggered builds an untriggered result with the given reason.
func NotTriggered(reason string) RuleEvalResult {
	return RuleEvalResult{Reason: reason}
}

// Triggered builds a triggered result carrying the candidate price.
func Triggered(price float64, reason string) RuleEvalResult {
	return RuleEvalResult{NewPrice: &price, Reason: reason, Triggered: true}
}

// DaemonConfig describes one recurring reprice cycle configuration.
type DaemonConfig struct {
	ID        string `json:"id"         db:"id"`
	Name      string `json:"name"       db:"name"`
	Enabled   bool   `json:"enabled"    db:"enabled"`
	DryRun    bool   `json:"dry_run"    db:"dry_run"`
	BatchSize int    `json:"batch_size" db:"batch_size"`

	IntervalMs int64 `json:"interval_ms" db:"interval_ms"`
	CooldownMs int64 `json:"cooldown_ms" db:"cooldown_ms"`

	// Strategies is the ordered list of ad-hoc strategy names this config
	// runs in addition to stored rules. Empty means rules only.
	Strategies []string `json:"strategies,omitempty" db:"strategies"`

	// Guardrail bounds applied on top of rule-level bounds.
	MinPrice     *float64 `json:"min_price,omitempty" db:"min_price"`
	MaxPrice     *float64 `json:"max_price,omitempty" db:"max_price"`
	MaxChangePct float64  `json:"max_change_pct"      db:"max_change_pct"`

	// Platforms restricts eligible listings; empty means all platforms.
	Platforms  []Platform `json:"platforms,omitempty" db:"platforms"`
	ActiveOnly bool       `json:"active_only"         db:"active_only"`

	// Running totals, updated after each completed cycle.
	TotalCycles  int `json:"total_cycles"  db:"total_cycles"`
	TotalChanges int `json:"total_changes" db:"total_changes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Interval returns the cycle interval as a duration.
func (c *DaemonConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Cooldown returns the per-listing cooldown as a duration.
func (c *DaemonConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// AllowsPlatform reports whether the config's platform allow-list admits p.
func (c *DaemonConfig) AllowsPlatform(p Platform) bool {
	if len(c.Platforms) == 0 {
		return true
	}
	for _, allowed := range c.Platforms {
		if allowed == p {
			return true
		}
	}
	return false
}

// Validate checks structural config invariants. Strategy names are checked
// by the engine, which owns the strategy registry.
func (c *DaemonConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.IntervalMs <= 0 {
		return fmt.Errorf("interval_ms must be positive, got %d", c.IntervalMs)
	}
	if c.CooldownMs < 0 {
		return fmt.Errorf("cooldown_ms must not be negative, got %d", c.CooldownMs)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative, got %d", c.BatchSize)
	}
	if c.MaxChangePct < 0 {
		return fmt.Errorf("max_change_pct must not be negative, got %v", c.MaxChangePct)
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		return fmt.Errorf("min_price %v exceeds max_price %v", *c.MinPrice, *c.MaxPrice)
	}
	for _, p := range c.Platforms {
		if !p.Valid() {
			return fmt.Errorf("unknown platform %q", p)
		}
	}
	return nil
}

// HistoryRecord is one append-only price change ledger entry. Records are
// never updated or deleted; they are the sole source of truth for audit
// and aggregate statistics.
type HistoryRecord struct {
	ID        string  `json:"id"                  db:"id"`
	ListingID string  `json:"listing_id"          db:"listing_id"`
	ConfigID  *string `json:"config_id,omitempty" db:"config_id"`
	RuleID    *string `json:"rule_id,omitempty"   db:"rule_id"`
	RuleName  string  `json:"rule_name,omitempty" db:"rule_name"`
	OldPrice  float64 `json:"old_price"           db:"old_price"`
	NewPrice  float64 `json:"new_price"           db:"new_price"`
	Reason    string  `json:"reason"              db:"reason"`
	DryRun    bool    `json:"dry_run"             db:"dry_run"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ChangePct returns the signed percentage delta of the recorded change.
func (r *HistoryRecord) ChangePct() float64 {
	if r.OldPrice == 0 {
		return 0
	}
	return (r.NewPrice - r.OldPrice) / r.OldPrice * 100
}

// CycleRun records a single execution of a daemon cycle.
type CycleRun struct {
	ID          string     `json:"id"                     db:"id"`
	ConfigID    string     `json:"config_id"              db:"config_id"`
	StartedAt   time.Time  `json:"started_at"             db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Status      string     `json:"status"                 db:"status"`
	ErrorText   string     `json:"error_text,omitempty"   db:"error_text"`
	Processed   int        `json:"processed"              db:"processed"`
	Changed     int        `json:"changed"                db:"changed"`
	Blocked     int        `json:"blocked"                db:"blocked"`
	Failed      int        `json:"failed"                 db:"failed"`
}

// Cycle run status values.
const (
	CycleStatusRunning   = "running"
	CycleStatusCompleted = "completed"
	CycleStatusFailed    = "failed"
	CycleStatusCrashed   = "crashed"
)

// DayCount is one day's change count in a stats breakdown.
type DayCount struct {
	Day   string `json:"day"   db:"day"`
	Count int    `json:"count" db:"count"`
}

// RepriceStats holds derived aggregates over the history ledger.
type RepriceStats struct {
	TotalChanges int            `json:"total_changes"`
	AvgChangePct float64        `json:"avg_change_pct"`
	ByStrategy   map[string]int `json:"by_strategy"`
	ByDay        []DayCount     `json:"by_day"`
}

// SystemState holds a precomputed snapshot of aggregate system counts.
type SystemState struct {
	RulesTotal     int `json:"rules_total"     db:"rules_total"`
	RulesEnabled   int `json:"rules_enabled"   db:"rules_enabled"`
	ConfigsTotal   int `json:"configs_total"   db:"configs_total"`
	ConfigsEnabled int `json:"configs_enabled" db:"configs_enabled"`
	ListingsTotal  int `json:"listings_total"  db:"listings_total"`
	ListingsActive int `json:"listings_active" db:"listings_active"`
	Changes24h     int `json:"changes_24h"     db:"changes_24h"`
	Blocked24h     int `json:"blocked_24h"     db:"blocked_24h"`
	CyclesRunning  int `json:"cycles_running"  db:"cycles_running"`
}
