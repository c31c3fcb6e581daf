// Package store defines the datastore abstraction for the repricer. All
// business logic depends on the Store interface, never on concrete
// implementations, which enables mock-based testing without a database.
package store

import (
	"context"
	"errors"
	"time"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// HistoryQuery defines optional filters for history queries.
type HistoryQuery struct {
	ListingID *string
	ConfigID  *string
	RuleID    *string
	RuleName  *string
	Since     *time.Time
	Until     *time.Time
	DryRun    *bool
	Limit     int // default 50
	Offset    int
}

// ListingQuery selects eligible listings for a reprice cycle.
type ListingQuery struct {
	Platforms  []domain.Platform // empty = all
	ActiveOnly bool
	Limit      int
}

// Store defines all data access operations for the repricer.
type Store interface {
	// Rules. ListRules returns rules sorted by priority descending, then
	// creation time ascending, which fixes the first-wins evaluation order.
	CreateRule(ctx context.Context, r *domain.RepricingRule) error
	GetRule(ctx context.Context, id string) (*domain.RepricingRule, error)
	ListRules(ctx context.Context, enabledOnly bool) ([]domain.RepricingRule, error)
	UpdateRule(ctx context.Context, r *domain.RepricingRule) error
	DeleteRule(ctx context.Context, id string) error
	SetRuleEnabled(ctx context.Context, id string, enabled bool) error

	// Cross-platform rules.
	CreateCrossPlatformRule(ctx context.Context, r *domain.CrossPlatformRule) error
	ListCrossPlatformRules(ctx context.Context, enabledOnly bool) ([]domain.CrossPlatformRule, error)
	DeleteCrossPlatformRule(ctx context.Context, id string) error

	// Price observations feed cross-platform triggers.
	RecordPriceObservation(ctx context.Context, platform domain.Platform, sku string, price float64, at time.Time) error
	ListPriceObservations(ctx context.Context, platform domain.Platform, sku string, limit int) ([]domain.PricePoint, error)

	// Daemon configs.
	CreateConfig(ctx context.Context, c *domain.DaemonConfig) error
	GetConfig(ctx context.Context, id string) (*domain.DaemonConfig, error)
	ListConfigs(ctx context.Context, enabledOnly bool) ([]domain.DaemonConfig, error)
	UpdateConfig(ctx context.Context, c *domain.DaemonConfig) error
	DeleteConfig(ctx context.Context, id string) error
	SetConfigEnabled(ctx context.Context, id string, enabled bool) error
	IncrementConfigTotals(ctx context.Context, id string, cycles, changes int) error

	// Listings.
	UpsertListing(ctx context.Context, l *domain.Listing) error
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListEligibleListings(ctx context.Context, q *ListingQuery) ([]domain.Listing, error)
	UpdateListingPrice(ctx context.Context, id string, price float64, at time.Time) error

	// History is append-only; records are never updated or deleted.
	AppendHistory(ctx context.Context, r *domain.HistoryRecord) error
	ListHistory(ctx context.Context, q *HistoryQuery) ([]domain.HistoryRecord, int, error)
	GetRepriceStats(ctx context.Context, configID *string, since *time.Time) (*domain.RepriceStats, error)

	// Cycle runs.
	InsertCycleRun(ctx context.Context, configID string) (string, error)
	CompleteCycleRun(ctx context.Context, id string, status string, errText string, run *domain.CycleRun) error
	ListCycleRuns(ctx context.Context, configID string, limit int) ([]domain.CycleRun, error)
	RecoverStaleCycleRuns(ctx context.Context, olderThan time.Duration) (int, error)
	DeleteOldCycleRuns(ctx context.Context, olderThan time.Duration) (int, error)

	// Cycle locks stop two service instances repricing the same config.
	AcquireCycleLock(ctx context.Context, configID string, holder string, ttl time.Duration) (bool, error)
	ReleaseCycleLock(ctx context.Context, configID string, holder string) error

	// Aggregates
	GetSystemState(ctx context.Context) (*domain.SystemState, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
