package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Rules.

// CreateRule inserts a rule; params and window are stored as JSONB.
func (s *PostgresStore) CreateRule(ctx context.Context, r *domain.RepricingRule) error {
	params, window, err := marshalRulePayload(r)
	if err != nil {
		return err
	}

	args := pgx.NamedArgs{
		"name":        r.Name,
		"platform":    string(r.Platform),
		"family":      string(r.Family),
		"category":    r.Category,
		"sku_pattern": r.SKUPattern,
		"params":      params,
		"priority":    r.Priority,
		"enabled":     r.Enabled,
		"time_window": window,
	}
	return s.pool.QueryRow(ctx, queryCreateRule, args).Scan(
		&r.ID, &r.CreatedAt, &r.UpdatedAt,
	)
}

// GetRule retrieves a rule by ID.
func (s *PostgresStore) GetRule(ctx context.Context, id string) (*domain.RepricingRule, error) {
	r := &domain.RepricingRule{}
	if err := scanRule(s.pool.QueryRow(ctx, queryGetRule, id), r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRules returns rules in evaluation order: priority descending, then
// creation time ascending, then ID.
func (s *PostgresStore) ListRules(ctx context.Context, enabledOnly bool) ([]domain.RepricingRule, error) {
	rows, err := s.pool.Query(ctx, queryListRules, enabledOnly)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.RepricingRule
	for rows.Next() {
		var r domain.RepricingRule
		if err := scanRule(rows, &r); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// UpdateRule replaces a rule's mutable fields.
func (s *PostgresStore) UpdateRule(ctx context.Context, r *domain.RepricingRule) error {
	params, window, err := marshalRulePayload(r)
	if err != nil {
		return err
	}

	args := pgx.NamedArgs{
		"id":          r.ID,
		"name":        r.Name,
		"platform":    string(r.Platform),
		"family":      string(r.Family),
		"category":    r.Category,
		"sku_pattern": r.SKUPattern,
		"params":      params,
		"priority":    r.Priority,
		"enabled":     r.Enabled,
		"time_window": window,
	}
	err = s.pool.QueryRow(ctx, queryUpdateRule, args).Scan(&r.UpdatedAt)
	return translateNoRows(err)
}

// DeleteRule removes a rule.
func (s *PostgresStore) DeleteRule(ctx context.Context, id string) error {
	return s.execExpectingRow(ctx, queryDeleteRule, id)
}

// SetRuleEnabled toggles a rule.
func (s *PostgresStore) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	return s.execExpectingRow(ctx, querySetRuleEnabled, id, enabled)
}

// Cross-platform rules.

// CreateCrossPlatformRule inserts a cross-platform rule.
func (s *PostgresStore) CreateCrossPlatformRule(ctx context.Context, r *domain.CrossPlatformRule) error {
	args := pgx.NamedArgs{
		"name":              r.Name,
		"watched_platform":  string(r.WatchedPlatform),
		"adjusted_platform": string(r.AdjustedPlatform),
		"trigger_kind":      string(r.Trigger),
		"adjustment_pct":    r.AdjustmentPct,
		"min_price":         r.MinPrice,
		"enabled":           r.Enabled,
	}
	return s.pool.QueryRow(ctx, queryCreateCrossPlatformRule, args).Scan(
		&r.ID, &r.CreatedAt, &r.UpdatedAt,
	)
}

// ListCrossPlatformRules returns cross-platform rules oldest first.
func (s *PostgresStore) ListCrossPlatformRules(ctx context.Context, enabledOnly bool) ([]domain.CrossPlatformRule, error) {
	rows, err := s.pool.Query(ctx, queryListCrossPlatformRules, enabledOnly)
	if err != nil {
		return nil, fmt.Errorf("querying cross-platform rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.CrossPlatformRule
	for rows.Next() {
		var r domain.CrossPlatformRule
		var watched, adjusted, trigger string
		if err := rows.Scan(
			&r.ID, &r.Name, &watched, &adjusted, &trigger,
			&r.AdjustmentPct, &r.MinPrice, &r.Enabled, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning cross-platform rule: %w", err)
		}
		r.WatchedPlatform = domain.Platform(watched)
		r.AdjustedPlatform = domain.Platform(adjusted)
		r.Trigger = domain.TriggerKind(trigger)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// DeleteCrossPlatformRule removes a cross-platform rule.
func (s *PostgresStore) DeleteCrossPlatformRule(ctx context.Context, id string) error {
	return s.execExpectingRow(ctx, queryDeleteCrossPlatformRule, id)
}

// Price observations.

// RecordPriceObservation appends one observed price for a platform/SKU pair.
func (s *PostgresStore) RecordPriceObservation(ctx context.Context, platform domain.Platform, sku string, price float64, at time.Time) error {
	_, err := s.pool.Exec(ctx, queryRecordPriceObservation, string(platform), sku, price, at)
	if err != nil {
		return fmt.Errorf("recording price observation: %w", err)
	}
	return nil
}

// ListPriceObservations returns up to limit most recent observations,
// oldest first.
func (s *PostgresStore) ListPriceObservations(ctx context.Context, platform domain.Platform, sku string, limit int) ([]domain.PricePoint, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, queryListPriceObservations, string(platform), sku, limit)
	if err != nil {
		return nil, fmt.Errorf("querying price observations: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Price, &p.ObservedAt); err != nil {
			return nil, fmt.Errorf("scanning price observation: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Daemon configs.

// CreateConfig inserts a daemon config.
func (s *PostgresStore) CreateConfig(ctx context.Context, c *domain.DaemonConfig) error {
	args := pgx.NamedArgs{
		"name":           c.Name,
		"enabled":        c.Enabled,
		"dry_run":        c.DryRun,
		"batch_size":     c.BatchSize,
		"interval_ms":    c.IntervalMs,
		"cooldown_ms":    c.CooldownMs,
		"strategies":     c.Strategies,
		"min_price":      c.MinPrice,
		"max_price":      c.MaxPrice,
		"max_change_pct": c.MaxChangePct,
		"platforms":      platformStrings(c.Platforms),
		"active_only":    c.ActiveOnly,
	}
	return s.pool.QueryRow(ctx, queryCreateConfig, args).Scan(
		&c.ID, &c.CreatedAt, &c.UpdatedAt,
	)
}

// GetConfig retrieves a config by ID.
func (s *PostgresStore) GetConfig(ctx context.Context, id string) (*domain.DaemonConfig, error) {
	c := &domain.DaemonConfig{}
	if err := scanConfig(s.pool.QueryRow(ctx, queryGetConfig, id), c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListConfigs returns configs oldest first.
func (s *PostgresStore) ListConfigs(ctx context.Context, enabledOnly bool) ([]domain.DaemonConfig, error) {
	rows, err := s.pool.Query(ctx, queryListConfigs, enabledOnly)
	if err != nil {
		return nil, fmt.Errorf("querying configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.DaemonConfig
	for rows.Next() {
		var c domain.DaemonConfig
		if err := scanConfig(rows, &c); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// UpdateConfig replaces a config's mutable fields; running totals are only
// touched by IncrementConfigTotals.
func (s *PostgresStore) UpdateConfig(ctx context.Context, c *domain.DaemonConfig) error {
	args := pgx.NamedArgs{
		"id":             c.ID,
		"name":           c.Name,
		"enabled":        c.Enabled,
		"dry_run":        c.DryRun,
		"batch_size":     c.BatchSize,
		"interval_ms":    c.IntervalMs,
		"cooldown_ms":    c.CooldownMs,
		"strategies":     c.Strategies,
		"min_price":      c.MinPrice,
		"max_price":      c.MaxPrice,
		"max_change_pct": c.MaxChangePct,
		"platforms":      platformStrings(c.Platforms),
		"active_only":    c.ActiveOnly,
	}
	err := s.pool.QueryRow(ctx, queryUpdateConfig, args).Scan(&c.UpdatedAt)
	return translateNoRows(err)
}

// DeleteConfig removes a config.
func (s *PostgresStore) DeleteConfig(ctx context.Context, id string) error {
	return s.execExpectingRow(ctx, queryDeleteConfig, id)
}

// SetConfigEnabled toggles a config.
func (s *PostgresStore) SetConfigEnabled(ctx context.Context, id string, enabled bool) error {
	return s.execExpectingRow(ctx, querySetConfigEnabled, id, enabled)
}

// IncrementConfigTotals bumps a config's running cycle/change counters.
func (s *PostgresStore) IncrementConfigTotals(ctx context.Context, id string, cycles, changes int) error {
	return s.execExpectingRow(ctx, queryIncrementConfigTotals, id, cycles, changes)
}

// Listings.

// UpsertListing inserts or updates a listing by (platform, external_id).
func (s *PostgresStore) UpsertListing(ctx context.Context, l *domain.Listing) error {
	args := pgx.NamedArgs{
		"sku":           l.SKU,
		"platform":      string(l.Platform),
		"external_id":   l.ExternalID,
		"title":         l.Title,
		"category":      l.Category,
		"current_price": l.CurrentPrice,
		"cost_price":    l.CostPrice,
		"landed_cost":   l.LandedCost,
		"shipping_cost": l.ShippingCost,
		"currency":      defaultCurrency(l.Currency),
		"active":        l.Active,
		"listed_at":     l.ListedAt,
	}
	return s.pool.QueryRow(ctx, queryUpsertListing, args).Scan(
		&l.ID, &l.CreatedAt, &l.UpdatedAt,
	)
}

// GetListing retrieves a listing by ID.
func (s *PostgresStore) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l := &domain.Listing{}
	if err := scanListing(s.pool.QueryRow(ctx, queryGetListing, id), l); err != nil {
		return nil, err
	}
	return l, nil
}

// ListEligibleListings returns listings matching the cycle's platform and
// active filters, capped at q.Limit.
func (s *PostgresStore) ListEligibleListings(ctx context.Context, q *ListingQuery) ([]domain.Listing, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.pool.Query(ctx, queryListEligibleListings,
		q.ActiveOnly, platformStrings(q.Platforms), limit)
	if err != nil {
		return nil, fmt.Errorf("querying eligible listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// UpdateListingPrice sets the stored price and last reprice timestamp.
func (s *PostgresStore) UpdateListingPrice(ctx context.Context, id string, price float64, at time.Time) error {
	return s.execExpectingRow(ctx, queryUpdateListingPrice, id, price, at)
}

// History.

// AppendHistory appends one ledger record.
func (s *PostgresStore) AppendHistory(ctx context.Context, r *domain.HistoryRecord) error {
	args := pgx.NamedArgs{
		"listing_id": r.ListingID,
		"config_id":  r.ConfigID,
		"rule_id":    r.RuleID,
		"rule_name":  r.RuleName,
		"old_price":  r.OldPrice,
		"new_price":  r.NewPrice,
		"reason":     r.Reason,
		"dry_run":    r.DryRun,
	}
	return s.pool.QueryRow(ctx, queryAppendHistory, args).Scan(&r.ID, &r.CreatedAt)
}

// ListHistory queries the ledger with optional filters, returning matching
// records newest first plus the unpaginated total.
func (s *PostgresStore) ListHistory(ctx context.Context, q *HistoryQuery) ([]domain.HistoryRecord, int, error) {
	dataSQL, countSQL, args := q.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting history: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var r domain.HistoryRecord
		if err := rows.Scan(
			&r.ID, &r.ListingID, &r.ConfigID, &r.RuleID,
			&r.RuleName, &r.OldPrice, &r.NewPrice, &r.Reason, &r.DryRun, &r.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning history record: %w", err)
		}
		records = append(records, r)
	}
	return records, total, rows.Err()
}

// GetRepriceStats computes aggregates over the ledger in SQL.
func (s *PostgresStore) GetRepriceStats(ctx context.Context, configID *string, since *time.Time) (*domain.RepriceStats, error) {
	stats := &domain.RepriceStats{ByStrategy: make(map[string]int)}

	if err := s.pool.QueryRow(ctx, queryRepriceStatsTotals, configID, since).Scan(
		&stats.TotalChanges, &stats.AvgChangePct,
	); err != nil {
		return nil, fmt.Errorf("querying stats totals: %w", err)
	}

	rows, err := s.pool.Query(ctx, queryRepriceStatsByStrategy, configID, since)
	if err != nil {
		return nil, fmt.Errorf("querying stats by strategy: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scanning strategy count: %w", err)
		}
		stats.ByStrategy[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dayRows, err := s.pool.Query(ctx, queryRepriceStatsByDay, configID, since)
	if err != nil {
		return nil, fmt.Errorf("querying stats by day: %w", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var dc domain.DayCount
		if err := dayRows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scanning day count: %w", err)
		}
		stats.ByDay = append(stats.ByDay, dc)
	}
	return stats, dayRows.Err()
}

// Cycle runs.

// InsertCycleRun opens a running cycle run row and returns its ID.
func (s *PostgresStore) InsertCycleRun(ctx context.Context, configID string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertCycleRun, configID).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting cycle run: %w", err)
	}
	return id, nil
}

// CompleteCycleRun finalizes a run with its status and counters.
func (s *PostgresStore) CompleteCycleRun(ctx context.Context, id string, status string, errText string, run *domain.CycleRun) error {
	return s.execExpectingRow(ctx, queryCompleteCycleRun,
		id, status, errText, run.Processed, run.Changed, run.Blocked, run.Failed)
}

// ListCycleRuns returns runs newest first; empty configID means all configs.
func (s *PostgresStore) ListCycleRuns(ctx context.Context, configID string, limit int) ([]domain.CycleRun, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	var cfgFilter *string
	if configID != "" {
		cfgFilter = &configID
	}

	rows, err := s.pool.Query(ctx, queryListCycleRuns, cfgFilter, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cycle runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.CycleRun
	for rows.Next() {
		var r domain.CycleRun
		if err := rows.Scan(
			&r.ID, &r.ConfigID, &r.StartedAt, &r.CompletedAt, &r.Status,
			&r.ErrorText, &r.Processed, &r.Changed, &r.Blocked, &r.Failed,
		); err != nil {
			return nil, fmt.Errorf("scanning cycle run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecoverStaleCycleRuns marks running rows older than the threshold as
// crashed, returning how many were recovered.
func (s *PostgresStore) RecoverStaleCycleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, queryRecoverStaleCycleRuns, intervalArg(olderThan))
	if err != nil {
		return 0, fmt.Errorf("recovering stale cycle runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteOldCycleRuns prunes finished runs older than the retention window.
func (s *PostgresStore) DeleteOldCycleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, queryDeleteOldCycleRuns, intervalArg(olderThan))
	if err != nil {
		return 0, fmt.Errorf("deleting old cycle runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Cycle locks.

// AcquireCycleLock takes the per-config lock if it is free, expired, or
// already held by this holder. It reports whether the lock was obtained.
func (s *PostgresStore) AcquireCycleLock(ctx context.Context, configID string, holder string, ttl time.Duration) (bool, error) {
	var got string
	err := s.pool.QueryRow(ctx, queryAcquireCycleLock, configID, holder, intervalArg(ttl)).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquiring cycle lock: %w", err)
	}
	return true, nil
}

// ReleaseCycleLock drops the lock if this holder still owns it.
func (s *PostgresStore) ReleaseCycleLock(ctx context.Context, configID string, holder string) error {
	if _, err := s.pool.Exec(ctx, queryReleaseCycleLock, configID, holder); err != nil {
		return fmt.Errorf("releasing cycle lock: %w", err)
	}
	return nil
}

// Aggregates.

// GetSystemState computes a snapshot of aggregate counts in one round trip.
func (s *PostgresStore) GetSystemState(ctx context.Context) (*domain.SystemState, error) {
	state := &domain.SystemState{}
	err := s.pool.QueryRow(ctx, querySystemState).Scan(
		&state.RulesTotal, &state.RulesEnabled,
		&state.ConfigsTotal, &state.ConfigsEnabled,
		&state.ListingsTotal, &state.ListingsActive,
		&state.Changes24h, &state.Blocked24h,
		&state.CyclesRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("querying system state: %w", err)
	}
	return state, nil
}

// Scan and argument helpers.

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner, r *domain.RepricingRule) error {
	var platform, family string
	var params []byte
	var window []byte

	err := row.Scan(
		&r.ID, &r.Name, &platform, &family, &r.Category, &r.SKUPattern,
		&params, &r.Priority, &r.Enabled, &window, &r.CreatedAt, &r.UpdatedAt,
	)
	if err := translateNoRows(err); err != nil {
		return err
	}

	r.Platform = domain.Platform(platform)
	r.Family = domain.RuleFamily(family)

	if err := json.Unmarshal(params, &r.Params); err != nil {
		return fmt.Errorf("decoding rule params: %w", err)
	}
	if len(window) > 0 {
		r.Window = &domain.TimeCondition{}
		if err := json.Unmarshal(window, r.Window); err != nil {
			return fmt.Errorf("decoding rule window: %w", err)
		}
	}
	return nil
}

func scanConfig(row rowScanner, c *domain.DaemonConfig) error {
	var platforms []string

	err := row.Scan(
		&c.ID, &c.Name, &c.Enabled, &c.DryRun, &c.BatchSize,
		&c.IntervalMs, &c.CooldownMs,
		&c.Strategies, &c.MinPrice, &c.MaxPrice, &c.MaxChangePct,
		&platforms, &c.ActiveOnly, &c.TotalCycles, &c.TotalChanges,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err := translateNoRows(err); err != nil {
		return err
	}

	c.Platforms = make([]domain.Platform, len(platforms))
	for i, p := range platforms {
		c.Platforms[i] = domain.Platform(p)
	}
	return nil
}

func scanListing(row rowScanner, l *domain.Listing) error {
	var platform string

	err := row.Scan(
		&l.ID, &l.SKU, &platform, &l.ExternalID, &l.Title, &l.Category,
		&l.CurrentPrice, &l.CostPrice, &l.LandedCost, &l.ShippingCost, &l.Currency,
		&l.Active, &l.ListedAt, &l.LastRepricedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err := translateNoRows(err); err != nil {
		return err
	}

	l.Platform = domain.Platform(platform)
	return nil
}

// marshalRulePayload encodes params and window as JSONB values; a nil
// window stays NULL.
func marshalRulePayload(r *domain.RepricingRule) (params, window []byte, err error) {
	params, err = json.Marshal(r.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding rule params: %w", err)
	}
	if r.Window != nil {
		window, err = json.Marshal(r.Window)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding rule window: %w", err)
		}
	}
	return params, window, nil
}

// execExpectingRow runs a statement that must affect at least one row,
// translating zero rows into ErrNotFound.
func (s *PostgresStore) execExpectingRow(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func translateNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func platformStrings(platforms []domain.Platform) []string {
	out := make([]string, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}
	return out
}

func defaultCurrency(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}

// intervalArg renders a duration as a Postgres interval literal.
func intervalArg(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d.Seconds()))
}
