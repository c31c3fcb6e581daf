package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/alsk1992/Flip-God-sub007/internal/marketplace"
	"github.com/alsk1992/Flip-God-sub007/internal/metrics"
	"github.com/alsk1992/Flip-God-sub007/internal/notify"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

const (
	defaultBatchSize    = 200
	cycleLockTTL        = 15 * time.Minute
	observationLookback = 10
)

// ErrCycleInProgress is returned when another holder owns the cycle lock
// for a config.
var ErrCycleInProgress = errors.New("cycle already in progress for config")

// Marketplace is the slice of the marketplace registry the engine needs.
type Marketplace interface {
	GetMarketData(ctx context.Context, listing *domain.Listing) (*domain.MarketData, error)
	ApplyPrice(ctx context.Context, listing *domain.Listing, newPrice float64) error
}

// Engine orchestrates reprice cycles: lock, load, evaluate, guard, apply,
// record.
type Engine struct {
	store    store.Store
	market   Marketplace
	notifier notify.Notifier
	log      *slog.Logger

	holder string
	now    func() time.Time
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	m Marketplace,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:    s,
		market:   m,
		notifier: n,
		log:      slog.Default(),
		holder:   defaultHolder(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithHolder sets the lock holder identity for this instance.
func WithHolder(holder string) EngineOption {
	return func(e *Engine) {
		e.holder = holder
	}
}

// WithNowFunc sets the clock, for tests.
func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func defaultHolder() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + "-" + uuid.NewString()[:8]
}

// RunCycle executes one reprice cycle for the config. It acquires the
// per-config cycle lock first and returns ErrCycleInProgress when another
// holder owns it. Per-listing failures are isolated: they are counted and
// logged but never abort the cycle.
func (eng *Engine) RunCycle(ctx context.Context, cfg *domain.DaemonConfig) (*domain.CycleRun, error) {
	start := eng.now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	acquired, err := eng.store.AcquireCycleLock(ctx, cfg.ID, eng.holder, cycleLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquiring cycle lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrCycleInProgress, cfg.ID)
	}
	defer func() {
		if relErr := eng.store.ReleaseCycleLock(context.WithoutCancel(ctx), cfg.ID, eng.holder); relErr != nil {
			eng.log.Error("releasing cycle lock failed", "config", cfg.ID, "error", relErr)
		}
	}()

	runID, err := eng.store.InsertCycleRun(ctx, cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting cycle run: %w", err)
	}

	run := &domain.CycleRun{
		ID:        runID,
		ConfigID:  cfg.ID,
		StartedAt: start,
		Status:    domain.CycleStatusRunning,
	}

	rules, crossRules, loadErr := eng.loadRules(ctx)
	if loadErr != nil {
		eng.completeRun(ctx, run, domain.CycleStatusFailed, loadErr.Error())
		return run, loadErr
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	listings, err := eng.store.ListEligibleListings(ctx, &store.ListingQuery{
		Platforms:  cfg.Platforms,
		ActiveOnly: cfg.ActiveOnly,
		Limit:      batch,
	})
	if err != nil {
		err = fmt.Errorf("listing eligible listings: %w", err)
		eng.completeRun(ctx, run, domain.CycleStatusFailed, err.Error())
		return run, err
	}

	eng.log.Info("cycle started",
		"config", cfg.Name,
		"listings", len(listings),
		"rules", len(rules),
		"dry_run", cfg.DryRun,
	)

	for i := range listings {
		if ctx.Err() != nil {
			eng.completeRun(ctx, run, domain.CycleStatusFailed, ctx.Err().Error())
			return run, ctx.Err()
		}

		run.Processed++
		metrics.CycleListingsTotal.Inc()

		outcome := eng.processListing(ctx, cfg, rules, crossRules, &listings[i])
		switch outcome {
		case outcomeChanged:
			run.Changed++
			metrics.CycleChangesTotal.WithLabelValues(strconv.FormatBool(cfg.DryRun)).Inc()
		case outcomeBlocked:
			run.Blocked++
		case outcomeError:
			run.Failed++
			metrics.CycleErrorsTotal.Inc()
		}
	}

	eng.completeRun(ctx, run, domain.CycleStatusCompleted, "")

	if err := eng.store.IncrementConfigTotals(ctx, cfg.ID, 1, run.Changed); err != nil {
		eng.log.Error("updating config totals failed", "config", cfg.ID, "error", err)
	}

	eng.notifyCycle(ctx, cfg, run, start)

	eng.log.Info("cycle finished",
		"config", cfg.Name,
		"processed", run.Processed,
		"changed", run.Changed,
		"blocked", run.Blocked,
		"failed", run.Failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return run, nil
}

type listingOutcome int

const (
	outcomeNoop listingOutcome = iota
	outcomeChanged
	outcomeBlocked
	outcomeError
)

func (eng *Engine) loadRules(ctx context.Context) ([]domain.RepricingRule, []domain.CrossPlatformRule, error) {
	rules, err := eng.store.ListRules(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("listing rules: %w", err)
	}
	crossRules, err := eng.store.ListCrossPlatformRules(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("listing cross-platform rules: %w", err)
	}
	return rules, crossRules, nil
}

func (eng *Engine) processListing(
	ctx context.Context,
	cfg *domain.DaemonConfig,
	rules []domain.RepricingRule,
	crossRules []domain.CrossPlatformRule,
	listing *domain.Listing,
) listingOutcome {
	now := eng.now()

	market, err := eng.market.GetMarketData(ctx, listing)
	if err != nil {
		if errors.Is(err, marketplace.ErrDailyLimitReached) {
			metrics.MarketplaceDailyLimitHits.Inc()
		}
		metrics.MarketplaceErrorsTotal.WithLabelValues(string(listing.Platform), "market_data").Inc()
		eng.log.Error("market data fetch failed",
			"listing", listing.ID, "sku", listing.SKU, "error", err)
		return outcomeError
	}
	metrics.MarketplaceCallsTotal.WithLabelValues(string(listing.Platform), "market_data").Inc()

	// Evaluation reads listing facts through the snapshot.
	market.DaysListed = listing.DaysListed(now)
	market.CostPrice = listing.CostPrice
	market.ShippingCost = listing.ShippingCost

	// Every cycle leaves an observation so cross-platform rules can see
	// this platform's movement next time around.
	if err := eng.store.RecordPriceObservation(ctx, listing.Platform, listing.SKU, listing.CurrentPrice, now); err != nil {
		eng.log.Error("recording price observation failed",
			"listing", listing.ID, "error", err)
	}

	decision, ok := eng.decide(ctx, cfg, rules, crossRules, listing, market, now)
	if !ok {
		return outcomeNoop
	}

	guard := ApplyGuardrails(*decision.result.NewPrice, listing.CurrentPrice,
		decision.bounds, cfg, listing.LastRepricedAt, now)
	if guard.Blocked {
		metrics.GuardrailBlocksTotal.WithLabelValues(blockLabel(guard.Reason)).Inc()
		eng.log.Debug("price change blocked",
			"listing", listing.ID,
			"rule", decision.ruleName,
			"candidate", *decision.result.NewPrice,
			"reason", guard.Reason,
		)
		return outcomeBlocked
	}

	if !cfg.DryRun {
		if err := eng.market.ApplyPrice(ctx, listing, guard.Price); err != nil {
			metrics.MarketplaceErrorsTotal.WithLabelValues(string(listing.Platform), "apply_price").Inc()
			eng.log.Error("applying price failed",
				"listing", listing.ID, "price", guard.Price, "error", err)
			return outcomeError
		}
		metrics.MarketplaceCallsTotal.WithLabelValues(string(listing.Platform), "apply_price").Inc()
	}

	record := &domain.HistoryRecord{
		ListingID: listing.ID,
		ConfigID:  &cfg.ID,
		RuleID:    decision.ruleID,
		RuleName:  decision.ruleName,
		OldPrice:  listing.CurrentPrice,
		NewPrice:  guard.Price,
		Reason:    decision.result.Reason,
		DryRun:    cfg.DryRun,
	}
	if err := eng.store.AppendHistory(ctx, record); err != nil {
		eng.log.Error("appending history failed", "listing", listing.ID, "error", err)
		return outcomeError
	}

	if !cfg.DryRun {
		if err := eng.store.UpdateListingPrice(ctx, listing.ID, guard.Price, now); err != nil {
			eng.log.Error("updating listing price failed", "listing", listing.ID, "error", err)
			return outcomeError
		}
		listing.CurrentPrice = guard.Price
		listing.LastRepricedAt = &now
	}

	eng.notifyChange(ctx, listing, record, now)
	return outcomeChanged
}

// decision carries the first triggered rule outcome through guardrails and
// recording.
type decision struct {
	result   domain.RuleEvalResult
	ruleID   *string
	ruleName string
	bounds   *RuleBounds
}

// decide walks stored rules in priority order, then the config's ad-hoc
// strategies, then cross-platform rules. The first triggered result wins.
func (eng *Engine) decide(
	ctx context.Context,
	cfg *domain.DaemonConfig,
	rules []domain.RepricingRule,
	crossRules []domain.CrossPlatformRule,
	listing *domain.Listing,
	market *domain.MarketData,
	now time.Time,
) (decision, bool) {
	for i := range rules {
		rule := &rules[i]
		if !RuleApplies(rule, listing, now) {
			continue
		}

		result, err := EvaluateRule(rule, listing, market)
		if err != nil {
			metrics.RuleEvaluationsTotal.WithLabelValues(string(rule.Family), "error").Inc()
			eng.log.Error("rule evaluation failed",
				"rule", rule.Name, "listing", listing.ID, "error", err)
			continue
		}
		if !result.Triggered {
			metrics.RuleEvaluationsTotal.WithLabelValues(string(rule.Family), "not_triggered").Inc()
			continue
		}

		metrics.RuleEvaluationsTotal.WithLabelValues(string(rule.Family), "triggered").Inc()
		id := rule.ID
		return decision{
			result:   result,
			ruleID:   &id,
			ruleName: rule.Name,
			bounds:   boundsForRule(rule),
		}, true
	}

	for _, name := range cfg.Strategies {
		rule, err := strategyRule(name)
		if err != nil {
			eng.log.Warn("unknown strategy in config", "config", cfg.ID, "strategy", name)
			continue
		}

		result, err := EvaluateRule(rule, listing, market)
		if err != nil {
			metrics.RuleEvaluationsTotal.WithLabelValues(string(rule.Family), "error").Inc()
			eng.log.Error("strategy evaluation failed",
				"strategy", name, "listing", listing.ID, "error", err)
			continue
		}
		if !result.Triggered {
			metrics.RuleEvaluationsTotal.WithLabelValues(string(rule.Family), "not_triggered").Inc()
			continue
		}

		metrics.RuleEvaluationsTotal.WithLabelValues(string(rule.Family), "triggered").Inc()
		return decision{
			result:   result,
			ruleName: name,
			bounds:   boundsForRule(rule),
		}, true
	}

	if d, ok := eng.decideCrossPlatform(ctx, crossRules, listing); ok {
		return d, true
	}

	return decision{}, false
}

func (eng *Engine) decideCrossPlatform(
	ctx context.Context,
	crossRules []domain.CrossPlatformRule,
	listing *domain.Listing,
) (decision, bool) {
	for i := range crossRules {
		rule := &crossRules[i]
		if !rule.Enabled || rule.AdjustedPlatform != listing.Platform {
			continue
		}

		history, err := eng.store.ListPriceObservations(ctx, rule.WatchedPlatform, listing.SKU, observationLookback)
		if err != nil {
			eng.log.Error("listing price observations failed",
				"sku", listing.SKU, "platform", rule.WatchedPlatform, "error", err)
			continue
		}

		result := EvaluateCrossPlatform(rule, history, listing.CurrentPrice)
		if !result.Triggered {
			continue
		}

		id := rule.ID
		return decision{
			result:   result,
			ruleID:   &id,
			ruleName: fmt.Sprintf("cross:%s->%s", rule.WatchedPlatform, rule.AdjustedPlatform),
			bounds:   &RuleBounds{Floor: rule.MinPrice},
		}, true
	}
	return decision{}, false
}

func (eng *Engine) completeRun(ctx context.Context, run *domain.CycleRun, status, errText string) {
	run.Status = status
	run.ErrorText = errText
	if err := eng.store.CompleteCycleRun(context.WithoutCancel(ctx), run.ID, status, errText, run); err != nil {
		eng.log.Error("completing cycle run failed", "run", run.ID, "error", err)
	}
}

func (eng *Engine) notifyChange(ctx context.Context, listing *domain.Listing, record *domain.HistoryRecord, now time.Time) {
	change := notify.PriceChange{
		ListingID:  listing.ID,
		SKU:        listing.SKU,
		Platform:   listing.Platform,
		RuleName:   record.RuleName,
		OldPrice:   record.OldPrice,
		NewPrice:   record.NewPrice,
		Reason:     record.Reason,
		DryRun:     record.DryRun,
		OccurredAt: now,
	}
	if err := eng.notifier.SendPriceChange(ctx, change); err != nil {
		eng.log.Error("price change notification failed", "listing", listing.ID, "error", err)
	}
}

func (eng *Engine) notifyCycle(ctx context.Context, cfg *domain.DaemonConfig, run *domain.CycleRun, start time.Time) {
	summary := notify.CycleSummary{
		ConfigID:       cfg.ID,
		ConfigName:     cfg.Name,
		ListingsSeen:   run.Processed,
		ChangesApplied: run.Changed,
		Blocked:        run.Blocked,
		Errors:         run.Failed,
		DryRun:         cfg.DryRun,
		Duration:       eng.now().Sub(start),
		StartedAt:      start,
	}
	if err := eng.notifier.SendCycleSummary(ctx, summary); err != nil {
		eng.log.Error("cycle summary notification failed", "config", cfg.ID, "error", err)
	}
}

// blockLabel folds dynamic bound-conflict reasons into a stable label set.
func blockLabel(reason string) string {
	switch reason {
	case BlockReasonCooldown, BlockReasonNoChange, BlockReasonBoundConflict:
		return reason
	default:
		return BlockReasonBoundConflict
	}
}
