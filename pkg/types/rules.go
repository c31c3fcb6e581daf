package domain

import (
	"fmt"
	"time"

	"github.com/alsk1992/Flip-God-sub007/pkg/expr"
)

// RuleFamily tags the evaluation strategy a repricing rule uses.
type RuleFamily string

// Rule family constants.
const (
	FamilyBeatLowest    RuleFamily = "beat_lowest"
	FamilyMatchBuyBox   RuleFamily = "match_buybox"
	FamilyFloorCeiling  RuleFamily = "floor_ceiling"
	FamilyMarginTarget  RuleFamily = "margin_target"
	FamilyVelocityBased RuleFamily = "velocity_based"
	FamilyTimeDecay     RuleFamily = "time_decay"
	FamilyExpression    RuleFamily = "expression"
)

// Families lists all known rule families in a stable order.
func Families() []RuleFamily {
	return []RuleFamily{
		FamilyBeatLowest, FamilyMatchBuyBox, FamilyFloorCeiling,
		FamilyMarginTarget, FamilyVelocityBased, FamilyTimeDecay,
		FamilyExpression,
	}
}

// CostBasis selects which listing cost field margin rules compute against.
type CostBasis string

// Cost basis constants.
const (
	CostBasisCost   CostBasis = "cost"
	CostBasisLanded CostBasis = "landed_cost"
)

// RepricingRule is a stored pricing rule. Params carries exactly the variant
// matching Family; the other variants are nil. The params blob round-trips
// exactly through JSON in the rules table.
type RepricingRule struct {
	ID       string     `json:"id"       db:"id"`
	Name     string     `json:"name"     db:"name"`
	Platform Platform   `json:"platform" db:"platform"`
	Family   RuleFamily `json:"family"   db:"family"`

	// Scope filters; empty matches everything.
	Category   string `json:"category,omitempty"    db:"category"`
	SKUPattern string `json:"sku_pattern,omitempty" db:"sku_pattern"`

	Params RuleParams `json:"params" db:"params"`

	// Higher priority wins; among equal priorities the earliest created
	// rule wins. The store returns rules presorted accordingly.
	Priority int  `json:"priority" db:"priority"`
	Enabled  bool `json:"enabled"  db:"enabled"`

	// Window restricts when the rule applies; nil means always.
	Window *TimeCondition `json:"window,omitempty" db:"window"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the rule's family tag against its params variant.
func (r *RepricingRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if err := r.Params.Validate(r.Family); err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	if r.Window != nil {
		if err := r.Window.Validate(); err != nil {
			return fmt.Errorf("rule %q window: %w", r.Name, err)
		}
	}
	return nil
}

// RuleParams is the tagged union of per-family parameter bundles. Exactly one
// variant is non-nil for a valid rule.
type RuleParams struct {
	BeatLowest    *BeatLowestParams    `json:"beat_lowest,omitempty"`
	MatchBuyBox   *MatchBuyBoxParams   `json:"match_buybox,omitempty"`
	FloorCeiling  *FloorCeilingParams  `json:"floor_ceiling,omitempty"`
	MarginTarget  *MarginTargetParams  `json:"margin_target,omitempty"`
	VelocityBased *VelocityBasedParams `json:"velocity_based,omitempty"`
	TimeDecay     *TimeDecayParams     `json:"time_decay,omitempty"`
	Expression    *ExpressionParams    `json:"expression,omitempty"`
}

// Validate checks that the variant matching family is set and well-formed,
// and that no other variant is set.
func (p *RuleParams) Validate(family RuleFamily) error {
	if n := p.countSet(); n != 1 {
		return fmt.Errorf("params must carry exactly one variant, got %d", n)
	}

	switch family {
	case FamilyBeatLowest:
		if p.BeatLowest == nil {
			return fmt.Errorf("family %s requires beat_lowest params", family)
		}
		return p.BeatLowest.Validate()
	case FamilyMatchBuyBox:
		if p.MatchBuyBox == nil {
			return fmt.Errorf("family %s requires match_buybox params", family)
		}
		return p.MatchBuyBox.Validate()
	case FamilyFloorCeiling:
		if p.FloorCeiling == nil {
			return fmt.Errorf("family %s requires floor_ceiling params", family)
		}
		return p.FloorCeiling.Validate()
	case FamilyMarginTarget:
		if p.MarginTarget == nil {
			return fmt.Errorf("family %s requires margin_target params", family)
		}
		return p.MarginTarget.Validate()
	case FamilyVelocityBased:
		if p.VelocityBased == nil {
			return fmt.Errorf("family %s requires velocity_based params", family)
		}
		return p.VelocityBased.Validate()
	case FamilyTimeDecay:
		if p.TimeDecay == nil {
			return fmt.Errorf("family %s requires time_decay params", family)
		}
		return p.TimeDecay.Validate()
	case FamilyExpression:
		if p.Expression == nil {
			return fmt.Errorf("family %s requires expression params", family)
		}
		return p.Expression.Validate()
	default:
		return fmt.Errorf("unknown rule family %q", family)
	}
}

func (p *RuleParams) countSet() int {
	n := 0
	for _, set := range []bool{
		p.BeatLowest != nil, p.MatchBuyBox != nil, p.FloorCeiling != nil,
		p.MarginTarget != nil, p.VelocityBased != nil, p.TimeDecay != nil,
		p.Expression != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// BeatLowestParams undercuts the lowest competitor price. UndercutAbs takes
// precedence when both fields are set.
type BeatLowestParams struct {
	UndercutPct float64 `json:"undercut_pct,omitempty"`
	UndercutAbs float64 `json:"undercut_abs,omitempty"`
	MinPrice    float64 `json:"min_price"`
}

// Validate checks the undercut parameters.
func (p *BeatLowestParams) Validate() error {
	if p.UndercutPct < 0 || p.UndercutPct >= 100 {
		return fmt.Errorf("undercut_pct must be in [0,100), got %v", p.UndercutPct)
	}
	if p.UndercutAbs < 0 {
		return fmt.Errorf("undercut_abs must be >= 0, got %v", p.UndercutAbs)
	}
	if p.MinPrice < 0 {
		return fmt.Errorf("min_price must be >= 0, got %v", p.MinPrice)
	}
	return nil
}

// MatchBuyBoxParams tracks the Buy-Box price with an allowed premium.
type MatchBuyBoxParams struct {
	MaxPremiumPct  float64 `json:"max_premium_pct"`
	OnlyWhenHigher bool    `json:"only_when_higher,omitempty"`
}

// Validate checks the premium bound.
func (p *MatchBuyBoxParams) Validate() error {
	if p.MaxPremiumPct < 0 {
		return fmt.Errorf("max_premium_pct must be >= 0, got %v", p.MaxPremiumPct)
	}
	return nil
}

// FloorCeilingParams is a pass-through bounds rule.
type FloorCeilingParams struct {
	Floor   float64 `json:"floor"`
	Ceiling float64 `json:"ceiling"`
}

// Validate checks floor <= ceiling.
func (p *FloorCeilingParams) Validate() error {
	if p.Floor < 0 {
		return fmt.Errorf("floor must be >= 0, got %v", p.Floor)
	}
	if p.Ceiling < p.Floor {
		return fmt.Errorf("ceiling %v below floor %v", p.Ceiling, p.Floor)
	}
	return nil
}

// MarginTargetParams enforces a minimum margin after cost and platform fees.
type MarginTargetParams struct {
	MinMarginPct    float64   `json:"min_margin_pct"`
	TargetMarginPct float64   `json:"target_margin_pct"`
	CostBasis       CostBasis `json:"cost_basis,omitempty"`
	PlatformFeePct  float64   `json:"platform_fee_pct,omitempty"`
}

// Validate checks margin and fee percentages.
func (p *MarginTargetParams) Validate() error {
	if p.MinMarginPct < 0 || p.MinMarginPct >= 100 {
		return fmt.Errorf("min_margin_pct must be in [0,100), got %v", p.MinMarginPct)
	}
	if p.TargetMarginPct < p.MinMarginPct {
		return fmt.Errorf("target_margin_pct %v below min_margin_pct %v",
			p.TargetMarginPct, p.MinMarginPct)
	}
	if p.PlatformFeePct < 0 || p.PlatformFeePct >= 100 {
		return fmt.Errorf("platform_fee_pct must be in [0,100), got %v", p.PlatformFeePct)
	}
	switch p.CostBasis {
	case "", CostBasisCost, CostBasisLanded:
	default:
		return fmt.Errorf("unknown cost_basis %q", p.CostBasis)
	}
	return nil
}

// VelocityBasedParams raises price on fast sales, lowers it on slow sales.
type VelocityBasedParams struct {
	// SalesThreshold is the daily sales rate at or above which price rises.
	SalesThreshold float64 `json:"sales_threshold"`
	// SlowThreshold is the daily sales rate below which price drops.
	SlowThreshold float64 `json:"slow_threshold"`
	IncreasePct   float64 `json:"increase_pct"`
	DecreasePct   float64 `json:"decrease_pct"`
	LookbackDays  int     `json:"lookback_days"`
}

// Validate checks thresholds and adjustment percentages.
func (p *VelocityBasedParams) Validate() error {
	if p.SalesThreshold < 0 {
		return fmt.Errorf("sales_threshold must be >= 0, got %v", p.SalesThreshold)
	}
	if p.SlowThreshold < 0 || p.SlowThreshold > p.SalesThreshold {
		return fmt.Errorf("slow_threshold must be in [0, sales_threshold], got %v", p.SlowThreshold)
	}
	if p.IncreasePct < 0 || p.DecreasePct < 0 || p.DecreasePct >= 100 {
		return fmt.Errorf("adjustment percentages out of range")
	}
	if p.LookbackDays != 7 && p.LookbackDays != 14 {
		return fmt.Errorf("lookback_days must be 7 or 14, got %d", p.LookbackDays)
	}
	return nil
}

// TimeDecayParams lowers price daily after a listing has aged past a threshold.
type TimeDecayParams struct {
	DaysListed     int     `json:"days_listed"`
	DecayPctPerDay float64 `json:"decay_pct_per_day"`
	FloorPrice     float64 `json:"floor_price"`
}

// Validate checks the decay parameters.
func (p *TimeDecayParams) Validate() error {
	if p.DaysListed < 0 {
		return fmt.Errorf("days_listed must be >= 0, got %d", p.DaysListed)
	}
	if p.DecayPctPerDay <= 0 || p.DecayPctPerDay >= 100 {
		return fmt.Errorf("decay_pct_per_day must be in (0,100), got %v", p.DecayPctPerDay)
	}
	if p.FloorPrice < 0 {
		return fmt.Errorf("floor_price must be >= 0, got %v", p.FloorPrice)
	}
	return nil
}

// ExpressionParams holds a user-authored arithmetic formula. Formulas are
// parsed by pkg/expr; they cannot call into native code regardless of content.
type ExpressionParams struct {
	Formula  string   `json:"formula"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// ExpressionVariables is the complete set of variable names a formula may
// reference. The engine supplies values per listing; optional market inputs
// may be absent at evaluation time even though the name is valid here.
var ExpressionVariables = []string{
	"cost",
	"current_price",
	"competitor_min",
	"competitor_avg",
	"competitor_count",
	"buy_box",
	"shipping",
	"days_listed",
	"sales_7d",
	"sales_14d",
}

// Validate checks that the formula parses, references only known variables,
// and that the bounds are ordered. Parsing here keeps hostile or malformed
// formulas out of storage; the cycle only ever evaluates formulas that
// passed this check.
func (p *ExpressionParams) Validate() error {
	if p.Formula == "" {
		return fmt.Errorf("formula is required")
	}
	if err := expr.Check(p.Formula, ExpressionVariables); err != nil {
		return fmt.Errorf("formula: %w", err)
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MaxPrice < *p.MinPrice {
		return fmt.Errorf("max_price %v below min_price %v", *p.MaxPrice, *p.MinPrice)
	}
	return nil
}

// TimeCondition restricts when a rule applies. All present fields must hold
// (conjunction); an empty condition always matches. Hour ranges are half-open
// [start, end) and may wrap midnight. Evaluation happens in Timezone (IANA
// name); empty means UTC.
type TimeCondition struct {
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
	StartHour  *int           `json:"start_hour,omitempty"`
	EndHour    *int           `json:"end_hour,omitempty"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	EndDate    *time.Time     `json:"end_date,omitempty"`
	Timezone   string         `json:"timezone,omitempty"`
}

// Validate checks hour bounds and that hour fields come in pairs.
func (c *TimeCondition) Validate() error {
	if (c.StartHour == nil) != (c.EndHour == nil) {
		return fmt.Errorf("start_hour and end_hour must be set together")
	}
	if c.StartHour != nil {
		if *c.StartHour < 0 || *c.StartHour > 23 || *c.EndHour < 0 || *c.EndHour > 23 {
			return fmt.Errorf("hours must be in [0,23]")
		}
	}
	for _, d := range c.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday %d", d)
		}
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fmt.Errorf("end_date before start_date")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

// IsEmpty reports whether no condition fields are set.
func (c *TimeCondition) IsEmpty() bool {
	return len(c.DaysOfWeek) == 0 && c.StartHour == nil && c.EndHour == nil &&
		c.StartDate == nil && c.EndDate == nil
}

// TriggerKind names a cross-platform reaction trigger.
type TriggerKind string

// Trigger kind constants.
const (
	TriggerPriceDrop     TriggerKind = "price_drop"
	TriggerPriceIncrease TriggerKind = "price_increase"
	TriggerUndercut      TriggerKind = "undercut"
)

// CrossPlatformRule reacts to price movement on one platform by adjusting
// linked listings on another.
type CrossPlatformRule struct {
	ID               string      `json:"id"                db:"id"`
	Name             string      `json:"name"              db:"name"`
	WatchedPlatform  Platform    `json:"watched_platform"  db:"watched_platform"`
	AdjustedPlatform Platform    `json:"adjusted_platform" db:"adjusted_platform"`
	Trigger          TriggerKind `json:"trigger"           db:"trigger"`
	AdjustmentPct    float64     `json:"adjustment_pct"    db:"adjustment_pct"`
	MinPrice         *float64    `json:"min_price,omitempty" db:"min_price"`
	Enabled          bool        `json:"enabled"           db:"enabled"`
	CreatedAt        time.Time   `json:"created_at"        db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"        db:"updated_at"`
}

// Validate checks the trigger kind and adjustment bounds.
func (r *CrossPlatformRule) Validate() error {
	if r.WatchedPlatform == r.AdjustedPlatform {
		return fmt.Errorf("watched and adjusted platforms must differ")
	}
	switch r.Trigger {
	case TriggerPriceDrop, TriggerPriceIncrease, TriggerUndercut:
	default:
		return fmt.Errorf("unknown trigger %q", r.Trigger)
	}
	if r.AdjustmentPct < 0 || r.AdjustmentPct >= 100 {
		return fmt.Errorf("adjustment_pct must be in [0,100), got %v", r.AdjustmentPct)
	}
	return nil
}
