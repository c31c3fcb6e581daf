// Package engine implements the repricing core: rule evaluation, guardrails,
// reprice cycles, and the scheduling daemon.
package engine

import (
	"fmt"
	"math"
	"path"
	"time"

	"github.com/alsk1992/Flip-God-sub007/pkg/expr"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// EvaluateRule evaluates one rule against a listing and its fresh market
// snapshot. Missing market inputs (no competitors, no Buy-Box, no sales data)
// yield an untriggered result, not an error. Only a bad expression formula
// returns an error, and it wraps expr.ErrInvalidExpression.
func EvaluateRule(
	rule *domain.RepricingRule,
	listing *domain.Listing,
	market *domain.MarketData,
) (domain.RuleEvalResult, error) {
	switch rule.Family {
	case domain.FamilyBeatLowest:
		return evalBeatLowest(rule.Params.BeatLowest, market), nil
	case domain.FamilyMatchBuyBox:
		return evalMatchBuyBox(rule.Params.MatchBuyBox, listing, market), nil
	case domain.FamilyFloorCeiling:
		return evalFloorCeiling(rule.Params.FloorCeiling, listing), nil
	case domain.FamilyMarginTarget:
		return evalMarginTarget(rule.Params.MarginTarget, listing), nil
	case domain.FamilyVelocityBased:
		return evalVelocityBased(rule.Params.VelocityBased, listing, market), nil
	case domain.FamilyTimeDecay:
		return evalTimeDecay(rule.Params.TimeDecay, listing, market), nil
	case domain.FamilyExpression:
		return evalExpression(rule.Params.Expression, listing, market)
	default:
		return domain.NotTriggered(fmt.Sprintf("unknown rule family %q", rule.Family)), nil
	}
}

// RuleApplies reports whether a rule is in scope for the listing at the
// given instant: enabled, platform and category/SKU filters match, and the
// rule's time window (if any) contains the instant.
func RuleApplies(rule *domain.RepricingRule, listing *domain.Listing, now time.Time) bool {
	if !rule.Enabled {
		return false
	}
	if rule.Platform != "" && rule.Platform != listing.Platform {
		return false
	}
	if rule.Category != "" && rule.Category != listing.Category {
		return false
	}
	if rule.SKUPattern != "" {
		ok, err := path.Match(rule.SKUPattern, listing.SKU)
		if err != nil || !ok {
			return false
		}
	}
	return MatchesTimeCondition(rule.Window, now)
}

func evalBeatLowest(p *domain.BeatLowestParams, market *domain.MarketData) domain.RuleEvalResult {
	lowest, ok := market.CompetitorMin()
	if !ok {
		return domain.NotTriggered("no competitor prices")
	}

	var candidate float64
	if p.UndercutAbs > 0 {
		candidate = lowest - p.UndercutAbs
	} else {
		candidate = lowest * (1 - p.UndercutPct/100)
	}

	if candidate < p.MinPrice {
		candidate = p.MinPrice
	}

	return domain.Triggered(round2(candidate),
		fmt.Sprintf("beat lowest competitor %.2f", lowest))
}

func evalMatchBuyBox(
	p *domain.MatchBuyBoxParams,
	listing *domain.Listing,
	market *domain.MarketData,
) domain.RuleEvalResult {
	if market.BuyBoxPrice == nil {
		return domain.NotTriggered("no buy box price")
	}
	buyBox := *market.BuyBoxPrice

	if p.OnlyWhenHigher && listing.CurrentPrice <= buyBox {
		return domain.NotTriggered("current price not above buy box")
	}

	candidate := buyBox * (1 + p.MaxPremiumPct/100)
	return domain.Triggered(round2(candidate),
		fmt.Sprintf("match buy box %.2f", buyBox))
}

func evalFloorCeiling(p *domain.FloorCeilingParams, listing *domain.Listing) domain.RuleEvalResult {
	current := listing.CurrentPrice

	switch {
	case current < p.Floor:
		return domain.Triggered(round2(p.Floor),
			fmt.Sprintf("price %.2f below floor %.2f", current, p.Floor))
	case current > p.Ceiling:
		return domain.Triggered(round2(p.Ceiling),
			fmt.Sprintf("price %.2f above ceiling %.2f", current, p.Ceiling))
	default:
		return domain.NotTriggered("price within bounds")
	}
}

func evalMarginTarget(p *domain.MarginTargetParams, listing *domain.Listing) domain.RuleEvalResult {
	cost := listing.CostPrice
	if p.CostBasis == domain.CostBasisLanded && listing.LandedCost > 0 {
		cost = listing.LandedCost
	}
	if cost <= 0 {
		return domain.NotTriggered("no cost basis")
	}

	current := listing.CurrentPrice
	if current <= 0 {
		return domain.NotTriggered("no current price")
	}

	// Margin at the current price after platform fees.
	fees := current * p.PlatformFeePct / 100
	marginPct := (current - fees - cost) / current * 100
	if marginPct >= p.MinMarginPct {
		return domain.NotTriggered(
			fmt.Sprintf("margin %.1f%% meets minimum %.1f%%", marginPct, p.MinMarginPct))
	}

	// Price that yields the target margin after fees. The combined margin
	// and fee load is clamped below 100% so the denominator stays positive.
	load := clampPct(p.TargetMarginPct) + p.PlatformFeePct
	if load > 99 {
		load = 99
	}
	candidate := cost / (1 - load/100)

	return domain.Triggered(round2(candidate),
		fmt.Sprintf("margin %.1f%% below minimum %.1f%%", marginPct, p.MinMarginPct))
}

func evalVelocityBased(
	p *domain.VelocityBasedParams,
	listing *domain.Listing,
	market *domain.MarketData,
) domain.RuleEvalResult {
	if market.Sales == nil {
		return domain.NotTriggered("no sales data")
	}

	lookback := p.LookbackDays
	if lookback == 0 {
		lookback = 7
	}
	sold := market.Sales.SalesLast7Days
	if lookback == 14 {
		sold = market.Sales.SalesLast14Days
	}
	rate := float64(sold) / float64(lookback)

	switch {
	case rate >= p.SalesThreshold:
		candidate := listing.CurrentPrice * (1 + p.IncreasePct/100)
		return domain.Triggered(round2(candidate),
			fmt.Sprintf("selling fast (%.2f/day), raising price", rate))
	case rate < p.SlowThreshold:
		candidate := listing.CurrentPrice * (1 - p.DecreasePct/100)
		return domain.Triggered(round2(candidate),
			fmt.Sprintf("selling slow (%.2f/day), lowering price", rate))
	default:
		return domain.NotTriggered(fmt.Sprintf("sales rate %.2f/day within band", rate))
	}
}

func evalTimeDecay(
	p *domain.TimeDecayParams,
	listing *domain.Listing,
	market *domain.MarketData,
) domain.RuleEvalResult {
	daysListed := market.DaysListed

	if daysListed <= p.DaysListed {
		return domain.NotTriggered(
			fmt.Sprintf("listed %d days, decay starts after %d", daysListed, p.DaysListed))
	}

	over := daysListed - p.DaysListed
	candidate := listing.CurrentPrice * (1 - p.DecayPctPerDay*float64(over)/100)
	if candidate < p.FloorPrice {
		candidate = p.FloorPrice
	}

	return domain.Triggered(round2(candidate),
		fmt.Sprintf("decaying after %d days listed", daysListed))
}

func evalExpression(
	p *domain.ExpressionParams,
	listing *domain.Listing,
	market *domain.MarketData,
) (domain.RuleEvalResult, error) {
	vars := marketVariables(listing, market)

	v, err := expr.Evaluate(p.Formula, vars)
	if err != nil {
		return domain.RuleEvalResult{}, fmt.Errorf("evaluating formula: %w", err)
	}

	if p.MinPrice != nil && v < *p.MinPrice {
		v = *p.MinPrice
	}
	if p.MaxPrice != nil && v > *p.MaxPrice {
		v = *p.MaxPrice
	}

	return domain.Triggered(round2(v), "expression result"), nil
}

// marketVariables builds the variable set exposed to user formulas. Optional
// market inputs are present only when known, so a formula referencing an
// absent input fails fast rather than computing on a silent default.
func marketVariables(listing *domain.Listing, market *domain.MarketData) map[string]float64 {
	vars := map[string]float64{
		"cost":          listing.CostPrice,
		"current_price": listing.CurrentPrice,
		"shipping":      market.ShippingCost,
		"days_listed":   float64(market.DaysListed),
	}
	if lo, ok := market.CompetitorMin(); ok {
		vars["competitor_min"] = lo
	}
	if avg, ok := market.CompetitorAvg(); ok {
		vars["competitor_avg"] = avg
	}
	vars["competitor_count"] = float64(len(market.CompetitorPrices))
	if market.BuyBoxPrice != nil {
		vars["buy_box"] = *market.BuyBoxPrice
	}
	if market.Sales != nil {
		vars["sales_7d"] = float64(market.Sales.SalesLast7Days)
		vars["sales_14d"] = float64(market.Sales.SalesLast14Days)
	}
	return vars
}

func clampPct(v float64) float64 {
	return math.Min(math.Max(v, 0), 99)
}

// round2 rounds to two decimal places, half away from zero. All candidate
// prices pass through here before guardrails.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
