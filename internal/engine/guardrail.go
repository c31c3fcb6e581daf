package engine

import (
	"fmt"
	"math"
	"time"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// Guardrail block reasons.
const (
	BlockReasonCooldown      = "cooldown"
	BlockReasonNoChange      = "no effective change"
	BlockReasonBoundConflict = "bounds conflict"
)

// GuardResult is the guardrail verdict for one candidate price.
type GuardResult struct {
	Price   float64
	Blocked bool
	Reason  string
}

// RuleBounds carries optional rule-level floor/ceiling that combine with the
// config-level bounds; the tighter bound always wins.
type RuleBounds struct {
	Floor   *float64
	Ceiling *float64
}

// ApplyGuardrails validates and clamps a candidate price. Checks run in a
// fixed order and the first blocking check wins; nothing is partially applied
// once a check blocks:
//
//  1. Cooldown since the listing's last change.
//  2. Clamp to the combined [max(ruleFloor, configMin), min(ruleCeiling,
//     configMax)] bounds.
//  3. Clamp the percentage delta from currentPrice to the config's
//     MaxChangePct. If the pct clamp would push the price back outside the
//     bounds the two constraints conflict and the change blocks.
//  4. A clamped price equal to the cent-rounded current price blocks as a
//     no-op.
//
// The function is pure and safe to call from concurrent cycles.
func ApplyGuardrails(
	candidate float64,
	currentPrice float64,
	bounds *RuleBounds,
	cfg *domain.DaemonConfig,
	lastChangedAt *time.Time,
	now time.Time,
) GuardResult {
	if lastChangedAt != nil && cfg.CooldownMs > 0 {
		if elapsed := now.Sub(*lastChangedAt); elapsed < cfg.Cooldown() {
			return GuardResult{
				Price:   currentPrice,
				Blocked: true,
				Reason:  BlockReasonCooldown,
			}
		}
	}

	lo, hi := combinedBounds(bounds, cfg)
	if lo > hi {
		return GuardResult{
			Price:   currentPrice,
			Blocked: true,
			Reason:  BlockReasonBoundConflict,
		}
	}

	price := math.Min(math.Max(candidate, lo), hi)

	if cfg.MaxChangePct > 0 && currentPrice > 0 {
		deltaPct := (price - currentPrice) / currentPrice * 100
		if math.Abs(deltaPct) > cfg.MaxChangePct {
			limited := currentPrice * (1 + math.Copysign(cfg.MaxChangePct, deltaPct)/100)
			if limited < lo || limited > hi {
				return GuardResult{
					Price:   currentPrice,
					Blocked: true,
					Reason:  fmt.Sprintf("%s with max change %.1f%%", BlockReasonBoundConflict, cfg.MaxChangePct),
				}
			}
			price = limited
		}
	}

	price = round2(price)
	if price == round2(currentPrice) {
		return GuardResult{
			Price:   currentPrice,
			Blocked: true,
			Reason:  BlockReasonNoChange,
		}
	}

	return GuardResult{Price: price}
}

// combinedBounds merges rule-level and config-level floor/ceiling, the
// tighter bound winning on each side.
func combinedBounds(bounds *RuleBounds, cfg *domain.DaemonConfig) (float64, float64) {
	lo := math.Inf(-1)
	hi := math.Inf(1)

	if cfg.MinPrice != nil {
		lo = *cfg.MinPrice
	}
	if cfg.MaxPrice != nil {
		hi = *cfg.MaxPrice
	}
	if bounds != nil {
		if bounds.Floor != nil && *bounds.Floor > lo {
			lo = *bounds.Floor
		}
		if bounds.Ceiling != nil && *bounds.Ceiling < hi {
			hi = *bounds.Ceiling
		}
	}
	return lo, hi
}

// boundsForRule extracts guardrail-relevant bounds from a rule's params.
// Families without explicit price bounds contribute none.
func boundsForRule(rule *domain.RepricingRule) *RuleBounds {
	switch rule.Family {
	case domain.FamilyBeatLowest:
		if p := rule.Params.BeatLowest; p != nil && p.MinPrice > 0 {
			return &RuleBounds{Floor: &p.MinPrice}
		}
	case domain.FamilyFloorCeiling:
		if p := rule.Params.FloorCeiling; p != nil {
			return &RuleBounds{Floor: &p.Floor, Ceiling: &p.Ceiling}
		}
	case domain.FamilyTimeDecay:
		if p := rule.Params.TimeDecay; p != nil && p.FloorPrice > 0 {
			return &RuleBounds{Floor: &p.FloorPrice}
		}
	case domain.FamilyExpression:
		if p := rule.Params.Expression; p != nil {
			return &RuleBounds{Floor: p.MinPrice, Ceiling: p.MaxPrice}
		}
	}
	return nil
}
