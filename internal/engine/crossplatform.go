package engine

import (
	"fmt"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// EvaluateCrossPlatform reacts to observed price movement on the rule's
// watched platform by computing an adjustment for the linked listing on the
// adjusted platform. watchedHistory must be ordered oldest first; fewer than
// two observations means insufficient data and yields an untriggered result,
// never an error.
func EvaluateCrossPlatform(
	rule *domain.CrossPlatformRule,
	watchedHistory []domain.PricePoint,
	currentAdjustedPrice float64,
) domain.RuleEvalResult {
	if len(watchedHistory) < 2 {
		return domain.NotTriggered("insufficient price history on watched platform")
	}

	latest := watchedHistory[len(watchedHistory)-1].Price
	previous := watchedHistory[len(watchedHistory)-2].Price

	switch rule.Trigger {
	case domain.TriggerPriceDrop:
		if latest >= previous {
			return domain.NotTriggered("watched price did not drop")
		}
		return adjusted(rule, currentAdjustedPrice, -1,
			fmt.Sprintf("%s price dropped %.2f -> %.2f", rule.WatchedPlatform, previous, latest))

	case domain.TriggerPriceIncrease:
		if latest <= previous {
			return domain.NotTriggered("watched price did not increase")
		}
		return adjusted(rule, currentAdjustedPrice, +1,
			fmt.Sprintf("%s price increased %.2f -> %.2f", rule.WatchedPlatform, previous, latest))

	case domain.TriggerUndercut:
		if latest >= currentAdjustedPrice {
			return domain.NotTriggered("watched platform not undercutting")
		}
		return adjusted(rule, currentAdjustedPrice, -1,
			fmt.Sprintf("%s undercutting at %.2f", rule.WatchedPlatform, latest))

	default:
		return domain.NotTriggered(fmt.Sprintf("unknown trigger %q", rule.Trigger))
	}
}

func adjusted(
	rule *domain.CrossPlatformRule,
	current float64,
	sign float64,
	reason string,
) domain.RuleEvalResult {
	candidate := current * (1 + sign*rule.AdjustmentPct/100)
	if rule.MinPrice != nil && candidate < *rule.MinPrice {
		candidate = *rule.MinPrice
	}
	return domain.Triggered(round2(candidate), reason)
}
