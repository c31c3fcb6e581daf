package engine

import (
	"fmt"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// Ad-hoc daemon strategies. A daemon config can name these directly without
// a stored rule; they run after stored rules and only when no rule triggered.
// History records written for strategy changes carry the strategy name and a
// nil rule id.
var strategyRules = map[string]domain.RepricingRule{
	"beat_lowest": {
		Name:    "beat_lowest",
		Family:  domain.FamilyBeatLowest,
		Enabled: true,
		Params: domain.RuleParams{BeatLowest: &domain.BeatLowestParams{
			UndercutPct: 1,
		}},
	},
	"match_buybox": {
		Name:    "match_buybox",
		Family:  domain.FamilyMatchBuyBox,
		Enabled: true,
		Params: domain.RuleParams{MatchBuyBox: &domain.MatchBuyBoxParams{
			MaxPremiumPct: 0,
		}},
	},
	"velocity": {
		Name:    "velocity",
		Family:  domain.FamilyVelocityBased,
		Enabled: true,
		Params: domain.RuleParams{VelocityBased: &domain.VelocityBasedParams{
			SalesThreshold: 2,
			SlowThreshold:  0.25,
			IncreasePct:    3,
			DecreasePct:    3,
			LookbackDays:   7,
		}},
	},
	"time_decay": {
		Name:    "time_decay",
		Family:  domain.FamilyTimeDecay,
		Enabled: true,
		Params: domain.RuleParams{TimeDecay: &domain.TimeDecayParams{
			DaysListed:     30,
			DecayPctPerDay: 0.5,
		}},
	},
}

// StrategyNames lists the known ad-hoc strategy names.
func StrategyNames() []string {
	return []string{"beat_lowest", "match_buybox", "velocity", "time_decay"}
}

// strategyRule resolves a config strategy name to its built-in rule.
func strategyRule(name string) (*domain.RepricingRule, error) {
	r, ok := strategyRules[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return &r, nil
}
