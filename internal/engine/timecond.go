package engine

import (
	"time"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// MatchesTimeCondition reports whether instant falls inside the condition.
// All present fields must hold; a nil or empty condition always matches.
//
// Evaluation happens in the condition's Timezone (IANA name); an empty or
// unloadable zone falls back to UTC. Day and hour boundaries are therefore
// zone-relative, which is what schedule authors expect.
func MatchesTimeCondition(cond *domain.TimeCondition, instant time.Time) bool {
	if cond == nil || cond.IsEmpty() {
		return true
	}

	local := instant.In(conditionLocation(cond))

	if len(cond.DaysOfWeek) > 0 && !containsWeekday(cond.DaysOfWeek, local.Weekday()) {
		return false
	}

	if cond.StartHour != nil && cond.EndHour != nil {
		if !hourInRange(local.Hour(), *cond.StartHour, *cond.EndHour) {
			return false
		}
	}

	if cond.StartDate != nil || cond.EndDate != nil {
		day := truncateToDay(local)
		if cond.StartDate != nil && day.Before(truncateToDay(cond.StartDate.In(local.Location()))) {
			return false
		}
		if cond.EndDate != nil && day.After(truncateToDay(cond.EndDate.In(local.Location()))) {
			return false
		}
	}

	return true
}

func conditionLocation(cond *domain.TimeCondition) *time.Location {
	if cond.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(cond.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// hourInRange checks the half-open range [start, end). A range that wraps
// midnight, e.g. [22, 6), means hour >= 22 OR hour < 6. start == end is a
// degenerate empty range and never matches.
func hourInRange(hour, start, end int) bool {
	switch {
	case start < end:
		return hour >= start && hour < end
	case start > end:
		return hour >= start || hour < end
	default:
		return false
	}
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
