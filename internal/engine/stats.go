package engine

import (
	"sort"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// AggregateHistory computes reprice stats from a slice of history records.
// The Postgres store computes the same aggregates in SQL; this helper serves
// in-memory callers and keeps the two definitions honest against each other
// in tests.
func AggregateHistory(records []domain.HistoryRecord) *domain.RepriceStats {
	stats := &domain.RepriceStats{
		ByStrategy: make(map[string]int),
	}
	if len(records) == 0 {
		return stats
	}

	var pctSum float64
	days := make(map[string]int)

	for i := range records {
		r := &records[i]
		stats.TotalChanges++
		pctSum += r.ChangePct()

		name := r.RuleName
		if name == "" {
			name = "unknown"
		}
		stats.ByStrategy[name]++

		days[r.CreatedAt.UTC().Format("2006-01-02")]++
	}

	stats.AvgChangePct = pctSum / float64(stats.TotalChanges)

	stats.ByDay = make([]domain.DayCount, 0, len(days))
	for day, count := range days {
		stats.ByDay = append(stats.ByDay, domain.DayCount{Day: day, Count: count})
	}
	sort.Slice(stats.ByDay, func(i, j int) bool {
		return stats.ByDay[i].Day < stats.ByDay[j].Day
	})

	return stats
}
