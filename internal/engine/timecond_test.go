package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

func TestMatchesTimeCondition(t *testing.T) {
	t.Parallel()

	// 2026-03-04 is a Wednesday.
	wedNoon := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	d := func(y int, m time.Month, day int) *time.Time {
		t := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		return &t
	}

	tests := []struct {
		name    string
		cond    *domain.TimeCondition
		instant time.Time
		want    bool
	}{
		{"nil always matches", nil, wedNoon, true},
		{"empty always matches", &domain.TimeCondition{}, wedNoon, true},
		{
			"weekday in set",
			&domain.TimeCondition{DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}},
			wedNoon, true,
		},
		{
			"weekday not in set",
			&domain.TimeCondition{DaysOfWeek: []time.Weekday{time.Saturday}},
			wedNoon, false,
		},
		{
			"hour at start of range",
			&domain.TimeCondition{StartHour: ptrI(12), EndHour: ptrI(18)},
			wedNoon, true,
		},
		{
			"hour at end of range excluded",
			&domain.TimeCondition{StartHour: ptrI(6), EndHour: ptrI(12)},
			wedNoon, false,
		},
		{
			"midnight wrap late evening",
			&domain.TimeCondition{StartHour: ptrI(22), EndHour: ptrI(6)},
			time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC), true,
		},
		{
			"midnight wrap early morning",
			&domain.TimeCondition{StartHour: ptrI(22), EndHour: ptrI(6)},
			time.Date(2026, 3, 4, 5, 59, 0, 0, time.UTC), true,
		},
		{
			"midnight wrap midday excluded",
			&domain.TimeCondition{StartHour: ptrI(22), EndHour: ptrI(6)},
			time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC), false,
		},
		{
			"degenerate equal hours never match",
			&domain.TimeCondition{StartHour: ptrI(9), EndHour: ptrI(9)},
			time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), false,
		},
		{
			"inside date range",
			&domain.TimeCondition{StartDate: d(2026, 3, 1), EndDate: d(2026, 3, 31)},
			wedNoon, true,
		},
		{
			"on end date still matches",
			&domain.TimeCondition{StartDate: d(2026, 3, 1), EndDate: d(2026, 3, 4)},
			wedNoon, true,
		},
		{
			"after end date",
			&domain.TimeCondition{EndDate: d(2026, 3, 3)},
			wedNoon, false,
		},
		{
			"before start date",
			&domain.TimeCondition{StartDate: d(2026, 3, 5)},
			wedNoon, false,
		},
		{
			"all fields must hold",
			&domain.TimeCondition{
				DaysOfWeek: []time.Weekday{time.Wednesday},
				StartHour:  ptrI(0),
				EndHour:    ptrI(6),
			},
			wedNoon, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchesTimeCondition(tt.cond, tt.instant))
		})
	}
}

func TestMatchesTimeCondition_Timezone(t *testing.T) {
	t.Parallel()

	// 18:00 UTC is 13:00 in New York (EST, winter).
	instant := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

	cond := &domain.TimeCondition{
		StartHour: ptrI(9),
		EndHour:   ptrI(17),
		Timezone:  "America/New_York",
	}
	assert.True(t, MatchesTimeCondition(cond, instant))

	// Same wall range in UTC excludes 18:00.
	cond.Timezone = ""
	assert.False(t, MatchesTimeCondition(cond, instant))

	// An unloadable zone falls back to UTC.
	cond.Timezone = "Not/AZone"
	assert.False(t, MatchesTimeCondition(cond, instant))
}

func TestMatchesTimeCondition_WeekdayFollowsZone(t *testing.T) {
	t.Parallel()

	// 2026-03-07 01:00 UTC is still Friday evening in Los Angeles.
	instant := time.Date(2026, 3, 7, 1, 0, 0, 0, time.UTC)

	cond := &domain.TimeCondition{
		DaysOfWeek: []time.Weekday{time.Friday},
		Timezone:   "America/Los_Angeles",
	}
	assert.True(t, MatchesTimeCondition(cond, instant))

	cond.Timezone = ""
	assert.False(t, MatchesTimeCondition(cond, instant))
}
