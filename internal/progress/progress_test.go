package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestAdvanceStreak_NextDayExtends(t *testing.T) {
	last := date(2024, time.January, 1, 0)
	got := AdvanceStreak(5, 5, &last, date(2024, time.January, 2, 10))

	assert.Equal(t, 6, got.Streak)
	assert.Equal(t, 6, got.BestStreak)
}

func TestAdvanceStreak_BestStreakPreserved(t *testing.T) {
	last := date(2024, time.March, 10, 23)
	got := AdvanceStreak(2, 9, &last, date(2024, time.March, 11, 0))

	assert.Equal(t, 3, got.Streak)
	assert.Equal(t, 9, got.BestStreak)
}

func TestAdvanceStreak_GapResets(t *testing.T) {
	last := date(2024, time.January, 1, 12)

	for _, k := range []int{2, 3, 30} {
		got := AdvanceStreak(5, 8, &last, last.AddDate(0, 0, k))
		assert.Equal(t, 1, got.Streak, "gap of %d days", k)
		assert.Equal(t, 8, got.BestStreak)
	}
}

func TestAdvanceStreak_SameDayIsIdempotent(t *testing.T) {
	last := date(2024, time.June, 5, 1)

	first := AdvanceStreak(3, 3, &last, date(2024, time.June, 5, 9))
	second := AdvanceStreak(first.Streak, first.BestStreak, &last, date(2024, time.June, 5, 23))

	assert.Equal(t, first, second)
	assert.Equal(t, 3, second.Streak)
}

func TestAdvanceStreak_NilLastLoginLeavesCountersAlone(t *testing.T) {
	got := AdvanceStreak(4, 7, nil, date(2024, time.January, 2, 0))

	assert.Equal(t, 4, got.Streak)
	assert.Equal(t, 7, got.BestStreak)
}

func TestAdvanceStreak_ClockSkewResetsInsteadOfFailing(t *testing.T) {
	last := date(2024, time.May, 10, 0)
	got := AdvanceStreak(12, 12, &last, date(2024, time.May, 8, 0))

	assert.Equal(t, 1, got.Streak)
	assert.Equal(t, 12, got.BestStreak)
}

func TestAdvanceStreak_MidnightBoundaryCountsCalendarDays(t *testing.T) {
	// 23:59 -> 00:01 is only two minutes of wall clock but a new calendar day.
	last := date(2024, time.February, 1, 0).Add(23*time.Hour + 59*time.Minute)
	got := AdvanceStreak(1, 1, &last, date(2024, time.February, 2, 0).Add(time.Minute))

	assert.Equal(t, 2, got.Streak)
}

func TestDaysBetween(t *testing.T) {
	a := date(2024, time.January, 1, 22)

	assert.Equal(t, 0, DaysBetween(a, date(2024, time.January, 1, 23)))
	assert.Equal(t, 1, DaysBetween(a, date(2024, time.January, 2, 0)))
	assert.Equal(t, 3, DaysBetween(a, date(2024, time.January, 4, 1)))
	assert.Equal(t, -1, DaysBetween(a, date(2023, time.December, 31, 23)))
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(99))
	assert.Equal(t, 2, LevelForXP(100))
	assert.Equal(t, 5, LevelForXP(430))
	assert.Equal(t, 1, LevelForXP(-10))
}
