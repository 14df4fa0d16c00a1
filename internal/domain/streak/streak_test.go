package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Wednesday 2026-03-11, mid-afternoon.
var asOf = time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)

func days(offsets ...int) []time.Time {
	out := make([]time.Time, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, asOf.AddDate(0, 0, -off))
	}
	return out
}

func TestCompute_NoActivity(t *testing.T) {
	s := Compute(nil, asOf)

	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 0, s.Longest)
	assert.False(t, s.IsTodayActive)
	assert.Equal(t, [7]bool{}, s.WeeklyPattern)
}

func TestCompute_ActiveTodayAndBack(t *testing.T) {
	s := Compute(days(0, 1, 2), asOf)

	assert.Equal(t, 3, s.Current)
	assert.Equal(t, 3, s.Longest)
	assert.True(t, s.IsTodayActive)
}

func TestCompute_YesterdayAnchorPreservesStreak(t *testing.T) {
	// Active the two previous days but not yet today. The streak stands
	// at 2 and is not broken until tomorrow.
	s := Compute(days(1, 2), asOf)

	assert.Equal(t, 2, s.Current)
	assert.False(t, s.IsTodayActive)
}

func TestCompute_GapBreaksStreak(t *testing.T) {
	// Last activity two days ago. Neither today nor yesterday is active,
	// so the run is over.
	s := Compute(days(2, 3, 4), asOf)

	assert.Equal(t, 0, s.Current)
	assert.False(t, s.IsTodayActive)
}

func TestCompute_OnlyToday(t *testing.T) {
	s := Compute(days(0), asOf)

	assert.Equal(t, 1, s.Current)
	assert.True(t, s.IsTodayActive)
}

func TestCompute_IgnoresTimeOfDayAndDuplicates(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 3, 11, 0, 0, 1, 0, time.UTC),
		time.Date(2026, 3, 11, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	s := Compute(dates, asOf)

	assert.Equal(t, 2, s.Current)
}

func TestCompute_WeeklyPattern(t *testing.T) {
	// asOf is Wednesday. Active Monday, Wednesday, and the previous Sunday.
	// The previous Sunday falls outside the current week and must not show.
	s := Compute(days(0, 2, 3), asOf)

	want := [7]bool{true, false, true, false, false, false, false}
	assert.Equal(t, want, s.WeeklyPattern)
}

func TestCompute_LongestEqualsCurrent(t *testing.T) {
	// An older, longer run broken by a gap is not reported: only the run
	// anchored at today or yesterday counts.
	s := Compute(days(0, 1, 5, 6, 7, 8, 9), asOf)

	assert.Equal(t, 2, s.Current)
	assert.Equal(t, 2, s.Longest)
}
