// Package streak computes daily activity streaks from distinct activity
// dates. The computation is pure: callers fetch dates from the ledger and
// pass them in together with the reference time.
package streak

import (
	"time"

	"github.com/promptcraft/progress-engine/pkg/timeutil"
)

// WindowDays is how far back the ledger is consulted. Streaks longer than
// the window are reported as the window length.
const WindowDays = 30

// LearningStreak is the computed streak state for a user.
type LearningStreak struct {
	// Current is the length of the unbroken run of consecutive active days
	// ending today or yesterday. Zero when neither day was active.
	Current int

	// Longest equals Current. Only the recent window is consulted, so no
	// longer historical run can be observed.
	Longest int

	// IsTodayActive reports whether the user was active on the reference day.
	IsTodayActive bool

	// WeeklyPattern marks activity for the current week, Monday first.
	WeeklyPattern [7]bool
}

// Compute derives the streak from distinct activity dates. Dates may arrive
// in any order and at any time of day; only their UTC calendar date matters.
// Duplicates are tolerated.
func Compute(dates []time.Time, asOf time.Time) LearningStreak {
	today := timeutil.DateOf(asOf)

	active := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		active[timeutil.DateOf(d)] = true
	}

	var s LearningStreak
	s.IsTodayActive = active[today]

	// The run is anchored at today, or at yesterday when today has no
	// activity yet. A gap of two or more days breaks the streak.
	anchor := today
	if !active[anchor] {
		anchor = anchor.AddDate(0, 0, -1)
	}
	for day := anchor; active[day]; day = day.AddDate(0, 0, -1) {
		s.Current++
	}
	s.Longest = s.Current

	weekStart := timeutil.StartOfWeek(asOf)
	for i := 0; i < 7; i++ {
		s.WeeklyPattern[i] = active[weekStart.AddDate(0, 0, i)]
	}

	return s
}
