// Package timeutil provides UTC calendar-date helpers for the progress engine.
// All activity dates, streaks, and weekly patterns are computed in UTC.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// DateOf truncates a time to its UTC calendar date (midnight UTC).
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar date.
func Today() time.Time {
	return DateOf(time.Now())
}

// SameDate reports whether two times fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// StartOfWeek returns the Monday of the week containing t (midnight UTC).
func StartOfWeek(t time.Time) time.Time {
	d := DateOf(t)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return d.AddDate(0, 0, -(weekday - 1))
}

// EndOfDay returns the last nanosecond of the UTC day containing t.
func EndOfDay(t time.Time) time.Time {
	return DateOf(t).Add(24*time.Hour - time.Nanosecond)
}

// DaysAgo returns the UTC date n days before today.
func DaysAgo(n int) time.Time {
	return Today().AddDate(0, 0, -n)
}
