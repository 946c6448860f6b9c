// Package timeutil provides date utilities for leaderboard run dates.
// speedrun.com reports run dates as bare ISO dates (YYYY-MM-DD) with no time
// component, so everything here works at day granularity in UTC.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Common date/time formats.
const (
	// FormatISODate is the date format used by the speedrun.com API (YYYY-MM-DD).
	FormatISODate = "2006-01-02"
	// FormatDateTime is the standard datetime format for logs and admin output.
	FormatDateTime = "2006-01-02 15:04:05"
)

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// ParseISODate parses a bare ISO date (YYYY-MM-DD) as midnight UTC.
func ParseISODate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatISODate, value, time.UTC)
}

// FormatISO formats a time as a bare ISO date (YYYY-MM-DD) in UTC.
func FormatISO(t time.Time) string {
	return t.UTC().Format(FormatISODate)
}

// StartOfDay truncates a time to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// IsSameDay checks if two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	u1, u2 := t1.UTC(), t2.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}

// DaysBetween calculates the number of whole days between two times.
func DaysBetween(t1, t2 time.Time) int {
	d1 := StartOfDay(t1)
	d2 := StartOfDay(t2)
	days := int(d2.Sub(d1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// DaysSince calculates the number of whole days from t to now.
// A run dated today has age 0.
func DaysSince(t time.Time) int {
	return DaysSinceAt(t, Now())
}

// DaysSinceAt calculates the number of whole days from t to the given reference
// time. Dates in the future clamp to 0.
func DaysSinceAt(t, now time.Time) int {
	then := StartOfDay(t)
	ref := StartOfDay(now)
	days := int(ref.Sub(then).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// AgeLabel renders a day count as a human-readable age ("1 day", "42 days").
func AgeLabel(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
