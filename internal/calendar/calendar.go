// Package calendar handles the date-only values stored as YYYY-MM-DD.
// All dates are interpreted in UTC.
package calendar

import (
	"fmt"
	"time"
)

// Layout is the storage format of every date-only column.
const Layout = "2006-01-02"

// Clock returns the current instant. Tests replace it to pin "today".
type Clock func() time.Time

// System is the wall clock.
func System() time.Time { return time.Now() }

// Today formats the clock's current day.
func Today(now Clock) string {
	if now == nil {
		now = System
	}
	return now().UTC().Format(Layout)
}

// Parse parses a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Valid reports whether s is a well-formed date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// AddMonths moves t forward by n calendar months keeping the day of month,
// clamped to the last day of the target month (Jan 31 + 1 = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last day of a "YYYY-MM" month.
func MonthRange(month string) (string, string, error) {
	t, err := time.ParseInLocation("2006-01", month, time.UTC)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: %w", month, err)
	}
	last := time.Date(t.Year(), t.Month(), DaysIn(t.Year(), t.Month()), 0, 0, 0, 0, time.UTC)
	return t.Format(Layout), last.Format(Layout), nil
}
