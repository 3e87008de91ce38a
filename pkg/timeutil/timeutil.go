// Package timeutil provides timezone and day-arithmetic utilities for the career program.
// All cohorts run in Sweden, so calendar-facing helpers use Europe/Stockholm,
// while day counting itself works on absolute durations and is timezone independent.
package timeutil

import (
	"time"
)

// Day is the length of one day used by every day-count in the program.
const Day = 24 * time.Hour

// StockholmTZ is the program timezone. Falls back to a fixed CET offset when
// the tz database is not available in the container.
var StockholmTZ = loadStockholm()

func loadStockholm() *time.Location {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		return time.FixedZone("CET", 1*60*60)
	}
	return loc
}

// Clock returns the current time. Commands take a Clock so tests can pin "now".
type Clock func() time.Time

// SystemClock returns time.Now in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Now returns the current time in Stockholm timezone.
func Now() time.Time {
	return time.Now().In(StockholmTZ)
}

// ToStockholm converts a time to Stockholm timezone.
func ToStockholm(t time.Time) time.Time {
	return t.In(StockholmTZ)
}

// Date creates midnight UTC for the given calendar date.
// Schedule rows are stored as dates, which the database returns as UTC midnight.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// CeilDays converts a duration into whole days, rounding toward positive infinity.
// 0.1 days → 1, exactly 7 days → 7, -0.5 days → 0, -1.5 days → -1.
func CeilDays(d time.Duration) int {
	days := d / Day
	if d%Day > 0 {
		days++
	}
	return int(days)
}

// DaysUntil returns the ceiling number of days from now until t.
// A moment still in the future never counts as 0 days left.
func DaysUntil(now, t time.Time) int {
	return CeilDays(t.Sub(now))
}

// StartOfDay returns the start of the day in Stockholm timezone.
func StartOfDay(t time.Time) time.Time {
	s := ToStockholm(t)
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, StockholmTZ)
}

// FormatDate formats a date the way Swedish users read it (2006-01-02).
func FormatDate(t time.Time) string {
	return ToStockholm(t).Format("2006-01-02")
}

// Between reports whether t lies in the closed interval [from, to].
func Between(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
