// Package dates handles calendar dates (no time of day) as UTC-midnight time.Time values.
package dates

import (
	"fmt"
	"time"
)

// Layout is the ISO-8601 calendar date format used on the wire and in the database.
const Layout = "2006-01-02"

const day = 24 * time.Hour

// Parse parses a YYYY-MM-DD string into a UTC-midnight date.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Format renders a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Normalize drops the time of day, keeping the calendar date of t as seen in UTC.
func Normalize(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now in loc, as a UTC-midnight date.
func Today(loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NightsBetween returns the whole number of nights between check-in and check-out.
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(Normalize(checkOut).Sub(Normalize(checkIn)) / day)
}

// Nights lists every night of the stay [checkIn, checkOut), one date per night.
func Nights(checkIn, checkOut time.Time) []time.Time {
	n := NightsBetween(checkIn, checkOut)
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	start := Normalize(checkIn)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}

// AddDays shifts a date by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Normalize(t).AddDate(0, 0, n)
}
