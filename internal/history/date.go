package history

import (
	"fmt"
	"time"
)

// NormalizedDate is a calendar date reduced to its (year, month, day)
// components. All date equality in this package goes through it, so
// time-of-day and timezone offsets can never influence a comparison.
type NormalizedDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// Normalize reduces an instant to its calendar date in the instant's location.
func Normalize(t time.Time) NormalizedDate {
	y, m, d := t.Date()
	return NormalizedDate{Year: y, Month: m, Day: d}
}

// Date builds a NormalizedDate from explicit components, letting time.Date
// roll out-of-range values (month 13, day 0) into valid dates.
func Date(year int, month time.Month, day int) NormalizedDate {
	return Normalize(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Time returns midnight UTC of the date, for arithmetic only. Comparisons
// must use Equal/Before/After, never the returned instant.
func (d NormalizedDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d NormalizedDate) AddDays(n int) NormalizedDate {
	return Normalize(d.Time().AddDate(0, 0, n))
}

// Equal reports whether both dates name the same calendar day.
func (d NormalizedDate) Equal(other NormalizedDate) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// Before reports whether d is strictly earlier than other.
func (d NormalizedDate) Before(other NormalizedDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other.
func (d NormalizedDate) After(other NormalizedDate) bool {
	return other.Before(d)
}

// IsZero reports whether the date is the zero value.
func (d NormalizedDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as YYYY-MM-DD.
func (d NormalizedDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses a YYYY-MM-DD string into a NormalizedDate.
func ParseDate(s string) (NormalizedDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return NormalizedDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Normalize(t), nil
}
