// internal/daily/daily.go
//
// Deterministic date → prime selection for the daily puzzle.
//
// The index is the proleptic Gregorian ordinal of the date (0001-01-01 == 1)
// modulo the catalog length, so the mapping is stable across restarts and
// across implementations that share the same ordinal scheme.

package daily

import (
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/numble/internal/primes"
)

const layout = "2006-01-02"

// unixEpochOrdinal is the ordinal of 1970-01-01.
const unixEpochOrdinal = 719163

var (
	// ErrConfiguration is returned when there is nothing to select from.
	ErrConfiguration = errors.New("daily: catalog is empty")
	// ErrInvalidDate is returned by ParseDate for anything but YYYY-MM-DD.
	ErrInvalidDate = errors.New("daily: invalid date format")
)

// DateKey returns YYYY-MM-DD for t in loc (UTC when loc is nil).
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layout)
}

// ParseDate parses a strict YYYY-MM-DD key into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(layout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Ordinal returns the proleptic Gregorian day number of date's calendar day
// (time-of-day and zone offset are ignored).
func Ordinal(date time.Time) int {
	y, m, d := date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(midnight.Unix()/86400) + unixEpochOrdinal
}

// Index maps a date onto [0, n).
func Index(date time.Time, n int) (int, error) {
	if n <= 0 {
		return 0, ErrConfiguration
	}
	i := Ordinal(date) % n
	if i < 0 {
		i += n
	}
	return i, nil
}

// Select returns the catalog entry for date.
func Select(date time.Time, c *primes.Catalog) (string, error) {
	if c == nil {
		return "", ErrConfiguration
	}
	i, err := Index(date, c.Len())
	if err != nil {
		return "", err
	}
	return c.At(i), nil
}
