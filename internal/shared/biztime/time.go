// Package biztime holds the business timezone. Timestamps are stored in UTC;
// the business zone only decides where one quota day ends and the next begins.
package biztime

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	// DefaultTimezone is used when no timezone is configured.
	DefaultTimezone = "UTC"

	// DateKeyLayout is the layout of daily quota and activity keys.
	DateKeyLayout = "2006-01-02"
)

var bizLocation atomic.Pointer[time.Location]

// Init sets the business timezone. An empty tz selects DefaultTimezone.
func Init(tz string) error {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load business timezone %q: %w", tz, err)
	}
	bizLocation.Store(loc)
	return nil
}

// MustInit is Init that panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(err)
	}
}

// Location returns the business timezone, UTC until Init is called.
func Location() *time.Location {
	if loc := bizLocation.Load(); loc != nil {
		return loc
	}
	return time.UTC
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// DateKey formats t as the business-timezone calendar date (YYYY-MM-DD).
func DateKey(t time.Time) string {
	return t.In(Location()).Format(DateKeyLayout)
}

// ParseDateKey validates a YYYY-MM-DD key and returns business midnight in UTC.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyLayout, key, Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t.UTC(), nil
}

// StartOfDayUTC returns business midnight of the day containing t, in UTC.
func StartOfDayUTC(t time.Time) time.Time {
	b := t.In(Location())
	return time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, Location()).UTC()
}

// StartOfWeekUTC returns business midnight of the Monday starting t's week.
func StartOfWeekUTC(t time.Time) time.Time {
	b := t.In(Location())
	offset := (int(b.Weekday()) + 6) % 7
	return time.Date(b.Year(), b.Month(), b.Day()-offset, 0, 0, 0, 0, Location()).UTC()
}

// StartOfMonthUTC returns business midnight of the first day of t's month.
func StartOfMonthUTC(t time.Time) time.Time {
	b := t.In(Location())
	return time.Date(b.Year(), b.Month(), 1, 0, 0, 0, 0, Location()).UTC()
}

// ToBizTimezone converts t for display.
func ToBizTimezone(t time.Time) time.Time {
	return t.In(Location())
}

// Now returns the current UTC time at millisecond precision, the resolution
// timestamps are persisted at.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
