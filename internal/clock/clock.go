// Package clock supplies the civil calendar date the engine allocates against.
package clock

import (
	"fmt"
	"time"
)

// DateLayout is the civil date format used in persisted state.
const DateLayout = "2006-01-02"

// DefaultOffset is the fixed civil-calendar offset (UTC+7).
const DefaultOffset = 7 * time.Hour

// Clock returns today's civil date as YYYY-MM-DD.
type Clock interface {
	Today() string
}

// Civil is a Clock in a fixed UTC offset, independent of the host time zone.
type Civil struct {
	loc *time.Location
	now func() time.Time
}

// NewCivil returns a Civil clock for the given offset from UTC.
func NewCivil(offset time.Duration) *Civil {
	return &Civil{
		loc: fixedZone(offset),
		now: time.Now,
	}
}

// WithNow returns a copy of c that reads the current instant from now.
func (c *Civil) WithNow(now func() time.Time) *Civil {
	return &Civil{loc: c.loc, now: now}
}

func (c *Civil) Today() string {
	return c.now().In(c.loc).Format(DateLayout)
}

// Location returns the fixed zone of the clock.
func (c *Civil) Location() *time.Location { return c.loc }

func fixedZone(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	sign := "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, secs/3600, (secs%3600)/60)
	return time.FixedZone(name, int(offset/time.Second))
}

// Fixed is a Clock that always reports the same date. Useful in tests.
type Fixed string

func (f Fixed) Today() string { return string(f) }

// ParseDate parses a civil date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// DaysBetween returns the number of whole days from a to b. Both must be
// civil dates; an invalid date yields ok=false.
func DaysBetween(a, b string) (days int, ok bool) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, false
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, false
	}
	return int(tb.Sub(ta).Hours() / 24), true
}
