package scheduler

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a timezone-less calendar day. The zero value means "no date".
type Date struct {
	t time.Time
}

// NewDate returns the calendar day for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock and zone of t, keeping its calendar day as observed in t's location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. A blank string yields the zero Date.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("scheduler: invalid date %q: %w", value, err)
	}
	return Date{t: t}, nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(value string) Date {
	d, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether both dates name the same day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start Date
	End   Date
}

// NewWindow builds a window from its inclusive bounds.
func NewWindow(start, end Date) Window {
	return Window{Start: start, End: end}
}

// Valid reports whether both bounds are present and End is not before Start.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.End.Before(w.Start)
}

// Overlaps reports whether the windows share at least one day.
// Windows touching on a single boundary day overlap.
func (w Window) Overlaps(other Window) bool {
	return !(w.End.Before(other.Start) || other.End.Before(w.Start))
}

// Contains reports whether other lies entirely inside w.
func (w Window) Contains(other Window) bool {
	return !other.Start.Before(w.Start) && !other.End.After(w.End)
}

// Days returns the number of calendar days covered, or 0 for an invalid window.
func (w Window) Days() int {
	if !w.Valid() {
		return 0
	}
	return int(w.End.t.Sub(w.Start.t).Hours()/24) + 1
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start, w.End)
}
