// Package daterange holds calendar-day arithmetic shared by the booking and
// audit code. Every value is normalized to midnight UTC so comparisons never
// depend on the wall clock or the server time zone.
package daterange

import (
	"errors"
	"time"
)

const (
	// Layout is the wire format for calendar dates.
	Layout = "2006-01-02"
	day    = 24 * time.Hour
)

var ErrInvalidRange = errors.New("invalid_date_range")

// Truncate drops the time of day, keeping the calendar date t has in its own
// location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a date by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(0, 0, n)
}

func Parse(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return Truncate(t), nil
}

func Format(t time.Time) string {
	return Truncate(t).Format(Layout)
}

// Interval is a half-open run of calendar days [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New validates and normalizes an interval. End must be strictly after Start.
func New(start, end time.Time) (Interval, error) {
	start, end = Truncate(start), Truncate(end)
	if !end.After(start) {
		return Interval{}, ErrInvalidRange
	}
	return Interval{Start: start, End: end}, nil
}

func (i Interval) Validate() error {
	if !Truncate(i.End).After(Truncate(i.Start)) {
		return ErrInvalidRange
	}
	return nil
}

// Nights is the number of days covered by the interval.
func (i Interval) Nights() int {
	return int(Truncate(i.End).Sub(Truncate(i.Start)) / day)
}

// Days enumerates every date in [Start, End).
func (i Interval) Days() []time.Time {
	n := i.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := 0; d < n; d++ {
		out = append(out, AddDays(i.Start, d))
	}
	return out
}

// Contains reports whether d falls inside [Start, End).
func (i Interval) Contains(d time.Time) bool {
	d = Truncate(d)
	return !d.Before(Truncate(i.Start)) && d.Before(Truncate(i.End))
}

// Overlaps is the half-open intersection test: a.Start < b.End && a.End > b.Start.
func (i Interval) Overlaps(other Interval) bool {
	return Truncate(i.Start).Before(Truncate(other.End)) && Truncate(i.End).After(Truncate(other.Start))
}

// WithinInclusive reports whether d lies in the closed range [from, to].
func WithinInclusive(d, from, to time.Time) bool {
	d = Truncate(d)
	return !d.Before(Truncate(from)) && !d.After(Truncate(to))
}
