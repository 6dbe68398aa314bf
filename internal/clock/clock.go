package clock

import "time"

// Clock provides the current time for default as-of dates.
type Clock interface {
	Now() time.Time
}

// System is the wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Date truncates t to midnight UTC.
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	return Date(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// AsOf resolves an optional as-of instant against c.
func AsOf(c Clock, asOf *time.Time) time.Time {
	if asOf != nil {
		return *asOf
	}
	return c.Now()
}
