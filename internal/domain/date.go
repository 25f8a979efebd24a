package domain

import (
	"fmt"
	"time"
)

// Date is a trading date encoded as YYYYMMDD (e.g. 20240115).
// The encoding sorts chronologically as a plain integer.
type Date int

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date(year*10000 + int(month)*100 + day)
}

// DateFromTime converts a time.Time to a Date (calendar date in UTC).
func DateFromTime(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

// ParseDate parses "2006-01-02" into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateFromTime(t), nil
}

// Year returns the calendar year.
func (d Date) Year() int { return int(d) / 10000 }

// Month returns the calendar month.
func (d Date) Month() time.Month { return time.Month(int(d) / 100 % 100) }

// Day returns the day of month.
func (d Date) Day() int { return int(d) % 100 }

// MonthKey returns YYYYMM, used for grouping by calendar month.
func (d Date) MonthKey() int { return int(d) / 100 }

// Time converts the Date to midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Weekday returns the calendar weekday (Sunday = 0).
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// String formats as "2006-01-02".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), int(d.Month()), d.Day())
}
