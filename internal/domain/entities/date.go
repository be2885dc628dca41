package entities

import (
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	YearMonthLayout = "2006-01"
	ClockLayout     = "15:04"
)

// ParseDate parses a YYYY-MM-DD calendar date. The result is midnight UTC and
// only its year, month and day are meaningful.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate renders the calendar date of t, ignoring its location.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// AddDays shifts a YYYY-MM-DD date by n calendar days, rolling over month
// and year boundaries.
func AddDays(date string, n int) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(time.Date(d.Year(), d.Month(), d.Day()+n, 0, 0, 0, 0, time.UTC)), nil
}

// ParseClock parses a zero-padded HH:MM time of day. Stored times are
// compared as strings, so "9:00" is rejected.
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != len(ClockLayout) {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// padClock rewrites an H:MM time as HH:MM.
func padClock(s string) (string, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Format(ClockLayout), nil
}

// ParseYearMonth parses a YYYY-MM key and returns the first day of that month.
func ParseYearMonth(s string) (time.Time, error) {
	t, err := time.Parse(YearMonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return t, nil
}

// YearMonthOf returns the YYYY-MM key of a YYYY-MM-DD date.
func YearMonthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

// DaysIn returns the number of days in the month starting at first.
func DaysIn(first time.Time) int {
	return time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
