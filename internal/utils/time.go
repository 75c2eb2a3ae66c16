package utils

import (
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.UTC)
}

// ParseFlexibleTime accepts RFC 3339, "YYYY-MM-DD HH:MM" or a bare date.
func ParseFlexibleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(layoutDateTime, s, time.UTC); err == nil {
		return t, nil
	}
	return ParseDate(s)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(layoutDate)
}

func FormatDateTime(t time.Time) string {
	return t.UTC().Format(layoutDateTime)
}

// MonthsBack returns the first day of the month n-1 months before now, so n months are covered.
func MonthsBack(now time.Time, n int) time.Time {
	if n < 1 {
		n = 1
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(n - 1), 0)
}
