package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	LayoutDate = "2006-01-02"
	layoutHHMM = "15:04"
)

// Stockholm is used for "today" and for rendering dates to customers.
var Stockholm = loadLocation("Europe/Stockholm")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Today is the current calendar date in Stockholm as YYYY-MM-DD.
func Today() string {
	return time.Now().In(Stockholm).Format(LayoutDate)
}

// ParseDate parses YYYY-MM-DD as a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(LayoutDate, strings.TrimSpace(s), time.UTC)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(LayoutDate)
}

// NormalizeHHMM accepts "8:05", "08:05" or "08:05:00" and returns "08:05".
func NormalizeHHMM(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if len(s) == 8 && strings.Count(s, ":") == 2 {
		s = s[:5]
	}
	if len(s) == 4 && s[1] == ':' {
		s = "0" + s
	}
	t, err := time.Parse(layoutHHMM, s)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Format(layoutHHMM), nil
}
