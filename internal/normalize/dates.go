package normalize

import (
	"strings"
	"time"
)

// Date formats seen in extracted bill line items.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// ParseDate attempts to parse a date string in multiple common formats.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, fmt := range dateFormats {
		if t, err := time.Parse(fmt, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// DateKey formats an optional date as YYYY-MM-DD, or "" when absent.
func DateKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
