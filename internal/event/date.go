package event

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datetimeLayouts are tried in order by ParseDatetime.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDatetime attempts to parse an ISO-8601-like datetime string.
// The wall clock of the string is kept; any zone offset is dropped.
// Returns time.Time{} (zero value) if parsing fails.
// Supports formats: "2019-10-17T22:00:00+02:00", "2019-10-17T22:00", "2019-10-17"
func ParseDatetime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
		}
	}

	// Fall back to the leading date when the rest is unrecognised
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t
		}
	}

	return time.Time{}
}

// ParseDate parses the date half of a split datetime ("2019-10-17").
// Returns time.Time{} if the text is not a calendar date.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// clockPattern matches the leading HH:MM of a time string, optionally
// followed by seconds, fractions and a zone designator.
var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2})(?:\.\d+)?)?(?:Z|[+-]\d{2}:?\d{2})?$`)

// ParseTimeOfDay parses the time half of a split datetime ("22:00:00+02:00").
// The second return value is false when the text is not a valid clock time.
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return TimeOfDay{}, false
	}
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return TimeOfDay{}, false
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, true
}
