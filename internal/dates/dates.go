// Package dates handles the European day-precision date format (DD.MM.YYYY)
// used by the listing sites. Dates are stored as site-native strings and
// parsed lazily; parsing is tolerant of surrounding label text.
package dates

import (
	"regexp"
	"strings"
	"time"
)

// Layout is the site-native date layout.
const Layout = "02.01.2006"

var europeanPattern = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)

// Parse extracts and parses a DD.MM.YYYY date from a string that may contain
// additional text (e.g. "veröffentlicht am 12.03.2025"). Returns false when no
// valid date is found.
func Parse(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	m := europeanPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}
	day := pad2(m[1])
	month := pad2(m[2])
	year := m[3]

	t, err := time.Parse(Layout, day+"."+month+"."+year)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < 1900 || t.Year() > 2100 {
		return time.Time{}, false
	}
	return t, true
}

// Valid reports whether the string contains a parseable European date.
func Valid(s string) bool {
	_, ok := Parse(s)
	return ok
}

// Format renders a time in the site-native format.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the current date in the site-native format.
func Today() string {
	return time.Now().Format(Layout)
}

// Truncate drops the time-of-day component, keeping day precision.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Compare orders two date strings: -1 when a is earlier than b, 1 when later,
// 0 when equal or either side is unparseable.
func Compare(a, b string) int {
	ta, okA := Parse(a)
	tb, okB := Parse(b)
	if !okA || !okB {
		return 0
	}
	switch {
	case ta.Before(tb):
		return -1
	case ta.After(tb):
		return 1
	default:
		return 0
	}
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
