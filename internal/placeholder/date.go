package placeholder

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDateFormat is used when no pattern is configured.
const DefaultDateFormat = "YYYY-MM-DD"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseDate accepts ISO-8601 timestamps and date-only strings.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDateString formats input according to pattern, substituting YYYY, YY,
// MM and DD. Everything else in the pattern is copied literally. An
// unparsable input falls back to now.
func FormatDateString(input, pattern string, now time.Time) string {
	t, ok := ParseDate(input)
	if !ok {
		t = now
	}
	if pattern == "" {
		pattern = DefaultDateFormat
	}
	r := strings.NewReplacer(
		"YYYY", fmt.Sprintf("%04d", t.Year()),
		"YY", fmt.Sprintf("%02d", t.Year()%100),
		"MM", fmt.Sprintf("%02d", int(t.Month())),
		"DD", fmt.Sprintf("%02d", t.Day()),
	)
	return r.Replace(pattern)
}
