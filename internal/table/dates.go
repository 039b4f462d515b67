package table

import (
	"strings"
	"time"
)

// DateLayouts are tried in order when coercing text to a timestamp. Slash and
// dash numeric forms are read month first.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006",
	"01-02-2006",
	"20060102",
}

// ParseTime coerces a text cell to a timestamp. The boolean is false when no
// layout matches.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil && !t.IsZero() {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidDate reports whether cell i of a date column holds a usable
// timestamp, whatever the column kind.
func ValidDate(c *Column, i int) bool {
	if c.IsMissing(i) {
		return false
	}
	switch c.Kind {
	case KindTime:
		return true
	case KindText:
		_, ok := ParseTime(c.Text(i))
		return ok
	case KindNumber:
		// compact yyyymmdd read as an integer
		_, ok := ParseTime(c.String(i))
		return ok
	default:
		return false
	}
}
