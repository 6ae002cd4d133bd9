// internal/menu/datefilter.go
package menu

import (
	"time"
)

// Formats seen across upstream payloads, in the order they are tried.
// Offset-less timestamps and bare dates are taken as already venue-local.
var localDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseVenueDate parses an upstream date bound into a venue-local calendar
// day, encoded as year*10000 + month*100 + day for cheap comparison. An empty
// or unparseable bound returns ok=false and is treated as absent by the
// caller (fail open, never closed).
func parseVenueDate(s string, loc *time.Location) (int, bool) {
	if s == "" {
		return 0, false
	}

	// Zone-aware timestamps are normalized into the venue timezone before the
	// calendar day is taken.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return dateKey(t.In(loc)), true
	}

	for _, layout := range localDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return dateKey(t), true
		}
	}

	return 0, false
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// appliesToday reports whether a date-bound fragment is valid on now's
// venue-local calendar day. No bounds means the fragment was not date-scoped
// upstream and always applies; a single bound means "exactly that day"; two
// bounds are an inclusive range.
func appliesToday(f RawFragment, now time.Time, loc *time.Location) bool {
	from, hasFrom := parseVenueDate(f.DateFrom, loc)
	to, hasTo := parseVenueDate(f.DateTo, loc)

	if !hasFrom && !hasTo {
		return true
	}

	today := dateKey(now.In(loc))

	switch {
	case hasFrom && hasTo:
		return from <= today && today <= to
	case hasFrom:
		return today == from
	default:
		return today == to
	}
}
