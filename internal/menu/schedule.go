// internal/menu/schedule.go
package menu

import (
	"time"

	"dining-aggregator/internal/catalog"
)

// activeWindows returns the meal windows that apply on now's venue-local
// weekday, concatenated across every matching schedule variant in declaration
// order. Order is the tie-break: the first window that covers an instant wins.
func activeWindows(v *catalog.Venue, now time.Time) []catalog.MealWindow {
	local := now.In(v.Location())
	day := local.Weekday()

	var windows []catalog.MealWindow
	for _, sv := range v.Variants {
		if sv.AppliesOn(day) {
			windows = append(windows, sv.Windows...)
		}
	}
	return windows
}

// IsOpenNow reports whether any of the venue's meal windows covers the given
// instant. A venue with no variant matching today's weekday is not open.
func IsOpenNow(v *catalog.Venue, now time.Time) bool {
	_, ok := CurrentMeal(v, now)
	return ok
}

// CurrentMeal returns the name of the first declared meal window covering the
// given instant, and false when the venue is not serving.
func CurrentMeal(v *catalog.Venue, now time.Time) (string, bool) {
	local := now.In(v.Location())
	nowMinutes := local.Hour()*60 + local.Minute()

	for _, w := range activeWindows(v, now) {
		if w.Contains(nowMinutes) {
			return w.Name, true
		}
	}
	return "", false
}

// mealSequence returns today's declared meal names in canonical order, with
// the window providing each name's time label. First declaration wins for
// repeated names across variants.
func mealSequence(v *catalog.Venue, now time.Time) []catalog.MealWindow {
	var seq []catalog.MealWindow
	seen := make(map[string]bool)
	for _, w := range activeWindows(v, now) {
		if !seen[w.Name] {
			seen[w.Name] = true
			seq = append(seq, w)
		}
	}
	return seq
}
