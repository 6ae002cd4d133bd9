// internal/menu/normalize.go
package menu

import (
	"strings"
	"time"
	"unicode/utf8"

	"dining-aggregator/internal/catalog"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/common/metrics"
)

// Upstream markup artifacts show up as one- and two-character "items";
// anything at or under this length is noise, not food.
const minItemNameLength = 3

// Normalizer converts raw upstream fragments into the canonical meal list for
// one venue. Per-fragment problems degrade to drop-and-continue so one bad
// fragment never costs the whole venue.
type Normalizer struct {
	venue *catalog.Venue
	log   logger.Logger
}

func NewNormalizer(v *catalog.Venue, log logger.Logger) *Normalizer {
	return &Normalizer{
		venue: v,
		log:   log.WithFields(map[string]interface{}{"venue": v.Name, "source": v.Source}),
	}
}

// stationAcc accumulates one station's items across fragments, deduplicating
// by exact item name. The first occurrence's metadata wins.
type stationAcc struct {
	name  string
	items []Item
	seen  map[string]bool
}

// mealAcc accumulates stations for one mapped meal type, preserving first
// encounter order of stations.
type mealAcc struct {
	stations []*stationAcc
	index    map[string]*stationAcc
}

// Normalize maps, filters, merges, prunes and orders the fragments into
// canonical meals for now's venue-local day.
func (n *Normalizer) Normalize(fragments []RawFragment, now time.Time) []Meal {
	if n.venue.Kind == catalog.KindStatic {
		return n.staticMeals(now)
	}

	sequence := mealSequence(n.venue, now)
	declared := make(map[string]bool, len(sequence))
	for _, w := range sequence {
		declared[w.Name] = true
	}

	grouped := make(map[string]*mealAcc)

	for _, f := range fragments {
		mealType, ok := n.venue.MealTypeCodes[f.MealType]
		if !ok {
			n.drop("unmapped_meal_type", f.MealType)
			continue
		}
		// A stray meal tag at a venue not scheduled to serve that meal today.
		if !declared[mealType] {
			n.drop("not_scheduled", mealType)
			continue
		}
		if !appliesToday(f, now, n.venue.Location()) {
			n.drop("date_out_of_range", mealType)
			continue
		}

		acc := grouped[mealType]
		if acc == nil {
			acc = &mealAcc{index: make(map[string]*stationAcc)}
			grouped[mealType] = acc
		}
		n.mergeStations(acc, f.Stations)
	}

	// Emit in the venue's canonical meal order, never upstream encounter
	// order, with time labels taken from the schedule rather than upstream
	// free text.
	var meals []Meal
	for _, w := range sequence {
		acc := grouped[w.Name]
		if acc == nil {
			continue
		}
		stations := make([]Station, 0, len(acc.stations))
		for _, s := range acc.stations {
			if len(s.items) == 0 {
				continue
			}
			stations = append(stations, Station{Station: s.name, Items: s.items})
		}
		if len(stations) == 0 {
			continue
		}
		meals = append(meals, Meal{
			MealType: w.Name,
			Time:     w.TimeLabel(),
			Stations: stations,
		})
	}
	return meals
}

func (n *Normalizer) mergeStations(acc *mealAcc, stations []RawStation) {
	for _, rs := range stations {
		name := n.stationName(rs)

		sa := acc.index[name]
		if sa == nil {
			sa = &stationAcc{name: name, seen: make(map[string]bool)}
			acc.index[name] = sa
			acc.stations = append(acc.stations, sa)
		}

		for _, ri := range rs.Items {
			itemName := strings.TrimSpace(ri.Name)
			if utf8.RuneCountInString(itemName) < minItemNameLength {
				continue
			}
			if sa.seen[itemName] {
				// Repeated upstream entries are expected, not an error.
				continue
			}
			sa.seen[itemName] = true
			sa.items = append(sa.items, Item{
				Name:         itemName,
				Description:  optionalString(strings.TrimSpace(ri.Description)),
				Allergens:    nonNil(ri.Allergens),
				DietaryPrefs: nonNil(ri.DietaryPrefs),
			})
		}
	}
}

// stationName resolves station identity: an explicit id table for sources
// that key stations numerically, the literal name otherwise.
func (n *Normalizer) stationName(rs RawStation) string {
	if rs.ID != "" {
		if name, ok := n.venue.StationNames[rs.ID]; ok {
			return name
		}
		return "Station"
	}
	if rs.Name == "" {
		return "Station"
	}
	return rs.Name
}

// staticMeals emits the fixed catalog as a single "All Day" meal while the
// venue is open, and nothing otherwise.
func (n *Normalizer) staticMeals(now time.Time) []Meal {
	if !IsOpenNow(n.venue, now) {
		return nil
	}

	items := make([]Item, 0, len(n.venue.StaticItems))
	for _, si := range n.venue.StaticItems {
		items = append(items, Item{
			Name:         si.Name,
			Description:  optionalString(si.Description),
			Allergens:    nonNil(si.Allergens),
			DietaryPrefs: nonNil(si.DietaryPrefs),
		})
	}

	timeLabel := n.venue.OperatingHours
	if timeLabel == "" {
		if seq := mealSequence(n.venue, now); len(seq) > 0 {
			timeLabel = seq[0].TimeLabel()
		}
	}

	return []Meal{{
		MealType: "All Day",
		Time:     timeLabel,
		Stations: []Station{{Station: "Menu", Items: items}},
	}}
}

func (n *Normalizer) drop(reason, mealType string) {
	metrics.FragmentsDropped.WithLabelValues(n.venue.Source, reason).Inc()
	n.log.Debug("dropped fragment", map[string]interface{}{
		"reason":   reason,
		"mealType": mealType,
	})
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
