// Package catalog holds the declarative per-venue availability data: weekly
// schedules, upstream code mappings and fixed menus for venues that never
// change theirs. A Catalog is built once at startup, validated, and read-only
// afterwards.
package catalog

import (
	"fmt"
	"time"
)

// Kind identifies how a venue's menu data is obtained.
type Kind string

const (
	// KindDynamic venues embed their menu as JSON inside a script tag on the
	// venue's web page.
	KindDynamic Kind = "dynamic"
	// KindStatic venues have a fixed, hand-maintained menu.
	KindStatic Kind = "static"
	// KindThirdParty venues are served by an external menu API.
	KindThirdParty Kind = "third_party"
)

// ClockTime is a time of day on the venue's local clock.
type ClockTime struct {
	Hour   int
	Minute int
}

// Minutes returns the time of day as minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Format12h renders the time as e.g. "9:30 AM" or "12:00 AM".
func (c ClockTime) Format12h() string {
	switch {
	case c.Hour == 0:
		return fmt.Sprintf("12:%02d AM", c.Minute)
	case c.Hour < 12:
		return fmt.Sprintf("%d:%02d AM", c.Hour, c.Minute)
	case c.Hour == 12:
		return fmt.Sprintf("12:%02d PM", c.Minute)
	default:
		return fmt.Sprintf("%d:%02d PM", c.Hour-12, c.Minute)
	}
}

// MealWindow is a named serving interval on the venue-local clock.
// End <= Start means the window wraps past midnight into the next day.
type MealWindow struct {
	Name  string
	Start ClockTime
	End   ClockTime
}

// CrossesMidnight reports whether the window wraps into the next day.
func (w MealWindow) CrossesMidnight() bool {
	return w.End.Minutes() <= w.Start.Minutes()
}

// Contains reports whether a time of day, given as minutes since midnight,
// falls inside the window. Start is inclusive, End exclusive.
func (w MealWindow) Contains(nowMinutes int) bool {
	start := w.Start.Minutes()
	end := w.End.Minutes()
	if w.CrossesMidnight() {
		return nowMinutes >= start || nowMinutes < end
	}
	return nowMinutes >= start && nowMinutes < end
}

// TimeLabel renders the window bounds, e.g. "11:00 AM - 2:30 PM".
func (w MealWindow) TimeLabel() string {
	return w.Start.Format12h() + " - " + w.End.Format12h()
}

// ScheduleVariant is one weekday-scoped set of meal windows. A venue may carry
// several (weekday vs. saturday vs. sunday). Window order is meaningful: when
// two windows would match the same instant, the first declared wins.
type ScheduleVariant struct {
	Days    []time.Weekday
	Windows []MealWindow
}

// AppliesOn reports whether the variant covers the given weekday.
func (v ScheduleVariant) AppliesOn(d time.Weekday) bool {
	for _, day := range v.Days {
		if day == d {
			return true
		}
	}
	return false
}

// StaticItem is one entry of a hand-maintained fixed menu.
type StaticItem struct {
	Name         string
	Description  string
	Allergens    []string
	DietaryPrefs []string
}

// MenuPeriod names one period exposed by a third-party menu API.
type MenuPeriod struct {
	Name string
	ID   string
}

// Venue is one dining location. Immutable after the catalog is built.
type Venue struct {
	Name     string
	Source   string // e.g. "columbia", "barnard"
	Kind     Kind
	Timezone string

	// Dynamic venues: page path relative to the source base URL.
	Path string
	// Third-party venues: upstream location id and the menu periods to pull.
	LocationID string
	Periods    []MenuPeriod

	// Human-readable hours label; derived from the schedule when empty.
	OperatingHours string

	Variants []ScheduleVariant

	// MealTypeCodes maps upstream meal-type identifiers (numeric codes for
	// dynamic venues, period labels for third-party ones) to canonical meal
	// names declared in the variants.
	MealTypeCodes map[string]string

	// StationNames maps upstream numeric station codes to display names.
	// Only dynamic venues key stations numerically.
	StationNames map[string]string

	// StaticItems is the fixed menu for static venues.
	StaticItems []StaticItem

	loc *time.Location
}

// Location returns the venue's resolved timezone.
func (v *Venue) Location() *time.Location {
	return v.loc
}

// MealNames returns the canonical meal names a variant declares, in order.
func (sv ScheduleVariant) MealNames() []string {
	names := make([]string, 0, len(sv.Windows))
	for _, w := range sv.Windows {
		names = append(names, w.Name)
	}
	return names
}

// Catalog is the read-only collection of all known venues.
type Catalog struct {
	venues []*Venue
	byName map[string]*Venue
}

// New builds a catalog from venue definitions, resolving timezones and
// validating every entry. Mapping mistakes surface here instead of at
// normalization time.
func New(venues []*Venue) (*Catalog, error) {
	c := &Catalog{
		venues: venues,
		byName: make(map[string]*Venue, len(venues)),
	}

	for _, v := range venues {
		if v.Name == "" {
			return nil, fmt.Errorf("catalog: venue with empty name")
		}
		if _, dup := c.byName[v.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate venue %q", v.Name)
		}

		loc, err := time.LoadLocation(v.Timezone)
		if err != nil {
			return nil, fmt.Errorf("catalog: venue %q: bad timezone %q: %w", v.Name, v.Timezone, err)
		}
		v.loc = loc

		if err := validateVenue(v); err != nil {
			return nil, fmt.Errorf("catalog: venue %q: %w", v.Name, err)
		}

		c.byName[v.Name] = v
	}

	return c, nil
}

func validateVenue(v *Venue) error {
	if len(v.Variants) == 0 {
		return fmt.Errorf("no schedule variants")
	}

	declared := make(map[string]bool)
	for i, sv := range v.Variants {
		if len(sv.Days) == 0 {
			return fmt.Errorf("variant %d has no weekdays", i)
		}
		if len(sv.Windows) == 0 {
			return fmt.Errorf("variant %d has no meal windows", i)
		}
		for _, w := range sv.Windows {
			if w.Name == "" {
				return fmt.Errorf("variant %d has an unnamed window", i)
			}
			if err := validClock(w.Start); err != nil {
				return fmt.Errorf("window %q start: %w", w.Name, err)
			}
			if err := validClock(w.End); err != nil {
				return fmt.Errorf("window %q end: %w", w.Name, err)
			}
			declared[w.Name] = true
		}
	}

	// Every mapped meal name must exist somewhere in the schedule, otherwise
	// the mapping can never produce output.
	for code, name := range v.MealTypeCodes {
		if !declared[name] {
			return fmt.Errorf("meal-type code %q maps to undeclared meal %q", code, name)
		}
	}

	switch v.Kind {
	case KindDynamic:
		if v.Path == "" {
			return fmt.Errorf("dynamic venue without page path")
		}
		if len(v.MealTypeCodes) == 0 {
			return fmt.Errorf("dynamic venue without meal-type code table")
		}
	case KindThirdParty:
		if v.LocationID == "" || len(v.Periods) == 0 {
			return fmt.Errorf("third-party venue without location id or periods")
		}
		if len(v.MealTypeCodes) == 0 {
			return fmt.Errorf("third-party venue without period label table")
		}
	case KindStatic:
		if len(v.StaticItems) == 0 {
			return fmt.Errorf("static venue without menu items")
		}
	default:
		return fmt.Errorf("unknown venue kind %q", v.Kind)
	}

	return nil
}

func validClock(c ClockTime) error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("out of range: %02d:%02d", c.Hour, c.Minute)
	}
	return nil
}

// Venue looks up a venue by its exact name.
func (c *Catalog) Venue(name string) (*Venue, bool) {
	v, ok := c.byName[name]
	return v, ok
}

// Venues returns all venues in declaration order.
func (c *Catalog) Venues() []*Venue {
	return c.venues
}

// Default builds the catalog of all currently known venues.
func Default() (*Catalog, error) {
	var venues []*Venue
	venues = append(venues, columbiaDynamicVenues()...)
	venues = append(venues, columbiaStaticVenues()...)
	venues = append(venues, barnardVenues()...)
	return New(venues)
}
