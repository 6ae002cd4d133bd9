// internal/menu/schedule_test.go
package menu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dining-aggregator/internal/catalog"
)

// ==========================
// Test Helper Functions
// ==========================

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

// localTime builds a venue-local instant on Monday 2024-01-08 unless another
// day is supplied.
func localTime(t *testing.T, day int, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2024, time.January, day, hour, minute, 0, 0, testLocation(t))
}

func buildVenue(t *testing.T, venues ...*catalog.Venue) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(venues)
	require.NoError(t, err)
	return c
}

// sampleHall serves Breakfast/Lunch/Dinner Monday through Thursday.
func sampleHall(t *testing.T) *catalog.Venue {
	t.Helper()
	v := &catalog.Venue{
		Name:     "Sample Hall",
		Source:   "columbia",
		Kind:     catalog.KindDynamic,
		Timezone: "America/New_York",
		Path:     "/content/sample-hall",
		Variants: []catalog.ScheduleVariant{
			{
				Days: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
				Windows: []catalog.MealWindow{
					{Name: "Breakfast", Start: catalog.ClockTime{Hour: 9, Minute: 30}, End: catalog.ClockTime{Hour: 11}},
					{Name: "Lunch", Start: catalog.ClockTime{Hour: 11}, End: catalog.ClockTime{Hour: 14, Minute: 30}},
					{Name: "Dinner", Start: catalog.ClockTime{Hour: 17}, End: catalog.ClockTime{Hour: 21}},
				},
			},
		},
		MealTypeCodes: map[string]string{"6": "Breakfast", "7": "Lunch", "8": "Dinner"},
		StationNames:  map[string]string{"33": "Grill", "24": "Main Station"},
	}
	buildVenue(t, v)
	return v
}

// overnightDiner has a single window from noon to 10 AM the next day.
func overnightDiner(t *testing.T) *catalog.Venue {
	t.Helper()
	v := &catalog.Venue{
		Name:     "Overnight Diner",
		Source:   "columbia",
		Kind:     catalog.KindStatic,
		Timezone: "America/New_York",
		Variants: []catalog.ScheduleVariant{
			{
				Days: []time.Weekday{
					time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
					time.Thursday, time.Friday, time.Saturday,
				},
				Windows: []catalog.MealWindow{
					{Name: "All Day", Start: catalog.ClockTime{Hour: 12}, End: catalog.ClockTime{Hour: 10}},
				},
			},
		},
		StaticItems: []catalog.StaticItem{
			{Name: "Hamburger", Description: "Classic beef burger", Allergens: []string{"Gluten"}},
			{Name: "French Fries", DietaryPrefs: []string{"Vegan"}},
		},
	}
	buildVenue(t, v)
	return v
}

// ==========================
// Resolver Tests
// ==========================

func TestIsOpenNow_RegularWindows(t *testing.T) {
	v := sampleHall(t)

	tests := []struct {
		name string
		hour int
		min  int
		open bool
	}{
		{name: "before breakfast", hour: 9, min: 0, open: false},
		{name: "breakfast start inclusive", hour: 9, min: 30, open: true},
		{name: "breakfast/lunch boundary belongs to lunch", hour: 11, min: 0, open: true},
		{name: "mid lunch", hour: 12, min: 0, open: true},
		{name: "gap between lunch and dinner", hour: 15, min: 0, open: false},
		{name: "dinner end exclusive", hour: 21, min: 0, open: false},
		{name: "early morning", hour: 3, min: 0, open: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := localTime(t, 8, tt.hour, tt.min) // Monday
			assert.Equal(t, tt.open, IsOpenNow(v, now))
		})
	}
}

func TestIsOpenNow_CrossesMidnight(t *testing.T) {
	v := overnightDiner(t)

	tests := []struct {
		name string
		hour int
		min  int
		open bool
	}{
		{name: "late evening", hour: 23, min: 0, open: true},
		{name: "early morning wrap", hour: 6, min: 30, open: true},
		{name: "between close and open", hour: 11, min: 0, open: false},
		{name: "open boundary", hour: 12, min: 0, open: true},
		{name: "close boundary exclusive", hour: 10, min: 0, open: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := localTime(t, 8, tt.hour, tt.min)
			assert.Equal(t, tt.open, IsOpenNow(v, now))
		})
	}
}

func TestCurrentMeal(t *testing.T) {
	v := sampleHall(t)

	tests := []struct {
		name    string
		now     time.Time
		want    string
		serving bool
	}{
		{name: "lunch on monday noon", now: localTime(t, 8, 12, 0), want: "Lunch", serving: true},
		{name: "breakfast", now: localTime(t, 9, 10, 0), want: "Breakfast", serving: true},
		{name: "dinner", now: localTime(t, 10, 19, 30), want: "Dinner", serving: true},
		{name: "no variant on friday", now: localTime(t, 12, 12, 0), serving: false},
		{name: "closed overnight", now: localTime(t, 8, 3, 0), serving: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meal, ok := CurrentMeal(v, tt.now)
			assert.Equal(t, tt.serving, ok)
			assert.Equal(t, tt.want, meal)
		})
	}
}

func TestCurrentMeal_OverlappingWindowsFirstDeclaredWins(t *testing.T) {
	v := &catalog.Venue{
		Name:     "Tight Hall",
		Source:   "columbia",
		Kind:     catalog.KindDynamic,
		Timezone: "America/New_York",
		Path:     "/content/tight-hall",
		Variants: []catalog.ScheduleVariant{
			{
				Days: []time.Weekday{time.Monday},
				Windows: []catalog.MealWindow{
					{Name: "Brunch", Start: catalog.ClockTime{Hour: 10}, End: catalog.ClockTime{Hour: 14}},
					{Name: "Lunch", Start: catalog.ClockTime{Hour: 11}, End: catalog.ClockTime{Hour: 15}},
				},
			},
		},
		MealTypeCodes: map[string]string{"7": "Lunch"},
	}
	buildVenue(t, v)

	meal, ok := CurrentMeal(v, localTime(t, 8, 12, 0))
	require.True(t, ok)
	assert.Equal(t, "Brunch", meal, "overlap resolves to the first declared window")
}

func TestCurrentMeal_UTCInputNormalizedToVenueLocal(t *testing.T) {
	v := sampleHall(t)

	// 17:00 UTC is 12:00 in New York in January.
	now := time.Date(2024, time.January, 8, 17, 0, 0, 0, time.UTC)

	meal, ok := CurrentMeal(v, now)
	require.True(t, ok)
	assert.Equal(t, "Lunch", meal)
}
