// internal/catalog/columbia.go
//
// Columbia Dining venue definitions. Meal times come from the published
// Columbia Dining schedules; the numeric meal-type and station codes match
// the menu_data payload embedded on dining.columbia.edu pages.
package catalog

import "time"

const nyTimezone = "America/New_York"

// columbiaMealTypeCodes maps menu_data meal-type codes to canonical meal
// names. Only these three are served; everything else ("All Day" retail
// codes included) is dropped.
func columbiaMealTypeCodes() map[string]string {
	return map[string]string{
		"6": "Breakfast",
		"7": "Lunch",
		"8": "Dinner",
	}
}

// columbiaStationNames maps menu_data numeric station codes to display names.
func columbiaStationNames() map[string]string {
	return map[string]string{
		"10":  "Smoothie Bar",
		"12":  "Kosher Station",
		"16":  "Halal Station",
		"24":  "Main Station",
		"27":  "Bakery",
		"28":  "Soup & Oatmeal",
		"29":  "Vegan Station",
		"33":  "Grill",
		"100": "Asian Station",
		"159": "Pasta Station",
	}
}

func weekdays(days ...time.Weekday) []time.Weekday { return days }

var (
	monToThu = weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday)
	monToFri = weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	friToSun = weekdays(time.Friday, time.Saturday, time.Sunday)
	allWeek  = weekdays(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday)
	sunToThu = weekdays(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday)
)

func columbiaDynamicVenues() []*Venue {
	codes := columbiaMealTypeCodes()
	stations := columbiaStationNames()

	dynamic := func(name, path string, variants ...ScheduleVariant) *Venue {
		// The mapping table is shared: restrict it to meals the venue
		// actually declares so validation keeps holding per venue.
		declared := make(map[string]bool)
		for _, sv := range variants {
			for _, w := range sv.Windows {
				declared[w.Name] = true
			}
		}
		venueCodes := make(map[string]string)
		for code, meal := range codes {
			if declared[meal] {
				venueCodes[code] = meal
			}
		}
		return &Venue{
			Name:          name,
			Source:        "columbia",
			Kind:          KindDynamic,
			Timezone:      nyTimezone,
			Path:          path,
			Variants:      variants,
			MealTypeCodes: venueCodes,
			StationNames:  stations,
		}
	}

	return []*Venue{
		dynamic("John Jay Dining Hall", "/content/john-jay-dining-hall",
			ScheduleVariant{
				Days: sunToThu,
				Windows: []MealWindow{
					{Name: "Breakfast", Start: ClockTime{9, 30}, End: ClockTime{11, 0}},
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{14, 30}},
					{Name: "Dinner", Start: ClockTime{17, 0}, End: ClockTime{21, 0}},
				},
			},
		),
		dynamic("Ferris Booth Commons", "/content/ferris-booth-commons-0",
			ScheduleVariant{
				Days: monToFri,
				Windows: []MealWindow{
					{Name: "Breakfast", Start: ClockTime{7, 30}, End: ClockTime{10, 30}},
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{15, 0}},
					{Name: "Dinner", Start: ClockTime{17, 0}, End: ClockTime{20, 0}},
				},
			},
			ScheduleVariant{
				Days: weekdays(time.Saturday),
				Windows: []MealWindow{
					{Name: "Breakfast", Start: ClockTime{9, 0}, End: ClockTime{11, 0}},
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{15, 0}},
					{Name: "Dinner", Start: ClockTime{17, 0}, End: ClockTime{20, 0}},
				},
			},
			ScheduleVariant{
				Days: weekdays(time.Sunday),
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{10, 0}, End: ClockTime{14, 0}},
					{Name: "Dinner", Start: ClockTime{16, 0}, End: ClockTime{20, 0}},
				},
			},
		),
		dynamic("Chef Mike's", "/chef-mikes",
			ScheduleVariant{
				Days: monToFri,
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{10, 30}, End: ClockTime{15, 0}},
					{Name: "Dinner", Start: ClockTime{17, 0}, End: ClockTime{22, 0}},
				},
			},
			ScheduleVariant{
				Days: weekdays(time.Saturday),
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{15, 0}},
					{Name: "Dinner", Start: ClockTime{15, 0}, End: ClockTime{19, 0}},
				},
			},
		),
		dynamic("Grace Dodge", "/content/grace-dodge-dining-hall-0",
			ScheduleVariant{
				Days: monToThu,
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{14, 30}},
					{Name: "Dinner", Start: ClockTime{14, 30}, End: ClockTime{19, 30}},
				},
			},
		),
		dynamic("Faculty House 2nd Floor", "/content/faculty-house-2nd-floor-0",
			ScheduleVariant{
				Days: monToThu,
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{14, 30}},
				},
			},
		),
		dynamic("Faculty House Skyline", "/content/faculty-house-4th-floor-skyline-room",
			ScheduleVariant{
				Days: monToThu,
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{14, 30}},
				},
			},
		),
		dynamic("Johnny's", "/johnnys",
			ScheduleVariant{
				Days: weekdays(time.Monday, time.Tuesday, time.Wednesday),
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{14, 30}},
				},
			},
			ScheduleVariant{
				Days: weekdays(time.Thursday, time.Friday),
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{11, 0}, End: ClockTime{14, 30}},
					{Name: "Dinner", Start: ClockTime{19, 0}, End: ClockTime{23, 0}},
				},
			},
			ScheduleVariant{
				Days: weekdays(time.Saturday),
				Windows: []MealWindow{
					{Name: "Dinner", Start: ClockTime{19, 0}, End: ClockTime{23, 0}},
				},
			},
			ScheduleVariant{
				Days: weekdays(time.Sunday),
				Windows: []MealWindow{
					{Name: "Dinner", Start: ClockTime{18, 0}, End: ClockTime{22, 0}},
				},
			},
		),
		dynamic("Fac Shack", "/content/fac-shack-0",
			ScheduleVariant{
				Days: monToThu,
				Windows: []MealWindow{
					{Name: "Lunch", Start: ClockTime{12, 0}, End: ClockTime{15, 0}},
					{Name: "Dinner", Start: ClockTime{17, 0}, End: ClockTime{20, 0}},
				},
			},
			ScheduleVariant{
				Days: weekdays(time.Sunday),
				Windows: []MealWindow{
					{Name: "Dinner", Start: ClockTime{15, 0}, End: ClockTime{20, 0}},
				},
			},
		),
	}
}

// blueJavaItems is the menu shared by the Blue Java cafés.
func blueJavaItems() []StaticItem {
	return []StaticItem{
		{Name: "Hot Espresso Beverages", Description: "Lattes, cappuccinos, americanos", Allergens: []string{"Dairy"}},
		{Name: "Iced Espresso Beverages", Description: "Iced lattes, iced cappuccinos", Allergens: []string{"Dairy"}},
		{Name: "Iced Coffee", Description: "Cold brewed iced coffee", DietaryPrefs: []string{"Vegan"}},
		{Name: "Hot Brewed Coffee", Description: "Fresh hot coffee", DietaryPrefs: []string{"Vegan"}},
		{Name: "Cold Brew Coffee", Description: "Slow-steeped cold brew", DietaryPrefs: []string{"Vegan"}},
		{Name: "Paninis", Description: "Assorted grilled paninis", Allergens: []string{"Gluten", "Dairy"}},
		{Name: "Republic of Tea", Description: "Premium tea selection", DietaryPrefs: []string{"Vegan"}},
		{Name: "Specialty Teas", Description: "Assorted specialty teas", DietaryPrefs: []string{"Vegan"}},
		{Name: "Assorted Muffins", Description: "Various muffin flavors", Allergens: []string{"Gluten", "Eggs", "Dairy"}, DietaryPrefs: []string{"Vegetarian"}},
		{Name: "Assorted Pastries", Description: "Fresh baked pastries", Allergens: []string{"Gluten", "Eggs", "Dairy"}, DietaryPrefs: []string{"Vegetarian"}},
		{Name: "Chilled Drinks", Description: "Bottled beverages and juices", DietaryPrefs: []string{"Vegan"}},
		{Name: "Assorted Fruit", Description: "Fresh fruit cups", DietaryPrefs: []string{"Vegan", "Gluten Free"}},
		{Name: "Assorted Snacks", Description: "Grab and go snacks"},
	}
}

// cafeCounterItems is the menu shared by the grab-and-go faculty cafés.
func cafeCounterItems() []StaticItem {
	return []StaticItem{
		{Name: "Hot Espresso Beverages", Description: "Lattes, cappuccinos, americanos", Allergens: []string{"Dairy"}},
		{Name: "Iced Coffee", Description: "Cold brewed iced coffee", DietaryPrefs: []string{"Vegan"}},
		{Name: "Hot Brewed Coffee", Description: "Fresh hot coffee", DietaryPrefs: []string{"Vegan"}},
		{Name: "Sandwiches", Description: "Fresh made sandwiches", Allergens: []string{"Gluten"}},
		{Name: "Salads", Description: "Fresh salads", DietaryPrefs: []string{"Vegetarian"}},
		{Name: "Assorted Pastries", Description: "Fresh baked pastries", Allergens: []string{"Gluten", "Eggs", "Dairy"}, DietaryPrefs: []string{"Vegetarian"}},
		{Name: "Chilled Drinks", Description: "Bottled beverages and juices", DietaryPrefs: []string{"Vegan"}},
		{Name: "Assorted Snacks", Description: "Grab and go snacks"},
	}
}

func columbiaStaticVenues() []*Venue {
	static := func(name, hours string, items []StaticItem, variants ...ScheduleVariant) *Venue {
		return &Venue{
			Name:           name,
			Source:         "columbia",
			Kind:           KindStatic,
			Timezone:       nyTimezone,
			OperatingHours: hours,
			Variants:       variants,
			StaticItems:    items,
		}
	}

	hours := func(days []time.Weekday, start, end ClockTime) ScheduleVariant {
		return ScheduleVariant{
			Days:    days,
			Windows: []MealWindow{{Name: "All Day", Start: start, End: end}},
		}
	}

	return []*Venue{
		static("JJ's Place", "Open daily 12:00 p.m. - 10:00 a.m.",
			[]StaticItem{
				{Name: "Hamburger", Description: "Classic beef burger", Allergens: []string{"Gluten"}},
				{Name: "Cheeseburger", Description: "Beef burger with cheese", Allergens: []string{"Gluten", "Dairy"}},
				{Name: "Fried Chicken Burger", Description: "Crispy fried chicken sandwich", Allergens: []string{"Gluten"}},
				{Name: "Chicken Nuggets", Description: "Breaded chicken nuggets", Allergens: []string{"Gluten"}},
				{Name: "Chicken Tenders", Description: "Breaded chicken tenders", Allergens: []string{"Gluten"}},
				{Name: "French Fries", Description: "Crispy golden fries", DietaryPrefs: []string{"Vegan", "Gluten Free"}},
				{Name: "Quesadilla", Description: "Cheese quesadilla", Allergens: []string{"Dairy", "Gluten"}, DietaryPrefs: []string{"Vegetarian"}},
				{Name: "Pancakes", Description: "Fluffy pancakes", Allergens: []string{"Gluten", "Eggs", "Dairy"}, DietaryPrefs: []string{"Vegetarian"}},
				{Name: "Chocolate Chip Pancakes", Description: "Pancakes with chocolate chips", Allergens: []string{"Gluten", "Eggs", "Dairy"}, DietaryPrefs: []string{"Vegetarian"}},
				{Name: "French Toast", Description: "Classic french toast", Allergens: []string{"Gluten", "Eggs", "Dairy"}, DietaryPrefs: []string{"Vegetarian"}},
			},
			// Noon until 10 the next morning; the window wraps midnight.
			hours(allWeek, ClockTime{12, 0}, ClockTime{10, 0}),
		),
		static("Blue Java Butler", "Monday - Thursday, 8 a.m. - 12 a.m. | Friday - Sunday, 9 a.m. - 9 p.m.",
			blueJavaItems(),
			hours(monToThu, ClockTime{8, 0}, ClockTime{0, 0}),
			hours(friToSun, ClockTime{9, 0}, ClockTime{21, 0}),
		),
		static("Blue Java Uris", "Monday - Friday: 8:00 a.m. - 5:30 p.m.",
			blueJavaItems(),
			hours(monToFri, ClockTime{8, 0}, ClockTime{17, 30}),
		),
		static("Blue Java Mudd", "Monday - Friday: 8 a.m. - 6 p.m.",
			blueJavaItems(),
			hours(monToFri, ClockTime{8, 0}, ClockTime{18, 0}),
		),
		static("Blue Java Everett", "Monday - Thursday, 8:00 a.m. - 7:30 p.m. | Friday, 8:00 a.m. - 2:30 p.m.",
			blueJavaItems(),
			hours(monToThu, ClockTime{8, 0}, ClockTime{19, 30}),
			hours(weekdays(time.Friday), ClockTime{8, 0}, ClockTime{14, 30}),
		),
		static("Lenfest Cafe", "Monday - Thursday: 8:00 a.m. - 6:30 p.m. | Friday: 8:00 a.m. - 3:00 p.m.",
			cafeCounterItems(),
			hours(monToThu, ClockTime{8, 0}, ClockTime{18, 30}),
			hours(weekdays(time.Friday), ClockTime{8, 0}, ClockTime{15, 0}),
		),
		static("Robert F. Smith", "Monday - Thursday, 8 a.m. - 4:30 p.m. | Friday, 8 a.m. - 4 p.m.",
			cafeCounterItems(),
			hours(monToThu, ClockTime{8, 0}, ClockTime{16, 30}),
			hours(weekdays(time.Friday), ClockTime{8, 0}, ClockTime{16, 0}),
		),
	}
}
