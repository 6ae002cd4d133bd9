// Package menu is the availability-and-menu-normalization engine. It is a
// pure, synchronous function of (schedule catalog, venue-local now, raw
// upstream fragments) to one canonical record per venue: no I/O, no hidden
// state, no wall-clock reads beyond the explicitly passed now.
package menu

import "time"

// Status is the final classification of a venue for one cycle.
type Status string

const (
	StatusOpen               Status = "open"
	StatusOpenNoMenu         Status = "open_no_menu"
	StatusClosed             Status = "closed"
	StatusNetworkError       Status = "network_error"
	StatusServiceUnavailable Status = "service_unavailable"
	StatusError              Status = "error"
)

// RawItem is one menu entry as supplied by an upstream source.
type RawItem struct {
	Name         string
	Description  string
	Allergens    []string
	DietaryPrefs []string
}

// RawStation is one serving station as supplied upstream. Dynamic sources key
// stations by numeric code (ID), third-party sources by literal name.
type RawStation struct {
	ID    string
	Name  string
	Items []RawItem
}

// RawFragment is one possibly date-scoped, possibly duplicate unit of menu
// data prior to normalization. Either date bound may be empty.
type RawFragment struct {
	DateFrom string
	DateTo   string
	MealType string // upstream-specific code or label
	Stations []RawStation
}

// Item is one canonical, deduplicated menu entry.
type Item struct {
	Name         string     `json:"name"`
	Description  *string    `json:"description"`
	Allergens    []string   `json:"allergens"`
	DietaryPrefs []string   `json:"dietary_prefs"`
	Nutrition    *Nutrition `json:"nutrition,omitempty"`
}

// Nutrition is the per-item enrichment added after normalization.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Sodium   float64 `json:"sodium"`
	Source   string  `json:"source,omitempty"`
}

// Station is one canonical station with its merged item list.
type Station struct {
	Station string `json:"station"`
	Items   []Item `json:"items"`
}

// Meal is one canonical meal period with its merged stations.
type Meal struct {
	MealType string    `json:"meal_type"`
	Time     string    `json:"time"`
	Stations []Station `json:"stations"`
}

// Record is the canonical per-venue result handed to downstream consumers.
// It is the sole contract with the nutrition-enrichment stage and the API.
type Record struct {
	Name           string    `json:"name"`
	Meals          []Meal    `json:"meals"`
	Status         Status    `json:"status"`
	Source         string    `json:"source"`
	ScrapedAt      time.Time `json:"scraped_at"`
	OperatingHours *string   `json:"operating_hours"`
	IsOpen         bool      `json:"is_open"`
	Error          string    `json:"error,omitempty"`
}
