// internal/nutrition/nutrition_test.go
package nutrition

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dining-aggregator/internal/common/config"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/menu"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(config.NutritionConfig{
		Enabled: true,
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5000,
	}, logger.NewNoOpLogger())
}

// ==========================
// Plausibility Tests
// ==========================

func TestIsRealistic(t *testing.T) {
	tests := []struct {
		name string
		n    menu.Nutrition
		want bool
	}{
		{
			name: "typical entree",
			n:    menu.Nutrition{Calories: 354, Protein: 20, Carbs: 30, Fat: 16},
			want: true,
		},
		{
			name: "calories below floor",
			n:    menu.Nutrition{Calories: 2, Protein: 0, Carbs: 0, Fat: 0},
			want: false,
		},
		{
			name: "calories above ceiling",
			n:    menu.Nutrition{Calories: 2500, Protein: 100, Carbs: 200, Fat: 120},
			want: false,
		},
		{
			name: "calories wildly off from macros",
			n:    menu.Nutrition{Calories: 900, Protein: 5, Carbs: 10, Fat: 2},
			want: false,
		},
		{
			name: "single macro dominates",
			n:    menu.Nutrition{Calories: 400, Protein: 99, Carbs: 0.5, Fat: 0.5},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRealistic(tt.n))
		})
	}
}

// ==========================
// Lookup Tests
// ==========================

func TestLookup_OverridesSkipTheAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("override lookups must not hit the API")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	tests := []struct {
		food     string
		calories float64
	}{
		{food: "Beef Tacos", calories: 210},
		{food: "Pepperoni Pizza", calories: 285},
		{food: "Veggie Burger", calories: 354},
	}

	for _, tt := range tests {
		n := c.Lookup(context.Background(), tt.food)
		require.NotNil(t, n, tt.food)
		assert.Equal(t, tt.calories, n.Calories)
		assert.Equal(t, "override", n.Source)
	}
}

func TestLookup_PicksBestScoredMatch(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Grilled Chicken Sandwich", r.URL.Query().Get("query"))

		fmt.Fprint(w, `{
			"foods": [
				{
					"description": "Chicken sandwich spread",
					"dataType": "SR Legacy",
					"foodNutrients": [
						{"nutrientName": "Energy", "value": 9999},
						{"nutrientName": "Protein", "value": 1}
					]
				},
				{
					"description": "Grilled chicken sandwich",
					"dataType": "Survey (FNDDS)",
					"foodNutrients": [
						{"nutrientName": "Energy", "value": 420},
						{"nutrientName": "Protein", "value": 32},
						{"nutrientName": "Carbohydrate, by difference", "value": 38},
						{"nutrientName": "Total lipid (fat)", "value": 14},
						{"nutrientName": "Sodium, Na", "value": 780}
					]
				}
			]
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	n := c.Lookup(context.Background(), "Grilled Chicken Sandwich")
	require.NotNil(t, n)
	assert.Equal(t, 420.0, n.Calories)
	assert.Equal(t, 32.0, n.Protein)
	assert.Equal(t, 780.0, n.Sodium)
	assert.Equal(t, "usda", n.Source)

	// Second lookup is served from cache.
	c.Lookup(context.Background(), "Grilled Chicken Sandwich")
	assert.Equal(t, 1, calls)
}

func TestLookup_FailuresAreSoft(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "no results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"foods": []}`)
			},
		},
		{
			name: "only unrealistic results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"foods": [{"description": "x", "foodNutrients": [{"nutrientName": "Energy", "value": 3}]}]}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			assert.Nil(t, c.Lookup(context.Background(), "Mystery Stew"))
		})
	}
}

// ==========================
// Enricher Tests
// ==========================

func TestEnricher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"foods": []}`)
	}))
	defer srv.Close()

	records := []menu.Record{{
		Name: "Test Hall",
		Meals: []menu.Meal{{
			MealType: "Lunch",
			Stations: []menu.Station{{
				Station: "Grill",
				Items: []menu.Item{
					{Name: "Cheese Pizza"},
					{Name: "Mystery Stew"},
				},
			}},
		}},
	}}

	t.Run("enabled attaches overrides and leaves misses bare", func(t *testing.T) {
		e := NewEnricher(config.NutritionConfig{
			Enabled: true, BaseURL: srv.URL, APIKey: "test-key", Timeout: 5000,
		}, logger.NewNoOpLogger())

		e.Enrich(context.Background(), records)

		items := records[0].Meals[0].Stations[0].Items
		require.NotNil(t, items[0].Nutrition)
		assert.Equal(t, 285.0, items[0].Nutrition.Calories)
		assert.Nil(t, items[1].Nutrition)
	})

	t.Run("disabled is a no-op", func(t *testing.T) {
		fresh := []menu.Record{{
			Meals: []menu.Meal{{Stations: []menu.Station{{Items: []menu.Item{{Name: "Cheese Pizza"}}}}}},
		}}

		e := NewEnricher(config.NutritionConfig{Enabled: false}, logger.NewNoOpLogger())
		e.Enrich(context.Background(), fresh)

		assert.Nil(t, fresh[0].Meals[0].Stations[0].Items[0].Nutrition)
	})
}
