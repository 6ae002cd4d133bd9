// internal/search/index_test.go
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dining-aggregator/internal/common/database"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/menu"
)

// ==========================
// Test Helper Functions
// ==========================

// newTestIndex points the client at a stub speaking just enough of the ES
// protocol (the v8 client checks the product header).
func newTestIndex(t *testing.T, handler http.HandlerFunc) *Index {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return NewIndex(&database.ElasticsearchClient{Client: client}, "menu-items", logger.NewNoOpLogger())
}

func sampleRecords() []menu.Record {
	desc := "with herbs"
	return []menu.Record{
		{
			Name:   "John Jay Dining Hall",
			Source: "columbia",
			Status: menu.StatusOpen,
			Meals: []menu.Meal{{
				MealType: "Lunch",
				Stations: []menu.Station{{
					Station: "Grill",
					Items: []menu.Item{
						{Name: "Grilled Chicken Sandwich", Description: &desc, Allergens: []string{"Gluten"}, DietaryPrefs: []string{}},
						{Name: "Veggie Burger", Allergens: []string{}, DietaryPrefs: []string{"Vegan"}},
					},
				}},
			}},
		},
		{
			Name:   "Broken Hall",
			Source: "columbia",
			Status: menu.StatusNetworkError,
			Meals:  []menu.Meal{},
		},
	}
}

// ==========================
// Flatten Tests
// ==========================

func TestFlatten(t *testing.T) {
	docs := flatten(sampleRecords())
	require.Len(t, docs, 2)

	assert.Equal(t, "Grilled Chicken Sandwich", docs[0].ItemName)
	assert.Equal(t, "with herbs", docs[0].Description)
	assert.Equal(t, "John Jay Dining Hall", docs[0].Venue)
	assert.Equal(t, "Lunch", docs[0].MealType)
	assert.Equal(t, "Grill", docs[0].Station)

	assert.Equal(t, "Veggie Burger", docs[1].ItemName)
	assert.Empty(t, docs[1].Description)
}

// ==========================
// Index Tests
// ==========================

func TestRebuild(t *testing.T) {
	var sawClear, sawBulk bool

	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "_delete_by_query"):
			sawClear = true
			fmt.Fprint(w, `{"deleted": 0}`)
		case strings.Contains(r.URL.Path, "_bulk"):
			sawBulk = true
			body, _ := io.ReadAll(r.Body)
			// One action line plus one document line per item.
			assert.Equal(t, 4, strings.Count(string(body), "\n"))
			assert.Contains(t, string(body), "Grilled Chicken Sandwich")
			fmt.Fprint(w, `{"errors": false, "items": []}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	require.NoError(t, idx.Rebuild(context.Background(), sampleRecords()))
	assert.True(t, sawClear)
	assert.True(t, sawBulk)
}

func TestRebuild_NoDocumentsIsNoOp(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no requests expected, got %s", r.URL.Path)
	})

	records := []menu.Record{{Name: "Closed Hall", Status: menu.StatusClosed, Meals: []menu.Meal{}}}
	assert.NoError(t, idx.Rebuild(context.Background(), records))
}

func TestSearch(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "menu-items")

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "chicken")

		fmt.Fprint(w, `{
			"hits": {"hits": [
				{"_source": {"item_name": "Grilled Chicken Sandwich", "venue": "John Jay Dining Hall", "meal_type": "Lunch", "station": "Grill"}}
			]}
		}`)
	})

	docs, err := idx.Search(context.Background(), "chicken", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Grilled Chicken Sandwich", docs[0].ItemName)
	assert.Equal(t, "John Jay Dining Hall", docs[0].Venue)
}

func TestSearch_MissingIndexReturnsEmpty(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"type": "index_not_found_exception"}}`)
	})

	docs, err := idx.Search(context.Background(), "anything", 10)
	assert.NoError(t, err)
	assert.Empty(t, docs)
}
