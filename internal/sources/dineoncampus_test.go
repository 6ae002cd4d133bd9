// internal/sources/dineoncampus_test.go
package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dining-aggregator/internal/catalog"
	"dining-aggregator/internal/common/config"
	dinerrors "dining-aggregator/internal/common/errors"
	"dining-aggregator/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func testBarnardVenue(t *testing.T) *catalog.Venue {
	t.Helper()
	allWeek := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	v := &catalog.Venue{
		Name:       "Test Commons",
		Source:     "barnard",
		Kind:       catalog.KindThirdParty,
		Timezone:   "America/New_York",
		LocationID: "loc-123",
		Periods: []catalog.MenuPeriod{
			{Name: "Lunch", ID: "period-lunch"},
			{Name: "Dinner", ID: "period-dinner"},
		},
		Variants: []catalog.ScheduleVariant{
			{
				Days: allWeek,
				Windows: []catalog.MealWindow{
					{Name: "Lunch", Start: catalog.ClockTime{Hour: 11}, End: catalog.ClockTime{Hour: 16}},
					{Name: "Dinner", Start: catalog.ClockTime{Hour: 16}, End: catalog.ClockTime{Hour: 22}},
				},
			},
		},
		MealTypeCodes: map[string]string{"Lunch": "Lunch", "Dinner": "Dinner"},
	}
	_, err := catalog.New([]*catalog.Venue{v})
	require.NoError(t, err)
	return v
}

func newTestDineOnCampusSource(t *testing.T, baseURL string) *DineOnCampusSource {
	t.Helper()
	return NewDineOnCampusSource(config.DineOnCampusSourceConfig{
		BaseURL: baseURL,
		Origin:  "https://test.dineoncampus.com",
		Timeout: 5000,
	}, logger.NewNoOpLogger())
}

func periodPayload(station, item string, filters string) string {
	return fmt.Sprintf(`{
		"period": {
			"categories": [
				{"name": %q, "items": [{"name": %q, "desc": "fresh", "filters": [%s]}]}
			]
		}
	}`, station, item, filters)
}

// ==========================
// DineOnCampusSource Tests
// ==========================

func TestDineOnCampusSource_FetchAllPeriods(t *testing.T) {
	var gotPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)

		assert.Equal(t, "https://test.dineoncampus.com", r.Header.Get("Origin"))
		assert.Equal(t, "2024-01-08", r.URL.Query().Get("date"))

		switch r.URL.Query().Get("period") {
		case "period-lunch":
			fmt.Fprint(w, periodPayload("Homestyle", "Roast Turkey",
				`{"name": "Gluten", "icon": false}, {"name": "Halal", "icon": true}`))
		case "period-dinner":
			fmt.Fprint(w, periodPayload("Pizza", "Margherita Pizza", ``))
		default:
			t.Errorf("unexpected period %q", r.URL.Query().Get("period"))
		}
	}))
	defer srv.Close()

	s := newTestDineOnCampusSource(t, srv.URL)
	v := testBarnardVenue(t)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2024, time.January, 8, 12, 0, 0, 0, loc)

	fragments, uerr := s.Fetch(context.Background(), v, now)
	require.Nil(t, uerr)
	require.Len(t, fragments, 2)
	assert.Equal(t, []string{"/locations/loc-123/menu", "/locations/loc-123/menu"}, gotPaths)

	lunch := fragments[0]
	assert.Equal(t, "Lunch", lunch.MealType)
	require.Len(t, lunch.Stations, 1)
	assert.Equal(t, "Homestyle", lunch.Stations[0].Name)

	item := lunch.Stations[0].Items[0]
	assert.Equal(t, "Roast Turkey", item.Name)
	assert.Equal(t, []string{"Gluten"}, item.Allergens, "icon-less filters are allergens")
	assert.Equal(t, []string{"Halal"}, item.DietaryPrefs, "icon filters are dietary preferences")

	assert.Equal(t, "Dinner", fragments[1].MealType)
}

func TestDineOnCampusSource_OnePeriodFailureDoesNotBlankVenue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("period") == "period-lunch" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, periodPayload("Pizza", "Margherita Pizza", ``))
	}))
	defer srv.Close()

	s := newTestDineOnCampusSource(t, srv.URL)
	fragments, uerr := s.Fetch(context.Background(), testBarnardVenue(t), time.Now())

	require.Nil(t, uerr, "partial results suppress the per-period failure")
	require.Len(t, fragments, 1)
	assert.Equal(t, "Dinner", fragments[0].MealType)
}

func TestDineOnCampusSource_AllPeriodsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestDineOnCampusSource(t, srv.URL)
	fragments, uerr := s.Fetch(context.Background(), testBarnardVenue(t), time.Now())

	require.NotNil(t, uerr)
	assert.Equal(t, dinerrors.ErrCodeServiceUnavailable, uerr.Code)
	assert.Empty(t, fragments)
}

func TestDineOnCampusSource_EmptyPeriodsYieldNoFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"period": {"categories": []}}`)
	}))
	defer srv.Close()

	s := newTestDineOnCampusSource(t, srv.URL)
	fragments, uerr := s.Fetch(context.Background(), testBarnardVenue(t), time.Now())

	assert.Nil(t, uerr)
	assert.Empty(t, fragments)
}

// ==========================
// Registry Tests
// ==========================

func TestRegistryFor(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sources.Columbia = config.ColumbiaSourceConfig{BaseURL: "http://columbia.test", Timeout: 1000}
	cfg.Sources.DineOnCampus = config.DineOnCampusSourceConfig{BaseURL: "http://doc.test", Timeout: 1000}

	r := NewRegistry(cfg, logger.NewNoOpLogger())

	tests := []struct {
		kind catalog.Kind
		want any
	}{
		{kind: catalog.KindDynamic, want: (*ColumbiaSource)(nil)},
		{kind: catalog.KindThirdParty, want: (*DineOnCampusSource)(nil)},
		{kind: catalog.KindStatic, want: (*StaticSource)(nil)},
	}

	for _, tt := range tests {
		s, err := r.For(&catalog.Venue{Kind: tt.kind})
		require.NoError(t, err)
		assert.IsType(t, tt.want, s)
	}

	_, err := r.For(&catalog.Venue{Kind: "imaginary"})
	assert.Error(t, err)
}
