// internal/sources/dineoncampus.go
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dining-aggregator/internal/catalog"
	"dining-aggregator/internal/common/config"
	dinerrors "dining-aggregator/internal/common/errors"
	dinhttp "dining-aggregator/internal/common/http"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/menu"
)

// DineOnCampusSource pulls menus from the DineOnCampus REST API, one request
// per configured menu period.
type DineOnCampusSource struct {
	baseURL string
	client  *dinhttp.Client
	log     logger.Logger
}

func NewDineOnCampusSource(cfg config.DineOnCampusSourceConfig, log logger.Logger) *DineOnCampusSource {
	client := dinhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond)
	if cfg.Origin != "" {
		// The API rejects requests without the campus portal's origin.
		client.WithHeader("Origin", cfg.Origin)
		client.WithHeader("Referer", cfg.Origin+"/")
	}
	client.WithHeader("Accept", "application/json")

	return &DineOnCampusSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		log:     log.WithFields(map[string]interface{}{"component": "dineoncampus_source"}),
	}
}

type dineOnCampusResponse struct {
	Period dineOnCampusPeriod `json:"period"`
}

type dineOnCampusPeriod struct {
	Categories []dineOnCampusCategory `json:"categories"`
}

type dineOnCampusCategory struct {
	Name  string             `json:"name"`
	Items []dineOnCampusItem `json:"items"`
}

type dineOnCampusItem struct {
	Name    string               `json:"name"`
	Desc    string               `json:"desc"`
	Filters []dineOnCampusFilter `json:"filters"`
}

// Filters carry both allergens and dietary preferences; the icon flag is what
// distinguishes them (preferences render with an icon on the portal).
type dineOnCampusFilter struct {
	Name string `json:"name"`
	Icon bool   `json:"icon"`
}

// Fetch requests every configured period for the venue's upstream location.
// A period that fails is skipped so one broken period cannot blank the whole
// venue; a transport error is only surfaced when no period produced anything.
func (s *DineOnCampusSource) Fetch(ctx context.Context, v *catalog.Venue, now time.Time) ([]menu.RawFragment, *dinerrors.UpstreamError) {
	date := now.In(v.Location()).Format("2006-01-02")

	var fragments []menu.RawFragment
	var firstErr *dinerrors.UpstreamError

	for _, period := range v.Periods {
		fragment, perr := s.fetchPeriod(ctx, v, period, date)
		if perr != nil {
			if firstErr == nil {
				firstErr = perr
			}
			s.log.Warn("period fetch failed", map[string]interface{}{
				"venue":  v.Name,
				"period": period.Name,
				"code":   string(perr.Code),
			})
			continue
		}
		if fragment != nil {
			fragments = append(fragments, *fragment)
		}
	}

	if len(fragments) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return fragments, nil
}

func (s *DineOnCampusSource) fetchPeriod(ctx context.Context, v *catalog.Venue, period catalog.MenuPeriod, date string) (*menu.RawFragment, *dinerrors.UpstreamError) {
	endpoint := fmt.Sprintf("%s/locations/%s/menu?%s", s.baseURL, v.LocationID, url.Values{
		"date":   {date},
		"period": {period.ID},
	}.Encode())

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, dinerrors.NewNetworkError(v.Source, err)
	}

	resp, err := s.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, dinerrors.NewNetworkError(v.Source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, dinerrors.NewServiceUnavailableError(v.Source)
	case resp.StatusCode != http.StatusOK:
		return nil, dinerrors.NewUpstreamHTTPError(v.Source, resp.StatusCode)
	}

	var payload dineOnCampusResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, dinerrors.NewPayloadInvalidError(v.Source, err)
	}

	stations := make([]menu.RawStation, 0, len(payload.Period.Categories))
	for _, cat := range payload.Period.Categories {
		rs := menu.RawStation{Name: cat.Name}
		for _, it := range cat.Items {
			allergens, prefs := splitFilters(it.Filters)
			rs.Items = append(rs.Items, menu.RawItem{
				Name:         it.Name,
				Description:  it.Desc,
				Allergens:    allergens,
				DietaryPrefs: prefs,
			})
		}
		stations = append(stations, rs)
	}

	if len(stations) == 0 {
		return nil, nil
	}

	return &menu.RawFragment{
		MealType: period.Name,
		Stations: stations,
	}, nil
}

func splitFilters(filters []dineOnCampusFilter) (allergens, prefs []string) {
	for _, f := range filters {
		if f.Name == "" {
			continue
		}
		if f.Icon {
			prefs = append(prefs, f.Name)
		} else {
			allergens = append(allergens, f.Name)
		}
	}
	return allergens, prefs
}
