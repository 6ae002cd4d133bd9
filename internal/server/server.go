// Package server exposes the aggregated menus, ratings and search over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dining-aggregator/internal/catalog"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/menu"
	"dining-aggregator/internal/search"
	"dining-aggregator/internal/store"
)

// SnapshotReader serves the latest cached cycle. Satisfied by the menu cache.
type SnapshotReader interface {
	Snapshot(ctx context.Context) ([]menu.Record, time.Time, error)
}

// Refresher triggers an immediate refresh cycle. Satisfied by the scheduler
// runner.
type Refresher interface {
	RunCycle(ctx context.Context) []menu.Record
	LastCycle() time.Time
}

// Searcher answers item queries. Satisfied by the search index.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Document, error)
}

// Ratings is the slice of the rating store the API uses.
type Ratings interface {
	Submit(ctx context.Context, r store.Rating) error
	UserRating(ctx context.Context, deviceID, hallName, university, mealPeriod, date string) (float64, bool, error)
	Averages(ctx context.Context, university, mealPeriod, date string) ([]store.Average, error)
	Leaderboard(ctx context.Context, limit int, mealPeriod, date string) ([]store.LeaderboardEntry, error)
	UserStats(ctx context.Context, deviceID, mealPeriod, date string) (store.UserStats, error)
}

// Server is the HTTP API. All menu reads come from the cache; nothing here
// talks to upstream sites except an explicit refresh.
type Server struct {
	mux      *http.ServeMux
	cache    SnapshotReader
	refresh  Refresher
	searcher Searcher
	ratings  Ratings
	loc      *time.Location
	log      logger.Logger
	started  time.Time
}

func New(cache SnapshotReader, refresh Refresher, searcher Searcher, ratings Ratings, loc *time.Location, log logger.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		cache:    cache,
		refresh:  refresh,
		searcher: searcher,
		ratings:  ratings,
		loc:      loc,
		log:      log.WithFields(map[string]interface{}{"component": "api"}),
		started:  time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/dining-halls", s.handleDiningHalls)
	s.mux.HandleFunc("GET /api/dining-halls/{name}", s.handleDiningHall)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("POST /api/ratings", s.handleSubmitRating)
	s.mux.HandleFunc("GET /api/ratings/averages", s.handleAverages)
	s.mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)

	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ==========================
// Menu Endpoints
// ==========================

func (s *Server) handleDiningHalls(w http.ResponseWriter, r *http.Request) {
	records, updatedAt, err := s.cache.Snapshot(r.Context())
	if err == store.ErrNoSnapshot {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"dining_halls": []menu.Record{},
			"updated_at":   nil,
		})
		return
	}
	if err != nil {
		s.fail(w, "snapshot read failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dining_halls": records,
		"updated_at":   updatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleDiningHall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	records, _, err := s.cache.Snapshot(r.Context())
	if err != nil && err != store.ErrNoSnapshot {
		s.fail(w, "snapshot read failed", err)
		return
	}

	// Substring match lets clients use short names like "john jay".
	needle := strings.ToLower(name)
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Name), needle) {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}

	writeError(w, http.StatusNotFound, "no dining hall matches "+name)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	records, updatedAt, err := s.cache.Snapshot(r.Context())
	if err != nil && err != store.ErrNoSnapshot {
		s.fail(w, "snapshot read failed", err)
		return
	}

	counts := make(map[menu.Status]int)
	for _, rec := range records {
		counts[rec.Status]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"venues":       len(records),
		"by_status":    counts,
		"last_refresh": s.refresh.LastCycle().Format(time.RFC3339),
		"cache_age":    time.Since(updatedAt).Round(time.Second).String(),
		"uptime":       time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	records := s.refresh.RunCycle(r.Context())

	counts := make(map[menu.Status]int)
	for _, rec := range records {
		counts[rec.Status]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed": len(records),
		"by_status": counts,
	})
}

// ==========================
// Rating Endpoints
// ==========================

type submitRatingRequest struct {
	DeviceID   string  `json:"device_id"`
	HallName   string  `json:"hall_name"`
	University string  `json:"university"`
	MealPeriod string  `json:"meal_period"`
	Rating     float64 `json:"rating"`
	Date       string  `json:"date"`
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	var req submitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.DeviceID == "" || req.HallName == "" || req.University == "" {
		writeError(w, http.StatusBadRequest, "device_id, hall_name and university are required")
		return
	}
	if req.Rating < 0 || req.Rating > 10 {
		writeError(w, http.StatusBadRequest, "rating must be between 0 and 10")
		return
	}

	// Period and date default to the current venue-local meal.
	now := time.Now()
	if req.MealPeriod == "" {
		req.MealPeriod = store.CurrentMealPeriod(now, s.loc)
	}
	if req.Date == "" {
		req.Date = now.In(s.loc).Format("2006-01-02")
	}

	rating := store.Rating{
		DeviceID:   req.DeviceID,
		HallName:   req.HallName,
		University: req.University,
		MealPeriod: req.MealPeriod,
		Rating:     req.Rating,
		Date:       req.Date,
	}

	if err := s.ratings.Submit(r.Context(), rating); err != nil {
		s.fail(w, "rating submit failed", err)
		return
	}

	stats, err := s.ratings.UserStats(r.Context(), req.DeviceID, req.MealPeriod, req.Date)
	if err != nil {
		s.fail(w, "user stats lookup failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rating":     rating,
		"user_stats": stats,
	})
}

func (s *Server) handleAverages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now()

	mealPeriod := q.Get("meal_period")
	if mealPeriod == "" {
		mealPeriod = store.CurrentMealPeriod(now, s.loc)
	}
	date := q.Get("date")
	if date == "" {
		date = now.In(s.loc).Format("2006-01-02")
	}

	averages, err := s.ratings.Averages(r.Context(), q.Get("university"), mealPeriod, date)
	if err != nil {
		s.fail(w, "averages lookup failed", err)
		return
	}
	if averages == nil {
		averages = []store.Average{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"meal_period": mealPeriod,
		"date":        date,
		"averages":    averages,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 50
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := s.ratings.Leaderboard(r.Context(), limit, q.Get("meal_period"), q.Get("date"))
	if err != nil {
		s.fail(w, "leaderboard lookup failed", err)
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}

	response := map[string]interface{}{"leaderboard": entries}

	// Callers identify themselves to see their own standing alongside.
	if deviceID := q.Get("device_id"); deviceID != "" {
		stats, err := s.ratings.UserStats(r.Context(), deviceID, q.Get("meal_period"), q.Get("date"))
		if err != nil {
			s.fail(w, "user stats lookup failed", err)
			return
		}
		response["user_stats"] = stats
	}

	writeJSON(w, http.StatusOK, response)
}

// ==========================
// Search Endpoint
// ==========================

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	if s.searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	limit := 25
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	docs, err := s.searcher.Search(r.Context(), query, limit)
	if err != nil {
		s.fail(w, "search failed", err)
		return
	}
	if docs == nil {
		docs = []search.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": docs,
	})
}

// ==========================
// Helpers
// ==========================

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, map[string]interface{}{"error": err.Error()})
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// NewDefaultLocation resolves the timezone used for rating defaults when no
// venue context is available.
func NewDefaultLocation(c *catalog.Catalog) *time.Location {
	venues := c.Venues()
	if len(venues) > 0 {
		return venues[0].Location()
	}
	return time.UTC
}
