// Package store persists user-facing state: meal ratings in Postgres and the
// latest menu snapshot in Redis.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dining-aggregator/internal/common/database"
	dinerrors "dining-aggregator/internal/common/errors"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/common/metrics"
)

// Rating is one user's score for a venue during one meal period on one day.
// A device may revise its rating; the (device, venue, university, period,
// day) tuple stays unique.
type Rating struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	HallName   string    `json:"hall_name"`
	University string    `json:"university"`
	MealPeriod string    `json:"meal_period"`
	Rating     float64   `json:"rating"`
	Date       string    `json:"date"` // YYYY-MM-DD, venue-local
	UpdatedAt  time.Time `json:"updated_at"`
}

// Average is the aggregate for one venue within a meal period and day.
type Average struct {
	HallName   string  `json:"hall_name"`
	University string  `json:"university"`
	Average    float64 `json:"average"`
	Count      int     `json:"count"`
}

// LeaderboardEntry ranks devices by rating volume. Device ids are only echoed
// back to their owner; display names are anonymized.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
	TotalRatings int    `json:"total_ratings"`
}

// UserStats is one device's rank and volume.
type UserStats struct {
	Rank         int `json:"rank"`
	TotalRatings int `json:"total_ratings"`
}

// RatingStore persists ratings in Postgres.
type RatingStore struct {
	db  *database.PostgresClient
	log logger.Logger
}

func NewRatingStore(db *database.PostgresClient, log logger.Logger) *RatingStore {
	return &RatingStore{
		db:  db,
		log: log.WithFields(map[string]interface{}{"component": "rating_store"}),
	}
}

// Migrate creates the ratings schema. Safe to run on every startup.
func (s *RatingStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ratings (
			id UUID PRIMARY KEY,
			device_id TEXT NOT NULL,
			hall_name TEXT NOT NULL,
			university TEXT NOT NULL,
			meal_period TEXT NOT NULL,
			rating DOUBLE PRECISION NOT NULL CHECK (rating >= 0 AND rating <= 10),
			date DATE NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (device_id, hall_name, university, meal_period, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_lookup
			ON ratings (hall_name, university, meal_period, date)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_user
			ON ratings (device_id, meal_period, date)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ratings migration failed: %w", err)
		}
	}
	return nil
}

// Submit inserts a rating, or revises the existing one for the same device,
// venue, period and day.
func (s *RatingStore) Submit(ctx context.Context, r Rating) error {
	if r.Rating < 0 || r.Rating > 10 {
		return fmt.Errorf("rating %v out of range [0, 10]", r.Rating)
	}

	const query = `
		INSERT INTO ratings (id, device_id, hall_name, university, meal_period, rating, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (device_id, hall_name, university, meal_period, date)
		DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()`

	_, err := s.db.Exec(ctx, query,
		uuid.NewString(), r.DeviceID, r.HallName, r.University, r.MealPeriod, r.Rating, r.Date)
	if err != nil {
		return fmt.Errorf("%s: %w", dinerrors.ErrCodeRatingStoreFailed, err)
	}

	metrics.RatingsSubmitted.WithLabelValues(r.University).Inc()
	s.log.Debug("rating stored", map[string]interface{}{
		"hall":       r.HallName,
		"university": r.University,
		"period":     r.MealPeriod,
	})
	return nil
}

// UserRating returns the device's existing score for the given tuple, when one
// exists.
func (s *RatingStore) UserRating(ctx context.Context, deviceID, hallName, university, mealPeriod, date string) (float64, bool, error) {
	const query = `
		SELECT rating FROM ratings
		WHERE device_id = $1 AND hall_name = $2 AND university = $3
		  AND meal_period = $4 AND date = $5`

	var rating float64
	err := s.db.QueryRow(ctx, query, deviceID, hallName, university, mealPeriod, date).Scan(&rating)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("user rating lookup: %w", err)
	}
	return rating, true, nil
}

// Averages returns per-venue aggregates for a meal period and day, optionally
// scoped to one university.
func (s *RatingStore) Averages(ctx context.Context, university, mealPeriod, date string) ([]Average, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if university != "" {
		const query = `
			SELECT hall_name, university, AVG(rating), COUNT(*)
			FROM ratings
			WHERE university = $1 AND meal_period = $2 AND date = $3
			GROUP BY hall_name, university
			ORDER BY hall_name`
		rows, err = s.db.Query(ctx, query, university, mealPeriod, date)
	} else {
		const query = `
			SELECT hall_name, university, AVG(rating), COUNT(*)
			FROM ratings
			WHERE meal_period = $1 AND date = $2
			GROUP BY hall_name, university
			ORDER BY university, hall_name`
		rows, err = s.db.Query(ctx, query, mealPeriod, date)
	}
	if err != nil {
		return nil, fmt.Errorf("rating averages: %w", err)
	}
	defer rows.Close()

	var averages []Average
	for rows.Next() {
		var a Average
		if err := rows.Scan(&a.HallName, &a.University, &a.Average, &a.Count); err != nil {
			return nil, fmt.Errorf("rating averages scan: %w", err)
		}
		averages = append(averages, a)
	}
	return averages, rows.Err()
}

// Leaderboard ranks devices by number of ratings submitted, optionally scoped
// to one meal period and day.
func (s *RatingStore) Leaderboard(ctx context.Context, limit int, mealPeriod, date string) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)

	if mealPeriod != "" && date != "" {
		const query = `
			SELECT device_id, COUNT(*) AS total
			FROM ratings
			WHERE meal_period = $1 AND date = $2
			GROUP BY device_id
			ORDER BY total DESC
			LIMIT $3`
		rows, err = s.db.Query(ctx, query, mealPeriod, date, limit)
	} else {
		const query = `
			SELECT device_id, COUNT(*) AS total
			FROM ratings
			GROUP BY device_id
			ORDER BY total DESC
			LIMIT $1`
		rows, err = s.db.Query(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TotalRatings); err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		e.Rank = len(entries) + 1
		e.DisplayName = fmt.Sprintf("User #%d", e.Rank)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UserStats returns one device's rank and total within a meal period and day.
// Rank counts devices with strictly more ratings, so ties share a rank.
func (s *RatingStore) UserStats(ctx context.Context, deviceID, mealPeriod, date string) (UserStats, error) {
	var stats UserStats

	const totalQuery = `
		SELECT COUNT(*) FROM ratings
		WHERE device_id = $1 AND meal_period = $2 AND date = $3`
	if err := s.db.QueryRow(ctx, totalQuery, deviceID, mealPeriod, date).Scan(&stats.TotalRatings); err != nil {
		return stats, fmt.Errorf("user stats total: %w", err)
	}

	const rankQuery = `
		SELECT COUNT(*) + 1 FROM (
			SELECT device_id, COUNT(*) AS cnt
			FROM ratings
			WHERE meal_period = $1 AND date = $2
			GROUP BY device_id
		) counts
		WHERE cnt > $3`
	if err := s.db.QueryRow(ctx, rankQuery, mealPeriod, date, stats.TotalRatings).Scan(&stats.Rank); err != nil {
		return stats, fmt.Errorf("user stats rank: %w", err)
	}

	return stats, nil
}

// CurrentMealPeriod buckets the venue-local hour into the coarse rating
// periods: before 11 AM is breakfast, before 4 PM is lunch, then dinner.
func CurrentMealPeriod(now time.Time, loc *time.Location) string {
	switch hour := now.In(loc).Hour(); {
	case hour < 11:
		return "breakfast"
	case hour < 16:
		return "lunch"
	default:
		return "dinner"
	}
}
