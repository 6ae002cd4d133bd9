// internal/store/menucache_test.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dining-aggregator/internal/common/database"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/menu"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestMenuCache(t *testing.T) *MenuCache {
	t.Helper()
	mr := miniredis.RunT(t)

	rdb := &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	t.Cleanup(func() { rdb.Close() })

	return NewMenuCache(rdb, logger.NewNoOpLogger())
}

func recordsWithStatuses(statuses ...menu.Status) []menu.Record {
	records := make([]menu.Record, 0, len(statuses))
	for i, st := range statuses {
		records = append(records, menu.Record{
			Name:      "Venue " + string(rune('A'+i)),
			Meals:     []menu.Meal{},
			Status:    st,
			Source:    "columbia",
			ScrapedAt: time.Now().UTC(),
		})
	}
	return records
}

// ==========================
// MenuCache Tests
// ==========================

func TestMenuCacheStoreAndSnapshot(t *testing.T) {
	c := newTestMenuCache(t)
	ctx := context.Background()

	records := recordsWithStatuses(menu.StatusOpen, menu.StatusClosed, menu.StatusOpenNoMenu)
	require.NoError(t, c.Store(ctx, records))

	got, updatedAt, err := c.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Venue A", got[0].Name)
	assert.Equal(t, menu.StatusOpen, got[0].Status)
	assert.WithinDuration(t, time.Now().UTC(), updatedAt, time.Minute)
}

func TestMenuCacheSnapshot_EmptyCache(t *testing.T) {
	c := newTestMenuCache(t)

	_, _, err := c.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestMenuCacheStore_DegradedCycleKeepsPreviousSnapshot(t *testing.T) {
	c := newTestMenuCache(t)
	ctx := context.Background()

	good := recordsWithStatuses(menu.StatusOpen, menu.StatusOpen, menu.StatusClosed)
	require.NoError(t, c.Store(ctx, good))

	// Two of three venues errored: majority failure.
	degraded := recordsWithStatuses(menu.StatusNetworkError, menu.StatusServiceUnavailable, menu.StatusOpen)
	err := c.Store(ctx, degraded)
	assert.ErrorIs(t, err, ErrDegradedCycle)

	got, _, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, menu.StatusOpen, got[0].Status, "previous snapshot survives")
}

func TestMenuCacheStore_DegradedFirstCycleStillWrites(t *testing.T) {
	c := newTestMenuCache(t)
	ctx := context.Background()

	// Nothing cached yet, so even a bad cycle is better than nothing.
	degraded := recordsWithStatuses(menu.StatusNetworkError, menu.StatusNetworkError, menu.StatusOpen)
	require.NoError(t, c.Store(ctx, degraded))

	got, _, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMenuCacheSnapshot_RedisUnavailable(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewMenuCache(&database.RedisClient{Client: client}, logger.NewNoOpLogger())

	mock.ExpectGet("dining:menu:snapshot").SetErr(errors.New("connection reset by peer"))

	_, _, err := c.Snapshot(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMenuCacheStore_WriteFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewMenuCache(&database.RedisClient{Client: client}, logger.NewNoOpLogger())

	records := recordsWithStatuses(menu.StatusOpen, menu.StatusClosed)
	payload, err := json.Marshal(records)
	require.NoError(t, err)

	mock.ExpectSet("dining:menu:snapshot", payload, 0).SetErr(errors.New("readonly replica"))

	err = c.Store(context.Background(), records)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMenuCacheStore_MinorityErrorsOverwrite(t *testing.T) {
	c := newTestMenuCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, recordsWithStatuses(menu.StatusOpen, menu.StatusOpen)))

	// One of three errored: not a majority, snapshot is replaced.
	next := recordsWithStatuses(menu.StatusNetworkError, menu.StatusOpen, menu.StatusClosed)
	require.NoError(t, c.Store(ctx, next))

	got, _, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
