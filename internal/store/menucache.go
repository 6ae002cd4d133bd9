// internal/store/menucache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dining-aggregator/internal/common/database"
	dinerrors "dining-aggregator/internal/common/errors"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/menu"
)

const (
	menuSnapshotKey  = "dining:menu:snapshot"
	menuUpdatedAtKey = "dining:menu:updated_at"
)

// ErrDegradedCycle is returned when a refresh cycle's output was rejected
// because most venues failed and a previous good snapshot exists.
var ErrDegradedCycle = errors.New("menucache: degraded cycle, keeping previous snapshot")

// ErrNoSnapshot is returned before the first successful refresh cycle.
var ErrNoSnapshot = errors.New("menucache: no snapshot stored yet")

// MenuCache keeps the latest per-venue records in Redis so API reads never
// wait on a scrape.
type MenuCache struct {
	redis *database.RedisClient
	log   logger.Logger
}

func NewMenuCache(rdb *database.RedisClient, log logger.Logger) *MenuCache {
	return &MenuCache{
		redis: rdb,
		log:   log.WithFields(map[string]interface{}{"component": "menu_cache"}),
	}
}

// Store replaces the snapshot with the cycle's records. A cycle where most
// venues errored does not overwrite an existing snapshot: stale menus beat a
// wall of error states when the upstream site is having a bad hour.
func (c *MenuCache) Store(ctx context.Context, records []menu.Record) error {
	if c.isDegraded(records) {
		if _, err := c.redis.Get(ctx, menuSnapshotKey); err == nil {
			c.log.Warn("refusing snapshot overwrite", map[string]interface{}{
				"venues":  len(records),
				"errored": countErrored(records),
			})
			return ErrDegradedCycle
		}
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%s: %w", dinerrors.ErrCodeCacheWriteFailed, err)
	}

	// No TTL: the snapshot stays valid until the next cycle replaces it.
	if err := c.redis.Set(ctx, menuSnapshotKey, payload, 0); err != nil {
		return fmt.Errorf("%s: %w", dinerrors.ErrCodeCacheWriteFailed, err)
	}
	if err := c.redis.Set(ctx, menuUpdatedAtKey, time.Now().UTC().Format(time.RFC3339), 0); err != nil {
		return fmt.Errorf("%s: %w", dinerrors.ErrCodeCacheWriteFailed, err)
	}
	return nil
}

// Snapshot returns the stored records and when they were written.
func (c *MenuCache) Snapshot(ctx context.Context) ([]menu.Record, time.Time, error) {
	raw, err := c.redis.Get(ctx, menuSnapshotKey)
	if err == redis.Nil {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("menucache read: %w", err)
	}

	var records []menu.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, time.Time{}, fmt.Errorf("menucache decode: %w", err)
	}

	var updatedAt time.Time
	if ts, err := c.redis.Get(ctx, menuUpdatedAtKey); err == nil {
		updatedAt, _ = time.Parse(time.RFC3339, ts)
	}

	return records, updatedAt, nil
}

// isDegraded reports whether more than half the records carry a fetch-failure
// status.
func (c *MenuCache) isDegraded(records []menu.Record) bool {
	if len(records) == 0 {
		return true
	}
	return countErrored(records)*2 > len(records)
}

func countErrored(records []menu.Record) int {
	n := 0
	for _, r := range records {
		switch r.Status {
		case menu.StatusNetworkError, menu.StatusServiceUnavailable, menu.StatusError:
			n++
		}
	}
	return n
}
