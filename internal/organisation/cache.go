package organisation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/workbooks-sync/internal/pkg/logger"
)

const snapshotKey = "workbooks:organisations:snapshot"

// SnapshotCache holds the serialized snapshot in Redis with an explicit TTL
// so autocomplete reads skip both Postgres and the remote API.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a Redis-backed snapshot cache.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot and whether the cache was warm.
func (c *SnapshotCache) Get(ctx context.Context) (Snapshot, bool) {
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("snapshot cache get failed", "error", err.Error())
		}
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("snapshot cache holds invalid JSON, treating as miss", "error", err.Error())
		return Snapshot{}, false
	}
	return snap, true
}

// Set stores the snapshot with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey, data, c.ttl).Err()
}
