// Package cache provides the Redis-backed stage counts cache used by the
// kanban board headers. All backend failures degrade to cache misses.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"practice_portal_backend/platform/logger"
)

const stageCountsPrefix = "stage_counts:"

// StageCounts caches per-stage active project counts per project type.
// A nil client disables the cache entirely; every Get is then a miss.
type StageCounts struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewStageCounts creates the cache. Pass a nil client to run without
// Redis.
func NewStageCounts(client *redis.Client, ttl time.Duration, log *logger.Logger) *StageCounts {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StageCounts{client: client, ttl: ttl, log: log}
}

// NewClient builds a Redis client from a connection URL.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// Get returns the cached counts for a project type, if present.
func (c *StageCounts) Get(ctx context.Context, projectTypeID uuid.UUID) (map[string]int, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, stageCountsPrefix+projectTypeID.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("stage counts cache read failed", "error", err)
		}
		return nil, false
	}
	var counts map[string]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		c.log.Warn("stage counts cache entry corrupt", "error", err)
		return nil, false
	}
	return counts, true
}

// Set stores the counts for a project type with the configured TTL.
func (c *StageCounts) Set(ctx context.Context, projectTypeID uuid.UUID, counts map[string]int) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		c.log.Warn("stage counts cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, stageCountsPrefix+projectTypeID.String(), raw, c.ttl).Err(); err != nil {
		c.log.Warn("stage counts cache write failed", "error", err)
	}
}

// Invalidate drops the cached counts for a project type. Called after
// every committed transition and project creation.
func (c *StageCounts) Invalidate(ctx context.Context, projectTypeID uuid.UUID) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, stageCountsPrefix+projectTypeID.String()).Err(); err != nil {
		c.log.Warn("stage counts cache invalidation failed", "error", err)
	}
}
