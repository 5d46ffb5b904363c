package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/pkg/logger"
)

const statsCacheKey = "quizbot:admin:stats"

// StatsCache keeps the aggregated game statistics in Redis for a short
// TTL. The aggregation query joins several tables, so the admin panel
// does not re-run it on every refresh. A nil cache is a valid cache
// that always misses, used when Redis is not configured.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if client == nil {
		return nil
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns the cached statistics, or nil on miss or Redis failure.
func (c *StatsCache) Get(ctx context.Context) *models.GameStats {
	if c == nil {
		return nil
	}

	data, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Stats cache read failed", "error", err)
		}
		return nil
	}

	var stats models.GameStats
	if err := json.Unmarshal(data, &stats); err != nil {
		logger.Warn("Stats cache entry corrupt, ignoring", "error", err)
		return nil
	}
	return &stats
}

// Set stores the statistics; failures are logged and swallowed since
// the cache is strictly an optimization.
func (c *StatsCache) Set(ctx context.Context, stats *models.GameStats) {
	if c == nil || stats == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, data, c.ttl).Err(); err != nil {
		logger.Warn("Stats cache write failed", "error", err)
	}
}

// Invalidate drops the cached entry.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, statsCacheKey).Err(); err != nil {
		logger.Warn("Stats cache invalidation failed", "error", err)
	}
}
