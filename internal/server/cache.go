package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/geodrive/internal/leaderboard"
)

// Cache holds each leaderboard's top entries in Redis. A nil *Cache is a
// cache that always misses. Redis errors are logged and treated as misses.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(ct leaderboard.ChallengeType) string { return "geodrive:leaderboard:" + string(ct) }

func (c *Cache) Get(ctx context.Context, ct leaderboard.ChallengeType) ([]leaderboard.Entry, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, cacheKey(ct)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("leaderboard cache read failed", "type", ct, "error", err)
		return nil, false
	}
	var entries []leaderboard.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *Cache) Set(ctx context.Context, ct leaderboard.ChallengeType, entries []leaderboard.Entry) {
	if c == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(ct), data, c.ttl).Err(); err != nil {
		c.logger.Warn("leaderboard cache write failed", "type", ct, "error", err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, ct leaderboard.ChallengeType) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey(ct)).Err(); err != nil {
		c.logger.Warn("leaderboard cache invalidate failed", "type", ct, "error", err)
	}
}

// Check pings Redis for the health endpoint.
func (c *Cache) Check(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }
