package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"stockbuddy-backend/internal/shared/telemetry"
)

// Client wraps a Redis connection used for short-lived gateway caches
// (fundamentals, news). All methods are nil-safe: a nil *Client behaves
// like a cache that never hits, so callers need no enabled/disabled branch.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis using a redis:// URL. Returns nil (cache disabled)
// when the URL is empty or the connection cannot be established.
func New(redisURL string) *Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		telemetry.Warn("cache.disabled", map[string]any{"error": err.Error()})
		return nil
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		telemetry.Warn("cache.disabled", map[string]any{"error": err.Error()})
		return nil
	}
	return &Client{rdb: rdb}
}

// Get unmarshals the cached value for key into dest. Returns false on miss
// or any Redis/decoding error.
func (c *Client) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false
	}
	return true
}

// Set stores value under key with the given TTL. Failures are logged, not
// returned; a broken cache must never fail the caller.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		telemetry.Warn("cache.set_failed", map[string]any{"key": key, "error": err.Error()})
	}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
