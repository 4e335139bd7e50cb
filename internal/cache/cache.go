package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"mosprom-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// Client is a thin Redis wrapper for caching computed analytics.
// All failures are logged and swallowed: the cache is an optimization,
// never a dependency.
type Client struct {
	rdb        *redis.Client
	defaultTTL time.Duration
	disabled   bool
}

func New(cfg *config.Config) *Client {
	c := &Client{
		defaultTTL: cfg.CacheTTL,
		disabled:   cfg.CacheDisabled,
	}
	if c.disabled {
		return c
	}

	c.rdb = redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Redis unavailable (%v), analytics caching disabled", err)
		c.disabled = true
	}

	return c
}

// Get unmarshals the cached JSON value into dest. Returns false on miss
// or any error.
func (c *Client) Get(ctx context.Context, key string, dest any) bool {
	if c.disabled {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("redis get failed: key=%s err=%v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("redis get: corrupt cache entry: key=%s err=%v", key, err)
		return false
	}
	return true
}

func (c *Client) Set(ctx context.Context, key string, value any) {
	if c.disabled {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("redis set: marshal failed: key=%s err=%v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.defaultTTL).Err(); err != nil {
		log.Printf("redis set failed: key=%s err=%v", key, err)
	}
}

// ClearPattern removes all keys matching pattern (e.g. "analytics:*").
// Called after any write that changes aggregate results.
func (c *Client) ClearPattern(ctx context.Context, pattern string) {
	if c.disabled {
		return
	}
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		log.Printf("redis keys failed: pattern=%s err=%v", pattern, err)
		return
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("redis del failed: pattern=%s err=%v", pattern, err)
		}
	}
}
