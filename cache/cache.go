// Package cache is a small best-effort JSON cache on Redis, used for the
// published-courses listing. A nil *Cache is valid and disables caching, so
// callers never branch on configuration.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/educast/catalog/config"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns nil when no Redis address is configured.
func New(cfg config.Redis) *Cache {
	if cfg.Address == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Cache{client: client, ttl: cfg.TTL}
}

// Get unmarshals the cached value into val, reporting whether the key was
// warm. Transport errors count as a miss.
func (c *Cache) Get(ctx context.Context, key string, val any) bool {
	if c == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}

	return json.Unmarshal(raw, val) == nil
}

// Set stores val best-effort; failures are ignored, the store stays the
// source of truth.
func (c *Cache) Set(ctx context.Context, key string, val any) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(val)
	if err != nil {
		return
	}

	c.client.Set(ctx, key, raw, c.ttl)
}

// Drop invalidates keys after a mutation.
func (c *Cache) Drop(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}

	c.client.Del(ctx, keys...)
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
