package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON read cache keyed per entity id. Mutations invalidate
// only the keys they touch; a nil client disables caching entirely so
// callers never have to branch on configuration.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func New(redisClient *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{redis: redisClient, ttl: ttl}
}

// Get unmarshals the cached value for key into v. The bool reports a hit.
func (c *Cache) Get(ctx context.Context, key string, v any) bool {
	if c == nil || c.redis == nil {
		return false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, key string, v any) {
	if c == nil || c.redis == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

// Invalidate drops the given keys. Failures are logged, not propagated;
// a stale entry expires on its own TTL.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.redis == nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache invalidate: %v", err)
	}
}

func MeetupKey(id string) string { return "meetup:" + id }
func UserKey(id string) string   { return "user:" + id }
