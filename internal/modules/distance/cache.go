// README: Redis-backed estimate cache with a bounded TTL.
package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "distance:%s:%s"

// Cache is an optional lookup cache in front of the provider.
type Cache interface {
	Get(ctx context.Context, origin, destination string) (Estimate, bool, error)
	Set(ctx context.Context, origin, destination string, e Estimate) error
}

// RedisCache stores estimates as JSON values under a pair key.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, origin, destination string) (Estimate, bool, error) {
	val, err := c.redis.Get(ctx, pairKey(origin, destination)).Result()
	if err == redis.Nil {
		return Estimate{}, false, nil
	}
	if err != nil {
		return Estimate{}, false, err
	}
	var e Estimate
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return Estimate{}, false, err
	}
	return e, true, nil
}

func (c *RedisCache) Set(ctx context.Context, origin, destination string, e Estimate) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, pairKey(origin, destination), b, c.ttl).Err()
}

func pairKey(origin, destination string) string {
	return fmt.Sprintf(cacheKeyPrefix, origin, destination)
}
