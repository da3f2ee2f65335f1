// helpdesk/sources/cache/redis.go
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache fronts the unread-badge counts so the 30s ambient polls don't
// hit Postgres on every tick. A nil *RedisCache is valid and disables
// caching entirely.
type RedisCache struct {
	Client *redis.Client
}

func NewRedis(addr, password string, db int) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	return &RedisCache{Client: rdb}
}

// Ping tests the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	if c != nil && c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// GetInt returns (value, true) on a hit. Misses and transport errors both
// report a miss; the caller falls through to the store.
func (c *RedisCache) GetInt(ctx context.Context, key string) (int, bool) {
	if c == nil {
		return 0, false
	}
	val, err := c.Client.Get(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *RedisCache) SetInt(ctx context.Context, key string, value int, ttl time.Duration) {
	if c == nil {
		return
	}
	c.Client.Set(ctx, key, strconv.Itoa(value), ttl)
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}
	c.Client.Del(ctx, key)
}
