// Package cache provides the distributed cache used by the sensors.
//
// The redis backend is nil-safe: construction failures yield a disabled
// cache whose Get always misses and whose Set is a no-op. Backend errors are
// logged at warn level and never returned to callers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/interfaces"
)

// CacheVersion prefixes every key. Bumping it invalidates all entries.
const CacheVersion = "v1"

const opTimeout = 500 * time.Millisecond

// RedisCache implements interfaces.Cache over a redis backend.
type RedisCache struct {
	client *redis.Client
	logger *common.Logger
}

var _ interfaces.Cache = (*RedisCache)(nil)

// NewRedisCache connects to redis at addr. On connection failure it returns
// a disabled cache rather than an error so the service can run cacheless.
func NewRedisCache(addr, password string, db int, logger *common.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", addr).Msg("redis unavailable, cache disabled")
		client.Close()
		return &RedisCache{logger: logger}
	}

	logger.Info().Str("addr", addr).Msg("redis cache connected")
	return &RedisCache{client: client, logger: logger}
}

// NewRedisCacheFromURL connects using a redis:// URL. Parse failures yield a
// disabled cache, same as connection failures.
func NewRedisCacheFromURL(url string, logger *common.Logger) *RedisCache {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid redis url, cache disabled")
		return &RedisCache{logger: logger}
	}
	return NewRedisCache(opts.Addr, opts.Password, opts.DB, logger)
}

// Key builds a versioned cache key from its parts.
func Key(parts ...string) string {
	key := "horizon:" + CacheVersion
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Get unmarshals the cached value into dest. Returns false on miss, backend
// failure, or decode failure.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c.client == nil {
		return false, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.client.Get(opCtx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache decode failed")
		return false, nil
	}
	return true, nil
}

// Set stores value under key with the given TTL. Failures are logged, not
// returned.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(opCtx, key, data, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return nil
}

// Close releases the backend connection.
func (c *RedisCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
