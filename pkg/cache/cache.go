// Package cache is a thin JSON layer over Redis. Every function is a safe
// no-op when Redis is not connected, so callers fall through to the
// database and the storefront keeps working without a cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmartin-estofados/storefront/config"
	"github.com/mmartin-estofados/storefront/pkg/metrics"
)

// RDB is nil until Connect succeeds.
var RDB *redis.Client

// Connect initialises the Redis client and verifies it with a ping.
func Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Close releases the connection pool.
func Close() error {
	if RDB == nil {
		return nil
	}
	err := RDB.Close()
	RDB = nil
	return err
}

// Get unmarshals the value at key into dest and reports a hit.
func Get(ctx context.Context, key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

// Set stores value as JSON under key for ttl.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return RDB.Set(ctx, key, data, ttl).Err()
}

// Del removes one or more keys.
func Del(ctx context.Context, keys ...string) error {
	if RDB == nil || len(keys) == 0 {
		return nil
	}
	return RDB.Del(ctx, keys...).Err()
}

// Version returns the current generation number stored at key (0 when
// unset or when Redis is down). Bump moves it forward, which orphans every
// entry whose key embeds the old generation.
func Version(ctx context.Context, key string) int64 {
	if RDB == nil {
		return 0
	}
	n, err := RDB.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return n
}

// Bump increments the generation counter at key.
func Bump(ctx context.Context, key string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Incr(ctx, key).Err()
}

// Remember returns the cached value at key or computes, stores and returns
// it. label is the low-cardinality name used for hit/miss metrics.
//
//	var list []models.Product
//	err := cache.Remember(ctx, key, "products", ttl, &list, func() (any, error) {
//	    return repo.List(ctx, filter)
//	})
func Remember(ctx context.Context, key, label string, ttl time.Duration, dest interface{}, compute func() (interface{}, error)) error {
	if Get(ctx, key, dest) {
		metrics.CacheHits.WithLabelValues(label).Inc()
		return nil
	}
	metrics.CacheMisses.WithLabelValues(label).Inc()

	value, err := compute()
	if err != nil {
		return err
	}

	// Round-trip through JSON so dest is filled the same way on hit and miss.
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return err
	}

	// A failed write only costs the next caller a recompute.
	if RDB != nil {
		_ = RDB.Set(ctx, key, data, ttl).Err()
	}
	return nil
}
