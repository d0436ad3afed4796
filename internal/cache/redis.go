package cache

import (
	"context"
	"errors"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a Redis server. All backend failures are
// logged at debug level and surfaced to callers as misses; the pipeline
// treats an unreachable Redis exactly like a cold cache.
type Redis struct {
	rdb    *redis.Client
	logger log.Logger
}

// NewRedis creates a Redis cache from a redis:// URL. The connection is
// established lazily; a server that is down at startup only costs misses
// until it comes back.
func NewRedis(url string, logger log.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Redis{rdb: redis.NewClient(opts), logger: logger}, nil
}

// Ping reports whether the backend is currently reachable. Used for startup
// logging only; a failed ping does not disable the cache.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Get returns the value stored under key, or a miss on absence, expiry, or
// backend error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Debug(ctx, "cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores value under key with the given ttl. Failures are dropped.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Debug(ctx, "cache set failed", "key", key, "error", err)
	}
}

// ClearPattern scans for keys matching the glob pattern and deletes them,
// returning the number removed.
func (r *Redis) ClearPattern(ctx context.Context, pattern string) int {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Debug(ctx, "cache scan failed", "pattern", pattern, "error", err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	removed, err := r.rdb.Del(ctx, keys...).Result()
	if err != nil {
		r.logger.Debug(ctx, "cache delete failed", "pattern", pattern, "error", err)
		return 0
	}
	return int(removed)
}

// Close shuts down the client connection pool.
func (r *Redis) Close() {
	_ = r.rdb.Close()
}
