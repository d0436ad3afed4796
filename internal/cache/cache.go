// Package cache defines the best-effort TTL cache used to memoize triage
// pipeline work. A cache failure is never an error: every operation degrades
// to a miss or a no-op, and callers always recompute on a miss.
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

// Well-known expiry durations. Pipeline entries default to Hour.
const (
	Minute = time.Minute
	Hour   = time.Hour
	Day    = 24 * time.Hour
)

// Cache is a key to serialized-value store with per-entry expiry.
//
// Implementations must be safe for concurrent use. They must never return an
// entry past its TTL, and must swallow backend failures: Get reports a miss,
// Set drops the write, ClearPattern removes nothing.
type Cache interface {
	// Get returns the stored value, or ok=false if absent, expired, or the
	// backend is unreachable.
	Get(ctx context.Context, key string) (value []byte, ok bool)

	// Set stores value under key for ttl. Last write wins.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// ClearPattern removes every key matching the glob pattern and returns
	// how many were removed. Used for administrative flushes, not in the
	// request path.
	ClearPattern(ctx context.Context, pattern string) int

	// Close releases backend connections.
	Close()
}

// Cache key builders live here so the namespaces don't drift apart across
// call sites.

// KeyDetect is the memoization key for keyword detection over message text.
func KeyDetect(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("keyword:detect:%x", h.Sum64())
}

// KeyResourceKeyword is the cache key for a single-keyword resource search.
func KeyResourceKeyword(keyword string) string {
	return "resource:keyword:" + keyword
}

// Nop is a Cache that stores nothing and always misses. It is the selected
// implementation when no cache backend is configured.
type Nop struct{}

// Get always reports a miss.
func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }

// Set drops the write.
func (Nop) Set(context.Context, string, []byte, time.Duration) {}

// ClearPattern removes nothing.
func (Nop) ClearPattern(context.Context, string) int { return 0 }

// Close is a no-op.
func (Nop) Close() {}
