package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// Mem is an in-process Cache. Suitable for dev and tests; entries expire on
// read and are swept opportunistically by ClearPattern.
type Mem struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMem initializes an empty in-memory cache.
func NewMem() *Mem {
	return &Mem{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the stored value if present and unexpired.
func (m *Mem) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := m.entries[key]; ok && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	cp := make([]byte, len(e.value))
	copy(cp, e.value)
	return cp, true
}

// Set stores a copy of value under key, overwriting any previous entry and
// resetting its expiry. Non-positive ttl drops the write.
func (m *Mem) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	m.entries[key] = memEntry{value: cp, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
}

// ClearPattern removes every live key matching the glob pattern (path.Match
// syntax) and purges expired entries along the way.
func (m *Mem) ClearPattern(_ context.Context, pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := m.now()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			continue
		}
		if ok, err := path.Match(pattern, key); err == nil && ok {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Close is a no-op.
func (m *Mem) Close() {}

// Len reports the number of stored entries, including any not yet swept.
func (m *Mem) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
