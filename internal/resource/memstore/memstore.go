// Package memstore provides an in-memory implementation of resource.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/sage/internal/keyword"
	"github.com/linnemanlabs/sage/internal/resource"
)

// Store holds resources in memory. Suitable for dev/testing; search order is
// insertion order.
type Store struct {
	mu        sync.RWMutex
	resources []resource.Resource
	nextID    int64
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{nextID: 1}
}

// Add stores a copy of the resource, assigning an ID if unset.
func (s *Store) Add(r resource.Resource) resource.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextID
		s.nextID++
	}
	s.resources = append(s.resources, r)
	return r
}

// Search filters by category exact match and keyword overlap, capped at limit.
func (s *Store) Search(_ context.Context, keywords []string, category keyword.Category, limit int) ([]resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []resource.Resource
	for _, r := range s.resources {
		if limit > 0 && len(out) >= limit {
			break
		}
		if category != "" && r.Category != category {
			continue
		}
		if len(keywords) > 0 && !overlaps(r.Keywords, keywords) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
