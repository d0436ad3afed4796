// Package resource provides curated-content retrieval for the triage
// pipeline: a Store abstraction over the resource table, a caching Retriever
// wrapper, and the response formatter.
package resource

import (
	"context"

	"github.com/linnemanlabs/sage/internal/keyword"
)

// Resource is one curated content item. Owned by the resource store; the
// pipeline only reads it.
type Resource struct {
	ID       int64            `json:"id"`
	Type     string           `json:"type"`
	Category keyword.Category `json:"category"`
	Title    string           `json:"title"`
	Content  string           `json:"content,omitempty"`
	FileURL  string           `json:"file_url,omitempty"`
	Keywords []string         `json:"keywords,omitempty"`
}

// Store is the persistence interface for curated resources.
//
// Search filters by exact category when category is non-empty, and by keyword
// overlap (any one input keyword present on the resource qualifies) when
// keywords is non-empty, capped at limit. Ordering beyond the cap is
// store-defined. An empty result and a failed query are distinct: failures
// must be returned, never masked as empty.
type Store interface {
	Search(ctx context.Context, keywords []string, category keyword.Category, limit int) ([]Resource, error)
}
