package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sage/internal/cache"
	"github.com/linnemanlabs/sage/internal/keyword"
)

// Source tags where a response body came from.
type Source string

const (
	// SourceInternal marks curated store-owned content.
	SourceInternal Source = "internal"

	// SourceInternet marks externally generated content.
	SourceInternet Source = "internet"
)

const internalAttribution = "\n\n（内容来自于北京市学校体育联合会）"

// Retriever searches the resource store with best-effort caching in front.
//
// Only single-keyword queries are cached, keyed by the keyword alone. A
// composite key over keywords plus category would be needed to cache the
// rest; without one, a multi-keyword hit stored under a shared key could be
// replayed for a query with a different category filter. Left uncached.
type Retriever struct {
	store  Store
	cache  cache.Cache
	logger log.Logger
}

// NewRetriever wraps the store with the shared cache. Pass cache.Nop{} to
// disable caching.
func NewRetriever(store Store, c cache.Cache, logger log.Logger) *Retriever {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Retriever{store: store, cache: c, logger: logger}
}

// Search queries the store for resources matching the keywords and category.
// Store errors propagate to the caller; an unreachable store is an outage,
// not an empty result.
func (r *Retriever) Search(ctx context.Context, keywords []string, category keyword.Category, limit int) ([]Resource, error) {
	cacheable := len(keywords) == 1
	var key string

	if cacheable {
		key = cache.KeyResourceKeyword(keywords[0])
		if raw, ok := r.cache.Get(ctx, key); ok {
			var resources []Resource
			if err := json.Unmarshal(raw, &resources); err == nil {
				return resources, nil
			}
			r.logger.Debug(ctx, "discarding malformed cached resources", "key", key)
		}
	}

	resources, err := r.store.Search(ctx, keywords, category, limit)
	if err != nil {
		return nil, fmt.Errorf("resource search: %w", err)
	}

	if cacheable && len(resources) > 0 {
		if raw, err := json.Marshal(resources); err == nil {
			r.cache.Set(ctx, key, raw, cache.Hour)
		}
	}
	return resources, nil
}

// Format renders resources as a numbered list: title, content if present,
// then a labeled link if present. The internal attribution suffix is appended
// only for SourceInternal. An empty list reports ok=false.
func Format(resources []Resource, source Source) (string, bool) {
	if len(resources) == 0 {
		return "", false
	}

	parts := make([]string, 0, len(resources))
	for i, res := range resources {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s\n", i+1, res.Title)
		if res.Content != "" {
			b.WriteString(res.Content)
			b.WriteString("\n")
		}
		if res.FileURL != "" {
			fmt.Fprintf(&b, "资源链接：%s\n", res.FileURL)
		}
		parts = append(parts, b.String())
	}

	out := strings.Join(parts, "\n")
	if source == SourceInternal {
		out += internalAttribution
	}
	return out, true
}
