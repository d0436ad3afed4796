// Package keyword maps free-text messages onto the curated-content
// categories by linear phrase scan. Detection results are memoized in the
// shared cache under a hash of the exact message text.
package keyword

import (
	"context"
	"encoding/json"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sage/internal/cache"
)

// Category is a coarse topic tag used to narrow resource search and to
// prioritize among several detected topics in one message.
type Category string

const (
	CoursePractice  Category = "course_practice"
	SportsMeeting   Category = "sports_meeting"
	ExerciseLibrary Category = "exercise_library"
	FitnessTest     Category = "fitness_test"
	Balance         Category = "balance"
	Strength        Category = "strength"
	Flexibility     Category = "flexibility"
	Speed           Category = "speed"
	Endurance       Category = "endurance"
	Coordination    Category = "coordination"
	Explosive       Category = "explosive"
	FiftyMeter      Category = "fifty_meter"
	StandingJump    Category = "standing_jump"
	SitUps          Category = "sit_ups"
	PullUps         Category = "pull_ups"
	SitReach        Category = "sit_reach"
	VitalCapacity   Category = "vital_capacity"
)

// Entry binds one phrase to its category. Many phrases map to one category.
type Entry struct {
	Phrase   string
	Category Category
}

// Detection is the result of scanning one message. Keywords and Categories
// preserve first-seen order; Categories are deduplicated.
type Detection struct {
	HasInternal bool       `json:"has_internal"`
	Keywords    []string   `json:"keywords,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
}

// priorityOrder resolves which category to search first when a message
// matches several. Most specific and actionable first.
var priorityOrder = []Category{
	FitnessTest,
	CoursePractice,
	SportsMeeting,
	ExerciseLibrary,
	Balance,
	Strength,
	Flexibility,
	Speed,
	Endurance,
}

// PriorityCategory picks the highest-priority category from the given list.
// Categories absent from the precedence list fall back to the first matched
// one; an empty list reports ok=false.
func PriorityCategory(categories []Category) (Category, bool) {
	for _, want := range priorityOrder {
		for _, c := range categories {
			if c == want {
				return want, true
			}
		}
	}
	if len(categories) > 0 {
		return categories[0], true
	}
	return "", false
}

// Detector scans messages against an immutable phrase table. Safe for
// concurrent use; the table is never mutated after construction.
type Detector struct {
	entries []Entry
	cache   cache.Cache
	logger  log.Logger
}

// NewDetector creates a detector over the given phrase table. The cache is
// best-effort; pass cache.Nop{} to disable memoization.
func NewDetector(entries []Entry, c cache.Cache, logger log.Logger) *Detector {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Detector{entries: entries, cache: c, logger: logger}
}

// Detect scans text for known phrases. A cache hit returns the memoized
// result; a miss scans and stores the result for an hour. Cached and fresh
// results are identical for the same text.
func (d *Detector) Detect(ctx context.Context, text string) Detection {
	key := cache.KeyDetect(text)

	if raw, ok := d.cache.Get(ctx, key); ok {
		var det Detection
		if err := json.Unmarshal(raw, &det); err == nil {
			return det
		}
		// Corrupt payload: fall through and recompute.
		d.logger.Debug(ctx, "discarding malformed cached detection", "key", key)
	}

	det := d.scan(text)

	if raw, err := json.Marshal(det); err == nil {
		d.cache.Set(ctx, key, raw, cache.Hour)
	}
	return det
}

func (d *Detector) scan(text string) Detection {
	var det Detection
	seen := make(map[Category]bool)

	for _, e := range d.entries {
		if !containsPhrase(text, e.Phrase) {
			continue
		}
		det.HasInternal = true
		det.Keywords = append(det.Keywords, e.Phrase)
		if !seen[e.Category] {
			seen[e.Category] = true
			det.Categories = append(det.Categories, e.Category)
		}
	}
	return det
}
