package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/sage/internal/keyword"
	"github.com/linnemanlabs/sage/internal/resource"
	"github.com/linnemanlabs/sage/internal/safety"
)

// DefaultResourceLimit caps curated-resource results per run.
const DefaultResourceLimit = 5

const internetAttribution = "\n\n（内容来自于互联网，请斟酌使用）"

// Engine sequences the triage stages for one message: exclusion check, risk
// check, keyword categorization, resource retrieval, generation fallback.
// All dependencies are injected once at startup; the engine holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	classifier *safety.Classifier
	detector   *keyword.Detector
	retriever  *resource.Retriever
	fallback   *Fallback
	logger     log.Logger
	metrics    *Metrics
	limit      int
}

// NewEngine creates a pipeline engine with the given stage implementations.
func NewEngine(
	classifier *safety.Classifier,
	detector *keyword.Detector,
	retriever *resource.Retriever,
	fallback *Fallback,
	logger log.Logger,
	metrics *Metrics,
) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		classifier: classifier,
		detector:   detector,
		retriever:  retriever,
		fallback:   fallback,
		logger:     logger,
		metrics:    metrics,
		limit:      DefaultResourceLimit,
	}
}

// SetResourceLimit overrides the default cap on resources per answer.
// Values below 1 are ignored.
func (e *Engine) SetResourceLimit(n int) {
	if n > 0 {
		e.limit = n
	}
}

// Run triages one message. Single pass, no retries at this level.
//
// The only error Run can return is a resource-store failure: an empty result
// legitimately falls through to generation, but a failed query must not
// silently mask an outage. Every other degradation (cache down, generation
// backend down) is absorbed by the stage that owns it.
func (e *Engine) Run(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	runID := ulid.Make().String()
	L := e.logger.With("run_id", runID, "role", req.Role)

	// Exclusion check. A match ends the run: fixed redirect, no risk check.
	if ex := e.classifier.CheckExcluded(req.Message); ex.Excluded {
		L.Info(ctx, "message excluded", "matched", ex.Matched)
		resp := &Response{Text: ex.Message, Source: SourceSystem}
		e.observe(resp, start)
		return resp, nil
	}

	// Risk check decorates the eventual answer; it never branches.
	risk := e.classifier.CheckRisk(req.Message)
	if risk.HasRisk {
		L.Info(ctx, "risk detected", "kind", risk.Kind, "matched", risk.Matched)
	}

	det := e.detector.Detect(ctx, req.Message)

	var (
		text   string
		source Source
	)

	if det.HasInternal {
		category, _ := keyword.PriorityCategory(det.Categories)
		resources, err := e.retriever.Search(ctx, det.Keywords, category, e.limit)
		if err != nil {
			return nil, fmt.Errorf("pipeline run %s: %w", runID, err)
		}

		if formatted, ok := resource.Format(resources, resource.SourceInternal); ok {
			text = formatted
			source = SourceInternal
			if e.metrics != nil {
				e.metrics.RetrievalHits.Inc()
			}
			L.Info(ctx, "answered from curated resources",
				"category", category,
				"resources", len(resources),
			)
		} else if e.metrics != nil {
			e.metrics.RetrievalMisses.Inc()
		}
	}

	// No internal category, or the store had nothing: generate.
	if text == "" {
		text = e.fallback.Generate(ctx, req.Message, req.Role) + internetAttribution
		source = SourceInternet
	}

	resp := &Response{Text: text, Source: source}
	if risk.HasRisk {
		resp.Text = risk.Warning + "\n\n" + resp.Text
		resp.HasRisk = true
		resp.RiskKind = risk.Kind
		resp.RiskWarning = risk.Warning
	}

	e.observe(resp, start)
	L.Info(ctx, "pipeline complete",
		"source", resp.Source,
		"has_risk", resp.HasRisk,
		"duration", time.Since(start).Seconds(),
	)
	return resp, nil
}

func (e *Engine) observe(resp *Response, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.RunsTotal.WithLabelValues(string(resp.Source)).Inc()
	e.metrics.RunDuration.WithLabelValues(string(resp.Source)).Observe(time.Since(start).Seconds())
	if resp.HasRisk {
		e.metrics.RisksTotal.WithLabelValues(string(resp.RiskKind)).Inc()
	}
}
