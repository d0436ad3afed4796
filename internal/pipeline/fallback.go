package pipeline

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sage/internal/llm"
)

// DefaultGenTimeout bounds a single generation call.
const DefaultGenTimeout = 30 * time.Second

// apology is returned whenever the generation backend fails. The pipeline
// must always produce some text for this branch; a transient backend outage
// degrades the chat to a canned message instead of failing the request.
const apology = "抱歉，AI服务暂时不可用，请稍后再试。"

// Fallback produces an externally generated answer when no curated resource
// fits. Responses are user-specific and never cached.
type Fallback struct {
	provider llm.Provider
	timeout  time.Duration
	logger   log.Logger
	metrics  *Metrics
}

// NewFallback creates the generation fallback. A non-positive timeout falls
// back to DefaultGenTimeout.
func NewFallback(provider llm.Provider, timeout time.Duration, logger log.Logger, m *Metrics) *Fallback {
	if timeout <= 0 {
		timeout = DefaultGenTimeout
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Fallback{provider: provider, timeout: timeout, logger: logger, metrics: m}
}

// Generate asks the provider for an answer under the role's system prompt.
// Any provider failure, timeout included, yields the fixed apology string;
// errors never propagate past this boundary. The timeout context derives
// from ctx, so caller cancellation still aborts the call promptly.
func (f *Fallback) Generate(ctx context.Context, message, role string) string {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	text, err := f.provider.Chat(ctx, systemPrompt(role), []llm.Message{
		{Role: llm.RoleUser, Content: message},
	})
	dur := time.Since(start)

	if f.metrics != nil {
		f.metrics.LLMDuration.Observe(dur.Seconds())
	}

	if err != nil {
		f.logger.Warn(ctx, "generation failed, serving apology",
			"role", role,
			"duration", dur.Seconds(),
			"error", err,
		)
		if f.metrics != nil {
			f.metrics.LLMFailuresTotal.Inc()
		}
		return apology
	}
	return text
}
