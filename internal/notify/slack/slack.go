// Package slack sends crisis-risk alerts to a staff Slack channel via
// incoming webhooks. Alerts are anonymized: kind, caller role, and
// conversation id only, never the message text.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/sage/internal/pipeline"
	"github.com/linnemanlabs/sage/internal/safety"
)

const httpTimeout = 10 * time.Second

// Notifier posts risk alerts to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, NotifyRisk is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// NotifyRisk posts a risk alert to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) NotifyRisk(ctx context.Context, a pipeline.RiskAlert) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(a)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(a pipeline.RiskAlert) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(a),
			{"type": "divider"},
			fieldsBlock(a),
			contextBlock(a),
		},
	}
}

func headerBlock(a pipeline.RiskAlert) map[string]any {
	title := "Health Risk Detected"
	if a.Kind == safety.RiskMental {
		title = "Crisis Signal Detected"
	}
	text := fmt.Sprintf("%s %s", kindEmoji(a.Kind), title)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(a pipeline.RiskAlert) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Kind:* %s", a.Kind),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Role:* %s", a.Role),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Conversation:* %d", a.ConversationID),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func contextBlock(a pipeline.RiskAlert) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("sage • %s", a.DetectedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func kindEmoji(kind safety.RiskKind) string {
	if kind == safety.RiskMental {
		return "\U0001f534" // red circle
	}
	return "\U0001f7e1" // yellow circle
}
