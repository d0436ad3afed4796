package pipeline

import (
	"context"
	"time"

	"github.com/linnemanlabs/sage/internal/safety"
)

// RiskAlert is the anonymized payload sent to staff when a crisis-level
// message is detected. It never carries the message text.
type RiskAlert struct {
	Kind           safety.RiskKind
	Role           string
	ConversationID int64
	DetectedAt     time.Time
}

// Notifier delivers risk alerts to an out-of-band channel.
type Notifier interface {
	NotifyRisk(ctx context.Context, a RiskAlert) error
}
