package chatapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/sage/internal/authmw"
	"github.com/linnemanlabs/sage/internal/conversation"
	"github.com/linnemanlabs/sage/internal/pipeline"
	"github.com/linnemanlabs/sage/internal/safety"
)

// maxMessageRunes bounds incoming chat messages.
const maxMessageRunes = 2000

// notifyTimeout bounds the fire-and-forget risk alert delivery.
const notifyTimeout = 15 * time.Second

type sendRequest struct {
	Message        string `json:"message"`
	ConversationID int64  `json:"conversation_id,omitempty"`
}

type sendResponse struct {
	Message        string `json:"message"`
	Source         string `json:"source"`
	ConversationID int64  `json:"conversation_id"`
	HasRisk        bool   `json:"has_risk"`
	RiskKind       string `json:"risk_kind,omitempty"`
	RiskWarning    string `json:"risk_warning,omitempty"`
}

func (a *API) handleSendChat(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return
	}
	if len([]rune(msg)) > maxMessageRunes {
		http.Error(w, `{"error":"message too long"}`, http.StatusBadRequest)
		return
	}

	caller, _ := authmw.CallerFromContext(r.Context())

	conv, ok := a.resolveConversation(w, r, caller, req.ConversationID, msg)
	if !ok {
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int64("sage.conversation.id", conv.ID))

	if _, err := a.convs.AppendMessage(r.Context(), &conversation.Message{
		ConversationID: conv.ID,
		Role:           conversation.RoleUser,
		Content:        msg,
	}); err != nil {
		a.logger.Error(r.Context(), err, "failed to store user message", "conversation_id", conv.ID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	resp, err := a.engine.Run(r.Context(), pipeline.Request{
		Message:        msg,
		Role:           caller.Role,
		ConversationID: conv.ID,
	})
	if err != nil {
		a.logger.Error(r.Context(), err, "pipeline run failed", "conversation_id", conv.ID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.String("sage.pipeline.source", string(resp.Source)))

	if _, err := a.convs.AppendMessage(r.Context(), &conversation.Message{
		ConversationID: conv.ID,
		Role:           conversation.RoleAssistant,
		Content:        resp.Text,
		Source:         string(resp.Source),
	}); err != nil {
		a.logger.Error(r.Context(), err, "failed to store assistant message", "conversation_id", conv.ID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	if resp.HasRisk && resp.RiskKind == safety.RiskMental {
		a.notifyRisk(r.Context(), resp.RiskKind, caller.Role, conv.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sendResponse{
		Message:        resp.Text,
		Source:         string(resp.Source),
		ConversationID: conv.ID,
		HasRisk:        resp.HasRisk,
		RiskKind:       string(resp.RiskKind),
		RiskWarning:    resp.RiskWarning,
	})
}

// resolveConversation loads the target conversation or opens a new one when
// the request carries no id. It writes the error response itself on failure.
func (a *API) resolveConversation(w http.ResponseWriter, r *http.Request, caller authmw.Caller, id int64, msg string) (*conversation.Conversation, bool) {
	if id == 0 {
		conv, err := a.convs.Create(r.Context(), caller.UserID, conversation.TitleFor(msg))
		if err != nil {
			a.logger.Error(r.Context(), err, "failed to create conversation", "user_id", caller.UserID)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return nil, false
		}
		return conv, true
	}

	conv, ok, err := a.convs.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get conversation", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return nil, false
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return nil, false
	}
	if conv.UserID != caller.UserID {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return nil, false
	}
	return conv, true
}

// notifyRisk delivers a crisis alert without blocking or failing the request.
func (a *API) notifyRisk(ctx context.Context, kind safety.RiskKind, role string, conversationID int64) {
	if a.notifier == nil {
		return
	}

	alert := pipeline.RiskAlert{
		Kind:           kind,
		Role:           role,
		ConversationID: conversationID,
		DetectedAt:     time.Now(),
	}

	// Detached from the request so delivery survives the response being sent.
	nctx := context.WithoutCancel(ctx)
	go func() {
		nctx, cancel := context.WithTimeout(nctx, notifyTimeout)
		defer cancel()
		if err := a.notifier.NotifyRisk(nctx, alert); err != nil {
			a.logger.Error(nctx, err, "failed to send risk alert", "conversation_id", conversationID)
		}
	}()
}
