// Package chatapi exposes the chat pipeline over HTTP.
package chatapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/sage/internal/authmw"
	"github.com/linnemanlabs/sage/internal/conversation"
	"github.com/linnemanlabs/sage/internal/pipeline"
)

// Pipeline defines the triage operation chatapi needs.
type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger   log.Logger
	engine   Pipeline
	convs    conversation.Store
	notifier pipeline.Notifier
}

// New creates a new API handler. notifier may be nil to disable risk alerts.
func New(logger log.Logger, engine Pipeline, convs conversation.Store, notifier pipeline.Notifier) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if engine == nil {
		panic(xerrors.New("pipeline engine is required"))
	}
	if convs == nil {
		panic(xerrors.New("conversation store is required"))
	}
	return &API{
		logger:   logger,
		engine:   engine,
		convs:    convs,
		notifier: notifier,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat/send", a.handleSendChat)
		r.Get("/chat/history/{id}", a.handleGetHistory)
	})
}

func (a *API) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid conversation id"}`, http.StatusBadRequest)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int64("sage.conversation.id", id))

	conv, ok, err := a.convs.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get conversation", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	caller, _ := authmw.CallerFromContext(r.Context())
	if conv.UserID != caller.UserID {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	msgs, err := a.convs.ListMessages(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list messages", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"conversation": conv,
		"messages":     msgs,
	})
}
