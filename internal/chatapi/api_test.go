package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/sage/internal/authmw"
	"github.com/linnemanlabs/sage/internal/conversation"
	"github.com/linnemanlabs/sage/internal/conversation/memstore"
	"github.com/linnemanlabs/sage/internal/pipeline"
	"github.com/linnemanlabs/sage/internal/safety"
)

type mockEngine struct {
	runFn func(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

func (m *mockEngine) Run(ctx context.Context, req pipeline.Request) (*pipeline.Response, error) {
	if m.runFn != nil {
		return m.runFn(ctx, req)
	}
	return &pipeline.Response{Text: "好的，我来帮你。", Source: pipeline.SourceInternet}, nil
}

type mockNotifier struct {
	alerts chan pipeline.RiskAlert
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{alerts: make(chan pipeline.RiskAlert, 1)}
}

func (m *mockNotifier) NotifyRisk(_ context.Context, a pipeline.RiskAlert) error {
	m.alerts <- a
	return nil
}

func newTestRouter(t *testing.T, engine Pipeline, notifier pipeline.Notifier) (chi.Router, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	api := New(nil, engine, store, notifier)
	r := chi.NewRouter()
	r.Use(authmw.ExtractCaller())
	api.RegisterRoutes(r)
	return r, store
}

func sendReq(t *testing.T, r chi.Router, body, userID, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authmw.HeaderUserID, userID)
	req.Header.Set(authmw.HeaderRole, role)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

//  New / constructor

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	api := New(nil, &mockEngine{}, memstore.New(), nil)
	if api == nil {
		t.Fatal("New(nil, ...) returned nil API")
	}
	if api.logger == nil {
		t.Fatal("New(nil, ...) left logger nil; expected Nop logger")
	}
}

func TestNew_NilEngine_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for nil engine")
		}
	}()
	New(log.Nop(), nil, memstore.New(), nil)
}

func TestNew_NilStore_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for nil conversation store")
		}
	}()
	New(log.Nop(), &mockEngine{}, nil, nil)
}

// Routing

func TestRegisterRoutes_Methods(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, &mockEngine{}, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"GET send not allowed", http.MethodGet, "/api/v1/chat/send", http.StatusMethodNotAllowed},
		{"PUT send not allowed", http.MethodPut, "/api/v1/chat/send", http.StatusMethodNotAllowed},
		{"DELETE history not allowed", http.MethodDelete, "/api/v1/chat/history/1", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			req.Header.Set(authmw.HeaderUserID, "u1")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSendChat_MissingUserID(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, &mockEngine{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/send", strings.NewReader(`{"message":"你好"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// Send

func TestSendChat_NewConversation(t *testing.T) {
	t.Parallel()

	var gotReq pipeline.Request
	engine := &mockEngine{runFn: func(_ context.Context, req pipeline.Request) (*pipeline.Response, error) {
		gotReq = req
		return &pipeline.Response{Text: "回答内容", Source: pipeline.SourceInternet}, nil
	}}
	r, store := newTestRouter(t, engine, nil)

	rec := sendReq(t, r, `{"message":"立定跳远怎么练"}`, "u1", "student")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp sendResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "回答内容" {
		t.Errorf("message = %q, want %q", resp.Message, "回答内容")
	}
	if resp.Source != "internet" {
		t.Errorf("source = %q, want internet", resp.Source)
	}
	if resp.ConversationID == 0 {
		t.Fatal("expected a new conversation id")
	}

	if gotReq.Message != "立定跳远怎么练" || gotReq.Role != "student" {
		t.Errorf("pipeline request = %+v", gotReq)
	}
	if gotReq.ConversationID != resp.ConversationID {
		t.Errorf("pipeline conversation id = %d, want %d", gotReq.ConversationID, resp.ConversationID)
	}

	conv, ok, err := store.Get(context.Background(), resp.ConversationID)
	if err != nil || !ok {
		t.Fatalf("conversation not stored: ok=%v err=%v", ok, err)
	}
	if conv.UserID != "u1" {
		t.Errorf("conversation user id = %q, want u1", conv.UserID)
	}
	if conv.Title != "立定跳远怎么练" {
		t.Errorf("conversation title = %q", conv.Title)
	}

	msgs, err := store.ListMessages(context.Background(), resp.ConversationID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != conversation.RoleUser || msgs[0].Content != "立定跳远怎么练" {
		t.Errorf("user turn = %+v", msgs[0])
	}
	if msgs[1].Role != conversation.RoleAssistant || msgs[1].Content != "回答内容" {
		t.Errorf("assistant turn = %+v", msgs[1])
	}
	if msgs[1].Source != "internet" {
		t.Errorf("assistant source = %q, want internet", msgs[1].Source)
	}
}

func TestSendChat_ExistingConversation(t *testing.T) {
	t.Parallel()

	r, store := newTestRouter(t, &mockEngine{}, nil)

	conv, err := store.Create(context.Background(), "u1", "旧会话")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	rec := sendReq(t, r, `{"message":"继续聊","conversation_id":`+jsonInt(conv.ID)+`}`, "u1", "student")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp sendResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID != conv.ID {
		t.Errorf("conversation id = %d, want %d", resp.ConversationID, conv.ID)
	}

	msgs, err := store.ListMessages(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("stored messages = %d, want 2", len(msgs))
	}
}

func TestSendChat_Validation(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, &mockEngine{}, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"invalid JSON", `{bad`, http.StatusBadRequest},
		{"empty message", `{"message":""}`, http.StatusBadRequest},
		{"whitespace only", `{"message":"   "}`, http.StatusBadRequest},
		{"too long", `{"message":"` + strings.Repeat("长", 2001) + `"}`, http.StatusBadRequest},
		{"at limit", `{"message":"` + strings.Repeat("长", 2000) + `"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := sendReq(t, r, tt.body, "u1", "student")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSendChat_ConversationNotFound(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, &mockEngine{}, nil)

	rec := sendReq(t, r, `{"message":"你好","conversation_id":999}`, "u1", "student")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSendChat_ForbiddenForOtherUser(t *testing.T) {
	t.Parallel()

	r, store := newTestRouter(t, &mockEngine{}, nil)

	conv, err := store.Create(context.Background(), "owner", "别人的会话")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	rec := sendReq(t, r, `{"message":"你好","conversation_id":`+jsonInt(conv.ID)+`}`, "intruder", "student")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestSendChat_PipelineError(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{runFn: func(context.Context, pipeline.Request) (*pipeline.Response, error) {
		return nil, errors.New("store down")
	}}
	r, _ := newTestRouter(t, engine, nil)

	rec := sendReq(t, r, `{"message":"立定跳远怎么练"}`, "u1", "student")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestSendChat_MentalRiskNotifies(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{runFn: func(context.Context, pipeline.Request) (*pipeline.Response, error) {
		return &pipeline.Response{
			Text:     "警示内容",
			Source:   pipeline.SourceInternet,
			HasRisk:  true,
			RiskKind: safety.RiskMental,
		}, nil
	}}
	notifier := newMockNotifier()
	r, _ := newTestRouter(t, engine, notifier)

	rec := sendReq(t, r, `{"message":"我不想活了"}`, "u1", "student")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	select {
	case alert := <-notifier.alerts:
		if alert.Kind != safety.RiskMental {
			t.Errorf("alert kind = %q, want mental", alert.Kind)
		}
		if alert.Role != "student" {
			t.Errorf("alert role = %q, want student", alert.Role)
		}
		if alert.ConversationID == 0 {
			t.Error("alert conversation id is zero")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a risk alert")
	}
}

func TestSendChat_MedicalRiskDoesNotNotify(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{runFn: func(context.Context, pipeline.Request) (*pipeline.Response, error) {
		return &pipeline.Response{
			Text:     "就医提示",
			Source:   pipeline.SourceInternet,
			HasRisk:  true,
			RiskKind: safety.RiskMedical,
		}, nil
	}}
	notifier := newMockNotifier()
	r, _ := newTestRouter(t, engine, notifier)

	rec := sendReq(t, r, `{"message":"我头晕想吐"}`, "u1", "student")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	select {
	case <-notifier.alerts:
		t.Fatal("medical risk should not trigger a crisis alert")
	case <-time.After(100 * time.Millisecond):
	}
}

// History

func TestGetHistory(t *testing.T) {
	t.Parallel()

	r, store := newTestRouter(t, &mockEngine{}, nil)

	conv, err := store.Create(context.Background(), "u1", "历史会话")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	for _, m := range []conversation.Message{
		{ConversationID: conv.ID, Role: conversation.RoleUser, Content: "问题"},
		{ConversationID: conv.ID, Role: conversation.RoleAssistant, Content: "回答", Source: "internal"},
	} {
		if _, err := store.AppendMessage(context.Background(), &m); err != nil {
			t.Fatalf("append message: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history/"+jsonInt(conv.ID), http.NoBody)
	req.Header.Set(authmw.HeaderUserID, "u1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Conversation conversation.Conversation `json:"conversation"`
		Messages     []conversation.Message    `json:"messages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Conversation.ID != conv.ID {
		t.Errorf("conversation id = %d, want %d", resp.Conversation.ID, conv.ID)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(resp.Messages))
	}
	if resp.Messages[1].Source != "internal" {
		t.Errorf("assistant source = %q, want internal", resp.Messages[1].Source)
	}
}

func TestGetHistory_Errors(t *testing.T) {
	t.Parallel()

	r, store := newTestRouter(t, &mockEngine{}, nil)

	conv, err := store.Create(context.Background(), "owner", "私密会话")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		userID     string
		wantStatus int
	}{
		{"bad id", "/api/v1/chat/history/abc", "u1", http.StatusBadRequest},
		{"not found", "/api/v1/chat/history/999", "u1", http.StatusNotFound},
		{"forbidden", "/api/v1/chat/history/" + jsonInt(conv.ID), "intruder", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			req.Header.Set(authmw.HeaderUserID, tt.userID)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func jsonInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Tracing

func TestSendChat_AnnotatesSpan(t *testing.T) {
	// Not parallel: swaps the global OTel tracer provider.

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	r, _ := newTestRouter(t, &mockEngine{}, nil)

	ctx, span := tp.Tracer("test").Start(context.Background(), "http.server")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/send", strings.NewReader(`{"message":"你好"}`))
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authmw.HeaderUserID, "u1")
	req.Header.Set(authmw.HeaderRole, "student")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	span.End()

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("span count = %d, want 1", len(spans))
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	if v, ok := attrs["sage.conversation.id"]; !ok || v.AsInt64() == 0 {
		t.Errorf("missing or zero sage.conversation.id attribute: %v", attrs)
	}
	if v, ok := attrs["sage.pipeline.source"]; !ok || v.AsString() != "internet" {
		t.Errorf("sage.pipeline.source = %v, want internet", v.Emit())
	}
}
