//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/trupyai/trupy/internal/domain"
	"github.com/trupyai/trupy/internal/llm"
	"github.com/trupyai/trupy/internal/safety"
	"github.com/trupyai/trupy/internal/session"
	"github.com/trupyai/trupy/internal/store"
)

type stubProvider struct {
	reply string
}

func (p *stubProvider) Send(context.Context, []domain.Message) (string, error) {
	return p.reply, nil
}

type stubArchive struct {
	records []*domain.Record
}

func (a *stubArchive) SaveRecord(_ context.Context, record *domain.Record) error {
	a.records = append(a.records, record)
	return nil
}

func (a *stubArchive) ListRecords(context.Context, int, int) ([]*domain.Record, error) {
	return a.records, nil
}

func (a *stubArchive) Ping(context.Context) error { return nil }
func (a *stubArchive) Close() error               { return nil }

func newTestRouter(reply string) chi.Router {
	client := llm.NewClient(&stubProvider{reply: reply}, slog.Default())
	svc := session.NewService(store.NewMemory(), &stubArchive{}, client, safety.New(), 15*time.Minute)

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func startSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/start", StartSessionRequest{Anonymous: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp StartSessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}
	if resp.SessionID == "" || resp.Greeting == "" {
		t.Fatalf("incomplete start response: %+v", resp)
	}
	return resp.SessionID
}

func TestJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestStartSessionAnonymous(t *testing.T) {
	t.Parallel()

	r := newTestRouter("Hello! How can I support you today?")
	id := startSession(t, r)
	if id == "" {
		t.Fatal("expected a session ID")
	}
}

func TestStartSessionMissingProfile(t *testing.T) {
	t.Parallel()

	r := newTestRouter("hi")
	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/start", StartSessionRequest{Anonymous: false})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestSendMessageUnknownSession(t *testing.T) {
	t.Parallel()

	r := newTestRouter("hi")
	w := doJSON(t, r, http.MethodPost, "/api/v1/chat/message",
		ChatMessageRequest{SessionID: "missing", Message: "hello"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSendMessageEmptyMessage(t *testing.T) {
	t.Parallel()

	r := newTestRouter("hi")
	w := doJSON(t, r, http.MethodPost, "/api/v1/chat/message",
		ChatMessageRequest{SessionID: "some-id", Message: ""})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestSendMessageCrisisFlow(t *testing.T) {
	t.Parallel()

	r := newTestRouter("hi")
	id := startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat/message",
		ChatMessageRequest{SessionID: id, Message: "I want to die"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp ChatMessageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsFinal || !resp.CrisisDetected {
		t.Errorf("expected final crisis response, got %+v", resp)
	}

	// The session was purged; the next turn is a 404.
	w = doJSON(t, r, http.MethodPost, "/api/v1/chat/message",
		ChatMessageRequest{SessionID: id, Message: "hello"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after crisis purge, got %d", w.Code)
	}
}

func TestSendMessageAndHistory(t *testing.T) {
	t.Parallel()

	r := newTestRouter("That sounds hard. Tell me more.")
	id := startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat/message",
		ChatMessageRequest{SessionID: id, Message: "I am stressed about exams"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/chat/"+id+"/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", w.Code)
	}
	var resp HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(resp.History) == 0 {
		t.Fatal("expected non-empty history")
	}
	for _, m := range resp.History {
		if m.Role == domain.RoleSystem {
			t.Error("history must not expose the system message")
		}
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	t.Parallel()

	r := newTestRouter("hi")
	w := doJSON(t, r, http.MethodGet, "/api/v1/chat/missing/history", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestEndSession(t *testing.T) {
	t.Parallel()

	r := newTestRouter("Themes: coursework stress.")
	id := startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/end", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp EndSessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode end response: %v", err)
	}
	if resp.Summary == "" {
		t.Error("expected a summary")
	}
	if _, ok := resp.UserData["summary"]; !ok {
		t.Error("expected summary in user data")
	}

	// Ending twice is a 404: the session is gone.
	w = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/end", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second end, got %d", w.Code)
	}
}

func TestListArchivedSessions(t *testing.T) {
	t.Parallel()

	r := newTestRouter("Themes: sleep.")
	id := startSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/end", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/sessions/history?skip=0&limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var resp []ArchivedSessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 archived session, got %d", len(resp))
	}
	if resp[0].SessionID != id {
		t.Errorf("unexpected archived session ID: %s", resp[0].SessionID)
	}
}
