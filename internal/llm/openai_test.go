package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trupyai/trupy/internal/domain"
)

func newOpenAIServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAISendReturnsContent(t *testing.T) {
	t.Parallel()

	srv := newOpenAIServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"Hi! How can I help?"}}]}`)
	p := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})

	reply, err := p.Send(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply != "Hi! How can I help?" {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestOpenAISendEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := newOpenAIServer(t, http.StatusOK, `{"choices":[]}`)
	p := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})

	reply, err := p.Send(context.Background(), nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply != "" {
		t.Errorf("expected empty reply, got %q", reply)
	}
}

func TestOpenAISendServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := newOpenAIServer(t, http.StatusServiceUnavailable, `{"error":"overloaded"}`)
	p := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})

	_, err := p.Send(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("expected 503 to be transient, got %v", err)
	}
}

func TestOpenAISendAuthErrorIsNotTransient(t *testing.T) {
	t.Parallel()

	srv := newOpenAIServer(t, http.StatusUnauthorized, `{"error":"invalid api key"}`)
	p := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})

	_, err := p.Send(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Errorf("expected 401 to be non-transient, got %v", err)
	}
}

func TestOpenAISendRateLimitIsTransient(t *testing.T) {
	t.Parallel()

	srv := newOpenAIServer(t, http.StatusTooManyRequests, `{"error":"rate limited"}`)
	p := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})

	_, err := p.Send(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("expected 429 to be transient, got %v", err)
	}
}
