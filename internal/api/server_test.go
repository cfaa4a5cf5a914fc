package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easyquant/quantchat/internal/chat"
	"github.com/easyquant/quantchat/internal/conversation"
	"github.com/easyquant/quantchat/internal/deepseek"
	"github.com/google/uuid"
)

type stubStore struct {
	msgs []chat.Message
	next time.Time
}

func (s *stubStore) InsertMessage(_ context.Context, role chat.Role, content string) (chat.Message, error) {
	if s.next.IsZero() {
		s.next = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	}
	msg := chat.Message{ID: uuid.New(), Role: role, Content: content, CreatedAt: s.next}
	s.next = s.next.Add(time.Second)
	s.msgs = append(s.msgs, msg)
	return msg, nil
}

func (s *stubStore) SelectMessages(_ context.Context) ([]chat.Message, error) {
	out := make([]chat.Message, len(s.msgs))
	copy(out, s.msgs)
	return out, nil
}

func (s *stubStore) DeleteAllMessages(_ context.Context) error {
	s.msgs = nil
	return nil
}

type stubCompleter struct {
	reply string
	err   error
}

func (c *stubCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func newTestServer(t *testing.T, llm conversation.Completer, apiToken string) (*Server, *stubStore) {
	t.Helper()
	store := &stubStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := conversation.New(store, llm, nil, conversation.Config{}, logger)
	return NewServer(8780, apiToken, ctrl), store
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{reply: "ok"}, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestSendEndpoint(t *testing.T) {
	srv, store := newTestServer(t, &stubCompleter{reply: "here is your strategy"}, "")

	req := httptest.NewRequest("POST", "/api/v1/chat/send",
		strings.NewReader(`{"message": "write a dual moving average strategy", "platform": "ptrade"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body SendResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Reply != "here is your strategy" {
		t.Errorf("reply = %q", body.Reply)
	}
	if len(store.msgs) != 2 {
		t.Errorf("expected 2 persisted messages, got %d", len(store.msgs))
	}
}

func TestSendEndpoint_EmptyMessage(t *testing.T) {
	srv, store := newTestServer(t, &stubCompleter{reply: "unused"}, "")

	req := httptest.NewRequest("POST", "/api/v1/chat/send", strings.NewReader(`{"message": "   "}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for whitespace message, got %d", w.Code)
	}
	if len(store.msgs) != 0 {
		t.Errorf("expected no writes, got %d", len(store.msgs))
	}
}

func TestSendEndpoint_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{reply: "unused"}, "")

	req := httptest.NewRequest("POST", "/api/v1/chat/send", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", w.Code)
	}
}

func TestSendEndpoint_GatewayFailureReturnsFallback(t *testing.T) {
	llm := &stubCompleter{err: &deepseek.TransportError{Err: errors.New("connection refused")}}
	srv, _ := newTestServer(t, llm, "")

	req := httptest.NewRequest("POST", "/api/v1/chat/send", strings.NewReader(`{"message": "hello"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("gateway failure must still answer 200, got %d", w.Code)
	}

	var body SendResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Reply != conversation.FallbackReply {
		t.Errorf("reply = %q, want the fallback text", body.Reply)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{reply: "hello back"}, "")

	send := httptest.NewRequest("POST", "/api/v1/chat/send", strings.NewReader(`{"message": "hi"}`))
	srv.router.ServeHTTP(httptest.NewRecorder(), send)

	req := httptest.NewRequest("GET", "/api/v1/chat/history", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Messages))
	}
	if body.Messages[0].Role != chat.RoleUser || body.Messages[1].Role != chat.RoleAI {
		t.Errorf("unexpected role order: %s, %s", body.Messages[0].Role, body.Messages[1].Role)
	}
}

func TestHistoryEndpoint_EmptyLog(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{reply: "unused"}, "")

	req := httptest.NewRequest("GET", "/api/v1/chat/history", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"messages":[]`) {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestSessionsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{reply: "hello back"}, "")

	send := httptest.NewRequest("POST", "/api/v1/chat/send", strings.NewReader(`{"message": "hi there friend"}`))
	srv.router.ServeHTTP(httptest.NewRecorder(), send)

	req := httptest.NewRequest("GET", "/api/v1/chat/sessions", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Sessions []chat.Session `json:"sessions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(body.Sessions))
	}
	if body.Sessions[0].Title != "hi there f…" {
		t.Errorf("session title = %q", body.Sessions[0].Title)
	}
	if len(body.Sessions[0].Messages) != 2 {
		t.Errorf("session has %d messages, want 2", len(body.Sessions[0].Messages))
	}
}

func TestClearEndpoint(t *testing.T) {
	srv, store := newTestServer(t, &stubCompleter{reply: "hello back"}, "")

	send := httptest.NewRequest("POST", "/api/v1/chat/send", strings.NewReader(`{"message": "hi"}`))
	srv.router.ServeHTTP(httptest.NewRecorder(), send)

	req := httptest.NewRequest("DELETE", "/api/v1/chat/messages", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(store.msgs) != 0 {
		t.Errorf("store still holds %d messages", len(store.msgs))
	}
}

func TestBearerAuth(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{reply: "ok"}, "chat-secret")

	req := httptest.NewRequest("GET", "/api/v1/chat/history", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/chat/history", nil)
	req.Header.Set("Authorization", "Bearer chat-secret")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}

	// Health stays open.
	req = httptest.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected open health endpoint, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubCompleter{reply: "ok"}, "")

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
