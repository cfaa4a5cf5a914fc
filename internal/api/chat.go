package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/easyquant/quantchat/internal/chat"
	"github.com/easyquant/quantchat/internal/conversation"
)

// SendRequest is the payload for POST /api/v1/chat/send. Platform optionally
// names the backtesting target selected in the front end.
type SendRequest struct {
	Message  string `json:"message"`
	Platform string `json:"platform,omitempty"`
}

// SendResponse carries the persisted reply. Gateway failures are folded into
// Reply (the fallback text), never into an HTTP error.
type SendResponse struct {
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	aiMsg, err := s.ctrl.Send(r.Context(), req.Message, req.Platform)
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message must not be empty"})
		return
	case errors.Is(err, conversation.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a send is already in flight"})
		return
	case err != nil:
		// Persistence failure on the user turn — the pipeline aborted
		// before the model was called.
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record message, nothing was sent"})
		return
	}

	writeJSON(w, http.StatusOK, SendResponse{Reply: aiMsg.Content, CreatedAt: aiMsg.CreatedAt})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.ctrl.LoadHistory(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.ctrl.Sessions()
	if sessions == nil {
		sessions = []chat.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Clear(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear conversation"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
