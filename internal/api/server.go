package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/easyquant/quantchat/internal/conversation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router *chi.Mux
	port   int
	ctrl   *conversation.Controller
}

func NewServer(port int, apiToken string, ctrl *conversation.Controller) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		ctrl:   ctrl,
	}

	router.Get("/health", s.health)

	router.Route("/api/v1/chat", func(r chi.Router) {
		if apiToken != "" {
			r.Use(BearerAuthMiddleware(apiToken))
		}
		r.Post("/send", s.send)
		r.Get("/history", s.history)
		r.Get("/sessions", s.sessions)
		r.Delete("/messages", s.clear)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// BearerAuthMiddleware rejects requests without the configured bearer token.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
