// Package server exposes the search and chat services over HTTP.
//
// ROUTES:
//   - GET  /healthz    liveness probe
//   - GET  /v1/stats   cache and request counters
//   - POST /v1/search  cached profile/talent search
//   - POST /v1/chat    one chat turn
//   - POST /v1/cache/clear  explicit cache invalidation
//   - GET  /ws/chat    websocket chat (one turn per frame)
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/amiqt/talent-gateway/internal/chat"
	"github.com/amiqt/talent-gateway/internal/config"
	"github.com/amiqt/talent-gateway/internal/monitoring"
	"github.com/amiqt/talent-gateway/internal/search"
)

// maxRequestBody bounds request bodies (1MB): chat/search payloads are
// small and a larger body is always a client bug.
const maxRequestBody = 1 << 20

// Server is the HTTP front of the gateway.
type Server struct {
	http    *http.Server
	search  *search.Service
	chat    *chat.Service
	metrics *monitoring.MetricsCollector
}

// New creates a Server with the standard middleware chain and routes.
func New(cfg config.ServerConfig, searchSvc *search.Service, chatSvc *chat.Service, metrics *monitoring.MetricsCollector) *Server {
	s := &Server{
		search:  searchSvc,
		chat:    chatSvc,
		metrics: metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("POST /v1/search", s.handleSearch)
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("POST /v1/cache/clear", s.handleCacheClear)
	mux.HandleFunc("GET /ws/chat", s.handleChatSocket)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      chain(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the configured handler, for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"requests": s.metrics.Stats(),
		"cache":    s.search.CacheStats(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	query := gjson.GetBytes(body, "query").String()
	result, err := s.search.Search(r.Context(), query)
	if errors.Is(err, search.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, "query is empty")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	reply, err := s.chat.Handle(r.Context(), body)
	switch {
	case errors.Is(err, chat.ErrInvalidRequest), errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, "chat failed")
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.search.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
