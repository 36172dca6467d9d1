// Package server exposes the pipeline entry point over HTTP. The external
// scheduler (or an operator) POSTs a user id; the response reports the
// created suggestions or a structured error.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/postpilot/postpilot/internal/pipeline"
)

// Runner is the pipeline entry point contract.
type Runner interface {
	Run(ctx context.Context, userID string) (*pipeline.Result, error)
}

// Server is the HTTP surface over the suggestion pipeline.
type Server struct {
	runner     Runner
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a server listening on addr.
func New(addr string, runner Runner, logger *slog.Logger) *Server {
	s := &Server{
		runner: runner,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/suggestions/run", s.handleRun)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// Runs block on source fetches and LLM calls; the pipeline's own
		// stage timeouts bound the total.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. It blocks until shutdown or listen failure.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type runRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	start := time.Now()
	result, err := s.runner.Run(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnknownUser) {
			writeError(w, http.StatusNotFound, "unknown user: "+req.UserID)
			return
		}
		s.logger.Error("pipeline run failed", "user_id", req.UserID, "error", err, "duration", time.Since(start))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.logger.Info("pipeline run finished", "user_id", req.UserID,
		"status", result.Status, "suggestions", len(result.Suggestions), "duration", time.Since(start))
	if result.Suggestions == nil {
		result.Suggestions = []pipeline.Suggestion{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
