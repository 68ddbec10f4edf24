// Package server exposes the public HTTP API: archive upload, conversion
// job creation, status polling, artifact download, and health.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"appforge/internal/api"
	"appforge/internal/config"
	"appforge/internal/logging"
	"appforge/internal/queue"
)

// Dispatcher wakes the background job loop after a job is enqueued.
type Dispatcher interface {
	Kick()
}

// Server owns the HTTP listener and request handling.
type Server struct {
	cfg        *config.Config
	store      *queue.Store
	dispatcher Dispatcher
	jobs       *api.JobService
	logger     *slog.Logger
	handler    http.Handler

	listener net.Listener
	server   *http.Server
}

// New constructs the API server. The dispatcher may be nil (jobs then wait
// for the next poll tick).
func New(cfg *config.Config, store *queue.Store, dispatcher Dispatcher, logger *slog.Logger) (*Server, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("server requires config and store")
	}

	s := &Server{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		jobs:       api.NewJobService(store),
		logger:     logging.NewComponentLogger(logger, "api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/convert", s.handleConvert)
	mux.HandleFunc("/api/status/", s.handleStatus)
	mux.HandleFunc("/api/download/", s.handleDownload)
	mux.HandleFunc("/api/jobs", s.handleJobs)

	s.handler = s.recoverMiddleware(s.corsMiddleware(mux))
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string) {
	s.writeJSON(w, status, api.ErrorResponse{OK: false, Error: code})
}
