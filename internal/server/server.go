package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"animesync/internal/catalog"
	"animesync/internal/logging"
	"animesync/internal/progress"
	"animesync/internal/reconcile"
)

// Controller is the subset of reconcile.Controller the server drives.
type Controller interface {
	Start(ctx context.Context) (reconcile.Report, error)
	StartAsync(ctx context.Context) (string, error)
	RequestStop()
	Running() bool
	Status() reconcile.Status
	Progress() *progress.Log
}

// Options configures a Server.
type Options struct {
	Bind           string
	Token          string
	StreamInterval time.Duration
	Metrics        http.Handler
	Logger         *slog.Logger
}

// Server serves the HTTP control surface.
type Server struct {
	bind     string
	interval time.Duration
	logger   *slog.Logger

	controller Controller
	store      catalog.Store

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

const defaultStreamInterval = time.Second

// New builds the server and its routes.
func New(controller Controller, store catalog.Store, opts Options) (*Server, error) {
	if controller == nil || store == nil {
		return nil, errors.New("server requires controller and store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := opts.StreamInterval
	if interval <= 0 {
		interval = defaultStreamInterval
	}

	s := &Server{
		bind:       strings.TrimSpace(opts.Bind),
		interval:   interval,
		logger:     logging.NewComponentLogger(logger, "api-server"),
		controller: controller,
		store:      store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync/start", s.handleStart)
	mux.HandleFunc("/api/sync/stop", s.handleStop)
	mux.HandleFunc("/api/sync/status", s.handleStatus)
	mux.HandleFunc("/api/sync/logs", s.handleLogs)
	mux.HandleFunc("/api/records", s.handleRecords)
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	s.handler = requestIDMiddleware(authMiddleware(strings.TrimSpace(opts.Token), mux))

	// Synchronous starts and the log stream stay open for a whole run, so
	// there is no write timeout.
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed, authenticated handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the bound listener address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens on the configured bind address and serves in the background
// until ctx ends or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("server bind address required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown", logging.Error(err))
		_ = s.server.Close()
	}
	s.listener = nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodAllowed(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}
