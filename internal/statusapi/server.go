// Package statusapi serves the agent's local observability endpoints:
// liveness, readiness, Prometheus metrics, and the last verdict.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sdrwatch/internal/monitor"
)

// Server exposes the status endpoints on a local listen address.
type Server struct {
	addr       string
	session    *monitor.Session
	registry   *prometheus.Registry
	middleware func(http.Handler) http.Handler
	logger     *log.Logger
}

// New returns a status server for the given session and metrics
// registry. mw wraps the router (request logging/tracing); pass nil to
// serve unwrapped.
func New(addr string, session *monitor.Session, registry *prometheus.Registry, mw func(http.Handler) http.Handler, logger *log.Logger) *Server {
	return &Server{
		addr:       addr,
		session:    session,
		registry:   registry,
		middleware: mw,
		logger:     logger,
	}
}

// Routes constructs the router for the status endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if s.session == nil {
			http.Error(w, "session not started", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/v1/status", s.handleStatus)

	var handler http.Handler = r
	if s.middleware != nil {
		handler = s.middleware(r)
	}
	return handler
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.session == nil {
		respondError(w, http.StatusServiceUnavailable, errors.New("session not started"))
		return
	}
	respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("ERROR status server shutdown: %v", err)
		}
	}()

	s.logger.Printf("INFO status server listening on %s", s.addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}
