// Package httpapi exposes the studio session over HTTP. Intents are JSON
// POSTs; the published view is readable at /api/view and streamed over /ws.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/service"
)

// ArtifactSource serves stored visual renderings by id.
type ArtifactSource interface {
	GetByID(ctx context.Context, id string) (*domain.ArtifactBlob, error)
}

// Server routes HTTP requests to a StudioService.
type Server struct {
	studio    service.StudioService
	artifacts ArtifactSource
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *httpMetrics
	upgrader  websocket.Upgrader
	pingEvery time.Duration
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRegistry records request metrics on reg and serves it at /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithPingInterval sets the websocket keepalive period.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) { s.pingEvery = d }
}

// NewServer builds a Server. artifacts may be nil, in which case
// /api/artifacts answers 404.
func NewServer(studio service.StudioService, artifacts ArtifactSource, opts ...Option) (*Server, error) {
	s := &Server{
		studio:    studio,
		artifacts: artifacts,
		logger:    slog.New(slog.DiscardHandler),
		pingEvery: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry != nil {
		m, err := newHTTPMetrics(s.registry)
		if err != nil {
			return nil, err
		}
		s.metrics = m
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	if s.metrics != nil {
		r.Use(s.metrics.middleware)
	}

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.streamViews).Methods(http.MethodGet)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/view", s.view).Methods(http.MethodGet)
	api.HandleFunc("/outline", s.outline).Methods(http.MethodGet)
	api.HandleFunc("/generate", s.generate).Methods(http.MethodPost)
	api.HandleFunc("/expand", s.expand).Methods(http.MethodPost)
	api.HandleFunc("/navigate", s.navigate).Methods(http.MethodPost)
	api.HandleFunc("/slides/{id}/retry", s.retryVisual).Methods(http.MethodPost)
	api.HandleFunc("/history", s.history).Methods(http.MethodGet)
	api.HandleFunc("/history/{id}", s.history).Methods(http.MethodGet)
	api.HandleFunc("/artifacts/{id}", s.artifact).Methods(http.MethodGet)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
