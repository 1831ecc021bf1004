// Package httpapi serves the diagnostics API of a runtime.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmacdonaldsmith/aomesh/pkg/event"
)

// Config holds server configuration
type Config struct {
	// Addr is the host:port to listen on
	Addr string

	// SecretKey signs admin tokens; empty disables the admin routes
	SecretKey string

	// Gatherer backs the /metrics endpoint; nil disables it
	Gatherer prometheus.Gatherer

	// SignalName labels signals in responses (optional)
	SignalName func(event.Signal) string

	// Version is reported by the root endpoint
	Version string

	// Logger for request logs
	Logger *slog.Logger
}

// Server represents the HTTP API server
type Server struct {
	jwtAuth    *JWTAuth
	handlers   *Handlers
	middleware *Middleware
	server     *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP API server
func NewServer(backend Backend, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jwtAuth := NewJWTAuth(config.SecretKey)
	s := &Server{
		jwtAuth:    jwtAuth,
		handlers:   NewHandlers(backend, config.SignalName, config.Version),
		middleware: NewMiddleware(jwtAuth, logger),
		logger:     logger,
	}

	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.setupRoutes(config.Gatherer),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
	return s
}

// Handler returns the routed handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Auth returns the token authority of this server
func (s *Server) Auth() *JWTAuth {
	return s.jwtAuth
}

// Start listens on the configured address and serves until Stop.
// It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve serves requests on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("http api listening", "addr", lis.Addr().String())
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	m := s.middleware

	api := func(handler http.HandlerFunc) http.Handler {
		return m.ContentType(m.MethodGet(handler))
	}

	// Health endpoint (no auth required)
	mux.Handle("/api/v1/health", api(s.handlers.Health))

	// Admin endpoints (admin auth required)
	mux.Handle("/api/v1/admin/subscriptions", api(m.AdminRequired(s.handlers.AdminListSubscriptions)))
	mux.Handle("/api/v1/admin/pools", api(m.AdminRequired(s.handlers.AdminListPools)))
	mux.Handle("/api/v1/admin/objects", api(m.AdminRequired(s.handlers.AdminListObjects)))

	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Root endpoint with API info
	mux.Handle("/", api(s.handlers.Root))

	return m.Recovery(m.Logging(mux))
}
