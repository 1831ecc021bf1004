// Package health exposes the runtime state over the standard gRPC health
// checking protocol.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rmacdonaldsmith/aomesh/pkg/framework"
)

// ServiceName is the health service name reporting the runtime state.
const ServiceName = "aomesh.Framework"

// DefaultPollInterval is how often Watch refreshes the runtime state.
const DefaultPollInterval = time.Second

// Server serves grpc.health.v1.Health for a runtime.
type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
	logger *slog.Logger
}

// NewServer creates a health server. Both the overall ("") and the
// ServiceName status start as NOT_SERVING.
func NewServer(logger *slog.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: grpchealth.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.SetServing(false)
	return s
}

// SetServing updates the reported status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Watch polls fw every interval and mirrors its health until ctx is done.
func (s *Server) Watch(ctx context.Context, fw framework.Framework, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := false
	for {
		status, err := fw.Health(ctx)
		serving := err == nil && status.Healthy
		if serving != last {
			s.logger.Info("health status changed", "serving", serving, "message", status.Message)
			last = serving
		}
		s.SetServing(serving)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("grpc health listening", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop marks every service NOT_SERVING and stops the server gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
