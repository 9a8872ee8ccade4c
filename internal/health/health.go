// Package health exposes store health over the standard gRPC health
// checking protocol.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the service reported alongside the overall status.
const ServiceName = "taskchat.Chat"

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service keeps the gRPC health status in line with periodic store pings.
type Service struct {
	db      Pinger
	timeout time.Duration
	srv     *grpchealth.Server
	logger  *slog.Logger

	mu      sync.Mutex
	serving bool
}

// NewService creates a health service. Until the first check the status is
// NOT_SERVING.
func NewService(db Pinger, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		db:      db,
		timeout: timeout,
		srv:     grpchealth.NewServer(),
		logger:  logger,
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

// NewServer builds a gRPC server exposing the health service.
func (s *Service) NewServer() *grpc.Server {
	g := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    2 * time.Minute,
			Timeout: 10 * time.Second,
		}),
	)
	grpc_health_v1.RegisterHealthServer(g, s.srv)
	reflection.Register(g)
	return g
}

// Check pings the store once and updates the status. It reports whether
// the store is reachable.
func (s *Service) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.Ping(ctx)
	ok := err == nil

	s.mu.Lock()
	changed := ok != s.serving
	s.serving = ok
	s.mu.Unlock()

	if ok {
		s.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	if changed {
		if ok {
			s.logger.Info("Store reachable, reporting SERVING")
		} else {
			s.logger.Warn("Store unreachable, reporting NOT_SERVING", "error", err)
		}
	}
	return ok
}

// Run checks immediately and then every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	s.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (s *Service) Shutdown() {
	s.srv.Shutdown()
}

func (s *Service) setStatus(st grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.srv.SetServingStatus("", st)
	s.srv.SetServingStatus(ServiceName, st)
}
