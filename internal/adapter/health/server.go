package health

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/binrental/binrental-backend/internal/adapter/repository/postgres"
)

// Server exposes the standard gRPC health service for container orchestrators
// and load balancer probes. Serving status follows database reachability.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	db           *postgres.DB
}

// NewServer creates a new health Server instance.
func NewServer(db *postgres.DB) *Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		grpcServer:   grpcServer,
		healthServer: healthServer,
		db:           db,
	}
}

// Serve listens on addr and keeps the reported status in sync with database
// reachability until ctx is cancelled. Blocks until the listener fails or the
// server stops.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go s.watch(ctx)

	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	s.update(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.update(ctx)
		}
	}
}

func (s *Server) update(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.healthServer.SetServingStatus("", status)
}
