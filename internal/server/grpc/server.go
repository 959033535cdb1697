// Package grpc exposes the operational gRPC endpoint: the standard health
// service, reporting whether the user directory is reachable.
package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
)

const probeInterval = 10 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	address string
	logger  logging.Logger
	health  *health.Server
	probe   Pinger
}

func NewServer(address string, l logging.Logger, probe Pinger) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "grpc_server"),
		health:  health.NewServer(),
		probe:   probe,
	}
}

// Refresh pings the directory and publishes the overall serving status.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		pingCtx, cancel := context.WithTimeout(ctx, probeInterval/2)
		defer cancel()
		if err := s.probe.Ping(pingCtx); err != nil {
			s.logger.Warn(ctx, "directory ping failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	return st
}

func (s *Server) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on listen until ctx is done, then marks the service
// NOT_SERVING and stops gracefully.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
