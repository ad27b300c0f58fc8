package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	repo "github.com/joseph-ayodele/swiftscan/internal/repository"
)

// ServiceName is the name reported through grpc.health.v1 alongside the overall status.
const ServiceName = "swiftscan"

// NewGRPCServer builds the daemon's gRPC server exposing the standard health
// service and reflection.
func NewGRPCServer(logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc.request", "method", info.FullMethod, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return resp, err
	}))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}

// WatchDB flips the health status with database reachability until ctx is done.
func WatchDB(ctx context.Context, db *repo.DB, hs *health.Server, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	check := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if err := PingDB(ctx, db, logger, interval/2); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(ServiceName, st)
	}
	check()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			check()
		}
	}
}
