// Package server exposes the relay over gRPC. Only the standard health
// service is served: load balancers and orchestrators query it to learn
// whether the relay loop is consuming commands.
package server

import (
	"context"
	"log/slog"
	"time"

	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RelayServiceName is the health service name reporting the relay loop.
const RelayServiceName = "whisperwall.Relay"

// ReadinessChecker reports whether a component is able to serve.
type ReadinessChecker interface {
	Running() bool
}

// NewServer builds the gRPC server with the health service registered.
// Unary calls are logged.
func NewServer(log *slog.Logger, healthServer *health.Server) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			sdkgrpc.UnaryLoggingInterceptor(log),
		))
	healthpb.RegisterHealthServer(s, healthServer)
	return s
}

// HealthWorker mirrors the state of the relay into the health server.
// The relay starts NOT_SERVING and flips as soon as its loop runs.
type HealthWorker struct {
	log          *slog.Logger
	health       *health.Server
	relay        ReadinessChecker
	pollInterval time.Duration
}

func NewHealthWorker(log *slog.Logger, healthServer *health.Server, relay ReadinessChecker, pollInterval time.Duration) *HealthWorker {
	healthServer.SetServingStatus(RelayServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthWorker{
		log:          log,
		health:       healthServer,
		relay:        relay,
		pollInterval: pollInterval,
	}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	current := healthpb.HealthCheckResponse_NOT_SERVING
	w.refresh(&current)
	for {
		select {
		case <-ctx.Done():
			w.health.SetServingStatus(RelayServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
			return nil
		case <-ticker.C:
			w.refresh(&current)
		}
	}
}

func (w *HealthWorker) refresh(current *healthpb.HealthCheckResponse_ServingStatus) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if w.relay.Running() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	if status == *current {
		return
	}
	*current = status
	w.health.SetServingStatus(RelayServiceName, status)
	w.log.Info("Relay health changed", "status", status.String())
}
