package grpc

import (
	"context"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"toolshare-backend/internal/api/grpc/interceptor"
	"toolshare-backend/internal/logger"
)

// ServiceName is the health service name reported alongside the overall ("") status.
const ServiceName = "toolshare.v1.API"

const pingTimeout = 2 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthMonitor keeps the standard gRPC health service in line with database
// reachability.
type HealthMonitor struct {
	srv      *health.Server
	db       Pinger
	interval time.Duration
	serving  atomic.Bool
}

func NewHealthMonitor(db Pinger, interval time.Duration) *HealthMonitor {
	m := &HealthMonitor{
		srv:      health.NewServer(),
		db:       db,
		interval: interval,
	}
	m.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return m
}

func (m *HealthMonitor) set(status healthpb.HealthCheckResponse_ServingStatus) {
	m.srv.SetServingStatus("", status)
	m.srv.SetServingStatus(ServiceName, status)
}

// Check pings the database once and publishes the result.
func (m *HealthMonitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := m.db.Ping(ctx)
	serving := err == nil
	if m.serving.Swap(serving) != serving {
		if serving {
			logger.Info("Database reachable, reporting SERVING")
		} else {
			logger.Warn("Database unreachable, reporting NOT_SERVING", "error", err)
		}
	}

	if serving {
		m.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		m.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return serving
}

// Run checks immediately and then every interval until ctx is done, after
// which all watchers are told the server is going away.
func (m *HealthMonitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.srv.Shutdown()
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// NewServer builds the gRPC server exposing the health service and reflection.
func NewServer(m *HealthMonitor) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.Recovery(),
			interceptor.Logging(),
		),
	)
	healthpb.RegisterHealthServer(s, m.srv)
	// Register reflection service for grpcurl
	reflection.Register(s)
	return s
}
