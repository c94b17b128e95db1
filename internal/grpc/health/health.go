package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"scamguard-lab/pkg/logger"
)

// ServiceName is the name reported alongside the overall status
const ServiceName = "scamguard.v1.ScamAnalyzer"

// Pinger is a dependency whose reachability decides the serving status
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check names a dependency for logging
type Check struct {
	Name   string
	Pinger Pinger
}

// Register adds the standard health service to grpcServer and keeps its
// status in step with checks until ctx is done
func Register(ctx context.Context, grpcServer *grpc.Server, interval time.Duration, log *logger.Logger, checks ...Check) *grpchealth.Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	log = log.WithComponent("grpc-health")

	healthServer := grpchealth.NewServer()
	setStatus(healthServer, evaluate(ctx, log, checks))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				healthServer.Shutdown()
				return
			case <-ticker.C:
				setStatus(healthServer, evaluate(ctx, log, checks))
			}
		}
	}()

	return healthServer
}

func evaluate(ctx context.Context, log *logger.Logger, checks []Check) grpc_health_v1.HealthCheckResponse_ServingStatus {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	for _, c := range checks {
		if c.Pinger == nil {
			continue
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("check", c.Name).Msg("dependency unhealthy")
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	return status
}

func setStatus(s *grpchealth.Server, status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.SetServingStatus("", status)
	s.SetServingStatus(ServiceName, status)
}
