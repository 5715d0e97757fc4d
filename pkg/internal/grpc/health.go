package grpc

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	health "google.golang.org/grpc/health/grpc_health_v1"
)

// Check reports serving while the message database answers a ping.
func (v *Server) Check(ctx context.Context, _ *health.HealthCheckRequest) (*health.HealthCheckResponse, error) {
	status := health.HealthCheckResponse_SERVING

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if conn, err := v.db.DB(); err != nil {
		log.Warn().Err(err).Msg("Unable to get database connection for health check.")
		status = health.HealthCheckResponse_NOT_SERVING
	} else if err := conn.PingContext(ctx); err != nil {
		log.Warn().Err(err).Msg("Database did not answer the health check.")
		status = health.HealthCheckResponse_NOT_SERVING
	}

	return &health.HealthCheckResponse{Status: status}, nil
}
