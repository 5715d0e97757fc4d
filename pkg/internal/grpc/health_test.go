package grpc

import (
	"context"
	"testing"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	health "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthCheck(t *testing.T) {
	db := testutil.NewTestDB(t)
	server := NewGrpc(db)

	resp, err := server.Check(context.Background(), &health.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, health.HealthCheckResponse_SERVING, resp.GetStatus())

	conn, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	resp, err = server.Check(context.Background(), &health.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, health.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
