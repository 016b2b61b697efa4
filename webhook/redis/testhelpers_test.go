//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	wbredis "github.com/hookrelay/dispatch/webhook/redis"
)

func setupRedisContainer(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	if len(addr) > 8 && addr[:8] == "redis://" {
		addr = addr[8:]
	}

	// Give the container a beat to accept connections.
	time.Sleep(500 * time.Millisecond)

	return addr
}

func createTestRepository(t *testing.T, addr string) *wbredis.Repository {
	t.Helper()
	repo, err := wbredis.NewRepository(addr, "", 0)
	require.NoError(t, err)
	return repo
}
