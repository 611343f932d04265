package db

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, config.Redis{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNewRedisClient(t *testing.T) {
	if testing.Short() {
		t.Skip("redis container tests skipped in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("could not start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, config.Redis{Addr: connStr})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(ctx).Err())
}
