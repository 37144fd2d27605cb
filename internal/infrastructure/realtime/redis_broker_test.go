package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/festival-pos/internal/infrastructure/realtime"
	"github.com/jhoicas/festival-pos/pkg/config"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con Redis omitida en modo -short")
	}
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker no disponible: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return host + ":" + port.Port()
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	addr := startRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := realtime.NewRedisClient(ctx, config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	b := realtime.NewRedisBroker(client, logger.Nop())
	sub, err := b.Subscribe(ctx, "g1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "g1"))
	select {
	case <-sub.Events():
	case <-ctx.Done():
		t.Fatal("no llegó el aviso por redis")
	}
}
