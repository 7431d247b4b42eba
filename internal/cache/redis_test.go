package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(domain.CacheConfig{RedisURL: "not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	_, err := NewRedisCache(domain.CacheConfig{
		RedisURL:    "redis://127.0.0.1:1/0",
		PoolTimeout: time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisCache_KeyPrefix(t *testing.T) {
	r := NewRedisCacheWithClient(nil, "pe:", time.Hour)
	assert.Equal(t, "pe:prediction:abc", r.key("prediction:abc"))
}

func newContainerRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", host, port.Int())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisCache_GetSet(t *testing.T) {
	client := newContainerRedis(t)
	ctx := context.Background()
	r := NewRedisCacheWithClient(client, "pe:", time.Hour)

	_, ok, err := r.Get(ctx, "missing")
	require.NoError(t, err, "a miss is not an error")
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "vector-a", "severe", 0))
	val, ok, err := r.Get(ctx, "vector-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "severe", val)

	// Stored under the prefixed key with the default TTL.
	ttl, err := client.TTL(ctx, "pe:vector-a").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	require.NoError(t, r.Set(ctx, "vector-b", "normal", 30*time.Second))
	ttl, err = client.TTL(ctx, "pe:vector-b").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 30*time.Second)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, r.Ping(ctx))
}

func TestRedisCache_GetAfterClose(t *testing.T) {
	client := newContainerRedis(t)
	r := NewRedisCacheWithClient(client, "pe:", time.Hour)
	require.NoError(t, r.Close())

	_, ok, err := r.Get(context.Background(), "vector-a")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read cache key")
}
