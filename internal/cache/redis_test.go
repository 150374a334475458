//go:build integration

package cache

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests against a live Redis
// Run with: go test -v -tags=integration ./internal/cache/...

func setupTestCache(t *testing.T) *RedisCache {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	c, err := NewRedisCache(Config{Addr: net.JoinHostPort(host, "6379"), DB: 15})
	require.NoError(t, err, "Failed to connect to test Redis")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_SetGet(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "test:odds", []byte(`[]`), time.Minute)

	value, ok := c.Get(ctx, "test:odds")
	require.True(t, ok)
	assert.Equal(t, []byte(`[]`), value)
}

func TestRedisCache_Miss(t *testing.T) {
	c := setupTestCache(t)

	_, ok := c.Get(context.Background(), "test:missing-key")
	assert.False(t, ok)
}

func TestRedisCache_Expiry(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "test:short", []byte("x"), 50*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	_, ok := c.Get(ctx, "test:short")
	assert.False(t, ok)
}
