package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisBackend_SetGet(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	b := NewRedisBackend(client, "cd:")

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 3, 1, 12, 0, 0, 123_000_000, time.UTC)
	require.NoError(t, b.Set(ctx, "ticket:als:1", Entry{Value: []byte(`{"a":1}`), StoredAt: at}, time.Minute))

	e, ok, err := b.Get(ctx, "ticket:als:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(e.Value))
	assert.True(t, at.Equal(e.StoredAt))

	assert.True(t, mr.Exists("cd:ticket:als:1"))
	assert.Equal(t, time.Minute, mr.TTL("cd:ticket:als:1"))
}

func TestRedisBackend_DeleteMatchingStaysInsidePrefix(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	b := NewRedisBackend(client, "cd:")

	for _, key := range []string{"tickets:all:open", "tickets:user:u1:", "helper:u1"} {
		require.NoError(t, b.Set(ctx, key, Entry{Value: []byte("1"), StoredAt: time.Now()}, time.Minute))
	}
	require.NoError(t, mr.Set("other:tickets:all", "keep"))

	n, err := b.DeleteMatching(ctx, "tickets:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("cd:helper:u1"))
	assert.True(t, mr.Exists("other:tickets:all"))

	n, err = b.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, mr.Exists("other:tickets:all"))
}

func TestRedisBackend_BehindQueryCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c, err := NewFromConfig(ctx,
		config.CacheConfig{Backend: config.CacheBackendRedis, KeyPrefix: "cd:", DefaultTTLSeconds: 30},
		config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)},
		logger.NewNop(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, 30*time.Second, c.DefaultTTL())

	calls := 0
	producer := func(context.Context) (row, error) {
		calls++
		return row{ID: "r1", Tags: []string{"a"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Cached(ctx, c, HelperKey("u1"), 0, producer)
		require.NoError(t, err)
		assert.Equal(t, "r1", got.ID)
	}
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx, HelperKey("u1")))
	_, err = Cached(ctx, c, HelperKey("u1"), 0, producer)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestNewFromConfig_RedisUnreachable(t *testing.T) {
	_, err := NewFromConfig(context.Background(),
		config.CacheConfig{Backend: config.CacheBackendRedis},
		config.RedisConfig{Host: "127.0.0.1", Port: 1},
		logger.NewNop(),
	)
	assert.Error(t, err)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
	assert.Equal(t, "plain:key", escapeGlob("plain:key"))
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
