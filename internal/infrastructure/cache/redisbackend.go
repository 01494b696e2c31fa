package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carrydesk/carrydesk/internal/shared/config"
)

const (
	fieldValue    = "v"
	fieldStoredAt = "at"
	scanBatch     = 200
)

// RedisBackend stores each entry as a hash under prefix+key so the cache
// can live outside the process heap.
type RedisBackend struct {
	client *redis.Client
	prefix string
	owned  bool
}

// NewRedisBackend wraps an existing client. The caller keeps ownership of
// client.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// DialRedisBackend connects to the configured server and verifies it
// answers.
func DialRedisBackend(ctx context.Context, cfg config.RedisConfig, prefix string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.GetAddr(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisBackend{client: client, prefix: prefix, owned: true}, nil
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) key(key string) string {
	return b.prefix + key
}

func (b *RedisBackend) Get(ctx context.Context, key string) (Entry, bool, error) {
	values, err := b.client.HGetAll(ctx, b.key(key)).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	raw, ok := values[fieldValue]
	if !ok {
		return Entry{}, false, nil
	}
	storedAt, err := strconv.ParseInt(values[fieldStoredAt], 10, 64)
	if err != nil {
		return Entry{}, false, nil
	}

	return Entry{Value: []byte(raw), StoredAt: time.UnixMilli(storedAt).UTC()}, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, e Entry, expire time.Duration) error {
	k := b.key(key)

	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, k, fieldValue, e.Value, fieldStoredAt, e.StoredAt.UnixMilli())
	if expire > 0 {
		pipe.Expire(ctx, k, expire)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (b *RedisBackend) DeleteMatching(ctx context.Context, substr string) (int, error) {
	return b.deleteByPattern(ctx, escapeGlob(b.prefix)+"*"+escapeGlob(substr)+"*")
}

func (b *RedisBackend) Clear(ctx context.Context) (int, error) {
	return b.deleteByPattern(ctx, escapeGlob(b.prefix)+"*")
}

func (b *RedisBackend) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := b.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := b.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to delete cache keys: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (b *RedisBackend) Close() error {
	if !b.owned {
		return nil
	}
	return b.client.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
