// Package cache provides the TTL query cache that fronts repository reads.
package cache

import (
	"context"
	"time"
)

// Entry is a cached value together with the moment it was stored.
type Entry struct {
	Value    []byte
	StoredAt time.Time
}

// Backend stores encoded entries. Implementations must be safe for
// concurrent use.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Set stores e under key. expire is a hint for backends that can drop
	// the entry on their own; freshness is still judged by StoredAt.
	Set(ctx context.Context, key string, e Entry, expire time.Duration) error
	// DeleteMatching removes every key containing substr and returns how
	// many were removed.
	DeleteMatching(ctx context.Context, substr string) (int, error)
	Clear(ctx context.Context) (int, error)
	Close() error
}
