package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxEntries = 4096

// LRUBackend keeps entries in a bounded in-process LRU.
type LRUBackend struct {
	entries *lru.Cache[string, Entry]
}

func NewLRUBackend(maxEntries int) (*LRUBackend, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	entries, err := lru.New[string, Entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LRUBackend{entries: entries}, nil
}

func (b *LRUBackend) Name() string { return "memory" }

func (b *LRUBackend) Get(_ context.Context, key string) (Entry, bool, error) {
	e, ok := b.entries.Get(key)
	return e, ok, nil
}

func (b *LRUBackend) Set(_ context.Context, key string, e Entry, _ time.Duration) error {
	b.entries.Add(key, e)
	return nil
}

func (b *LRUBackend) DeleteMatching(_ context.Context, substr string) (int, error) {
	removed := 0
	for _, key := range b.entries.Keys() {
		if strings.Contains(key, substr) && b.entries.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

func (b *LRUBackend) Clear(_ context.Context) (int, error) {
	n := b.entries.Len()
	b.entries.Purge()
	return n, nil
}

func (b *LRUBackend) Close() error { return nil }
