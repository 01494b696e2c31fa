package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T) (*QueryCache, *fakeClock) {
	t.Helper()
	backend, err := NewLRUBackend(64)
	require.NoError(t, err)
	clock := newFakeClock()
	return New(backend, logger.NewNop(), WithClock(clock.Now)), clock
}

type row struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

func TestCached_HitWithinTTLMissAfter(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	source := "v1"
	var calls atomic.Int32
	producer := func(context.Context) (string, error) {
		calls.Add(1)
		return source, nil
	}

	got, err := Cached(ctx, c, "k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	// The store changes behind the cache.
	source = "v2"
	clock.Advance(30 * time.Second)
	got, err = Cached(ctx, c, "k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "v1", got, "served from cache within ttl")
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(31 * time.Second)
	got, err = Cached(ctx, c, "k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "v2", got, "refreshed after ttl")
	assert.Equal(t, int32(2), calls.Load())
}

func TestCached_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)
	assert.Equal(t, 60*time.Second, c.DefaultTTL())

	var calls atomic.Int32
	producer := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	_, err := Cached(ctx, c, "k", 0, producer)
	require.NoError(t, err)
	clock.Advance(59 * time.Second)
	v, err := Cached(ctx, c, "k", 0, producer)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(time.Second)
	v, err = Cached(ctx, c, "k", 0, producer)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	boom := errors.New("boom")
	_, err := Cached(ctx, c, "k", time.Minute, func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	got, err := Cached(ctx, c, "k", time.Minute, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestCached_HitsAreIndependentCopies(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	producer := func(context.Context) (*row, error) {
		return &row{ID: "a", Tags: []string{"x"}}, nil
	}

	first, err := Cached(ctx, c, "row", time.Minute, producer)
	require.NoError(t, err)
	first.Tags[0] = "mutated"

	second, err := Cached(ctx, c, "row", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, second.Tags)
}

func TestInvalidate_BySubstring(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	var calls atomic.Int32
	producer := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	for _, key := range []string{TicketKey("als", "1"), AllTicketsKey("open"), HelperKey("u1")} {
		_, err := Cached(ctx, c, key, time.Minute, producer)
		require.NoError(t, err)
	}
	require.Equal(t, int32(3), calls.Load())

	require.NoError(t, c.Invalidate(ctx, TicketListsPattern))

	_, err := Cached(ctx, c, TicketKey("als", "1"), time.Minute, producer)
	require.NoError(t, err)
	_, err = Cached(ctx, c, HelperKey("u1"), time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "unrelated keys stay cached")

	_, err = Cached(ctx, c, AllTicketsKey("open"), time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())

	require.NoError(t, c.InvalidateAll(ctx))
	_, err = Cached(ctx, c, HelperKey("u1"), time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestCached_ConcurrentMissesShareOneProducerCall(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	release := make(chan struct{})
	var calls atomic.Int32
	producer := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const readers = 8
	var started sync.WaitGroup
	started.Add(readers)
	var g errgroup.Group
	for i := 0; i < readers; i++ {
		g.Go(func() error {
			started.Done()
			v, err := Cached(ctx, c, "hot", time.Minute, producer)
			if err == nil && v != "shared" {
				return errors.New("unexpected value " + v)
			}
			return err
		})
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, g.Wait())

	assert.LessOrEqual(t, calls.Load(), int32(readers))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	_, err := Cached(ctx, c, "hot", time.Minute, producer)
	require.NoError(t, err)
	total := calls.Load()
	_, err = Cached(ctx, c, "hot", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, total, calls.Load(), "filled entry is served")
}

func TestCached_FillRacingInvalidationIsDiscarded(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	source := "before"
	inProducer := make(chan struct{})
	proceed := make(chan struct{})

	done := make(chan string)
	go func() {
		v, _ := Cached(ctx, c, "k", time.Minute, func(context.Context) (string, error) {
			stale := source
			close(inProducer)
			<-proceed
			return stale, nil
		})
		done <- v
	}()

	<-inProducer
	source = "after"
	require.NoError(t, c.Invalidate(ctx, "k"))
	close(proceed)
	assert.Equal(t, "before", <-done)

	got, err := Cached(ctx, c, "k", time.Minute, func(context.Context) (string, error) {
		return source, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after", got, "stale fill was not stored")
}
