package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/testdb"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/keylock"
)

func TestTicketCounterRepository_Sequential(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketCounterRepository(testdb.Open(t), keylock.New())

	for want := 1; want <= 3; want++ {
		got, err := repo.Next(ctx, "Billing")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(want), got)
	}

	got, err := repo.Next(ctx, "als")
	require.NoError(t, err)
	assert.Equal(t, "1", got, "categories count independently")

	current, err := repo.Current(ctx, "billing")
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)

	current, err = repo.Current(ctx, "unknown")
	require.NoError(t, err)
	assert.Zero(t, current)

	_, err = repo.Next(ctx, "  ")
	assert.True(t, errors.IsValidationError(err))
}

func TestTicketCounterRepository_ConcurrentNumbersAreDistinct(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketCounterRepository(testdb.Open(t), keylock.New())

	_, err := repo.Next(ctx, "als")
	require.NoError(t, err)

	const callers = 25
	var (
		mu  sync.Mutex
		got []int
	)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			n, err := repo.Next(ctx, "als")
			if err != nil {
				return err
			}
			v, err := strconv.Atoi(n)
			if err != nil {
				return err
			}
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Ints(got)
	want := make([]int, callers)
	for i := range want {
		want[i] = i + 2
	}
	assert.Equal(t, want, got)
}

func TestTicketCounterRepository_AllocateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketCounterRepository(testdb.Open(t), keylock.New())

	failed := errors.NewConflictError("ticket already exists")
	err := repo.Allocate(ctx, "billing", "", func(_ context.Context, number string) error {
		assert.Equal(t, "1", number)
		return failed
	})
	assert.True(t, errors.IsConflictError(err))

	current, err := repo.Current(ctx, "billing")
	require.NoError(t, err)
	assert.Zero(t, current)

	got, err := repo.Next(ctx, "billing")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestTicketCounterRepository_AllocateRaisesForExplicitNumbers(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketCounterRepository(testdb.Open(t), keylock.New())

	keep := func(_ context.Context, _ string) error { return nil }

	require.NoError(t, repo.Allocate(ctx, "als", "10", keep))
	require.NoError(t, repo.Allocate(ctx, "als", "4", keep))
	require.NoError(t, repo.Allocate(ctx, "als", "vip", keep))

	current, err := repo.Current(ctx, "als")
	require.NoError(t, err)
	assert.Equal(t, int64(10), current)

	got, err := repo.Next(ctx, "als")
	require.NoError(t, err)
	assert.Equal(t, "11", got)

	var seen string
	require.NoError(t, repo.Allocate(ctx, "als", "vip", func(_ context.Context, number string) error {
		seen = number
		return nil
	}))
	assert.Equal(t, "vip", seen)
}
