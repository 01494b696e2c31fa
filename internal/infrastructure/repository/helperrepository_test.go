package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrydesk/carrydesk/internal/domain/helper"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/testdb"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/keylock"
)

func createHelper(t *testing.T, repo *HelperRepository, userID string) *helper.Helper {
	t.Helper()
	h, err := helper.NewHelper(userID, userID+"#tag", "helper")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), h))
	return h
}

func vouchFor(t *testing.T, helperID, ticketID, raterID string, rating int, kind helper.VouchKind) *helper.Vouch {
	t.Helper()
	v, err := helper.NewVouch(helper.VouchParams{
		TicketID: ticketID,
		HelperID: helperID,
		RaterID:  raterID,
		Rating:   rating,
		Reason:   "helped",
		Kind:     kind,
	})
	require.NoError(t, err)
	return v
}

func TestHelperRepository_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewHelperRepository(testdb.Open(t))

	h := createHelper(t, repo, "h1")
	assert.NotZero(t, h.ID())

	dup, err := helper.NewHelper("h1", "", "")
	require.NoError(t, err)
	assert.True(t, errors.IsConflictError(repo.Create(ctx, dup)))

	rank := "senior"
	paid := true
	require.NoError(t, h.Apply(helper.Patch{Rank: &rank, IsPaidHelper: &paid}))
	require.NoError(t, repo.Update(ctx, h))

	got, err := repo.GetByUserID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "senior", got.Rank())
	assert.True(t, got.IsPaidHelper())
	assert.True(t, h.HelperSince().Equal(got.HelperSince()))

	_, err = repo.GetByUserID(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestVouchRepository_RecordAggregates(t *testing.T) {
	ctx := context.Background()
	conn := testdb.Open(t)
	helpers := NewHelperRepository(conn)
	vouches := NewVouchRepository(conn, keylock.New())

	createHelper(t, helpers, "h1")

	v1 := vouchFor(t, "h1", "t1", "r1", 5, helper.VouchKindRegular)
	h, err := vouches.Record(ctx, v1)
	require.NoError(t, err)
	assert.NotZero(t, v1.ID())
	assert.Equal(t, 1, h.TotalVouches())
	assert.InDelta(t, 5.0, h.AverageRating(), 1e-9)

	h, err = vouches.Record(ctx, vouchFor(t, "h1", "t2", "r1", 4, helper.VouchKindRegular))
	require.NoError(t, err)
	assert.InDelta(t, 4.5, h.AverageRating(), 1e-9)

	h, err = vouches.Record(ctx, vouchFor(t, "h1", "t3", "r2", 4, helper.VouchKindPaid))
	require.NoError(t, err)
	assert.InDelta(t, 13.0/3.0, h.AverageRating(), 1e-9, "full precision mean")

	stored, err := helpers.GetByUserID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalVouches())
	assert.Equal(t, 3, stored.WeeklyVouches())
	assert.Equal(t, 3, stored.MonthlyVouches())
	assert.Equal(t, 2, stored.VouchesForPaidAccess(), "paid vouches do not count toward paid access")
	assert.InDelta(t, 13.0/3.0, stored.AverageRating(), 1e-9)

	list, err := vouches.ListByHelper(ctx, "h1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t3", list[0].TicketID(), "newest first")

	ok, err := vouches.Exists(ctx, "t1", "r1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = vouches.Exists(ctx, "t1", "r2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVouchRepository_DuplicateLeavesHelperUntouched(t *testing.T) {
	ctx := context.Background()
	conn := testdb.Open(t)
	helpers := NewHelperRepository(conn)
	vouches := NewVouchRepository(conn, keylock.New())

	createHelper(t, helpers, "h1")
	_, err := vouches.Record(ctx, vouchFor(t, "h1", "t1", "r1", 5, helper.VouchKindRegular))
	require.NoError(t, err)

	_, err = vouches.Record(ctx, vouchFor(t, "h1", "t1", "r1", 1, helper.VouchKindRegular))
	assert.True(t, errors.IsConflictError(err), "got %v", err)

	stored, err := helpers.GetByUserID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalVouches())
	assert.InDelta(t, 5.0, stored.AverageRating(), 1e-9)
}

func TestVouchRepository_UnknownHelperWritesNothing(t *testing.T) {
	ctx := context.Background()
	conn := testdb.Open(t)
	vouches := NewVouchRepository(conn, keylock.New())

	_, err := vouches.Record(ctx, vouchFor(t, "ghost", "t1", "r1", 5, helper.VouchKindRegular))
	assert.True(t, errors.IsNotFoundError(err))

	ok, err := vouches.Exists(ctx, "t1", "r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVouchRepository_JoinsOuterTransaction(t *testing.T) {
	ctx := context.Background()
	conn := testdb.Open(t)
	helpers := NewHelperRepository(conn)
	vouches := NewVouchRepository(conn, keylock.New())
	createHelper(t, helpers, "h1")

	rollback := errors.NewInternalError("abort")
	err := db.NewTransactionManager(conn).RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := vouches.Record(ctx, vouchFor(t, "h1", "t1", "r1", 5, helper.VouchKindRegular)); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	stored, err := helpers.GetByUserID(ctx, "h1")
	require.NoError(t, err)
	assert.Zero(t, stored.TotalVouches())
}

func TestHelperRepository_ListTopAndResets(t *testing.T) {
	ctx := context.Background()
	conn := testdb.Open(t)
	helpers := NewHelperRepository(conn)
	vouches := NewVouchRepository(conn, keylock.New())

	for _, id := range []string{"a", "b", "c"} {
		createHelper(t, helpers, id)
	}
	record := func(helperID, ticketID string, rating int) {
		_, err := vouches.Record(ctx, vouchFor(t, helperID, ticketID, "r", rating, helper.VouchKindRegular))
		require.NoError(t, err)
	}
	record("b", "t1", 5)
	record("b", "t2", 5)
	record("c", "t3", 3)
	record("a", "t4", 5)

	top, err := helpers.ListTop(ctx, helper.PeriodAllTime, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].UserID())
	assert.Equal(t, "a", top[1].UserID(), "ties broken by average rating")

	n, err := helpers.ResetWeeklyVouches(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = helpers.ResetWeeklyVouches(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "already reset")

	weekly, err := helpers.ListTop(ctx, helper.PeriodWeekly, 10)
	require.NoError(t, err)
	for _, h := range weekly {
		assert.Zero(t, h.WeeklyVouches())
		assert.NotZero(t, h.TotalVouches())
	}

	n, err = helpers.ResetMonthlyVouches(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = helpers.ListTop(ctx, helper.Period("daily"), 10)
	assert.True(t, errors.IsValidationError(err))
}

func TestPaidHelperProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPaidHelperProfileRepository(testdb.Open(t))

	p, err := helper.NewPaidHelperProfile("h1", 12)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))

	dup, err := helper.NewPaidHelperProfile("h1", 1)
	require.NoError(t, err)
	assert.True(t, errors.IsConflictError(repo.Create(ctx, dup)))

	require.NoError(t, p.SetBio("carries every raid"))
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByUserID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "carries every raid", got.Bio())
	require.NotNil(t, got.BioSetAt())
	assert.Equal(t, 12, got.VouchesForAccess())

	_, err = repo.GetByUserID(ctx, "nobody")
	assert.True(t, errors.IsNotFoundError(err))
}
