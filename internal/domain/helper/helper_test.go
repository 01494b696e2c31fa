package helper

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

func TestMeanRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"none", nil, 0},
		{"single", []int{4}, 4},
		{"uneven", []int{5, 4, 4}, 13.0 / 3.0},
		{"all ones", []int{1, 1, 1, 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MeanRating(tt.ratings), 1e-12)
		})
	}
}

func TestHelper_RecordVouch(t *testing.T) {
	h, err := ReconstructHelper(HelperRecord{
		ID: 1, UserID: "200", TotalVouches: 2, WeeklyVouches: 1, MonthlyVouches: 2,
		AverageRating: 4.5, UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	h.RecordVouch(VouchKindRegular, []int{5, 4, 3})
	assert.Equal(t, 3, h.TotalVouches())
	assert.Equal(t, 2, h.WeeklyVouches())
	assert.Equal(t, 3, h.MonthlyVouches())
	assert.Equal(t, 1, h.VouchesForPaidAccess())
	assert.InDelta(t, 4.0, h.AverageRating(), 1e-12)

	h.RecordVouch(VouchKindPaid, []int{5, 4, 3, 1})
	assert.Equal(t, 4, h.TotalVouches())
	assert.Equal(t, 1, h.VouchesForPaidAccess(), "paid vouches do not count toward paid access")
	assert.InDelta(t, 3.25, h.AverageRating(), 1e-12)
}

func TestHelper_Apply(t *testing.T) {
	h, err := NewHelper("200", "bob", "Trial")
	require.NoError(t, err)

	assert.True(t, errors.IsValidationError(h.Apply(Patch{})))

	neg := -1
	assert.True(t, errors.IsValidationError(h.Apply(Patch{VouchesForPaidAccess: &neg})))

	rank := "Senior"
	paid := true
	require.NoError(t, h.Apply(Patch{Rank: &rank, IsPaidHelper: &paid}))
	assert.Equal(t, "Senior", h.Rank())
	assert.True(t, h.IsPaidHelper())
	assert.Equal(t, "bob", h.UserTag())
}

func TestNewHelper_RequiresUser(t *testing.T) {
	_, err := NewHelper("", "x", "")
	assert.True(t, errors.IsValidationError(err))
}

func TestNewVouch(t *testing.T) {
	base := VouchParams{TicketID: "tkt_1", HelperID: "200", RaterID: "100", Rating: 5}

	v, err := NewVouch(base)
	require.NoError(t, err)
	assert.Equal(t, VouchKindRegular, v.Kind())
	assert.True(t, strings.HasPrefix(v.SID(), "vch_"))

	for _, rating := range []int{0, 6, -3} {
		p := base
		p.Rating = rating
		_, err := NewVouch(p)
		assert.True(t, errors.IsValidationError(err), "rating %d", rating)
	}

	p := base
	p.Kind = "tip"
	_, err = NewVouch(p)
	assert.True(t, errors.IsValidationError(err))

	p = base
	p.RaterID = ""
	_, err = NewVouch(p)
	assert.True(t, errors.IsValidationError(err))
}

func TestPaidHelperProfile_SetBio(t *testing.T) {
	p, err := NewPaidHelperProfile("200", 10)
	require.NoError(t, err)
	assert.Nil(t, p.BioSetAt())

	require.NoError(t, p.SetBio("fast clears"))
	require.NotNil(t, p.BioSetAt())
	assert.Equal(t, "fast clears", p.Bio())
	assert.True(t, p.UpdatedAt().After(p.CreatedAt()))

	assert.True(t, errors.IsValidationError(p.SetBio(strings.Repeat("b", MaxBioLength+1))))
}

func TestNewPeriod(t *testing.T) {
	p, err := NewPeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodAllTime, p)

	p, err = NewPeriod("weekly")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)

	_, err = NewPeriod("daily")
	assert.Error(t, err)
}
