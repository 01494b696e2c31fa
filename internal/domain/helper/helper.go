// Package helper models helpers, the vouches they receive and the profile
// paid helpers publish.
package helper

import (
	"fmt"
	"strings"
	"time"

	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

type Helper struct {
	id                   uint
	userID               string
	userTag              string
	rank                 string
	totalVouches         int
	weeklyVouches        int
	monthlyVouches       int
	averageRating        float64
	isPaidHelper         bool
	vouchesForPaidAccess int
	helperSince          time.Time
	updatedAt            time.Time
}

// HelperRecord is the persisted state used to rebuild a helper.
type HelperRecord struct {
	ID                   uint
	UserID               string
	UserTag              string
	Rank                 string
	TotalVouches         int
	WeeklyVouches        int
	MonthlyVouches       int
	AverageRating        float64
	IsPaidHelper         bool
	VouchesForPaidAccess int
	HelperSince          time.Time
	UpdatedAt            time.Time
}

func NewHelper(userID, userTag, rank string) (*Helper, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationError("user_id is required")
	}
	now := biztime.Now()
	return &Helper{
		userID:      userID,
		userTag:     userTag,
		rank:        rank,
		helperSince: now,
		updatedAt:   now,
	}, nil
}

func ReconstructHelper(r HelperRecord) (*Helper, error) {
	if r.ID == 0 {
		return nil, fmt.Errorf("helper ID cannot be zero")
	}
	if r.UserID == "" {
		return nil, fmt.Errorf("helper user ID is required")
	}
	return &Helper{
		id:                   r.ID,
		userID:               r.UserID,
		userTag:              r.UserTag,
		rank:                 r.Rank,
		totalVouches:         r.TotalVouches,
		weeklyVouches:        r.WeeklyVouches,
		monthlyVouches:       r.MonthlyVouches,
		averageRating:        r.AverageRating,
		isPaidHelper:         r.IsPaidHelper,
		vouchesForPaidAccess: r.VouchesForPaidAccess,
		helperSince:          r.HelperSince,
		updatedAt:            r.UpdatedAt,
	}, nil
}

func (h *Helper) ID() uint {
	return h.id
}

func (h *Helper) UserID() string {
	return h.userID
}

func (h *Helper) UserTag() string {
	return h.userTag
}

func (h *Helper) Rank() string {
	return h.rank
}

func (h *Helper) TotalVouches() int {
	return h.totalVouches
}

func (h *Helper) WeeklyVouches() int {
	return h.weeklyVouches
}

func (h *Helper) MonthlyVouches() int {
	return h.monthlyVouches
}

func (h *Helper) AverageRating() float64 {
	return h.averageRating
}

func (h *Helper) IsPaidHelper() bool {
	return h.isPaidHelper
}

func (h *Helper) VouchesForPaidAccess() int {
	return h.vouchesForPaidAccess
}

func (h *Helper) HelperSince() time.Time {
	return h.helperSince
}

func (h *Helper) UpdatedAt() time.Time {
	return h.updatedAt
}

func (h *Helper) SetID(id uint) error {
	if h.id != 0 {
		return fmt.Errorf("helper ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("helper ID cannot be zero")
	}
	h.id = id
	return nil
}

// RecordVouch folds a newly stored vouch into the helper's statistics.
// ratings must hold every rating the helper has received, including the new
// one; the average is recomputed from them rather than updated incrementally.
func (h *Helper) RecordVouch(kind VouchKind, ratings []int) {
	h.averageRating = MeanRating(ratings)
	h.totalVouches++
	h.weeklyVouches++
	h.monthlyVouches++
	if kind == VouchKindRegular {
		h.vouchesForPaidAccess++
	}
	h.touch()
}

// MeanRating returns the arithmetic mean of ratings, 0 for none.
func MeanRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// Patch lists the helper fields collaborators may change. Vouch counters
// and the average are owned by RecordVouch and the periodic resets.
type Patch struct {
	UserTag              *string
	Rank                 *string
	IsPaidHelper         *bool
	VouchesForPaidAccess *int
}

func (p Patch) IsEmpty() bool {
	return p.UserTag == nil && p.Rank == nil && p.IsPaidHelper == nil && p.VouchesForPaidAccess == nil
}

func (h *Helper) Apply(p Patch) error {
	if p.IsEmpty() {
		return errors.NewValidationError("update contains no fields")
	}
	if p.VouchesForPaidAccess != nil && *p.VouchesForPaidAccess < 0 {
		return errors.NewValidationError("vouches_for_paid_access must not be negative")
	}
	if p.UserTag != nil {
		h.userTag = *p.UserTag
	}
	if p.Rank != nil {
		h.rank = *p.Rank
	}
	if p.IsPaidHelper != nil {
		h.isPaidHelper = *p.IsPaidHelper
	}
	if p.VouchesForPaidAccess != nil {
		h.vouchesForPaidAccess = *p.VouchesForPaidAccess
	}
	h.touch()
	return nil
}

func (h *Helper) touch() {
	now := biztime.Now()
	if !now.After(h.updatedAt) {
		now = h.updatedAt.Add(time.Millisecond)
	}
	h.updatedAt = now
}
