package helper

import (
	"context"
	"fmt"
)

// Period selects which vouch counter a leaderboard ranks by.
type Period string

const (
	PeriodAllTime Period = "all"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodAllTime, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

func NewPeriod(s string) (Period, error) {
	if s == "" {
		return PeriodAllTime, nil
	}
	p := Period(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid leaderboard period: %s", s)
	}
	return p, nil
}

type HelperRepository interface {
	Create(ctx context.Context, helper *Helper) error
	Update(ctx context.Context, helper *Helper) error
	GetByUserID(ctx context.Context, userID string) (*Helper, error)
	ListTop(ctx context.Context, period Period, limit int) ([]*Helper, error)
	ResetWeeklyVouches(ctx context.Context) (int64, error)
	ResetMonthlyVouches(ctx context.Context) (int64, error)
}

// VouchRepository stores vouches. Record is the aggregating write: it stores
// the vouch and folds it into the helper in one transaction.
type VouchRepository interface {
	Record(ctx context.Context, vouch *Vouch) (*Helper, error)
	Exists(ctx context.Context, ticketID, raterID string) (bool, error)
	ListByHelper(ctx context.Context, helperID string, limit int) ([]*Vouch, error)
}

type PaidHelperProfileRepository interface {
	Create(ctx context.Context, profile *PaidHelperProfile) error
	Update(ctx context.Context, profile *PaidHelperProfile) error
	GetByUserID(ctx context.Context, userID string) (*PaidHelperProfile, error)
}
