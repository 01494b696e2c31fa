package helpdesk

import (
	"context"
	"strings"
	"time"

	"github.com/carrydesk/carrydesk/internal/domain/quota"
	"github.com/carrydesk/carrydesk/internal/domain/ticket"
	"github.com/carrydesk/carrydesk/internal/infrastructure/cache"
	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/utils"
)

// NextTicketNumber allocates the next ticket number of category. Numbers
// are never handed out twice, even when the ticket is never stored.
func (s *Service) NextTicketNumber(ctx context.Context, category string) (string, error) {
	return s.repos.Numbers.Next(ctx, ticket.Scope(category))
}

// QuotaLimit resolves the configured daily limit for a category and
// subcategory.
func (s *Service) QuotaLimit(category, subcategory string) int {
	return s.quota.LimitFor(category, subcategory)
}

// GetQuotaUsage returns today's count (or date's, when given) for the key.
func (s *Service) GetQuotaUsage(ctx context.Context, userID, category, subcategory, date string) (int, error) {
	if err := utils.ValidateUserID("user_id", strings.TrimSpace(userID)); err != nil {
		return 0, err
	}
	key, err := quota.NewKey(userID, category, subcategory, date)
	if err != nil {
		return 0, err
	}
	return cache.Cached(ctx, s.cache, quotaCacheKey(key), 0, func(ctx context.Context) (int, error) {
		return s.repos.Usage.GetUsage(ctx, key)
	})
}

// TryIncrementQuota adds one to today's counter if it is below limit.
// Concurrent callers never push the counter past limit.
func (s *Service) TryIncrementQuota(ctx context.Context, userID, category, subcategory string, limit int) (quota.Result, error) {
	return s.TryIncrementQuotaOn(ctx, "", userID, category, subcategory, limit)
}

// TryIncrementQuotaOn is TryIncrementQuota for an explicit YYYY-MM-DD date.
func (s *Service) TryIncrementQuotaOn(ctx context.Context, date, userID, category, subcategory string, limit int) (quota.Result, error) {
	if err := utils.ValidateUserID("user_id", strings.TrimSpace(userID)); err != nil {
		return quota.Result{}, err
	}
	key, err := quota.NewKey(userID, category, subcategory, date)
	if err != nil {
		return quota.Result{}, err
	}
	res, err := s.repos.Usage.TryIncrement(ctx, key, limit)
	if err != nil {
		return quota.Result{}, err
	}
	if res.Success {
		s.invalidate(ctx, quotaCacheKey(key))
	}
	s.logger.Debugw("quota check",
		"key", key.String(),
		"success", res.Success,
		"usage", res.CurrentUsage,
		"limit", limit,
	)
	return res, nil
}

func quotaCacheKey(k quota.Key) string {
	return cache.QuotaKey(k.UserID, k.Category, k.Subcategory, k.Date)
}

// RecordActivity adds messages to a user's tally for date (today when
// empty).
func (s *Service) RecordActivity(ctx context.Context, userID, date string, messages int) (quota.DailyActivity, error) {
	userID, date, err := activityRef(userID, date)
	if err != nil {
		return quota.DailyActivity{}, err
	}
	a, err := s.repos.Activity.AddMessages(ctx, userID, date, messages)
	if err != nil {
		return quota.DailyActivity{}, err
	}
	s.invalidate(ctx, cache.ActivityKey(userID, date))
	return a, nil
}

// TryConsumeFreeRequest spends one of the user's free requests for date if
// fewer than limit were used.
func (s *Service) TryConsumeFreeRequest(ctx context.Context, userID, date string, limit int) (quota.Result, error) {
	userID, date, err := activityRef(userID, date)
	if err != nil {
		return quota.Result{}, err
	}
	res, err := s.repos.Activity.TryConsumeFreeRequest(ctx, userID, date, limit)
	if err != nil {
		return quota.Result{}, err
	}
	if res.Success {
		s.invalidate(ctx, cache.ActivityKey(userID, date))
	}
	return res, nil
}

func (s *Service) GetDailyActivity(ctx context.Context, userID, date string) (quota.DailyActivity, error) {
	userID, date, err := activityRef(userID, date)
	if err != nil {
		return quota.DailyActivity{}, err
	}
	return cache.Cached(ctx, s.cache, cache.ActivityKey(userID, date), 0, func(ctx context.Context) (quota.DailyActivity, error) {
		return s.repos.Activity.Get(ctx, userID, date)
	})
}

func activityRef(userID, date string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	if err := utils.ValidateUserID("user_id", userID); err != nil {
		return "", "", err
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return userID, biztime.DateKey(time.Now()), nil
	}
	if _, err := biztime.ParseDateKey(date); err != nil {
		return "", "", errors.NewValidationError("invalid date", err.Error())
	}
	return userID, date, nil
}
