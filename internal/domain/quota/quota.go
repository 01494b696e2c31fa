// Package quota defines the daily usage counters that gate free help
// requests.
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

// Key identifies one daily counter. Category and subcategory are matched
// case-insensitively.
type Key struct {
	UserID      string
	Category    string
	Subcategory string
	Date        string
}

// NewKey normalizes and validates a key. An empty date selects today in the
// business timezone.
func NewKey(userID, category, subcategory, date string) (Key, error) {
	k := Key{
		UserID:      strings.TrimSpace(userID),
		Category:    normalize(category),
		Subcategory: normalize(subcategory),
		Date:        strings.TrimSpace(date),
	}
	if k.Date == "" {
		k.Date = biztime.DateKey(time.Now())
	}
	if k.UserID == "" {
		return Key{}, errors.NewValidationError("user_id is required")
	}
	if k.Category == "" {
		return Key{}, errors.NewValidationError("category is required")
	}
	if _, err := biztime.ParseDateKey(k.Date); err != nil {
		return Key{}, errors.NewValidationError("invalid date", err.Error())
	}
	return k, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.UserID, k.Category, k.Subcategory, k.Date)
}

// Result reports the outcome of a check-and-increment. Success false means
// the limit was already reached and nothing changed.
type Result struct {
	Success      bool   `json:"success"`
	CurrentUsage int    `json:"current_usage"`
	Limit        int    `json:"limit"`
	Date         string `json:"date"`
}

// Remaining is how many more increments the limit allows today.
func (r Result) Remaining() int {
	if r.CurrentUsage >= r.Limit {
		return 0
	}
	return r.Limit - r.CurrentUsage
}

func ValidateLimit(limit int) error {
	if limit < 0 {
		return errors.NewValidationError("limit must not be negative", fmt.Sprintf("got %d", limit))
	}
	return nil
}

// DailyActivity is a user's message and free-request tally for one day.
type DailyActivity struct {
	UserID           string `json:"user_id"`
	Date             string `json:"date"`
	MessageCount     int    `json:"message_count"`
	FreeRequestCount int    `json:"free_request_count"`
}

type UsageRepository interface {
	// TryIncrement atomically adds one to the counter when it is below limit.
	TryIncrement(ctx context.Context, key Key, limit int) (Result, error)
	GetUsage(ctx context.Context, key Key) (int, error)
}

type ActivityRepository interface {
	AddMessages(ctx context.Context, userID, date string, n int) (DailyActivity, error)
	// TryConsumeFreeRequest atomically adds one free request when the day's
	// count is below limit.
	TryConsumeFreeRequest(ctx context.Context, userID, date string, limit int) (Result, error)
	Get(ctx context.Context, userID, date string) (DailyActivity, error)
}
