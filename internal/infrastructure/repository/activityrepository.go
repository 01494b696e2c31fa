package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carrydesk/carrydesk/internal/domain/quota"
	"github.com/carrydesk/carrydesk/internal/infrastructure/metrics"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/keylock"
)

// ActivityRepository keeps per-user daily message and free request tallies.
type ActivityRepository struct {
	provider  db.Provider
	txManager *db.TransactionManager
	locks     *keylock.Map
}

func NewActivityRepository(provider db.Provider, locks *keylock.Map) *ActivityRepository {
	return &ActivityRepository{
		provider:  provider,
		txManager: db.NewTransactionManager(provider),
		locks:     locks,
	}
}

func activityScope(userID, date string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND date = ?", userID, date)
	}
}

func toActivity(row models.DailyUserActivityModel, userID, date string) quota.DailyActivity {
	return quota.DailyActivity{
		UserID:           userID,
		Date:             date,
		MessageCount:     row.MessageCount,
		FreeRequestCount: row.FreeRequestCount,
	}
}

// AddMessages adds n to the day's message count, creating the row on first
// use.
func (r *ActivityRepository) AddMessages(ctx context.Context, userID, date string, n int) (a quota.DailyActivity, err error) {
	defer observe("activity_add_messages", time.Now(), &err)

	if n < 0 {
		return quota.DailyActivity{}, errors.NewValidationError("message count must not be negative")
	}

	unlock := r.locks.Lock("activity:" + userID + ":" + date)
	defer unlock()

	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx, err := db.GetTxFromContext(ctx, r.provider)
		if err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"message_count": gorm.Expr("message_count + ?", n),
				"updated_at":    biztime.Now().UnixMilli(),
			}),
		}).Create(&models.DailyUserActivityModel{
			UserID:       userID,
			Date:         date,
			MessageCount: n,
		}).Error; err != nil {
			return err
		}

		var row models.DailyUserActivityModel
		if err := tx.Scopes(activityScope(userID, date)).First(&row).Error; err != nil {
			return err
		}
		a = toActivity(row, userID, date)
		return nil
	})
	if err != nil {
		return quota.DailyActivity{}, translateError(err, "daily activity", "record")
	}
	return a, nil
}

// TryConsumeFreeRequest is the check-and-increment of TryIncrement applied
// to the day's free request count.
func (r *ActivityRepository) TryConsumeFreeRequest(ctx context.Context, userID, date string, limit int) (res quota.Result, err error) {
	defer observe("activity_consume_free_request", time.Now(), &err)

	if err := quota.ValidateLimit(limit); err != nil {
		return quota.Result{}, err
	}

	unlock := r.locks.Lock("activity:" + userID + ":" + date)
	defer unlock()

	res = quota.Result{Limit: limit, Date: date}
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx, err := db.GetTxFromContext(ctx, r.provider)
		if err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DailyUserActivityModel{
			UserID: userID,
			Date:   date,
		}).Error; err != nil {
			return err
		}

		if limit > 0 {
			result := tx.Model(&models.DailyUserActivityModel{}).
				Scopes(activityScope(userID, date)).
				Where("free_request_count < ?", limit).
				Updates(map[string]any{"free_request_count": gorm.Expr("free_request_count + 1")})
			if result.Error != nil {
				return result.Error
			}
			res.Success = result.RowsAffected == 1
		}

		var row models.DailyUserActivityModel
		if err := tx.Scopes(activityScope(userID, date)).First(&row).Error; err != nil {
			return err
		}
		res.CurrentUsage = row.FreeRequestCount
		return nil
	})
	if err != nil {
		return quota.Result{}, translateError(err, "daily activity", "consume free request for")
	}

	metrics.RecordQuotaDecision("free_request", res.Success)
	return res, nil
}

// Get reads the day's tallies; a missing row reads as zeros.
func (r *ActivityRepository) Get(ctx context.Context, userID, date string) (a quota.DailyActivity, err error) {
	defer observe("activity_get", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return quota.DailyActivity{}, err
	}

	var row models.DailyUserActivityModel
	if err = tx.Scopes(activityScope(userID, date)).Limit(1).Find(&row).Error; err != nil {
		return quota.DailyActivity{}, translateError(err, "daily activity", "read")
	}
	return toActivity(row, userID, date), nil
}
