package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carrydesk/carrydesk/internal/domain/quota"
	"github.com/carrydesk/carrydesk/internal/infrastructure/metrics"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/keylock"
)

// QuotaRepository keeps the per-user daily usage counters.
type QuotaRepository struct {
	provider  db.Provider
	txManager *db.TransactionManager
	locks     *keylock.Map
}

func NewQuotaRepository(provider db.Provider, locks *keylock.Map) *QuotaRepository {
	return &QuotaRepository{
		provider:  provider,
		txManager: db.NewTransactionManager(provider),
		locks:     locks,
	}
}

func quotaScope(key quota.Key) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND category = ? AND subcategory = ? AND date = ?",
			key.UserID, key.Category, key.Subcategory, key.Date)
	}
}

// TryIncrement adds one use when the counter is below limit. The guarded
// UPDATE only matches rows under the limit, so the counter can never pass
// it; RowsAffected tells the caller whether the use was granted.
func (r *QuotaRepository) TryIncrement(ctx context.Context, key quota.Key, limit int) (res quota.Result, err error) {
	defer observe("quota_try_increment", time.Now(), &err)

	if err := quota.ValidateLimit(limit); err != nil {
		return quota.Result{}, err
	}

	unlock := r.locks.Lock("quota:" + key.String())
	defer unlock()

	res = quota.Result{Limit: limit, Date: key.Date}
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx, err := db.GetTxFromContext(ctx, r.provider)
		if err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DailyQuotaUsageModel{
			UserID:      key.UserID,
			Category:    key.Category,
			Subcategory: key.Subcategory,
			Date:        key.Date,
		}).Error; err != nil {
			return err
		}

		if limit > 0 {
			result := tx.Model(&models.DailyQuotaUsageModel{}).
				Scopes(quotaScope(key)).
				Where("usage_count < ?", limit).
				Updates(map[string]any{"usage_count": gorm.Expr("usage_count + 1")})
			if result.Error != nil {
				return result.Error
			}
			res.Success = result.RowsAffected == 1
		}

		var row models.DailyQuotaUsageModel
		if err := tx.Scopes(quotaScope(key)).First(&row).Error; err != nil {
			return err
		}
		res.CurrentUsage = row.UsageCount
		return nil
	})
	if err != nil {
		return quota.Result{}, translateError(err, "quota usage", "increment")
	}

	metrics.RecordQuotaDecision("quota", res.Success)
	return res, nil
}

// GetUsage reads the counter; a missing row counts as zero.
func (r *QuotaRepository) GetUsage(ctx context.Context, key quota.Key) (usage int, err error) {
	defer observe("quota_get", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return 0, err
	}

	var row models.DailyQuotaUsageModel
	if err = tx.Scopes(quotaScope(key)).Limit(1).Find(&row).Error; err != nil {
		return 0, translateError(err, "quota usage", "read")
	}
	return row.UsageCount, nil
}
