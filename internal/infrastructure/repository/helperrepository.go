package repository

import (
	"context"
	"time"

	"github.com/carrydesk/carrydesk/internal/domain/helper"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/mappers"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

// leaderboardColumns maps a period to the counter it ranks by. Only these
// columns ever reach ORDER BY.
var leaderboardColumns = map[helper.Period]string{
	helper.PeriodAllTime: "total_vouches",
	helper.PeriodWeekly:  "weekly_vouches",
	helper.PeriodMonthly: "monthly_vouches",
}

type HelperRepository struct {
	provider db.Provider
	mapper   mappers.HelperMapper
}

func NewHelperRepository(provider db.Provider) *HelperRepository {
	return &HelperRepository{
		provider: provider,
		mapper:   mappers.NewHelperMapper(),
	}
}

func (r *HelperRepository) Create(ctx context.Context, h *helper.Helper) (err error) {
	defer observe("helper_create", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return err
	}

	model := r.mapper.ToModel(h)
	if err = tx.Create(model).Error; err != nil {
		return translateError(err, "helper", "create")
	}
	return h.SetID(model.ID)
}

// Update writes the collaborator-editable fields and the vouch statistics.
func (r *HelperRepository) Update(ctx context.Context, h *helper.Helper) (err error) {
	defer observe("helper_update", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return err
	}

	model := r.mapper.ToModel(h)
	result := tx.Model(&models.HelperModel{}).
		Where("id = ?", model.ID).
		Select("*").
		Omit("id", "user_id", "helper_since").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "helper", "update")
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("helper not found")
	}
	return nil
}

func (r *HelperRepository) GetByUserID(ctx context.Context, userID string) (h *helper.Helper, err error) {
	defer observe("helper_get", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return nil, err
	}

	var model models.HelperModel
	if err = tx.Where("user_id = ?", userID).First(&model).Error; err != nil {
		return nil, translateError(err, "helper", "find")
	}
	return r.mapper.ToDomain(&model)
}

// ListTop ranks helpers by the period's counter. Ties go to the better
// average, then to the longer-standing helper.
func (r *HelperRepository) ListTop(ctx context.Context, period helper.Period, limit int) (list []*helper.Helper, err error) {
	defer observe("helper_list_top", time.Now(), &err)

	column, ok := leaderboardColumns[period]
	if !ok {
		return nil, errors.NewValidationError("invalid leaderboard period", string(period))
	}

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return nil, err
	}

	var rows []models.HelperModel
	if err = tx.
		Order(column + " DESC").
		Order("average_rating DESC").
		Order("id ASC").
		Scopes(db.Limit(limit)).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "helpers", "list")
	}
	return r.mapper.ToDomainList(rows)
}

func (r *HelperRepository) ResetWeeklyVouches(ctx context.Context) (int64, error) {
	return r.resetCounter(ctx, "weekly_vouches")
}

func (r *HelperRepository) ResetMonthlyVouches(ctx context.Context) (int64, error) {
	return r.resetCounter(ctx, "monthly_vouches")
}

// resetCounter zeroes column for every helper and reports how many rows
// changed.
func (r *HelperRepository) resetCounter(ctx context.Context, column string) (n int64, err error) {
	defer observe("helper_reset_"+column, time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return 0, err
	}

	result := tx.Model(&models.HelperModel{}).
		Where(column+" <> 0").
		Updates(map[string]any{
			column:       0,
			"updated_at": biztime.Now().UnixMilli(),
		})
	if result.Error != nil {
		return 0, translateError(result.Error, "helpers", "reset")
	}
	return result.RowsAffected, nil
}
