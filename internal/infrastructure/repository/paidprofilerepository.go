package repository

import (
	"context"
	"time"

	"github.com/carrydesk/carrydesk/internal/domain/helper"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/mappers"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

type PaidHelperProfileRepository struct {
	provider db.Provider
	mapper   mappers.HelperMapper
}

func NewPaidHelperProfileRepository(provider db.Provider) *PaidHelperProfileRepository {
	return &PaidHelperProfileRepository{
		provider: provider,
		mapper:   mappers.NewHelperMapper(),
	}
}

func (r *PaidHelperProfileRepository) Create(ctx context.Context, p *helper.PaidHelperProfile) (err error) {
	defer observe("paid_profile_create", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return err
	}

	model := r.mapper.ProfileToModel(p)
	if err = tx.Create(model).Error; err != nil {
		return translateError(err, "paid helper profile", "create")
	}
	return p.SetID(model.ID)
}

func (r *PaidHelperProfileRepository) Update(ctx context.Context, p *helper.PaidHelperProfile) (err error) {
	defer observe("paid_profile_update", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return err
	}

	model := r.mapper.ProfileToModel(p)
	result := tx.Model(&models.PaidHelperProfileModel{}).
		Where("id = ?", model.ID).
		Select("bio", "bio_set_at", "vouches_for_access", "updated_at").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "paid helper profile", "update")
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("paid helper profile not found")
	}
	return nil
}

func (r *PaidHelperProfileRepository) GetByUserID(ctx context.Context, userID string) (p *helper.PaidHelperProfile, err error) {
	defer observe("paid_profile_get", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return nil, err
	}

	var model models.PaidHelperProfileModel
	if err = tx.Where("user_id = ?", userID).First(&model).Error; err != nil {
		return nil, translateError(err, "paid helper profile", "find")
	}
	return r.mapper.ProfileToDomain(&model)
}
