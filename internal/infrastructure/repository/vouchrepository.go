package repository

import (
	"context"
	"time"

	"github.com/carrydesk/carrydesk/internal/domain/helper"
	"github.com/carrydesk/carrydesk/internal/infrastructure/metrics"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/mappers"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/keylock"
)

type VouchRepository struct {
	provider  db.Provider
	txManager *db.TransactionManager
	locks     *keylock.Map
	mapper    mappers.HelperMapper
}

func NewVouchRepository(provider db.Provider, locks *keylock.Map) *VouchRepository {
	return &VouchRepository{
		provider:  provider,
		txManager: db.NewTransactionManager(provider),
		locks:     locks,
		mapper:    mappers.NewHelperMapper(),
	}
}

// Record stores v and folds it into its helper's statistics in one
// transaction. Nothing is written when the helper does not exist or the
// rater already vouched for the ticket.
func (r *VouchRepository) Record(ctx context.Context, v *helper.Vouch) (h *helper.Helper, err error) {
	defer observe("vouch_record", time.Now(), &err)

	unlock := r.locks.Lock("helper:" + v.HelperID())
	defer unlock()

	var vouchID uint
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx, err := db.GetTxFromContext(ctx, r.provider)
		if err != nil {
			return err
		}

		var helperRow models.HelperModel
		if err := tx.Where("user_id = ?", v.HelperID()).First(&helperRow).Error; err != nil {
			return translateError(err, "helper", "find")
		}

		vouchRow := r.mapper.VouchToModel(v)
		if err := tx.Create(vouchRow).Error; err != nil {
			return translateError(err, "vouch", "create")
		}

		var ratings []int
		if err := tx.Model(&models.VouchModel{}).
			Where("helper_id = ?", v.HelperID()).
			Pluck("rating", &ratings).Error; err != nil {
			return err
		}

		current, err := r.mapper.ToDomain(&helperRow)
		if err != nil {
			return err
		}
		current.RecordVouch(v.Kind(), ratings)

		updated := r.mapper.ToModel(current)
		if err := tx.Model(&models.HelperModel{}).
			Where("id = ?", helperRow.ID).
			Select("total_vouches", "weekly_vouches", "monthly_vouches", "average_rating", "vouches_for_paid_access", "updated_at").
			Updates(updated).Error; err != nil {
			return err
		}

		vouchID = vouchRow.ID
		h = current
		return nil
	})
	if err != nil {
		return nil, translateError(err, "vouch", "record")
	}

	if err := v.SetID(vouchID); err != nil {
		return nil, err
	}
	metrics.RecordVouch(string(v.Kind()))
	return h, nil
}

func (r *VouchRepository) Exists(ctx context.Context, ticketID, raterID string) (ok bool, err error) {
	defer observe("vouch_exists", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return false, err
	}

	var count int64
	if err = tx.Model(&models.VouchModel{}).
		Where("ticket_id = ? AND rater_id = ?", ticketID, raterID).
		Count(&count).Error; err != nil {
		return false, translateError(err, "vouch", "check")
	}
	return count > 0, nil
}

// ListByHelper returns the helper's vouches newest first.
func (r *VouchRepository) ListByHelper(ctx context.Context, helperID string, limit int) (list []*helper.Vouch, err error) {
	defer observe("vouch_list", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return nil, err
	}

	var rows []models.VouchModel
	if err = tx.Where("helper_id = ?", helperID).
		Scopes(db.NewestFirst(), db.Limit(limit)).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "vouches", "list")
	}
	return r.mapper.VouchesToDomain(rows)
}
