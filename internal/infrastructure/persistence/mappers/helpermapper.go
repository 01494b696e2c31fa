package mappers

import (
	"github.com/carrydesk/carrydesk/internal/domain/helper"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
)

// HelperMapper converts helpers, vouches and paid profiles.
type HelperMapper interface {
	ToModel(h *helper.Helper) *models.HelperModel
	ToDomain(model *models.HelperModel) (*helper.Helper, error)
	ToDomainList(list []models.HelperModel) ([]*helper.Helper, error)

	VouchToModel(v *helper.Vouch) *models.VouchModel
	VouchToDomain(model *models.VouchModel) (*helper.Vouch, error)
	VouchesToDomain(list []models.VouchModel) ([]*helper.Vouch, error)

	ProfileToModel(p *helper.PaidHelperProfile) *models.PaidHelperProfileModel
	ProfileToDomain(model *models.PaidHelperProfileModel) (*helper.PaidHelperProfile, error)
}

type HelperMapperImpl struct{}

func NewHelperMapper() HelperMapper {
	return &HelperMapperImpl{}
}

func (m *HelperMapperImpl) ToModel(h *helper.Helper) *models.HelperModel {
	return &models.HelperModel{
		ID:                   h.ID(),
		UserID:               h.UserID(),
		UserTag:              h.UserTag(),
		Rank:                 h.Rank(),
		TotalVouches:         h.TotalVouches(),
		WeeklyVouches:        h.WeeklyVouches(),
		MonthlyVouches:       h.MonthlyVouches(),
		AverageRating:        h.AverageRating(),
		IsPaidHelper:         h.IsPaidHelper(),
		VouchesForPaidAccess: h.VouchesForPaidAccess(),
		HelperSince:          h.HelperSince().UnixMilli(),
		UpdatedAt:            h.UpdatedAt().UnixMilli(),
	}
}

func (m *HelperMapperImpl) ToDomain(model *models.HelperModel) (*helper.Helper, error) {
	return helper.ReconstructHelper(helper.HelperRecord{
		ID:                   model.ID,
		UserID:               model.UserID,
		UserTag:              model.UserTag,
		Rank:                 model.Rank,
		TotalVouches:         model.TotalVouches,
		WeeklyVouches:        model.WeeklyVouches,
		MonthlyVouches:       model.MonthlyVouches,
		AverageRating:        model.AverageRating,
		IsPaidHelper:         model.IsPaidHelper,
		VouchesForPaidAccess: model.VouchesForPaidAccess,
		HelperSince:          millisToTime(model.HelperSince),
		UpdatedAt:            millisToTime(model.UpdatedAt),
	})
}

func (m *HelperMapperImpl) ToDomainList(list []models.HelperModel) ([]*helper.Helper, error) {
	out := make([]*helper.Helper, 0, len(list))
	for i := range list {
		h, err := m.ToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (m *HelperMapperImpl) VouchToModel(v *helper.Vouch) *models.VouchModel {
	return &models.VouchModel{
		ID:           v.ID(),
		SID:          v.SID(),
		TicketID:     v.TicketID(),
		HelperID:     v.HelperID(),
		HelperTag:    v.HelperTag(),
		RaterID:      v.RaterID(),
		RaterTag:     v.RaterTag(),
		Rating:       v.Rating(),
		Reason:       v.Reason(),
		Kind:         string(v.Kind()),
		Compensation: v.Compensation(),
		CreatedAt:    v.CreatedAt().UnixMilli(),
	}
}

func (m *HelperMapperImpl) VouchToDomain(model *models.VouchModel) (*helper.Vouch, error) {
	return helper.ReconstructVouch(helper.VouchRecord{
		VouchParams: helper.VouchParams{
			TicketID:     model.TicketID,
			HelperID:     model.HelperID,
			HelperTag:    model.HelperTag,
			RaterID:      model.RaterID,
			RaterTag:     model.RaterTag,
			Rating:       model.Rating,
			Reason:       model.Reason,
			Kind:         helper.VouchKind(model.Kind),
			Compensation: model.Compensation,
		},
		ID:        model.ID,
		SID:       model.SID,
		CreatedAt: millisToTime(model.CreatedAt),
	})
}

func (m *HelperMapperImpl) VouchesToDomain(list []models.VouchModel) ([]*helper.Vouch, error) {
	out := make([]*helper.Vouch, 0, len(list))
	for i := range list {
		v, err := m.VouchToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *HelperMapperImpl) ProfileToModel(p *helper.PaidHelperProfile) *models.PaidHelperProfileModel {
	return &models.PaidHelperProfileModel{
		ID:               p.ID(),
		SID:              p.SID(),
		UserID:           p.UserID(),
		Bio:              p.Bio(),
		BioSetAt:         timePtrToMillis(p.BioSetAt()),
		VouchesForAccess: p.VouchesForAccess(),
		CreatedAt:        p.CreatedAt().UnixMilli(),
		UpdatedAt:        p.UpdatedAt().UnixMilli(),
	}
}

func (m *HelperMapperImpl) ProfileToDomain(model *models.PaidHelperProfileModel) (*helper.PaidHelperProfile, error) {
	return helper.ReconstructPaidHelperProfile(helper.PaidHelperProfileRecord{
		ID:               model.ID,
		SID:              model.SID,
		UserID:           model.UserID,
		Bio:              model.Bio,
		BioSetAt:         millisPtrToTime(model.BioSetAt),
		VouchesForAccess: model.VouchesForAccess,
		CreatedAt:        millisToTime(model.CreatedAt),
		UpdatedAt:        millisToTime(model.UpdatedAt),
	})
}
