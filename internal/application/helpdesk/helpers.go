package helpdesk

import (
	"context"

	"github.com/carrydesk/carrydesk/internal/application/helpdesk/dto"
	"github.com/carrydesk/carrydesk/internal/domain/helper"
	"github.com/carrydesk/carrydesk/internal/infrastructure/cache"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/utils"
)

func (s *Service) GetHelper(ctx context.Context, userID string) (*dto.HelperDTO, error) {
	if err := utils.ValidateUserID("user_id", userID); err != nil {
		return nil, err
	}
	return cache.Cached(ctx, s.cache, cache.HelperKey(userID), 0, func(ctx context.Context) (*dto.HelperDTO, error) {
		h, err := s.repos.Helpers.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return dto.ToHelperDTO(h), nil
	})
}

// CreateHelper registers a user as a helper with zeroed counters. A second
// registration of the same user is a conflict.
func (s *Service) CreateHelper(ctx context.Context, in CreateHelperInput) (*dto.HelperDTO, error) {
	s.logger.Infow("executing create helper use case", "user_id", in.UserID)

	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	h, err := helper.NewHelper(in.UserID, utils.SanitizeText(in.UserTag), utils.SanitizeText(in.Rank))
	if err != nil {
		return nil, err
	}
	if err := s.repos.Helpers.Create(ctx, h); err != nil {
		s.logger.Errorw("failed to create helper", "user_id", in.UserID, "error", err)
		return nil, err
	}

	s.invalidate(ctx, cache.HelperKey(h.UserID()), cache.TopHelpersPattern)
	s.logger.Infow("helper created successfully", "user_id", h.UserID())
	return dto.ToHelperDTO(h), nil
}

// UpdateHelper changes the profile fields of a helper. Vouch counters are
// not reachable from here.
func (s *Service) UpdateHelper(ctx context.Context, userID string, in UpdateHelperInput) (*dto.HelperDTO, error) {
	if err := utils.ValidateUserID("user_id", userID); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	patch := helper.Patch{
		IsPaidHelper:         in.IsPaidHelper,
		VouchesForPaidAccess: in.VouchesForPaidAccess,
	}
	if in.UserTag != nil {
		tag := utils.SanitizeText(*in.UserTag)
		patch.UserTag = &tag
	}
	if in.Rank != nil {
		rank := utils.SanitizeText(*in.Rank)
		patch.Rank = &rank
	}

	updated, err := s.mutateHelper(ctx, userID, func(h *helper.Helper) error {
		return h.Apply(patch)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("helper updated successfully", "user_id", userID)
	return dto.ToHelperDTO(updated), nil
}

func (s *Service) mutateHelper(ctx context.Context, userID string, fn func(h *helper.Helper) error) (*helper.Helper, error) {
	unlock := s.locks.Lock("helper:" + userID)
	defer unlock()

	var updated *helper.Helper
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		h, err := s.repos.Helpers.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(h); err != nil {
			return err
		}
		if err := s.repos.Helpers.Update(ctx, h); err != nil {
			return err
		}
		updated = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.HelperKey(userID), cache.TopHelpersPattern)
	return updated, nil
}

// CreateVouch records a rating for a helper and refreshes the helper's
// counters and average in the same transaction. A rater may vouch once per
// ticket.
func (s *Service) CreateVouch(ctx context.Context, in CreateVouchInput) (*dto.VouchDTO, error) {
	s.logger.Infow("executing create vouch use case",
		"ticket_id", in.TicketID,
		"helper_id", in.HelperID,
		"rater_id", in.RaterID,
	)

	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	reason, err := utils.SanitizeBounded("reason", in.Reason, helper.MaxReasonLength)
	if err != nil {
		return nil, err
	}
	compensation, err := utils.SanitizeBounded("compensation", in.Compensation, helper.MaxCompensationLength)
	if err != nil {
		return nil, err
	}

	v, err := helper.NewVouch(helper.VouchParams{
		TicketID:     in.TicketID,
		HelperID:     in.HelperID,
		HelperTag:    utils.SanitizeText(in.HelperTag),
		RaterID:      in.RaterID,
		RaterTag:     utils.SanitizeText(in.RaterTag),
		Rating:       in.Rating,
		Reason:       reason,
		Kind:         helper.VouchKind(in.Kind),
		Compensation: compensation,
	})
	if err != nil {
		return nil, err
	}

	h, err := s.repos.Vouches.Record(ctx, v)
	if err != nil {
		s.logger.Warnw("failed to record vouch", "helper_id", in.HelperID, "ticket_id", in.TicketID, "error", err)
		return nil, err
	}

	s.invalidate(ctx,
		cache.HelperKey(in.HelperID),
		cache.TopHelpersPattern,
		cache.HelperVouchesPattern(in.HelperID),
	)

	s.logger.Infow("vouch recorded successfully",
		"vouch_id", v.SID(),
		"helper_id", h.UserID(),
		"total_vouches", h.TotalVouches(),
		"average_rating", h.AverageRating(),
	)
	return dto.ToVouchDTO(v), nil
}

// HasVouched reports whether rater already vouched on ticket. It reads the
// store directly since it guards a write.
func (s *Service) HasVouched(ctx context.Context, ticketID, raterID string) (bool, error) {
	if err := utils.ValidateID("ticket_id", ticketID); err != nil {
		return false, err
	}
	if err := utils.ValidateUserID("rater_id", raterID); err != nil {
		return false, err
	}
	return s.repos.Vouches.Exists(ctx, ticketID, raterID)
}

// GetHelperVouches lists a helper's most recent vouches. limit defaults to
// 10 and is capped at 100.
func (s *Service) GetHelperVouches(ctx context.Context, helperID string, limit int) ([]*dto.VouchDTO, error) {
	if err := utils.ValidateUserID("helper_id", helperID); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	return cache.Cached(ctx, s.cache, cache.HelperVouchesKey(helperID, limit), 0, func(ctx context.Context) ([]*dto.VouchDTO, error) {
		list, err := s.repos.Vouches.ListByHelper(ctx, helperID, limit)
		if err != nil {
			return nil, err
		}
		return dto.ToVouchDTOs(list), nil
	})
}

// GetTopHelpers ranks helpers by the vouch counter of period ("all",
// "weekly" or "monthly"; empty means all).
func (s *Service) GetTopHelpers(ctx context.Context, period string, limit int) ([]*dto.HelperDTO, error) {
	p, err := helper.NewPeriod(period)
	if err != nil {
		return nil, errors.NewValidationError("invalid leaderboard period", period)
	}
	limit = clampLimit(limit)
	return cache.Cached(ctx, s.cache, cache.TopHelpersKey(string(p), limit), 0, func(ctx context.Context) ([]*dto.HelperDTO, error) {
		list, err := s.repos.Helpers.ListTop(ctx, p, limit)
		if err != nil {
			return nil, err
		}
		return dto.ToHelperDTOs(list), nil
	})
}

// ResetWeeklyVouches zeroes every helper's weekly counter and returns how
// many helpers changed.
func (s *Service) ResetWeeklyVouches(ctx context.Context) (int64, error) {
	return s.resetVouches(ctx, "weekly", s.repos.Helpers.ResetWeeklyVouches)
}

func (s *Service) ResetMonthlyVouches(ctx context.Context) (int64, error) {
	return s.resetVouches(ctx, "monthly", s.repos.Helpers.ResetMonthlyVouches)
}

func (s *Service) resetVouches(ctx context.Context, period string, reset func(ctx context.Context) (int64, error)) (int64, error) {
	n, err := reset(ctx)
	if err != nil {
		return 0, err
	}
	// Every cached helper may carry the old counter.
	s.invalidate(ctx, cache.HelperKey(""))
	s.logger.Infow("vouch counters reset", "period", period, "helpers", n)
	return n, nil
}

// CreatePaidHelperProfile grants paid access to an existing helper. The
// profile snapshots the helper's regular vouch count at the time of the
// grant.
func (s *Service) CreatePaidHelperProfile(ctx context.Context, userID string) (*dto.PaidHelperProfileDTO, error) {
	s.logger.Infow("executing create paid helper profile use case", "user_id", userID)

	if err := utils.ValidateUserID("user_id", userID); err != nil {
		return nil, err
	}

	var profile *helper.PaidHelperProfile
	_, err := s.mutateHelper(ctx, userID, func(h *helper.Helper) error {
		p, err := helper.NewPaidHelperProfile(userID, h.VouchesForPaidAccess())
		if err != nil {
			return err
		}
		if err := s.repos.Profiles.Create(ctx, p); err != nil {
			return err
		}
		profile = p
		paid := true
		return h.Apply(helper.Patch{IsPaidHelper: &paid})
	})
	if err != nil {
		s.logger.Warnw("failed to create paid helper profile", "user_id", userID, "error", err)
		return nil, err
	}

	s.invalidate(ctx, cache.PaidProfileKey(userID))
	s.logger.Infow("paid helper profile created successfully", "user_id", userID)
	return dto.ToPaidHelperProfileDTO(profile), nil
}

func (s *Service) GetPaidHelperProfile(ctx context.Context, userID string) (*dto.PaidHelperProfileDTO, error) {
	if err := utils.ValidateUserID("user_id", userID); err != nil {
		return nil, err
	}
	return cache.Cached(ctx, s.cache, cache.PaidProfileKey(userID), 0, func(ctx context.Context) (*dto.PaidHelperProfileDTO, error) {
		p, err := s.repos.Profiles.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return dto.ToPaidHelperProfileDTO(p), nil
	})
}

// SetPaidHelperBio replaces the public bio of a paid helper. HTML is
// stripped before the length check.
func (s *Service) SetPaidHelperBio(ctx context.Context, userID, bio string) (*dto.PaidHelperProfileDTO, error) {
	if err := utils.ValidateUserID("user_id", userID); err != nil {
		return nil, err
	}
	clean, err := utils.SanitizeBounded("bio", bio, helper.MaxBioLength)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("paidprofile:" + userID)
	defer unlock()

	var updated *helper.PaidHelperProfile
	err = s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repos.Profiles.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if err := p.SetBio(clean); err != nil {
			return err
		}
		if err := s.repos.Profiles.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cache.PaidProfileKey(userID))
	return dto.ToPaidHelperProfileDTO(updated), nil
}
