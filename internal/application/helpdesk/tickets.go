package helpdesk

import (
	"context"

	"github.com/carrydesk/carrydesk/internal/application/helpdesk/dto"
	"github.com/carrydesk/carrydesk/internal/domain/ticket"
	vo "github.com/carrydesk/carrydesk/internal/domain/ticket/valueobjects"
	"github.com/carrydesk/carrydesk/internal/infrastructure/cache"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/utils"
)

// CreateTicket stores a new ticket, allocating the next number of its scope
// when the input carries none. The number and the insert commit together, so
// a rejected ticket leaves no gap in the scope's numbering.
func (s *Service) CreateTicket(ctx context.Context, in CreateTicketInput) (*dto.TicketDTO, error) {
	s.logger.Infow("executing create ticket use case",
		"requester_id", in.RequesterID,
		"kind", in.Kind,
		"category", in.Category,
		"game", in.Game,
	)

	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	params, err := sanitizeTicketInput(in)
	if err != nil {
		return nil, err
	}

	t, err := ticket.NewTicket(params)
	if err != nil {
		return nil, err
	}

	err = s.repos.Numbers.Allocate(ctx, t.Scope(), t.Number(), func(ctx context.Context, number string) error {
		if t.Number() == "" {
			if err := t.SetNumber(number); err != nil {
				return err
			}
		}
		return s.repos.Tickets.Create(ctx, t)
	})
	if err != nil {
		s.logger.Errorw("failed to create ticket", "scope", t.Scope(), "number", t.Number(), "error", err)
		return nil, err
	}

	s.invalidate(ctx,
		cache.TicketKey(t.Scope(), t.Number()),
		channelPattern(t.ChannelRef()),
		cache.TicketListsPattern,
	)

	s.logger.Infow("ticket created successfully",
		"ticket_id", t.SID(),
		"scope", t.Scope(),
		"number", t.Number(),
	)
	return dto.ToTicketDTO(t), nil
}

func sanitizeTicketInput(in CreateTicketInput) (ticket.Params, error) {
	p := ticket.Params{
		Number:       in.Number,
		Kind:         vo.TicketKind(in.Kind),
		RequesterID:  in.RequesterID,
		RequesterTag: utils.SanitizeText(in.RequesterTag),
		ChannelRef:   in.ChannelRef,
		Category:     in.Category,
		Priority:     vo.Priority(in.Priority),
		Game:         in.Game,
		Gamemode:     utils.SanitizeText(in.Gamemode),
		Metadata:     in.Metadata,
	}
	var err error
	if p.Subject, err = utils.SanitizeBounded("subject", in.Subject, ticket.MaxSubjectLength); err != nil {
		return p, err
	}
	if p.Description, err = utils.SanitizeBounded("description", in.Description, ticket.MaxDescriptionLength); err != nil {
		return p, err
	}
	if p.Goal, err = utils.SanitizeBounded("goal", in.Goal, ticket.MaxGoalLength); err != nil {
		return p, err
	}
	if p.ContactInfo, err = utils.SanitizeBounded("contact_info", in.ContactInfo, ticket.MaxContactLength); err != nil {
		return p, err
	}
	return p, nil
}

// GetTicket looks a ticket up by its scope (category or game) and number.
func (s *Service) GetTicket(ctx context.Context, scope, number string) (*dto.TicketDTO, error) {
	scope = ticket.Scope(scope)
	if err := validateTicketRef(scope, number); err != nil {
		return nil, err
	}
	return cache.Cached(ctx, s.cache, cache.TicketKey(scope, number), 0, func(ctx context.Context) (*dto.TicketDTO, error) {
		t, err := s.repos.Tickets.GetByNumber(ctx, scope, number)
		if err != nil {
			return nil, err
		}
		return dto.ToTicketDTO(t), nil
	})
}

func (s *Service) GetTicketByChannelRef(ctx context.Context, channelRef string) (*dto.TicketDTO, error) {
	if err := utils.ValidateID("channel_ref", channelRef); err != nil {
		return nil, err
	}
	return cache.Cached(ctx, s.cache, cache.TicketChannelKey(channelRef), 0, func(ctx context.Context) (*dto.TicketDTO, error) {
		t, err := s.repos.Tickets.GetByChannelRef(ctx, channelRef)
		if err != nil {
			return nil, err
		}
		return dto.ToTicketDTO(t), nil
	})
}

// GetTicketsByUser lists a requester's tickets, newest first. An empty
// status lists every status.
func (s *Service) GetTicketsByUser(ctx context.Context, userID, status string) ([]*dto.TicketDTO, error) {
	if err := utils.ValidateUserID("user_id", userID); err != nil {
		return nil, err
	}
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	return s.listTickets(ctx, cache.UserTicketsKey(userID, status), ticket.TicketFilter{RequesterID: userID, Status: st})
}

func (s *Service) GetTicketsByClaimant(ctx context.Context, claimantID, status string) ([]*dto.TicketDTO, error) {
	if err := utils.ValidateUserID("claimant_id", claimantID); err != nil {
		return nil, err
	}
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	return s.listTickets(ctx, cache.ClaimantTicketsKey(claimantID, status), ticket.TicketFilter{ClaimantID: claimantID, Status: st})
}

func (s *Service) GetAllTickets(ctx context.Context, status string) ([]*dto.TicketDTO, error) {
	st, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	return s.listTickets(ctx, cache.AllTicketsKey(status), ticket.TicketFilter{Status: st})
}

func (s *Service) listTickets(ctx context.Context, key string, filter ticket.TicketFilter) ([]*dto.TicketDTO, error) {
	return cache.Cached(ctx, s.cache, key, 0, func(ctx context.Context) ([]*dto.TicketDTO, error) {
		list, err := s.repos.Tickets.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return dto.ToTicketDTOs(list), nil
	})
}

func parseStatusFilter(status string) (vo.TicketStatus, error) {
	if status == "" {
		return "", nil
	}
	st, err := vo.NewTicketStatus(status)
	if err != nil {
		return "", errors.NewValidationError("invalid status filter", status)
	}
	return st, nil
}

func channelPattern(channelRef string) string {
	if channelRef == "" {
		return ""
	}
	return cache.TicketChannelPattern(channelRef)
}

func validateTicketRef(scope, number string) error {
	if err := utils.ValidateID("scope", scope); err != nil {
		return err
	}
	return utils.ValidateID("number", number)
}

// UpdateTicket applies a partial update. Status is not patchable here; use
// ClaimTicket, UnclaimTicket or CloseTicket.
func (s *Service) UpdateTicket(ctx context.Context, scope, number string, in UpdateTicketInput) (*dto.TicketDTO, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	patch, err := sanitizeTicketPatch(in)
	if err != nil {
		return nil, err
	}
	return s.mutateTicket(ctx, "update", scope, number, func(t *ticket.Ticket) error {
		return t.Apply(patch)
	})
}

func sanitizeTicketPatch(in UpdateTicketInput) (ticket.Patch, error) {
	p := ticket.Patch{
		ChannelRef: in.ChannelRef,
		Metadata:   in.Metadata,
	}
	if in.Priority != nil {
		priority := vo.Priority(*in.Priority)
		p.Priority = &priority
	}
	if in.RequesterTag != nil {
		tag := utils.SanitizeText(*in.RequesterTag)
		p.RequesterTag = &tag
	}
	if in.Gamemode != nil {
		mode := utils.SanitizeText(*in.Gamemode)
		p.Gamemode = &mode
	}
	var err error
	if p.Subject, err = utils.SanitizeOptional("subject", in.Subject, ticket.MaxSubjectLength); err != nil {
		return p, err
	}
	if p.Description, err = utils.SanitizeOptional("description", in.Description, ticket.MaxDescriptionLength); err != nil {
		return p, err
	}
	if p.Goal, err = utils.SanitizeOptional("goal", in.Goal, ticket.MaxGoalLength); err != nil {
		return p, err
	}
	if p.ContactInfo, err = utils.SanitizeOptional("contact_info", in.ContactInfo, ticket.MaxContactLength); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Service) ClaimTicket(ctx context.Context, scope, number, claimantID, claimantTag string) (*dto.TicketDTO, error) {
	if err := utils.ValidateUserID("claimant_id", claimantID); err != nil {
		return nil, err
	}
	tag := utils.SanitizeText(claimantTag)
	return s.mutateTicket(ctx, "claim", scope, number, func(t *ticket.Ticket) error {
		return t.Claim(claimantID, tag)
	})
}

func (s *Service) UnclaimTicket(ctx context.Context, scope, number string) (*dto.TicketDTO, error) {
	return s.mutateTicket(ctx, "unclaim", scope, number, func(t *ticket.Ticket) error {
		return t.Unclaim()
	})
}

// CloseTicket moves a ticket to its terminal state. Closing a closed ticket
// is a conflict.
func (s *Service) CloseTicket(ctx context.Context, scope, number, closedBy, reason string) (*dto.TicketDTO, error) {
	if len(closedBy) > utils.MaxUserIDLength {
		return nil, errors.NewValidationError("closed_by is too long")
	}
	clean, err := utils.SanitizeBounded("close_reason", reason, ticket.MaxReasonLength)
	if err != nil {
		return nil, err
	}
	return s.mutateTicket(ctx, "close", scope, number, func(t *ticket.Ticket) error {
		return t.Close(closedBy, clean)
	})
}

// mutateTicket loads, changes and saves one ticket under its key lock and in
// one transaction, then drops the cache entries that could show the old
// state.
func (s *Service) mutateTicket(ctx context.Context, action, scope, number string, fn func(t *ticket.Ticket) error) (*dto.TicketDTO, error) {
	scope = ticket.Scope(scope)
	if err := validateTicketRef(scope, number); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("ticket:" + scope + ":" + number)
	defer unlock()

	var (
		updated    *ticket.Ticket
		oldChannel string
	)
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repos.Tickets.GetByNumber(ctx, scope, number)
		if err != nil {
			return err
		}
		oldChannel = t.ChannelRef()
		if err := fn(t); err != nil {
			return err
		}
		if err := s.repos.Tickets.Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		s.logger.Warnw("ticket "+action+" failed", "scope", scope, "number", number, "error", err)
		return nil, err
	}

	s.invalidate(ctx,
		cache.TicketKey(scope, number),
		channelPattern(oldChannel),
		channelPattern(updated.ChannelRef()),
		cache.TicketListsPattern,
	)

	s.logger.Infow("ticket "+action+" succeeded",
		"scope", scope,
		"number", number,
		"status", updated.Status(),
	)
	return dto.ToTicketDTO(updated), nil
}
