package mappers

import (
	"github.com/carrydesk/carrydesk/internal/domain/ticket"
	vo "github.com/carrydesk/carrydesk/internal/domain/ticket/valueobjects"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
)

// TicketMapper handles the conversion between Ticket domain entities and persistence models.
type TicketMapper interface {
	ToModel(t *ticket.Ticket) *models.TicketModel
	ToDomain(model *models.TicketModel) (*ticket.Ticket, error)
	ToDomainList(list []models.TicketModel) ([]*ticket.Ticket, error)
}

type TicketMapperImpl struct{}

func NewTicketMapper() TicketMapper {
	return &TicketMapperImpl{}
}

func (m *TicketMapperImpl) ToModel(t *ticket.Ticket) *models.TicketModel {
	model := &models.TicketModel{
		ID:           t.ID(),
		SID:          t.SID(),
		Scope:        t.Scope(),
		TicketNumber: t.Number(),
		RequesterID:  t.RequesterID(),
		RequesterTag: t.RequesterTag(),
		Category:     t.Category(),
		Subject:      t.Subject(),
		Description:  t.Description(),
		Priority:     t.Priority().String(),
		Game:         t.Game(),
		Gamemode:     t.Gamemode(),
		Goal:         t.Goal(),
		ContactInfo:  t.ContactInfo(),
		Status:       t.Status().String(),
		ClaimantID:   t.ClaimantID(),
		ClaimantTag:  t.ClaimantTag(),
		Kind:         t.Kind().String(),
		CreatedAt:    t.CreatedAt().UnixMilli(),
		UpdatedAt:    t.UpdatedAt().UnixMilli(),
		ClosedAt:     timePtrToMillis(t.ClosedAt()),
		ClosedBy:     t.ClosedBy(),
		CloseReason:  t.CloseReason(),
	}

	// Unset channel refs are stored as NULL so the unique index ignores them.
	if ref := t.ChannelRef(); ref != "" {
		model.ChannelRef = &ref
	}

	if meta := t.Metadata(); len(meta) > 0 {
		model.Metadata = meta
	}

	return model
}

func (m *TicketMapperImpl) ToDomain(model *models.TicketModel) (*ticket.Ticket, error) {
	record := ticket.Record{
		Params: ticket.Params{
			Number:       model.TicketNumber,
			RequesterID:  model.RequesterID,
			RequesterTag: model.RequesterTag,
			Category:     model.Category,
			Subject:      model.Subject,
			Description:  model.Description,
			Priority:     vo.Priority(model.Priority),
			Game:         model.Game,
			Gamemode:     model.Gamemode,
			Goal:         model.Goal,
			ContactInfo:  model.ContactInfo,
			Metadata:     model.Metadata,
			Kind:         vo.TicketKind(model.Kind),
		},
		ID:          model.ID,
		SID:         model.SID,
		Status:      vo.TicketStatus(model.Status),
		ClaimantID:  model.ClaimantID,
		ClaimantTag: model.ClaimantTag,
		CreatedAt:   millisToTime(model.CreatedAt),
		UpdatedAt:   millisToTime(model.UpdatedAt),
		ClosedAt:    millisPtrToTime(model.ClosedAt),
		ClosedBy:    model.ClosedBy,
		CloseReason: model.CloseReason,
	}
	if model.ChannelRef != nil {
		record.ChannelRef = *model.ChannelRef
	}

	return ticket.ReconstructTicket(record)
}

func (m *TicketMapperImpl) ToDomainList(list []models.TicketModel) ([]*ticket.Ticket, error) {
	out := make([]*ticket.Ticket, 0, len(list))
	for i := range list {
		t, err := m.ToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
