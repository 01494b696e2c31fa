package repository

import (
	"context"
	"time"

	"github.com/carrydesk/carrydesk/internal/domain/ticket"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/mappers"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

type TicketRepository struct {
	provider db.Provider
	mapper   mappers.TicketMapper
}

func NewTicketRepository(provider db.Provider) *TicketRepository {
	return &TicketRepository{
		provider: provider,
		mapper:   mappers.NewTicketMapper(),
	}
}

func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) (err error) {
	defer observe("ticket_create", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return err
	}

	model := r.mapper.ToModel(t)
	if err = tx.Create(model).Error; err != nil {
		return translateError(err, "ticket", "create")
	}

	return t.SetID(model.ID)
}

// Update writes every mutable column. Zero values are written too so that
// cleared fields such as the claimant are persisted.
func (r *TicketRepository) Update(ctx context.Context, t *ticket.Ticket) (err error) {
	defer observe("ticket_update", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return err
	}

	model := r.mapper.ToModel(t)
	result := tx.
		Model(&models.TicketModel{}).
		Where("id = ?", model.ID).
		Select("*").
		Omit("id", "sid", "scope", "ticket_number", "created_at").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "ticket", "update")
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("ticket not found")
	}
	return nil
}

func (r *TicketRepository) GetByNumber(ctx context.Context, scope, number string) (*ticket.Ticket, error) {
	return r.first(ctx, "scope = ? AND ticket_number = ?", ticket.Scope(scope), number)
}

func (r *TicketRepository) GetByChannelRef(ctx context.Context, channelRef string) (*ticket.Ticket, error) {
	return r.first(ctx, "channel_ref = ?", channelRef)
}

func (r *TicketRepository) first(ctx context.Context, query string, args ...any) (t *ticket.Ticket, err error) {
	defer observe("ticket_get", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return nil, err
	}

	var model models.TicketModel
	if err = tx.Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err, "ticket", "find")
	}
	return r.mapper.ToDomain(&model)
}

// List returns matching tickets newest first.
func (r *TicketRepository) List(ctx context.Context, filter ticket.TicketFilter) (list []*ticket.Ticket, err error) {
	defer observe("ticket_list", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return nil, err
	}

	query := tx.Model(&models.TicketModel{}).
		Scopes(db.WithStatus(filter.Status.String()), db.NewestFirst(), db.Limit(filter.Limit))
	if filter.RequesterID != "" {
		query = query.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.ClaimantID != "" {
		query = query.Where("claimant_id = ?", filter.ClaimantID)
	}

	var rows []models.TicketModel
	if err = query.Find(&rows).Error; err != nil {
		return nil, translateError(err, "tickets", "list")
	}
	return r.mapper.ToDomainList(rows)
}
