package ticket

import (
	"context"

	vo "github.com/carrydesk/carrydesk/internal/domain/ticket/valueobjects"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *Ticket) error
	Update(ctx context.Context, ticket *Ticket) error
	GetByNumber(ctx context.Context, scope, number string) (*Ticket, error)
	GetByChannelRef(ctx context.Context, channelRef string) (*Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*Ticket, error)
}

// TicketFilter narrows List. Zero-valued fields do not filter.
type TicketFilter struct {
	RequesterID string
	ClaimantID  string
	Status      vo.TicketStatus
	Limit       int
}

// NumberAllocator mints ticket numbers per category. Numbers are strictly
// increasing and never reused.
type NumberAllocator interface {
	Next(ctx context.Context, category string) (string, error)
	// Allocate runs fn with number (or the next one when number is empty)
	// in the counter's transaction. An error from fn rolls the counter back.
	Allocate(ctx context.Context, category, number string, fn func(ctx context.Context, number string) error) error
}
