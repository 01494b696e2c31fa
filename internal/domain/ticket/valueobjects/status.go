package valueobjects

import "fmt"

type TicketStatus string

const (
	StatusOpen    TicketStatus = "open"
	StatusClaimed TicketStatus = "claimed"
	StatusClosed  TicketStatus = "closed"
)

var validTicketStatuses = map[TicketStatus]bool{
	StatusOpen:    true,
	StatusClaimed: true,
	StatusClosed:  true,
}

// claimed -> open is the unclaim path; closed is terminal.
var ticketStatusTransitions = map[TicketStatus][]TicketStatus{
	StatusOpen: {
		StatusClaimed,
		StatusClosed,
	},
	StatusClaimed: {
		StatusOpen,
		StatusClosed,
	},
}

func (ts TicketStatus) String() string {
	return string(ts)
}

func (ts TicketStatus) IsValid() bool {
	return validTicketStatuses[ts]
}

func (ts TicketStatus) CanTransitionTo(newStatus TicketStatus) bool {
	for _, allowed := range ticketStatusTransitions[ts] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

func (ts TicketStatus) IsOpen() bool {
	return ts == StatusOpen
}

func (ts TicketStatus) IsClaimed() bool {
	return ts == StatusClaimed
}

func (ts TicketStatus) IsClosed() bool {
	return ts == StatusClosed
}

func NewTicketStatus(s string) (TicketStatus, error) {
	ts := TicketStatus(s)
	if !ts.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", s)
	}
	return ts, nil
}
