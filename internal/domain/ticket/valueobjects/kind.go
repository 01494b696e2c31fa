package valueobjects

import "fmt"

// TicketKind separates staff support tickets from player help requests.
type TicketKind string

const (
	KindSupport TicketKind = "support"
	KindRegular TicketKind = "regular"
	KindPaid    TicketKind = "paid"
)

func (k TicketKind) String() string {
	return string(k)
}

func (k TicketKind) IsValid() bool {
	switch k {
	case KindSupport, KindRegular, KindPaid:
		return true
	}
	return false
}

// IsHelpRequest reports whether the ticket is scoped by game rather than
// by support category.
func (k TicketKind) IsHelpRequest() bool {
	return k == KindRegular || k == KindPaid
}

func NewTicketKind(s string) (TicketKind, error) {
	k := TicketKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid ticket kind: %s", s)
	}
	return k, nil
}
