package helper

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/id"
)

const (
	MinRating = 1
	MaxRating = 5

	MaxReasonLength       = 1000
	MaxCompensationLength = 200
)

type VouchKind string

const (
	VouchKindRegular VouchKind = "regular"
	VouchKindPaid    VouchKind = "paid"
)

func (k VouchKind) IsValid() bool {
	return k == VouchKindRegular || k == VouchKindPaid
}

// Vouch is one rating left by a requester for the helper who served a
// ticket. A rater vouches at most once per ticket.
type Vouch struct {
	id           uint
	sid          string
	ticketID     string
	helperID     string
	helperTag    string
	raterID      string
	raterTag     string
	rating       int
	reason       string
	kind         VouchKind
	compensation string
	createdAt    time.Time
}

type VouchParams struct {
	TicketID     string
	HelperID     string
	HelperTag    string
	RaterID      string
	RaterTag     string
	Rating       int
	Reason       string
	Kind         VouchKind
	Compensation string
}

type VouchRecord struct {
	VouchParams
	ID        uint
	SID       string
	CreatedAt time.Time
}

func NewVouch(p VouchParams) (*Vouch, error) {
	if p.Kind == "" {
		p.Kind = VouchKindRegular
	}
	if err := validateVouch(p); err != nil {
		return nil, err
	}
	sid, err := id.NewVouchID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate vouch ID: %w", err)
	}
	return &Vouch{
		sid:          sid,
		ticketID:     p.TicketID,
		helperID:     p.HelperID,
		helperTag:    p.HelperTag,
		raterID:      p.RaterID,
		raterTag:     p.RaterTag,
		rating:       p.Rating,
		reason:       p.Reason,
		kind:         p.Kind,
		compensation: p.Compensation,
		createdAt:    biztime.Now(),
	}, nil
}

func validateVouch(p VouchParams) error {
	switch {
	case strings.TrimSpace(p.TicketID) == "":
		return errors.NewValidationError("ticket_id is required")
	case strings.TrimSpace(p.HelperID) == "":
		return errors.NewValidationError("helper_id is required")
	case strings.TrimSpace(p.RaterID) == "":
		return errors.NewValidationError("rater_id is required")
	case p.Rating < MinRating || p.Rating > MaxRating:
		return errors.NewValidationError(
			"rating out of range",
			fmt.Sprintf("rating must be between %d and %d, got %d", MinRating, MaxRating, p.Rating),
		)
	case !p.Kind.IsValid():
		return errors.NewValidationError("invalid vouch kind", string(p.Kind))
	case utf8.RuneCountInString(p.Reason) > MaxReasonLength:
		return errors.NewValidationError(fmt.Sprintf("reason exceeds maximum length of %d characters", MaxReasonLength))
	case utf8.RuneCountInString(p.Compensation) > MaxCompensationLength:
		return errors.NewValidationError(fmt.Sprintf("compensation exceeds maximum length of %d characters", MaxCompensationLength))
	}
	return nil
}

func ReconstructVouch(r VouchRecord) (*Vouch, error) {
	if r.ID == 0 {
		return nil, fmt.Errorf("vouch ID cannot be zero")
	}
	return &Vouch{
		id:           r.ID,
		sid:          r.SID,
		ticketID:     r.TicketID,
		helperID:     r.HelperID,
		helperTag:    r.HelperTag,
		raterID:      r.RaterID,
		raterTag:     r.RaterTag,
		rating:       r.Rating,
		reason:       r.Reason,
		kind:         r.Kind,
		compensation: r.Compensation,
		createdAt:    r.CreatedAt,
	}, nil
}

func (v *Vouch) ID() uint             { return v.id }
func (v *Vouch) SID() string          { return v.sid }
func (v *Vouch) TicketID() string     { return v.ticketID }
func (v *Vouch) HelperID() string     { return v.helperID }
func (v *Vouch) HelperTag() string    { return v.helperTag }
func (v *Vouch) RaterID() string      { return v.raterID }
func (v *Vouch) RaterTag() string     { return v.raterTag }
func (v *Vouch) Rating() int          { return v.rating }
func (v *Vouch) Reason() string       { return v.reason }
func (v *Vouch) Kind() VouchKind      { return v.kind }
func (v *Vouch) Compensation() string { return v.compensation }
func (v *Vouch) CreatedAt() time.Time { return v.createdAt }

func (v *Vouch) SetID(id uint) error {
	if v.id != 0 {
		return fmt.Errorf("vouch ID is already set")
	}
	v.id = id
	return nil
}
