// Package dto holds the read models handed to collaborators. They are plain
// JSON-tagged values so the query cache can store them.
package dto

import (
	"time"

	"github.com/carrydesk/carrydesk/internal/domain/helper"
	"github.com/carrydesk/carrydesk/internal/domain/ticket"
)

type TicketDTO struct {
	ID           uint           `json:"id"`
	SID          string         `json:"sid"`
	Scope        string         `json:"scope"`
	Number       string         `json:"number"`
	Kind         string         `json:"kind"`
	Status       string         `json:"status"`
	RequesterID  string         `json:"requester_id"`
	RequesterTag string         `json:"requester_tag"`
	ChannelRef   string         `json:"channel_ref,omitempty"`
	Category     string         `json:"category,omitempty"`
	Subject      string         `json:"subject,omitempty"`
	Description  string         `json:"description,omitempty"`
	Priority     string         `json:"priority,omitempty"`
	Game         string         `json:"game,omitempty"`
	Gamemode     string         `json:"gamemode,omitempty"`
	Goal         string         `json:"goal,omitempty"`
	ContactInfo  string         `json:"contact_info,omitempty"`
	Metadata     map[string]any `json:"metadata"`
	ClaimantID   string         `json:"claimant_id,omitempty"`
	ClaimantTag  string         `json:"claimant_tag,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	ClosedAt     *time.Time     `json:"closed_at,omitempty"`
	ClosedBy     string         `json:"closed_by,omitempty"`
	CloseReason  string         `json:"close_reason,omitempty"`
}

func ToTicketDTO(t *ticket.Ticket) *TicketDTO {
	if t == nil {
		return nil
	}
	return &TicketDTO{
		ID:           t.ID(),
		SID:          t.SID(),
		Scope:        t.Scope(),
		Number:       t.Number(),
		Kind:         t.Kind().String(),
		Status:       t.Status().String(),
		RequesterID:  t.RequesterID(),
		RequesterTag: t.RequesterTag(),
		ChannelRef:   t.ChannelRef(),
		Category:     t.Category(),
		Subject:      t.Subject(),
		Description:  t.Description(),
		Priority:     t.Priority().String(),
		Game:         t.Game(),
		Gamemode:     t.Gamemode(),
		Goal:         t.Goal(),
		ContactInfo:  t.ContactInfo(),
		Metadata:     t.Metadata(),
		ClaimantID:   t.ClaimantID(),
		ClaimantTag:  t.ClaimantTag(),
		CreatedAt:    t.CreatedAt(),
		UpdatedAt:    t.UpdatedAt(),
		ClosedAt:     t.ClosedAt(),
		ClosedBy:     t.ClosedBy(),
		CloseReason:  t.CloseReason(),
	}
}

func ToTicketDTOs(list []*ticket.Ticket) []*TicketDTO {
	out := make([]*TicketDTO, 0, len(list))
	for _, t := range list {
		out = append(out, ToTicketDTO(t))
	}
	return out
}

type HelperDTO struct {
	ID                   uint      `json:"id"`
	UserID               string    `json:"user_id"`
	UserTag              string    `json:"user_tag"`
	Rank                 string    `json:"rank"`
	TotalVouches         int       `json:"total_vouches"`
	WeeklyVouches        int       `json:"weekly_vouches"`
	MonthlyVouches       int       `json:"monthly_vouches"`
	AverageRating        float64   `json:"average_rating"`
	IsPaidHelper         bool      `json:"is_paid_helper"`
	VouchesForPaidAccess int       `json:"vouches_for_paid_access"`
	HelperSince          time.Time `json:"helper_since"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func ToHelperDTO(h *helper.Helper) *HelperDTO {
	if h == nil {
		return nil
	}
	return &HelperDTO{
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
		HelperSince:          h.HelperSince(),
		UpdatedAt:            h.UpdatedAt(),
	}
}

func ToHelperDTOs(list []*helper.Helper) []*HelperDTO {
	out := make([]*HelperDTO, 0, len(list))
	for _, h := range list {
		out = append(out, ToHelperDTO(h))
	}
	return out
}

type VouchDTO struct {
	ID           uint      `json:"id"`
	SID          string    `json:"sid"`
	TicketID     string    `json:"ticket_id"`
	HelperID     string    `json:"helper_id"`
	HelperTag    string    `json:"helper_tag,omitempty"`
	RaterID      string    `json:"rater_id"`
	RaterTag     string    `json:"rater_tag,omitempty"`
	Rating       int       `json:"rating"`
	Reason       string    `json:"reason,omitempty"`
	Kind         string    `json:"kind"`
	Compensation string    `json:"compensation,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToVouchDTO(v *helper.Vouch) *VouchDTO {
	if v == nil {
		return nil
	}
	return &VouchDTO{
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
		CreatedAt:    v.CreatedAt(),
	}
}

func ToVouchDTOs(list []*helper.Vouch) []*VouchDTO {
	out := make([]*VouchDTO, 0, len(list))
	for _, v := range list {
		out = append(out, ToVouchDTO(v))
	}
	return out
}

type PaidHelperProfileDTO struct {
	ID               uint       `json:"id"`
	SID              string     `json:"sid"`
	UserID           string     `json:"user_id"`
	Bio              string     `json:"bio"`
	BioSetAt         *time.Time `json:"bio_set_at,omitempty"`
	VouchesForAccess int        `json:"vouches_for_access"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func ToPaidHelperProfileDTO(p *helper.PaidHelperProfile) *PaidHelperProfileDTO {
	if p == nil {
		return nil
	}
	return &PaidHelperProfileDTO{
		ID:               p.ID(),
		SID:              p.SID(),
		UserID:           p.UserID(),
		Bio:              p.Bio(),
		BioSetAt:         p.BioSetAt(),
		VouchesForAccess: p.VouchesForAccess(),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
	}
}
