package ticket

import (
	"fmt"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	vo "github.com/carrydesk/carrydesk/internal/domain/ticket/valueobjects"
	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/id"
)

// Ticket is either a support ticket (scoped by category) or a help request
// (scoped by game). Its number is unique within that scope.
type Ticket struct {
	id           uint
	sid          string
	scope        string
	number       string
	requesterID  string
	requesterTag string
	channelRef   string
	category     string
	subject      string
	description  string
	priority     vo.Priority
	game         string
	gamemode     string
	goal         string
	contactInfo  string
	metadata     map[string]any
	status       vo.TicketStatus
	claimantID   string
	claimantTag  string
	kind         vo.TicketKind
	createdAt    time.Time
	updatedAt    time.Time
	closedAt     *time.Time
	closedBy     string
	closeReason  string
}

// Params carries the caller-provided fields of a new ticket.
type Params struct {
	Number       string
	RequesterID  string
	RequesterTag string
	ChannelRef   string
	Category     string
	Subject      string
	Description  string
	Priority     vo.Priority
	Game         string
	Gamemode     string
	Goal         string
	ContactInfo  string
	Metadata     map[string]any
	Kind         vo.TicketKind
}

// Record is the full persisted state used to rebuild a ticket.
type Record struct {
	Params
	ID          uint
	SID         string
	Status      vo.TicketStatus
	ClaimantID  string
	ClaimantTag string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
	ClosedBy    string
	CloseReason string
}

func NewTicket(p Params) (*Ticket, error) {
	if p.Kind == "" {
		p.Kind = vo.KindSupport
	}
	if err := validateParams(p); err != nil {
		return nil, err
	}

	sid, err := id.NewTicketID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket ID: %w", err)
	}

	now := biztime.Now()
	t := &Ticket{
		sid:          sid,
		scope:        scopeOf(p.Kind, p.Category, p.Game),
		number:       strings.TrimSpace(p.Number),
		requesterID:  p.RequesterID,
		requesterTag: p.RequesterTag,
		channelRef:   p.ChannelRef,
		category:     p.Category,
		subject:      p.Subject,
		description:  p.Description,
		priority:     p.Priority,
		game:         p.Game,
		gamemode:     p.Gamemode,
		goal:         p.Goal,
		contactInfo:  p.ContactInfo,
		metadata:     cloneMetadata(p.Metadata),
		status:       vo.StatusOpen,
		kind:         p.Kind,
		createdAt:    now,
		updatedAt:    now,
	}
	return t, nil
}

func ReconstructTicket(r Record) (*Ticket, error) {
	if r.ID == 0 {
		return nil, fmt.Errorf("ticket ID cannot be zero")
	}
	if r.Number == "" {
		return nil, fmt.Errorf("ticket number is required")
	}
	if !r.Status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", r.Status)
	}
	if !r.Kind.IsValid() {
		return nil, fmt.Errorf("invalid kind: %s", r.Kind)
	}

	return &Ticket{
		id:           r.ID,
		sid:          r.SID,
		scope:        scopeOf(r.Kind, r.Category, r.Game),
		number:       r.Number,
		requesterID:  r.RequesterID,
		requesterTag: r.RequesterTag,
		channelRef:   r.ChannelRef,
		category:     r.Category,
		subject:      r.Subject,
		description:  r.Description,
		priority:     r.Priority,
		game:         r.Game,
		gamemode:     r.Gamemode,
		goal:         r.Goal,
		contactInfo:  r.ContactInfo,
		metadata:     cloneMetadata(r.Metadata),
		status:       r.Status,
		claimantID:   r.ClaimantID,
		claimantTag:  r.ClaimantTag,
		kind:         r.Kind,
		createdAt:    r.CreatedAt,
		updatedAt:    r.UpdatedAt,
		closedAt:     r.ClosedAt,
		closedBy:     r.ClosedBy,
		closeReason:  r.CloseReason,
	}, nil
}

func validateParams(p Params) error {
	if !p.Kind.IsValid() {
		return errors.NewValidationError("invalid ticket kind", string(p.Kind))
	}
	if strings.TrimSpace(p.RequesterID) == "" {
		return errors.NewValidationError("requester_id is required")
	}
	if p.Kind.IsHelpRequest() {
		if strings.TrimSpace(p.Game) == "" {
			return errors.NewValidationError("game is required for help requests")
		}
	} else if strings.TrimSpace(p.Category) == "" {
		return errors.NewValidationError("category is required for support tickets")
	}
	if !p.Priority.IsValid() {
		return errors.NewValidationError("invalid priority", string(p.Priority))
	}
	return validateLengths(map[string]lengthCheck{
		"subject":      {p.Subject, MaxSubjectLength},
		"description":  {p.Description, MaxDescriptionLength},
		"goal":         {p.Goal, MaxGoalLength},
		"contact_info": {p.ContactInfo, MaxContactLength},
	})
}

type lengthCheck struct {
	value string
	max   int
}

func validateLengths(checks map[string]lengthCheck) error {
	for field, c := range checks {
		if utf8.RuneCountInString(c.value) > c.max {
			return errors.NewValidationError(fmt.Sprintf("%s exceeds maximum length of %d characters", field, c.max))
		}
	}
	return nil
}

func scopeOf(kind vo.TicketKind, category, game string) string {
	if kind.IsHelpRequest() {
		return Scope(game)
	}
	return Scope(category)
}

// Scope normalizes a category or game name into a numbering scope.
func Scope(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}

func (t *Ticket) ID() uint {
	return t.id
}

func (t *Ticket) SID() string {
	return t.sid
}

func (t *Ticket) Scope() string {
	return t.scope
}

func (t *Ticket) Number() string {
	return t.number
}

func (t *Ticket) RequesterID() string {
	return t.requesterID
}

func (t *Ticket) RequesterTag() string {
	return t.requesterTag
}

func (t *Ticket) ChannelRef() string {
	return t.channelRef
}

func (t *Ticket) Category() string {
	return t.category
}

func (t *Ticket) Subject() string {
	return t.subject
}

func (t *Ticket) Description() string {
	return t.description
}

func (t *Ticket) Priority() vo.Priority {
	return t.priority
}

func (t *Ticket) Game() string {
	return t.game
}

func (t *Ticket) Gamemode() string {
	return t.gamemode
}

func (t *Ticket) Goal() string {
	return t.goal
}

func (t *Ticket) ContactInfo() string {
	return t.contactInfo
}

func (t *Ticket) Status() vo.TicketStatus {
	return t.status
}

func (t *Ticket) ClaimantID() string {
	return t.claimantID
}

func (t *Ticket) ClaimantTag() string {
	return t.claimantTag
}

func (t *Ticket) Kind() vo.TicketKind {
	return t.kind
}

func (t *Ticket) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Ticket) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Ticket) ClosedAt() *time.Time {
	return t.closedAt
}

func (t *Ticket) ClosedBy() string {
	return t.closedBy
}

func (t *Ticket) CloseReason() string {
	return t.closeReason
}

func (t *Ticket) Metadata() map[string]any {
	return maps.Clone(t.metadata)
}

func (t *Ticket) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("ticket ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("ticket ID cannot be zero")
	}
	t.id = id
	return nil
}

func (t *Ticket) SetNumber(number string) error {
	if t.number != "" {
		return fmt.Errorf("ticket number is already set")
	}
	if number == "" {
		return fmt.Errorf("ticket number cannot be empty")
	}
	t.number = number
	return nil
}

// Claim hands an open ticket to a helper or staff member.
func (t *Ticket) Claim(claimantID, claimantTag string) error {
	if strings.TrimSpace(claimantID) == "" {
		return errors.NewValidationError("claimant_id is required")
	}
	if !t.status.CanTransitionTo(vo.StatusClaimed) {
		return newTransitionError(t.status, vo.StatusClaimed)
	}
	t.status = vo.StatusClaimed
	t.claimantID = claimantID
	t.claimantTag = claimantTag
	t.touch()
	return nil
}

// Unclaim returns a claimed ticket to the open queue.
func (t *Ticket) Unclaim() error {
	if !t.status.CanTransitionTo(vo.StatusOpen) {
		return newTransitionError(t.status, vo.StatusOpen)
	}
	t.status = vo.StatusOpen
	t.claimantID = ""
	t.claimantTag = ""
	t.touch()
	return nil
}

func (t *Ticket) Close(closedBy, reason string) error {
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return errors.NewValidationError(fmt.Sprintf("close_reason exceeds maximum length of %d characters", MaxReasonLength))
	}
	if !t.status.CanTransitionTo(vo.StatusClosed) {
		return newTransitionError(t.status, vo.StatusClosed)
	}
	t.touch()
	closedAt := t.updatedAt
	t.status = vo.StatusClosed
	t.closedAt = &closedAt
	t.closedBy = closedBy
	t.closeReason = reason
	return nil
}

// Patch lists the mutable ticket fields. Identity, number, scope, status and
// creation time are not patchable; status moves through Claim, Unclaim and
// Close.
type Patch struct {
	RequesterTag *string
	ChannelRef   *string
	Subject      *string
	Description  *string
	Priority     *vo.Priority
	Gamemode     *string
	Goal         *string
	ContactInfo  *string
	Metadata     map[string]any
}

func (p Patch) IsEmpty() bool {
	return p.RequesterTag == nil && p.ChannelRef == nil && p.Subject == nil &&
		p.Description == nil && p.Priority == nil && p.Gamemode == nil &&
		p.Goal == nil && p.ContactInfo == nil && p.Metadata == nil
}

// Apply validates p as a whole before changing anything.
func (t *Ticket) Apply(p Patch) error {
	if p.IsEmpty() {
		return errors.NewValidationError("update contains no fields")
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return errors.NewValidationError("invalid priority", string(*p.Priority))
	}
	checks := map[string]lengthCheck{}
	if p.Subject != nil {
		checks["subject"] = lengthCheck{*p.Subject, MaxSubjectLength}
	}
	if p.Description != nil {
		checks["description"] = lengthCheck{*p.Description, MaxDescriptionLength}
	}
	if p.Goal != nil {
		checks["goal"] = lengthCheck{*p.Goal, MaxGoalLength}
	}
	if p.ContactInfo != nil {
		checks["contact_info"] = lengthCheck{*p.ContactInfo, MaxContactLength}
	}
	if err := validateLengths(checks); err != nil {
		return err
	}

	if p.RequesterTag != nil {
		t.requesterTag = *p.RequesterTag
	}
	if p.ChannelRef != nil {
		t.channelRef = *p.ChannelRef
	}
	if p.Subject != nil {
		t.subject = *p.Subject
	}
	if p.Description != nil {
		t.description = *p.Description
	}
	if p.Priority != nil {
		t.priority = *p.Priority
	}
	if p.Gamemode != nil {
		t.gamemode = *p.Gamemode
	}
	if p.Goal != nil {
		t.goal = *p.Goal
	}
	if p.ContactInfo != nil {
		t.contactInfo = *p.ContactInfo
	}
	if p.Metadata != nil {
		t.metadata = cloneMetadata(p.Metadata)
	}
	t.touch()
	return nil
}

// touch advances updatedAt, keeping it strictly after the previous value so
// back-to-back writes within one millisecond stay ordered.
func (t *Ticket) touch() {
	now := biztime.Now()
	if !now.After(t.updatedAt) {
		now = t.updatedAt.Add(time.Millisecond)
	}
	t.updatedAt = now
}
