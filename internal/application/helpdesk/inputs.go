package helpdesk

// CreateTicketInput describes a new support ticket or help request. Number
// is optional; when empty the next number of the ticket's scope is
// allocated. A numeric Number also moves the scope's counter up to it.
type CreateTicketInput struct {
	Number       string         `json:"number" validate:"max=32"`
	Kind         string         `json:"kind" validate:"omitempty,oneof=support regular paid"`
	RequesterID  string         `json:"requester_id" validate:"required,max=64"`
	RequesterTag string         `json:"requester_tag" validate:"max=100"`
	ChannelRef   string         `json:"channel_ref" validate:"max=64"`
	Category     string         `json:"category" validate:"max=100"`
	Subject      string         `json:"subject"`
	Description  string         `json:"description"`
	Priority     string         `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Game         string         `json:"game" validate:"max=100"`
	Gamemode     string         `json:"gamemode" validate:"max=100"`
	Goal         string         `json:"goal"`
	ContactInfo  string         `json:"contact_info"`
	Metadata     map[string]any `json:"metadata"`
}

// UpdateTicketInput carries a partial update; nil fields are left alone.
type UpdateTicketInput struct {
	RequesterTag *string        `json:"requester_tag" validate:"omitempty,max=100"`
	ChannelRef   *string        `json:"channel_ref" validate:"omitempty,max=64"`
	Subject      *string        `json:"subject"`
	Description  *string        `json:"description"`
	Priority     *string        `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Gamemode     *string        `json:"gamemode" validate:"omitempty,max=100"`
	Goal         *string        `json:"goal"`
	ContactInfo  *string        `json:"contact_info"`
	Metadata     map[string]any `json:"metadata"`
}

type CreateHelperInput struct {
	UserID  string `json:"user_id" validate:"required,max=64"`
	UserTag string `json:"user_tag" validate:"max=100"`
	Rank    string `json:"rank" validate:"max=50"`
}

type UpdateHelperInput struct {
	UserTag              *string `json:"user_tag" validate:"omitempty,max=100"`
	Rank                 *string `json:"rank" validate:"omitempty,max=50"`
	IsPaidHelper         *bool   `json:"is_paid_helper"`
	VouchesForPaidAccess *int    `json:"vouches_for_paid_access" validate:"omitempty,gte=0"`
}

type CreateVouchInput struct {
	TicketID     string `json:"ticket_id" validate:"required,max=64"`
	HelperID     string `json:"helper_id" validate:"required,max=64"`
	HelperTag    string `json:"helper_tag" validate:"max=100"`
	RaterID      string `json:"rater_id" validate:"required,max=64"`
	RaterTag     string `json:"rater_tag" validate:"max=100"`
	Rating       int    `json:"rating" validate:"gte=1,lte=5"`
	Reason       string `json:"reason"`
	Kind         string `json:"kind" validate:"omitempty,oneof=regular paid"`
	Compensation string `json:"compensation"`
}
