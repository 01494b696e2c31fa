package models

import (
	"gorm.io/datatypes"
)

// TicketModel stores support tickets and help requests. Scope is the
// category for support tickets and the game for help requests; ticket
// numbers are unique within it. Timestamps are owned by the domain, so
// gorm's automatic tracking is switched off.
type TicketModel struct {
	ID           uint              `gorm:"primaryKey"`
	SID          string            `gorm:"column:sid;uniqueIndex;size:20;not null"`
	Scope        string            `gorm:"size:100;not null;uniqueIndex:idx_tickets_scope_number,priority:1"`
	TicketNumber string            `gorm:"size:32;not null;uniqueIndex:idx_tickets_scope_number,priority:2"`
	RequesterID  string            `gorm:"size:64;not null;index"`
	RequesterTag string            `gorm:"size:100"`
	ChannelRef   *string           `gorm:"size:64;uniqueIndex"`
	Category     string            `gorm:"size:100"`
	Subject      string            `gorm:"size:200"`
	Description  string            `gorm:"type:text"`
	Priority     string            `gorm:"size:20"`
	Game         string            `gorm:"size:100"`
	Gamemode     string            `gorm:"size:100"`
	Goal         string            `gorm:"type:text"`
	ContactInfo  string            `gorm:"size:200"`
	Metadata     datatypes.JSONMap `gorm:"type:json"`
	Status       string            `gorm:"size:20;not null;index"`
	ClaimantID   string            `gorm:"size:64;index"`
	ClaimantTag  string            `gorm:"size:100"`
	Kind         string            `gorm:"size:20;not null;index"`
	CreatedAt    int64             `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt    int64             `gorm:"not null;autoUpdateTime:false"`
	ClosedAt     *int64
	ClosedBy     string `gorm:"size:64"`
	CloseReason  string `gorm:"size:500"`
}

func (TicketModel) TableName() string {
	return "tickets"
}

// TicketCounterModel holds the last number handed out per category.
type TicketCounterModel struct {
	ID         uint   `gorm:"primaryKey"`
	Category   string `gorm:"size:100;not null;uniqueIndex"`
	LastNumber int64  `gorm:"not null;default:0"`
	CreatedAt  int64  `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt  int64  `gorm:"autoUpdateTime:milli;not null"`
}

func (TicketCounterModel) TableName() string {
	return "ticket_counters"
}
