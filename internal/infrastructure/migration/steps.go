package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
)

// step is one schema change. Each step checks the live schema before acting
// so re-running it against an already migrated database is harmless.
type step struct {
	version int64
	name    string
	up      func(db *gorm.DB) error
}

// steps returns the ordered migration list. Append only; never renumber.
func steps() []step {
	return []step{
		{version: 1, name: "create_core_tables", up: createCoreTables},
		{version: 2, name: "add_ticket_contact_and_metadata", up: addTicketContactAndMetadata},
		{version: 3, name: "add_paid_helper_support", up: addPaidHelperSupport},
		{version: 4, name: "unique_vouch_per_ticket_rater", up: uniqueVouchPerTicketRater},
		{version: 5, name: "widen_user_id_columns", up: widenUserIDColumns},
	}
}

// Schemas as they were first released. Later columns arrive through their
// own steps.

type ticketV1 struct {
	ID           uint    `gorm:"primaryKey"`
	SID          string  `gorm:"column:sid;uniqueIndex;size:20;not null"`
	Scope        string  `gorm:"size:100;not null;uniqueIndex:idx_tickets_scope_number,priority:1"`
	TicketNumber string  `gorm:"size:32;not null;uniqueIndex:idx_tickets_scope_number,priority:2"`
	RequesterID  string  `gorm:"size:32;not null;index"`
	RequesterTag string  `gorm:"size:100"`
	ChannelRef   *string `gorm:"size:64;uniqueIndex"`
	Category     string  `gorm:"size:100"`
	Subject      string  `gorm:"size:200"`
	Description  string  `gorm:"type:text"`
	Priority     string  `gorm:"size:20"`
	Game         string  `gorm:"size:100"`
	Gamemode     string  `gorm:"size:100"`
	Goal         string  `gorm:"type:text"`
	Status       string  `gorm:"size:20;not null;index"`
	ClaimantID   string  `gorm:"size:32;index"`
	ClaimantTag  string  `gorm:"size:100"`
	Kind         string  `gorm:"size:20;not null;index"`
	CreatedAt    int64   `gorm:"not null;index"`
	UpdatedAt    int64   `gorm:"not null"`
	ClosedAt     *int64
	ClosedBy     string `gorm:"size:32"`
	CloseReason  string `gorm:"size:500"`
}

func (ticketV1) TableName() string { return "tickets" }

type ticketCounterV1 struct {
	ID         uint   `gorm:"primaryKey"`
	Category   string `gorm:"size:100;not null;uniqueIndex"`
	LastNumber int64  `gorm:"not null;default:0"`
	CreatedAt  int64  `gorm:"not null"`
	UpdatedAt  int64  `gorm:"not null"`
}

func (ticketCounterV1) TableName() string { return "ticket_counters" }

type helperV1 struct {
	ID             uint    `gorm:"primaryKey"`
	UserID         string  `gorm:"size:32;not null;uniqueIndex"`
	UserTag        string  `gorm:"size:100"`
	Rank           string  `gorm:"size:50"`
	TotalVouches   int     `gorm:"not null;default:0;index"`
	WeeklyVouches  int     `gorm:"not null;default:0;index"`
	MonthlyVouches int     `gorm:"not null;default:0;index"`
	AverageRating  float64 `gorm:"not null;default:0"`
	HelperSince    int64   `gorm:"not null"`
	UpdatedAt      int64   `gorm:"not null"`
}

func (helperV1) TableName() string { return "helpers" }

type vouchV1 struct {
	ID           uint   `gorm:"primaryKey"`
	SID          string `gorm:"column:sid;uniqueIndex;size:20;not null"`
	TicketID     string `gorm:"size:64;not null"`
	HelperID     string `gorm:"size:32;not null;index"`
	HelperTag    string `gorm:"size:100"`
	RaterID      string `gorm:"size:32;not null"`
	RaterTag     string `gorm:"size:100"`
	Rating       int    `gorm:"not null"`
	Reason       string `gorm:"type:text"`
	Kind         string `gorm:"size:20;not null;default:regular"`
	Compensation string `gorm:"size:200"`
	CreatedAt    int64  `gorm:"not null;index"`
}

func (vouchV1) TableName() string { return "vouches" }

type dailyQuotaUsageV1 struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      string `gorm:"size:32;not null;uniqueIndex:idx_quota_user_cat_sub_date,priority:1"`
	Category    string `gorm:"size:100;not null;uniqueIndex:idx_quota_user_cat_sub_date,priority:2"`
	Subcategory string `gorm:"size:100;not null;default:'';uniqueIndex:idx_quota_user_cat_sub_date,priority:3"`
	Date        string `gorm:"size:10;not null;uniqueIndex:idx_quota_user_cat_sub_date,priority:4;index"`
	UsageCount  int    `gorm:"not null;default:0"`
	CreatedAt   int64  `gorm:"not null"`
	UpdatedAt   int64  `gorm:"not null"`
}

func (dailyQuotaUsageV1) TableName() string { return "daily_quota_usage" }

type dailyUserActivityV1 struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       string `gorm:"size:32;not null;uniqueIndex:idx_activity_user_date,priority:1"`
	Date         string `gorm:"size:10;not null;uniqueIndex:idx_activity_user_date,priority:2;index"`
	MessageCount int    `gorm:"not null;default:0"`
	CreatedAt    int64  `gorm:"not null"`
	UpdatedAt    int64  `gorm:"not null"`
}

func (dailyUserActivityV1) TableName() string { return "daily_user_activity" }

func createCoreTables(db *gorm.DB) error {
	return createMissingTables(db,
		&ticketV1{},
		&ticketCounterV1{},
		&helperV1{},
		&vouchV1{},
		&dailyQuotaUsageV1{},
		&dailyUserActivityV1{},
	)
}

func addTicketContactAndMetadata(db *gorm.DB) error {
	return addMissingColumns(db, &models.TicketModel{}, "ContactInfo", "Metadata")
}

func addPaidHelperSupport(db *gorm.DB) error {
	if err := addMissingColumns(db, &models.HelperModel{}, "IsPaidHelper", "VouchesForPaidAccess"); err != nil {
		return err
	}
	if err := addMissingColumns(db, &models.DailyUserActivityModel{}, "FreeRequestCount"); err != nil {
		return err
	}
	return createMissingTables(db, &models.PaidHelperProfileModel{})
}

func uniqueVouchPerTicketRater(db *gorm.DB) error {
	return createMissingIndexes(db, &models.VouchModel{}, "idx_vouches_ticket_rater")
}

// userIDWidth matches the max length accepted for user ids on input.
const userIDWidth = 64

type columnRef struct {
	model  any
	column string
}

func userIDColumns() []columnRef {
	return []columnRef{
		{&models.TicketModel{}, "requester_id"},
		{&models.TicketModel{}, "claimant_id"},
		{&models.TicketModel{}, "closed_by"},
		{&models.HelperModel{}, "user_id"},
		{&models.VouchModel{}, "helper_id"},
		{&models.VouchModel{}, "rater_id"},
		{&models.PaidHelperProfileModel{}, "user_id"},
		{&models.DailyQuotaUsageModel{}, "user_id"},
		{&models.DailyUserActivityModel{}, "user_id"},
	}
}

// widenUserIDColumns grows the first release's 32 character id columns.
// SQLite does not enforce varchar lengths, so only MySQL is altered.
func widenUserIDColumns(db *gorm.DB) error {
	if db.Dialector.Name() != "mysql" {
		return nil
	}
	m := db.Migrator()
	for _, ref := range userIDColumns() {
		types, err := m.ColumnTypes(ref.model)
		if err != nil {
			return fmt.Errorf("read columns of %T: %w", ref.model, err)
		}
		for _, ct := range types {
			if ct.Name() != ref.column {
				continue
			}
			if length, ok := ct.Length(); ok && length >= userIDWidth {
				break
			}
			if err := m.AlterColumn(ref.model, ref.column); err != nil {
				return fmt.Errorf("widen %s on %T: %w", ref.column, ref.model, err)
			}
			break
		}
	}
	return nil
}

func createMissingTables(db *gorm.DB, tables ...any) error {
	m := db.Migrator()
	for _, table := range tables {
		if m.HasTable(table) {
			continue
		}
		if err := m.CreateTable(table); err != nil {
			return fmt.Errorf("create table for %T: %w", table, err)
		}
	}
	return nil
}

func addMissingColumns(db *gorm.DB, model any, fields ...string) error {
	m := db.Migrator()
	for _, field := range fields {
		if m.HasColumn(model, field) {
			continue
		}
		if err := m.AddColumn(model, field); err != nil {
			return fmt.Errorf("add column %s to %T: %w", field, model, err)
		}
	}
	return nil
}

func createMissingIndexes(db *gorm.DB, model any, names ...string) error {
	m := db.Migrator()
	for _, name := range names {
		if m.HasIndex(model, name) {
			continue
		}
		if err := m.CreateIndex(model, name); err != nil {
			return fmt.Errorf("create index %s on %T: %w", name, model, err)
		}
	}
	return nil
}
