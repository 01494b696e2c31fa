package models

type HelperModel struct {
	ID                   uint    `gorm:"primaryKey"`
	UserID               string  `gorm:"size:64;not null;uniqueIndex"`
	UserTag              string  `gorm:"size:100"`
	Rank                 string  `gorm:"size:50"`
	TotalVouches         int     `gorm:"not null;default:0;index"`
	WeeklyVouches        int     `gorm:"not null;default:0;index"`
	MonthlyVouches       int     `gorm:"not null;default:0;index"`
	AverageRating        float64 `gorm:"not null;default:0"`
	IsPaidHelper         bool    `gorm:"not null;default:false"`
	VouchesForPaidAccess int     `gorm:"not null;default:0"`
	HelperSince          int64   `gorm:"not null"`
	UpdatedAt            int64   `gorm:"not null;autoUpdateTime:false"`
}

func (HelperModel) TableName() string {
	return "helpers"
}

// VouchModel is one rating. A rater may vouch once per ticket.
type VouchModel struct {
	ID           uint   `gorm:"primaryKey"`
	SID          string `gorm:"column:sid;uniqueIndex;size:20;not null"`
	TicketID     string `gorm:"size:64;not null;uniqueIndex:idx_vouches_ticket_rater,priority:1"`
	HelperID     string `gorm:"size:64;not null;index"`
	HelperTag    string `gorm:"size:100"`
	RaterID      string `gorm:"size:64;not null;uniqueIndex:idx_vouches_ticket_rater,priority:2"`
	RaterTag     string `gorm:"size:100"`
	Rating       int    `gorm:"not null"`
	Reason       string `gorm:"type:text"`
	Kind         string `gorm:"size:20;not null;default:regular"`
	Compensation string `gorm:"size:200"`
	CreatedAt    int64  `gorm:"not null;index;autoCreateTime:false"`
}

func (VouchModel) TableName() string {
	return "vouches"
}

type PaidHelperProfileModel struct {
	ID               uint   `gorm:"primaryKey"`
	SID              string `gorm:"column:sid;uniqueIndex;size:20;not null"`
	UserID           string `gorm:"size:64;not null;uniqueIndex"`
	Bio              string `gorm:"type:text"`
	BioSetAt         *int64
	VouchesForAccess int   `gorm:"not null;default:0"`
	CreatedAt        int64 `gorm:"not null;autoCreateTime:false"`
	UpdatedAt        int64 `gorm:"not null;autoUpdateTime:false"`
}

func (PaidHelperProfileModel) TableName() string {
	return "paid_helper_profiles"
}
