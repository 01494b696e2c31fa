package models

// DailyQuotaUsageModel counts one user's uses of a category/subcategory on a
// business-timezone date.
type DailyQuotaUsageModel struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      string `gorm:"size:64;not null;uniqueIndex:idx_quota_user_cat_sub_date,priority:1"`
	Category    string `gorm:"size:100;not null;uniqueIndex:idx_quota_user_cat_sub_date,priority:2"`
	Subcategory string `gorm:"size:100;not null;default:'';uniqueIndex:idx_quota_user_cat_sub_date,priority:3"`
	Date        string `gorm:"size:10;not null;uniqueIndex:idx_quota_user_cat_sub_date,priority:4;index"`
	UsageCount  int    `gorm:"not null;default:0"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt   int64  `gorm:"autoUpdateTime:milli;not null"`
}

func (DailyQuotaUsageModel) TableName() string {
	return "daily_quota_usage"
}

type DailyUserActivityModel struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           string `gorm:"size:64;not null;uniqueIndex:idx_activity_user_date,priority:1"`
	Date             string `gorm:"size:10;not null;uniqueIndex:idx_activity_user_date,priority:2;index"`
	MessageCount     int    `gorm:"not null;default:0"`
	FreeRequestCount int    `gorm:"not null;default:0"`
	CreatedAt        int64  `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt        int64  `gorm:"autoUpdateTime:milli;not null"`
}

func (DailyUserActivityModel) TableName() string {
	return "daily_user_activity"
}
