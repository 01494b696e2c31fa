package migration

import (
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
)

// CurrentModels lists every model the migration list must produce a table
// for. It is not used to create schema; Up owns that.
func CurrentModels() []any {
	return []any{
		&models.TicketModel{},
		&models.TicketCounterModel{},
		&models.HelperModel{},
		&models.VouchModel{},
		&models.PaidHelperProfileModel{},
		&models.DailyQuotaUsageModel{},
		&models.DailyUserActivityModel{},
	}
}
