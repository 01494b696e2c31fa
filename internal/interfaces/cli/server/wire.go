package server

import (
	"github.com/carrydesk/carrydesk/internal/application/helpdesk"
	"github.com/carrydesk/carrydesk/internal/infrastructure/cache"
	"github.com/carrydesk/carrydesk/internal/infrastructure/repository"
	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/keylock"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

// newService wires the repositories over provider. One lock map is shared
// by every component that serializes per-key writes.
func newService(provider db.Provider, queryCache *cache.QueryCache, quota config.QuotaConfig, log logger.Interface) *helpdesk.Service {
	locks := keylock.New()
	return helpdesk.NewService(helpdesk.Deps{
		Repositories: helpdesk.Repositories{
			Tickets:  repository.NewTicketRepository(provider),
			Numbers:  repository.NewTicketCounterRepository(provider, locks),
			Helpers:  repository.NewHelperRepository(provider),
			Vouches:  repository.NewVouchRepository(provider, locks),
			Profiles: repository.NewPaidHelperProfileRepository(provider),
			Usage:    repository.NewQuotaRepository(provider, locks),
			Activity: repository.NewActivityRepository(provider, locks),
		},
		Tx:     db.NewTransactionManager(provider),
		Locks:  locks,
		Cache:  queryCache,
		Quota:  quota,
		Logger: log,
	})
}
