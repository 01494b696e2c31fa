// Package helpdesk is the store facade the bot talks to. Reads go through
// the query cache; writes go to the repositories and then invalidate the
// cache keys they affect.
package helpdesk

import (
	"context"

	"github.com/carrydesk/carrydesk/internal/domain/helper"
	"github.com/carrydesk/carrydesk/internal/domain/quota"
	"github.com/carrydesk/carrydesk/internal/domain/ticket"
	"github.com/carrydesk/carrydesk/internal/infrastructure/cache"
	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/keylock"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// Transactor runs fn in one unit of work, joining a transaction already on
// ctx.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repositories struct {
	Tickets  ticket.TicketRepository
	Numbers  ticket.NumberAllocator
	Helpers  helper.HelperRepository
	Vouches  helper.VouchRepository
	Profiles helper.PaidHelperProfileRepository
	Usage    quota.UsageRepository
	Activity quota.ActivityRepository
}

type Deps struct {
	Repositories
	Tx     Transactor
	Locks  *keylock.Map
	Cache  *cache.QueryCache
	Quota  config.QuotaConfig
	Logger logger.Interface
}

type Service struct {
	repos  Repositories
	tx     Transactor
	locks  *keylock.Map
	cache  *cache.QueryCache
	quota  config.QuotaConfig
	logger logger.Interface
}

func NewService(d Deps) *Service {
	locks := d.Locks
	if locks == nil {
		locks = keylock.New()
	}
	log := d.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repos:  d.Repositories,
		tx:     d.Tx,
		locks:  locks,
		cache:  d.Cache,
		quota:  d.Quota,
		logger: log.Named("helpdesk"),
	}
}

// invalidate drops every cached entry whose key contains one of substrs.
// The write has already committed, so a failure only costs freshness until
// the entries expire.
func (s *Service) invalidate(ctx context.Context, substrs ...string) {
	for _, substr := range substrs {
		if substr == "" {
			continue
		}
		if err := s.cache.Invalidate(ctx, substr); err != nil {
			s.logger.Warnw("cache invalidation failed", "pattern", substr, "error", err)
		}
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}
