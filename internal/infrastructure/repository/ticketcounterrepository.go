package repository

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carrydesk/carrydesk/internal/domain/ticket"
	"github.com/carrydesk/carrydesk/internal/infrastructure/metrics"
	"github.com/carrydesk/carrydesk/internal/infrastructure/persistence/models"
	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/db"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/keylock"
)

// TicketCounterRepository allocates ticket numbers per category.
type TicketCounterRepository struct {
	provider  db.Provider
	txManager *db.TransactionManager
	locks     *keylock.Map
}

func NewTicketCounterRepository(provider db.Provider, locks *keylock.Map) *TicketCounterRepository {
	return &TicketCounterRepository{
		provider:  provider,
		txManager: db.NewTransactionManager(provider),
		locks:     locks,
	}
}

// Next returns the next number for category, starting at "1". The upsert
// and the read-back share one transaction, and writers for one category
// are serialized in-process, so every caller sees its own increment.
func (r *TicketCounterRepository) Next(ctx context.Context, category string) (string, error) {
	var number string
	err := r.Allocate(ctx, category, "", func(_ context.Context, n string) error {
		number = n
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// Allocate runs fn with a ticket number inside the counter's transaction.
// An empty number draws the next one; a numeric number raises the counter
// to at least its value so later draws never collide with it. When fn
// fails the counter change is rolled back and the number stays available.
func (r *TicketCounterRepository) Allocate(ctx context.Context, category, number string, fn func(ctx context.Context, number string) error) (err error) {
	defer observe("ticket_number_allocate", time.Now(), &err)

	category = ticket.Scope(category)
	if category == "" {
		return errors.NewValidationError("category is required")
	}

	unlock := r.locks.Lock("counter:" + category)
	defer unlock()

	drawn := number == ""
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx, err := db.GetTxFromContext(ctx, r.provider)
		if err != nil {
			return err
		}

		if drawn {
			next, err := r.advance(tx, category)
			if err != nil {
				return err
			}
			number = strconv.FormatInt(next, 10)
		} else if n, ok := numericTicketNumber(number); ok {
			if err := r.raise(tx, category, n); err != nil {
				return err
			}
		}

		return fn(ctx, number)
	})
	if err != nil {
		return translateError(err, "ticket counter", "advance")
	}

	if drawn {
		metrics.RecordTicketNumberAllocated()
	}
	return nil
}

func (r *TicketCounterRepository) advance(tx *gorm.DB, category string) (int64, error) {
	seed := models.TicketCounterModel{Category: category, LastNumber: 1}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "category"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_number": gorm.Expr("last_number + 1"),
			"updated_at":  biztime.Now().UnixMilli(),
		}),
	}).Create(&seed).Error; err != nil {
		return 0, err
	}

	var row models.TicketCounterModel
	if err := tx.Where("category = ?", category).First(&row).Error; err != nil {
		return 0, err
	}
	return row.LastNumber, nil
}

// raise moves the counter up to n. It never moves it down.
func (r *TicketCounterRepository) raise(tx *gorm.DB, category string, n int64) error {
	seed := models.TicketCounterModel{Category: category, LastNumber: n}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "category"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_number": gorm.Expr("CASE WHEN last_number < ? THEN ? ELSE last_number END", n, n),
			"updated_at":  biztime.Now().UnixMilli(),
		}),
	}).Create(&seed).Error
}

func numericTicketNumber(number string) (int64, bool) {
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Current reports the last number handed out for category, 0 if none.
func (r *TicketCounterRepository) Current(ctx context.Context, category string) (n int64, err error) {
	defer observe("ticket_number_current", time.Now(), &err)

	tx, err := db.GetTxFromContext(ctx, r.provider)
	if err != nil {
		return 0, err
	}

	var row models.TicketCounterModel
	err = tx.Where("category = ?", ticket.Scope(category)).Limit(1).Find(&row).Error
	if err != nil {
		return 0, translateError(err, "ticket counter", "read")
	}
	return row.LastNumber, nil
}
