package repository

import (
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/carrydesk/carrydesk/internal/infrastructure/metrics"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

// translateError maps driver and gorm errors onto the store's error
// taxonomy. entity names the record kind in messages.
func translateError(err error, entity, action string) error {
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		return err
	}
	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.NewNotFoundError(entity + " not found")
	case errors.IsDuplicateError(err):
		return errors.NewConflictError(entity+" already exists", err.Error())
	case errors.IsDriverConnectionError(err):
		return errors.NewConnectionError(fmt.Sprintf("failed to %s %s", action, entity), err)
	}
	return fmt.Errorf("failed to %s %s: %w", action, entity, err)
}

// observe records the duration and outcome of a store operation. Call it
// deferred with a pointer to the named error result.
func observe(op string, start time.Time, err *error) {
	metrics.ObserveStoreOp(op, start, *err)
}
