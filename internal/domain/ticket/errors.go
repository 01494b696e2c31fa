package ticket

import (
	"fmt"

	vo "github.com/carrydesk/carrydesk/internal/domain/ticket/valueobjects"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

const (
	MaxSubjectLength     = 200
	MaxDescriptionLength = 4000
	MaxGoalLength        = 1000
	MaxContactLength     = 200
	MaxReasonLength      = 500
)

func newTransitionError(from, to vo.TicketStatus) error {
	return errors.NewConflictError(
		"invalid ticket status transition",
		fmt.Sprintf("cannot move ticket from %s to %s", from, to),
	)
}
