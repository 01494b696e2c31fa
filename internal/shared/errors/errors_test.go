package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestAppError_Classification(t *testing.T) {
	wrapped := fmt.Errorf("create vouch: %w", NewConflictError("vouch already recorded"))

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsConflictError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))
	assert.Equal(t, "conflict: vouch already recorded", GetAppError(wrapped).Error())

	assert.True(t, IsNotFoundError(NewNotFoundError("helper not found", "u1")))
	assert.True(t, IsValidationError(NewValidationError("bad")))
	assert.Nil(t, GetAppError(errors.New("plain")))
}

func TestConnectionError_UnwrapsCause(t *testing.T) {
	cause := errors.New("sql: database is closed")
	err := NewConnectionError("store unavailable", cause)

	assert.True(t, IsConnectionError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "sql: database is closed")
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateError(errors.New("UNIQUE constraint failed: vouches.ticket_id, vouches.rater_id")))
	assert.True(t, IsDuplicateError(errors.New("Error 1062: Duplicate entry 'x' for key 'idx'")))
	assert.False(t, IsDuplicateError(errors.New("no such table")))
	assert.False(t, IsDuplicateError(nil))
}

func TestIsDriverConnectionError(t *testing.T) {
	assert.True(t, IsDriverConnectionError(errors.New("sql: database is closed")))
	assert.True(t, IsDriverConnectionError(errors.New("dial tcp: connection refused")))
	assert.False(t, IsDriverConnectionError(errors.New("record not found")))
}
