package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to TicketStatus
		allowed  bool
	}{
		{StatusOpen, StatusClaimed, true},
		{StatusOpen, StatusClosed, true},
		{StatusClaimed, StatusClosed, true},
		{StatusClaimed, StatusOpen, true},
		{StatusClosed, StatusOpen, false},
		{StatusClosed, StatusClaimed, false},
		{StatusOpen, StatusOpen, false},
		{StatusClaimed, StatusClaimed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewTicketStatus(t *testing.T) {
	s, err := NewTicketStatus("claimed")
	assert.NoError(t, err)
	assert.True(t, s.IsClaimed())

	_, err = NewTicketStatus("resolved")
	assert.Error(t, err)
}

func TestTicketKind(t *testing.T) {
	assert.True(t, KindPaid.IsHelpRequest())
	assert.True(t, KindRegular.IsHelpRequest())
	assert.False(t, KindSupport.IsHelpRequest())

	_, err := NewTicketKind("vip")
	assert.Error(t, err)
}

func TestPriority(t *testing.T) {
	assert.True(t, Priority("").IsValid())
	assert.True(t, PriorityUrgent.IsValid())
	_, err := NewPriority("critical")
	assert.Error(t, err)
}
