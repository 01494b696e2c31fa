package ticket

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/carrydesk/carrydesk/internal/domain/ticket/valueobjects"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

func newSupportTicket(t *testing.T) *Ticket {
	t.Helper()
	tk, err := NewTicket(Params{
		RequesterID:  "100",
		RequesterTag: "alice",
		Category:     "Billing",
		Subject:      "refund",
		Priority:     vo.PriorityHigh,
	})
	require.NoError(t, err)
	return tk
}

func reconstructed(t *testing.T, status vo.TicketStatus) *Ticket {
	t.Helper()
	now := time.Now().UTC()
	r := Record{
		Params: Params{
			Number:      "7",
			RequesterID: "100",
			Game:        "ALS",
			Gamemode:    "raids",
			Kind:        vo.KindRegular,
		},
		ID:        1,
		SID:       "tkt_abc",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status.IsClaimed() {
		r.ClaimantID = "200"
	}
	tk, err := ReconstructTicket(r)
	require.NoError(t, err)
	return tk
}

func TestNewTicket_Defaults(t *testing.T) {
	tk := newSupportTicket(t)

	assert.Equal(t, vo.KindSupport, tk.Kind())
	assert.Equal(t, vo.StatusOpen, tk.Status())
	assert.Equal(t, "billing", tk.Scope())
	assert.True(t, strings.HasPrefix(tk.SID(), "tkt_"))
	assert.Empty(t, tk.Number())
	assert.Nil(t, tk.ClosedAt())
	assert.Equal(t, tk.CreatedAt(), tk.UpdatedAt())
	assert.NotNil(t, tk.Metadata())
}

func TestNewTicket_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"missing requester", Params{Category: "billing"}},
		{"support without category", Params{RequesterID: "1"}},
		{"help request without game", Params{RequesterID: "1", Kind: vo.KindPaid, Category: "billing"}},
		{"bad kind", Params{RequesterID: "1", Category: "x", Kind: "vip"}},
		{"bad priority", Params{RequesterID: "1", Category: "x", Priority: "critical"}},
		{"subject too long", Params{RequesterID: "1", Category: "x", Subject: strings.Repeat("s", MaxSubjectLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTicket(tt.params)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestNewTicket_HelpRequestScopedByGame(t *testing.T) {
	tk, err := NewTicket(Params{RequesterID: "1", Game: " ALS ", Gamemode: "raids", Kind: vo.KindPaid})
	require.NoError(t, err)
	assert.Equal(t, "als", tk.Scope())
}

func TestTicket_ClaimUnclaimClose(t *testing.T) {
	tk := newSupportTicket(t)

	require.NoError(t, tk.Claim("200", "bob"))
	assert.Equal(t, vo.StatusClaimed, tk.Status())
	assert.Equal(t, "200", tk.ClaimantID())
	assert.Equal(t, "bob", tk.ClaimantTag())

	err := tk.Claim("300", "carol")
	assert.True(t, errors.IsConflictError(err))

	require.NoError(t, tk.Unclaim())
	assert.Equal(t, vo.StatusOpen, tk.Status())
	assert.Empty(t, tk.ClaimantID())

	require.NoError(t, tk.Claim("300", "carol"))
	require.NoError(t, tk.Close("300", "done"))
	assert.Equal(t, vo.StatusClosed, tk.Status())
	require.NotNil(t, tk.ClosedAt())
	assert.Equal(t, "300", tk.ClosedBy())
	assert.Equal(t, "done", tk.CloseReason())
}

func TestTicket_ClosedIsTerminal(t *testing.T) {
	tk := reconstructed(t, vo.StatusOpen)
	require.NoError(t, tk.Close("1", ""))

	assert.True(t, errors.IsConflictError(tk.Close("1", "")))
	assert.True(t, errors.IsConflictError(tk.Claim("2", "x")))
	assert.True(t, errors.IsConflictError(tk.Unclaim()))
}

func TestTicket_UnclaimRequiresClaimed(t *testing.T) {
	tk := reconstructed(t, vo.StatusOpen)
	assert.True(t, errors.IsConflictError(tk.Unclaim()))
}

func TestTicket_ClaimRequiresClaimant(t *testing.T) {
	tk := reconstructed(t, vo.StatusOpen)
	assert.True(t, errors.IsValidationError(tk.Claim(" ", "x")))
}

func TestTicket_Apply(t *testing.T) {
	tk := reconstructed(t, vo.StatusClaimed)
	before := tk.UpdatedAt()

	goal := "clear act 3"
	ref := "chan-9"
	require.NoError(t, tk.Apply(Patch{Goal: &goal, ChannelRef: &ref, Metadata: map[string]any{"region": "eu"}}))

	assert.Equal(t, goal, tk.Goal())
	assert.Equal(t, ref, tk.ChannelRef())
	assert.Equal(t, "eu", tk.Metadata()["region"])
	assert.True(t, tk.UpdatedAt().After(before))
	assert.Equal(t, "7", tk.Number())
}

func TestTicket_ApplyRejectsEmptyAndInvalid(t *testing.T) {
	tk := reconstructed(t, vo.StatusOpen)

	assert.True(t, errors.IsValidationError(tk.Apply(Patch{})))

	long := strings.Repeat("g", MaxGoalLength+1)
	subject := "kept"
	err := tk.Apply(Patch{Goal: &long, Subject: &subject})
	assert.True(t, errors.IsValidationError(err))
	assert.Empty(t, tk.Subject(), "a rejected patch must not be partially applied")
}

func TestTicket_MetadataIsCopied(t *testing.T) {
	tk := newSupportTicket(t)
	m := tk.Metadata()
	m["x"] = 1
	assert.NotContains(t, tk.Metadata(), "x")
}

func TestTicket_SetNumberOnce(t *testing.T) {
	tk := newSupportTicket(t)
	require.NoError(t, tk.SetNumber("12"))
	assert.Error(t, tk.SetNumber("13"))
	assert.Equal(t, "12", tk.Number())
}

func TestReconstructTicket_Invalid(t *testing.T) {
	_, err := ReconstructTicket(Record{Params: Params{Number: "1", Kind: vo.KindSupport}, Status: vo.StatusOpen})
	assert.Error(t, err)

	_, err = ReconstructTicket(Record{ID: 1, Params: Params{Number: "1", Kind: vo.KindSupport}, Status: "pending"})
	assert.Error(t, err)
}
