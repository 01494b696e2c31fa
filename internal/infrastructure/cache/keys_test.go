package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys_DistinctFieldsNeverCollide(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"quota colon in category", QuotaKey("u", "x:c", "s", "2025-06-01"), QuotaKey("u:x", "c", "s", "2025-06-01")},
		{"quota escaped colon", QuotaKey("u", "x%3Ac", "s", "2025-06-01"), QuotaKey("u", "x:c", "s", "2025-06-01")},
		{"activity", ActivityKey("u:2025-06-01", ""), ActivityKey("u", "2025-06-01:")},
		{"user tickets", UserTicketsKey("u:open", ""), UserTicketsKey("u", "open")},
		{"ticket number", TicketKey("a:b", "1"), TicketKey("a", "b:1")},
		{"ticket vs channel", TicketKey("channel", "c9"), TicketChannelKey("c9")},
		{"ticket vs chan", TicketKey("chan", "c9"), TicketChannelKey("c9")},
		{"helper vs top", HelperKey("top:weekly:10"), TopHelpersKey("weekly", 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, tt.a, tt.b)
		})
	}
}

func TestKeys_PatternsMatchTheirFamily(t *testing.T) {
	assert.Contains(t, TicketChannelKey("c9"), TicketChannelPattern("c9"))
	assert.NotContains(t, TicketKey("channel", "c9"), TicketChannelPattern("c9"))
	assert.Contains(t, HelperVouchesKey("h:1", 10), HelperVouchesPattern("h:1"))
	assert.NotContains(t, HelperVouchesKey("h", 10), HelperVouchesPattern("h:1"))
	assert.Contains(t, TopHelpersKey("weekly", 10), TopHelpersPattern)
	assert.Contains(t, UserTicketsKey("u1", ""), TicketListsPattern)
	assert.Contains(t, HelperKey("u1"), HelperKey(""))
	assert.Contains(t, TopHelpersKey("weekly", 10), HelperKey(""))
}

func TestCached_CollidingLookingKeysStaySeparate(t *testing.T) {
	ctx := context.Background()
	qc, _ := newTestCache(t)

	a, err := Cached(ctx, qc, QuotaKey("u", "x:c", "s", "2025-06-01"), 0, func(context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	b, err := Cached(ctx, qc, QuotaKey("u:x", "c", "s", "2025-06-01"), 0, func(context.Context) (int, error) {
		return 0, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, a)
	assert.Zero(t, b)
}
