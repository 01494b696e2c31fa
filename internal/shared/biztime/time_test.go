package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withZone(t *testing.T, tz string) {
	t.Helper()
	prev := Location()
	require.NoError(t, Init(tz))
	t.Cleanup(func() { bizLocation.Store(prev) })
}

func TestDateKey_UsesBusinessTimezone(t *testing.T) {
	withZone(t, "America/New_York")

	// 03:30 UTC on Jan 2 is still Jan 1 in New York.
	ts := time.Date(2026, 1, 2, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-01", DateKey(ts))

	ts = time.Date(2026, 1, 2, 5, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-02", DateKey(ts))
}

func TestDateKey_DefaultsToUTC(t *testing.T) {
	withZone(t, "")
	assert.Equal(t, "2026-03-09", DateKey(time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)))
}

func TestParseDateKey(t *testing.T) {
	withZone(t, "Asia/Tokyo")

	got, err := ParseDateKey("2026-05-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 30, 15, 0, 0, 0, time.UTC), got)

	_, err = ParseDateKey("05/01/2026")
	assert.Error(t, err)
}

func TestInit_RejectsUnknownZone(t *testing.T) {
	assert.Error(t, Init("Mars/Olympus_Mons"))
}

func TestStartOfWeekAndMonth(t *testing.T) {
	withZone(t, "UTC")

	// Thursday
	ts := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), StartOfWeekUTC(ts))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), StartOfMonthUTC(ts))
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), StartOfDayUTC(ts))

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), StartOfWeekUTC(sunday))
}
