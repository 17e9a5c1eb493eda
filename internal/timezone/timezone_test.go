package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstantWithOffset(t *testing.T) {
	got, err := ParseInstant("2025-06-01T10:30:00+02:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC), got)

	got, err = ParseInstant("2025-06-01T10:30:00.000Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC), got)
}

func TestParseInstantRejectsFractionalSeconds(t *testing.T) {
	for _, s := range []string{"2025-06-01T10:30:00.123Z", "2025-06-01T10:30:00.5+02:00", "2025-06-01T10:30:00.000000001Z"} {
		_, err := ParseInstant(s, time.UTC)
		assert.ErrorIs(t, err, ErrSubSecond, s)
	}
}

func TestParseInstantZoneLess(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	got, err := ParseInstant("2025-06-01T10:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParseInstantRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "tomorrow", "2025-13-01T10:00", "10:30"} {
		_, err := ParseInstant(s, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidInstant, s)
	}
}

func TestLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, Location("Not/AZone", ""))
	assert.Equal(t, "Europe/Lisbon", Location("", "Europe/Lisbon").String())
	assert.Equal(t, "Asia/Tokyo", Location("Asia/Tokyo", "Europe/Lisbon").String())
}

func TestNowIn(t *testing.T) {
	assert.Equal(t, "Asia/Tokyo", NowIn("Asia/Tokyo", "Europe/Lisbon").Location().String())
	assert.Equal(t, "Europe/Lisbon", NowIn("", "Europe/Lisbon").Location().String())
	assert.Equal(t, time.UTC, NowIn("Not/AZone", "").Location())
	assert.WithinDuration(t, time.Now(), NowIn("Asia/Tokyo", ""), time.Minute)
}

func TestDayBounds(t *testing.T) {
	start, end, err := DayBounds("2025-06-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = DayBounds("06/01/2025", time.UTC)
	assert.Error(t, err)
}
