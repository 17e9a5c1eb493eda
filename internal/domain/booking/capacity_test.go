package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/table-booking/internal/models"
)

func TestAdmit(t *testing.T) {
	t.Run("exact capacity is admitted", func(t *testing.T) {
		assert.NoError(t, Admit(4, 2, 2))
	})

	t.Run("one over capacity reports remaining", func(t *testing.T) {
		err := Admit(4, 3, 2)
		require.True(t, IsCapacityExceeded(err))

		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, 1, be.AvailableSeats)
	})

	t.Run("already overbooked never admits", func(t *testing.T) {
		err := Admit(4, 6, 1)
		require.True(t, IsCapacityExceeded(err))

		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, 0, be.AvailableSeats)
	})

	t.Run("non positive guests", func(t *testing.T) {
		assert.True(t, IsInvalidArgument(Admit(4, 0, 0)))
		assert.True(t, IsInvalidArgument(Admit(4, 0, -2)))
	})
}

func TestRemainingAndDisplayed(t *testing.T) {
	occ := []Occupancy{{ID: "a", Guests: 3}, {ID: "b", Guests: 4}}

	assert.Equal(t, 7, OccupiedSeats(occ))
	assert.Equal(t, -3, Remaining(4, OccupiedSeats(occ)))
	assert.Equal(t, 0, Displayed(Remaining(4, OccupiedSeats(occ))))
	assert.Equal(t, 2, Displayed(2))
}

func TestCancel(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	b := &models.Booking{Status: string(StatusConfirmed)}

	require.NoError(t, Cancel(b, now))
	assert.Equal(t, string(StatusCancelled), b.Status)
	assert.Equal(t, now, *b.CancelledAt)
	assert.False(t, Active(b))

	assert.True(t, IsNotFound(Cancel(b, now)))
}

func TestPeakSeats(t *testing.T) {
	windows := []Interval{
		NewInterval(at("10:00"), Duration1Hour),
		NewInterval(at("10:30"), Duration30Min),
		NewInterval(at("11:00"), Duration15Min),
	}
	assert.Equal(t, 5, PeakSeats(windows, []int{2, 3, 4}), "the 11:00 party starts as the others leave")
	assert.Equal(t, 0, PeakSeats(nil, nil))
}
