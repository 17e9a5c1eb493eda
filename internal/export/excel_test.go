package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/BruksfildServices01/table-booking/internal/dto"
)

func TestWriteBookings(t *testing.T) {
	start := time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)
	rows := []dto.BookingListDTO{
		{ID: "b1", StartTime: start, EndTime: start.Add(time.Hour), Duration: "1h", Guests: 4, Status: "confirmed", UserName: "Ana", UserEmail: "ana@example.com"},
		{ID: "b2", StartTime: start, EndTime: start.Add(30 * time.Minute), Duration: "30min", Guests: 2, Status: "cancelled", UserName: "Rui", UserEmail: "rui@example.com"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, "Trattoria", "2025-03-14", rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("2025-03-14")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), 7)

	assert.Equal(t, "Trattoria bookings 2025-03-14", got[0][0])
	assert.Equal(t, bookingColumns, got[2])
	assert.Equal(t, []string{"19:00", "20:00", "1h", "4", "Ana", "ana@example.com", "confirmed", "b1"}, got[3])
	assert.Equal(t, "cancelled", got[4][6])
	assert.Equal(t, []string{"", "", "Confirmed guests", "4"}, got[6])
}
