package booking

import (
	"time"

	"github.com/BruksfildServices01/table-booking/internal/models"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Active reports whether the booking still holds seats.
func Active(b *models.Booking) bool {
	return Status(b.Status) == StatusConfirmed
}

// Cancel releases the booking's seats. Cancelling twice reports NotFound,
// the booking no longer exists from the guest's point of view.
func Cancel(b *models.Booking, now time.Time) error {
	if !Active(b) {
		return NotFound("booking")
	}
	b.Status = string(StatusCancelled)
	b.CancelledAt = &now
	return nil
}

// Window is the booking's occupied span.
func Window(b *models.Booking) Interval {
	return Interval{Start: b.ReservationTime, End: b.EndTime}
}
