package booking

import (
	"context"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/dto"
	"github.com/BruksfildServices01/table-booking/internal/models"
	"github.com/BruksfildServices01/table-booking/internal/timezone"
)

type ListBookingsByDate struct {
	repo   domain.Repository
	policy Policy
}

func NewListBookingsByDate(
	repo domain.Repository,
	policy Policy,
) *ListBookingsByDate {
	return &ListBookingsByDate{
		repo:   repo,
		policy: policy,
	}
}

// Execute lists every booking starting on date (YYYY-MM-DD, restaurant
// local), cancelled ones included.
func (uc *ListBookingsByDate) Execute(
	ctx context.Context,
	rest *models.Restaurant,
	date string,
) ([]dto.BookingListDTO, error) {

	loc := uc.policy.location(rest)

	start, end, err := timezone.DayBounds(date, loc)
	if err != nil {
		return nil, domain.InvalidArgument("date", "date must be YYYY-MM-DD")
	}

	bookings, err := uc.repo.ListBookingsForPeriod(ctx, rest.ID, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]dto.BookingListDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, dto.BookingListDTO{
			ID:        b.ID,
			StartTime: b.ReservationTime.In(loc),
			EndTime:   b.EndTime.In(loc),
			Duration:  b.Duration,
			Guests:    b.Guests,
			Status:    b.Status,
			UserName:  b.UserName,
			UserEmail: b.UserEmail,
		})
	}

	return out, nil
}
