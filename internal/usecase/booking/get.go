package booking

import (
	"context"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/dto"
)

type GetBooking struct {
	repo domain.Repository
}

func NewGetBooking(repo domain.Repository) *GetBooking {
	return &GetBooking{repo: repo}
}

// Execute returns the booking whatever its status, with its restaurant.
func (uc *GetBooking) Execute(
	ctx context.Context,
	bookingID string,
) (*dto.BookingDTO, error) {

	b, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	rest, err := uc.repo.GetRestaurant(ctx, b.RestaurantID)
	if err != nil {
		return nil, err
	}

	return dto.NewBooking(b, rest), nil
}
