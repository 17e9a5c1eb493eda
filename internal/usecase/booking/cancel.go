package booking

import (
	"context"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/dto"
	"github.com/BruksfildServices01/table-booking/internal/queue"
)

// CancelBooking frees a booking's seats. It needs no admission check.
type CancelBooking struct {
	store    domain.Store
	notifier *Notifier
	policy   Policy
}

func NewCancelBooking(
	store domain.Store,
	notifier *Notifier,
	policy Policy,
) *CancelBooking {
	return &CancelBooking{
		store:    store,
		notifier: notifier,
		policy:   policy,
	}
}

func (uc *CancelBooking) Execute(
	ctx context.Context,
	bookingID string,
) (*dto.BookingDTO, error) {

	b, err := uc.store.GetActiveBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	rest, err := uc.store.GetRestaurant(ctx, b.RestaurantID)
	if err != nil {
		return nil, err
	}

	now := uc.policy.now()
	if err := domain.Cancel(b, now); err != nil {
		return nil, err
	}

	// a concurrent cancel wins the conditional update and this one
	// reports NotFound
	if err := uc.store.CancelBooking(ctx, b.ID, now); err != nil {
		return nil, err
	}

	uc.notifier.bookingChanged(ctx, queue.TypeBookingCancelled, "booking_cancelled", b.UserEmail, b, rest)

	return dto.NewBooking(b, rest), nil
}
