package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/dto"
	"github.com/BruksfildServices01/table-booking/internal/models"
	"github.com/BruksfildServices01/table-booking/internal/queue"
)

// UpdateBookingInput changes a booking's slot or party size. Empty or nil
// fields keep the current value.
type UpdateBookingInput struct {
	BookingID       string
	ReservationTime string
	Duration        string
	Guests          *int
}

type UpdateBooking struct {
	store     domain.Store
	admission *Admission
	notifier  *Notifier
	policy    Policy
}

func NewUpdateBooking(
	store domain.Store,
	admission *Admission,
	notifier *Notifier,
	policy Policy,
) *UpdateBooking {
	return &UpdateBooking{
		store:     store,
		admission: admission,
		notifier:  notifier,
		policy:    policy,
	}
}

func (uc *UpdateBooking) Execute(
	ctx context.Context,
	in UpdateBookingInput,
) (*dto.BookingDTO, error) {

	cur, err := uc.store.GetActiveBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}

	rest, err := uc.store.GetRestaurant(ctx, cur.RestaurantID)
	if err != nil {
		return nil, err
	}

	at := in.ReservationTime
	if at == "" {
		at = cur.ReservationTime.UTC().Format(time.RFC3339)
	}
	duration := in.Duration
	if duration == "" {
		duration = cur.Duration
	}
	guests := cur.Guests
	if in.Guests != nil {
		guests = *in.Guests
	}

	window, d, err := uc.policy.window(rest, at, duration)
	if err != nil {
		return nil, err
	}
	if in.ReservationTime != "" {
		if err := uc.policy.checkStart(window.Start); err != nil {
			return nil, err
		}
	}
	if err := checkGuests(rest, guests); err != nil {
		return nil, err
	}

	next := *cur
	next.ReservationTime = window.Start
	next.EndTime = window.End
	next.Duration = d.String()
	next.Guests = guests

	// the booking's own seats are left out of the count, so shrinking or
	// shifting a reservation never competes with itself
	err = uc.admission.Run(ctx, "update", AdmissionRequest{
		RestaurantID: rest.ID,
		Window:       window,
		Guests:       guests,
		ExcludeID:    cur.ID,
	}, func(repo domain.Repository, current *models.Restaurant) error {
		rest = current
		return repo.UpdateBooking(ctx, &next)
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.bookingChanged(ctx, queue.TypeBookingUpdated, "booking_updated", next.UserEmail, &next, rest)

	return dto.NewBooking(&next, rest), nil
}
