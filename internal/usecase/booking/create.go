package booking

import (
	"context"
	"strings"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/dto"
	"github.com/BruksfildServices01/table-booking/internal/models"
	"github.com/BruksfildServices01/table-booking/internal/queue"
	"github.com/BruksfildServices01/table-booking/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	RestaurantID    string
	ReservationTime string
	Duration        string
	Guests          int
	UserName        string
	UserEmail       string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	store     domain.Store
	admission *Admission
	notifier  *Notifier
	policy    Policy
}

func NewCreateBooking(
	store domain.Store,
	admission *Admission,
	notifier *Notifier,
	policy Policy,
) *CreateBooking {
	return &CreateBooking{
		store:     store,
		admission: admission,
		notifier:  notifier,
		policy:    policy,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateBookingInput,
) (*dto.BookingDTO, error) {

	// --------------------------------------------------
	// Restaurant
	// --------------------------------------------------
	if strings.TrimSpace(in.RestaurantID) == "" {
		return nil, domain.InvalidArgument("restaurantId", "restaurantId is required")
	}
	rest, err := uc.store.GetRestaurant(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Slot in the restaurant's timezone
	// --------------------------------------------------
	window, d, err := uc.policy.window(rest, in.ReservationTime, in.Duration)
	if err != nil {
		return nil, err
	}
	if err := uc.policy.checkStart(window.Start); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Party and contact
	// --------------------------------------------------
	if err := checkGuests(rest, in.Guests); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.UserName)
	email := validators.NormalizeEmail(in.UserEmail)
	if err := checkContact(name, email); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Admission + insert, one unit
	// --------------------------------------------------
	b := &models.Booking{
		RestaurantID:    rest.ID,
		ReservationTime: window.Start,
		EndTime:         window.End,
		Duration:        d.String(),
		Guests:          in.Guests,
		UserName:        name,
		UserEmail:       email,
		Status:          string(domain.StatusConfirmed),
	}

	err = uc.admission.Run(ctx, "create", AdmissionRequest{
		RestaurantID: rest.ID,
		Window:       window,
		Guests:       in.Guests,
	}, func(repo domain.Repository, current *models.Restaurant) error {
		rest = current
		return repo.CreateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// After commit
	// --------------------------------------------------
	uc.notifier.bookingChanged(ctx, queue.TypeBookingCreated, "booking_created", email, b, rest)

	return dto.NewBooking(b, rest), nil
}
