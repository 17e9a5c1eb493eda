package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/table-booking/internal/models"
)

type Repository interface {
	// -------- Restaurant --------
	GetRestaurant(
		ctx context.Context,
		id string,
	) (*models.Restaurant, error)

	// -------- Booking (read) --------
	GetBooking(
		ctx context.Context,
		id string,
	) (*models.Booking, error)

	GetActiveBooking(
		ctx context.Context,
		id string,
	) (*models.Booking, error)

	ListOverlapping(
		ctx context.Context,
		restaurantID string,
		start time.Time,
		end time.Time,
		excludeID string,
	) ([]Occupancy, error)

	ListBookingsForPeriod(
		ctx context.Context,
		restaurantID string,
		start time.Time,
		end time.Time,
	) ([]models.Booking, error)

	// -------- Booking (write) --------
	CreateBooking(
		ctx context.Context,
		b *models.Booking,
	) error

	UpdateBooking(
		ctx context.Context,
		b *models.Booking,
	) error

	CancelBooking(
		ctx context.Context,
		id string,
		at time.Time,
	) error
}

// Transactor runs fn inside one store transaction that holds the
// restaurant's exclusion lock for its whole duration. The Repository passed
// to fn is bound to that transaction.
type Transactor interface {
	InRestaurantTx(
		ctx context.Context,
		restaurantID string,
		fn func(repo Repository) error,
	) error
}

// Store is what the booking use cases are wired with.
type Store interface {
	Repository
	Transactor
}
