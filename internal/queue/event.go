// Package queue carries notification events from the API to the notifier
// over RabbitMQ.
package queue

import "time"

const (
	TypeBookingCreated        = "booking.created"
	TypeBookingUpdated        = "booking.updated"
	TypeBookingCancelled      = "booking.cancelled"
	TypeVerificationRequested = "user.verification_requested"
)

// Event is the envelope written to the notifications queue. Exactly one of
// Booking or User is set, depending on Type.
type Event struct {
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Booking    *BookingEvent `json:"booking,omitempty"`
	User       *UserEvent    `json:"user,omitempty"`
}

type BookingEvent struct {
	BookingID       string    `json:"booking_id"`
	RestaurantID    string    `json:"restaurant_id"`
	RestaurantName  string    `json:"restaurant_name"`
	ReservationTime time.Time `json:"reservation_time"`
	EndTime         time.Time `json:"end_time"`
	Timezone        string    `json:"timezone"`
	Duration        string    `json:"duration"`
	Guests          int       `json:"guests"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
}

type UserEvent struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	VerifyURL string `json:"verify_url"`
}
