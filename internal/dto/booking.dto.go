package dto

import (
	"time"

	"github.com/BruksfildServices01/table-booking/internal/models"
)

type RestaurantSummaryDTO struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	TotalSeats int    `json:"totalSeats"`
	Timezone   string `json:"timezone"`
}

type BookingDTO struct {
	ID           string                `json:"_id"`
	RestaurantID string                `json:"restaurantId"`
	Restaurant   *RestaurantSummaryDTO `json:"restaurant,omitempty"`

	ReservationTime time.Time `json:"reservationTime"`
	EndTime         time.Time `json:"endTime"`
	Duration        string    `json:"duration"`
	Guests          int       `json:"guests"`

	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`

	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewBooking maps a stored booking; rest may be nil.
func NewBooking(b *models.Booking, rest *models.Restaurant) *BookingDTO {
	out := &BookingDTO{
		ID:              b.ID,
		RestaurantID:    b.RestaurantID,
		ReservationTime: b.ReservationTime.UTC(),
		EndTime:         b.EndTime.UTC(),
		Duration:        b.Duration,
		Guests:          b.Guests,
		UserName:        b.UserName,
		UserEmail:       b.UserEmail,
		Status:          b.Status,
		CancelledAt:     b.CancelledAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if rest != nil {
		out.Restaurant = &RestaurantSummaryDTO{
			ID:         rest.ID,
			Name:       rest.Name,
			TotalSeats: rest.TotalSeats,
			Timezone:   rest.Timezone,
		}
	}
	return out
}

// BookingListDTO is a row of the owner's daily sheet. Times are in the
// restaurant's timezone.
type BookingListDTO struct {
	ID        string    `json:"_id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  string    `json:"duration"`
	Guests    int       `json:"guests"`
	Status    string    `json:"status"`
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail"`
}

type AvailabilityDTO struct {
	RestaurantID   string    `json:"restaurantId"`
	AvailableSeats int       `json:"availableSeats"`
	TotalSeats     int       `json:"totalSeats"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Duration       string    `json:"duration"`
}
