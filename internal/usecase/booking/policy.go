package booking

import (
	"strings"
	"time"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/models"
	"github.com/BruksfildServices01/table-booking/internal/timezone"
	"github.com/BruksfildServices01/table-booking/internal/validators"
)

// Policy holds the host-level booking rules.
type Policy struct {
	RejectPast      bool
	DefaultTimezone string
	Now             func() time.Time
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p Policy) location(rest *models.Restaurant) *time.Location {
	return timezone.Location(rest.Timezone, p.DefaultTimezone)
}

// window parses a reservation slot in the restaurant's timezone.
func (p Policy) window(rest *models.Restaurant, at, duration string) (domain.Interval, domain.Duration, error) {
	d, err := domain.ParseDuration(strings.TrimSpace(duration))
	if err != nil {
		return domain.Interval{}, "", err
	}

	start, err := timezone.ParseInstant(at, p.location(rest))
	if err != nil {
		return domain.Interval{}, "", domain.InvalidArgument("reservationTime", err.Error())
	}

	return domain.NewInterval(start, d), d, nil
}

func (p Policy) checkStart(start time.Time) error {
	if p.RejectPast && start.Before(p.now()) {
		return domain.InvalidArgument("reservationTime", "reservation time is in the past")
	}
	return nil
}

func checkGuests(rest *models.Restaurant, guests int) error {
	if guests <= 0 {
		return domain.InvalidArgument("guests", "guests must be a positive integer")
	}
	if guests > rest.TotalSeats {
		return domain.InvalidArgument("guests", "guests exceed the restaurant's total seats")
	}
	return nil
}

func checkContact(name, email string) error {
	if name == "" || len(name) > 120 {
		return domain.InvalidArgument("userName", "name is required")
	}
	if !validators.IsEmailSyntaxValid(email) {
		return domain.InvalidArgument("userEmail", "a valid email is required")
	}
	return nil
}
