package booking

import (
	"context"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/dto"
	"github.com/BruksfildServices01/table-booking/internal/metrics"
)

type AvailabilityInput struct {
	RestaurantID     string
	Time             string
	Duration         string
	ExcludeBookingID string
}

// ComputeAvailableSeats answers how many seats remain for a slot. It reads
// without locking, so the answer is advisory and never a hold.
type ComputeAvailableSeats struct {
	repo   domain.Repository
	policy Policy
}

func NewComputeAvailableSeats(
	repo domain.Repository,
	policy Policy,
) *ComputeAvailableSeats {
	return &ComputeAvailableSeats{
		repo:   repo,
		policy: policy,
	}
}

func (uc *ComputeAvailableSeats) Execute(
	ctx context.Context,
	in AvailabilityInput,
) (*dto.AvailabilityDTO, error) {

	rest, err := uc.repo.GetRestaurant(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}

	window, d, err := uc.policy.window(rest, in.Time, in.Duration)
	if err != nil {
		return nil, err
	}

	remaining, err := uc.Remaining(ctx, rest.ID, rest.TotalSeats, window, in.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	metrics.IncAvailabilityQuery()

	return &dto.AvailabilityDTO{
		RestaurantID:   rest.ID,
		AvailableSeats: domain.Displayed(remaining),
		TotalSeats:     rest.TotalSeats,
		Start:          window.Start,
		End:            window.End,
		Duration:       d.String(),
	}, nil
}

// Remaining is the exact, unclamped remainder for an already parsed window.
func (uc *ComputeAvailableSeats) Remaining(
	ctx context.Context,
	restaurantID string,
	totalSeats int,
	window domain.Interval,
	excludeID string,
) (int, error) {

	occ, err := uc.repo.ListOverlapping(ctx, restaurantID, window.Start, window.End, excludeID)
	if err != nil {
		return 0, err
	}
	return domain.Remaining(totalSeats, domain.OccupiedSeats(occ)), nil
}
