package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/metrics"
	"github.com/BruksfildServices01/table-booking/internal/models"
)

type AdmissionConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

// AdmissionRequest is one candidate reservation. ExcludeID names the
// booking being modified, if any.
type AdmissionRequest struct {
	RestaurantID string
	Window       domain.Interval
	Guests       int
	ExcludeID    string
}

// Admission runs recompute, decide and write as one unit per restaurant.
// Goroutines of this process queue on a per-restaurant mutex, other
// replicas on the restaurant row lock taken by the store transaction.
type Admission struct {
	store domain.Store
	locks *keyedMutex
	cfg   AdmissionConfig
	log   zerolog.Logger
}

func NewAdmission(
	store domain.Store,
	cfg AdmissionConfig,
	log zerolog.Logger,
) *Admission {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Admission{
		store: store,
		locks: newKeyedMutex(),
		cfg:   cfg,
		log:   log.With().Str("component", "admission").Logger(),
	}
}

// Run admits req and, on success, calls write inside the same transaction.
// Transient store conflicts restart the whole unit; after MaxRetries
// restarts the caller gets Conflict.
func (a *Admission) Run(
	ctx context.Context,
	operation string,
	req AdmissionRequest,
	write func(repo domain.Repository, rest *models.Restaurant) error,
) error {

	var err error
	for attempt := 0; ; attempt++ {
		err = a.attempt(ctx, req, write)
		if err == nil || !errors.Is(err, domain.ErrRetryable) {
			break
		}
		if attempt >= a.cfg.MaxRetries {
			err = domain.Conflict(err)
			break
		}

		metrics.IncAdmissionRetry()
		a.log.Debug().
			Err(err).
			Str("restaurant_id", req.RestaurantID).
			Int("attempt", attempt+1).
			Msg("admission conflict, retrying")

		if !wait(ctx, a.cfg.Backoff*time.Duration(attempt+1)) {
			err = domain.Conflict(ctx.Err())
			break
		}
	}

	metrics.IncAdmission(operation, resultLabel(err))

	ev := a.log.Debug()
	if err != nil && !domain.IsCapacityExceeded(err) && !domain.IsNotFound(err) {
		ev = a.log.Warn().Err(err)
	}
	ev.
		Str("operation", operation).
		Str("restaurant_id", req.RestaurantID).
		Time("start", req.Window.Start).
		Int("guests", req.Guests).
		Str("result", resultLabel(err)).
		Msg("admission decided")

	return err
}

func (a *Admission) attempt(
	ctx context.Context,
	req AdmissionRequest,
	write func(repo domain.Repository, rest *models.Restaurant) error,
) error {

	unlock := a.locks.Lock(req.RestaurantID)
	defer unlock()

	return a.store.InRestaurantTx(ctx, req.RestaurantID, func(repo domain.Repository) error {
		rest, err := repo.GetRestaurant(ctx, req.RestaurantID)
		if err != nil {
			return err
		}

		occ, err := repo.ListOverlapping(
			ctx,
			req.RestaurantID,
			req.Window.Start,
			req.Window.End,
			req.ExcludeID,
		)
		if err != nil {
			return err
		}

		if err := domain.Admit(rest.TotalSeats, domain.OccupiedSeats(occ), req.Guests); err != nil {
			return err
		}

		return write(repo, rest)
	})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "admitted"
	case domain.IsCapacityExceeded(err):
		return "capacity_exceeded"
	case domain.IsConflict(err):
		return "conflict"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsInvalidArgument(err):
		return "invalid"
	}
	return "error"
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
