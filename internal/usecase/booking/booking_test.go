package booking

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/models"
	"github.com/BruksfildServices01/table-booking/internal/queue"
)

var day = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func at(hm string) time.Time {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		panic(err)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

func iso(hm string) string {
	return at(hm).Format(time.RFC3339)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	store        *fakeStore
	pub          *recordingPublisher
	availability *ComputeAvailableSeats
	create       *CreateBooking
	update       *UpdateBooking
	cancel       *CancelBooking
	get          *GetBooking
	list         *ListBookingsByDate
}

func newHarness(t *testing.T, policy Policy) *harness {
	t.Helper()

	store := newFakeStore()
	pub := &recordingPublisher{}
	log := zerolog.Nop()

	admission := NewAdmission(store, AdmissionConfig{MaxRetries: 3}, log)
	notifier := NewNotifier(nil, pub, log)

	return &harness{
		store:        store,
		pub:          pub,
		availability: NewComputeAvailableSeats(store, policy),
		create:       NewCreateBooking(store, admission, notifier, policy),
		update:       NewUpdateBooking(store, admission, notifier, policy),
		cancel:       NewCancelBooking(store, notifier, policy),
		get:          NewGetBooking(store),
		list:         NewListBookingsByDate(store, policy),
	}
}

func (h *harness) book(t *testing.T, rest *models.Restaurant, hm, duration string, guests int) (string, error) {
	t.Helper()
	out, err := h.create.Execute(context.Background(), CreateBookingInput{
		RestaurantID:    rest.ID,
		ReservationTime: iso(hm),
		Duration:        duration,
		Guests:          guests,
		UserName:        "Ana",
		UserEmail:       "ana@example.com",
	})
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (h *harness) seats(t *testing.T, rest *models.Restaurant, hm, duration, exclude string) int {
	t.Helper()
	out, err := h.availability.Execute(context.Background(), AvailabilityInput{
		RestaurantID:     rest.ID,
		Time:             iso(hm),
		Duration:         duration,
		ExcludeBookingID: exclude,
	})
	require.NoError(t, err)
	return out.AvailableSeats
}

// ------------------------------------------------------
// Availability
// ------------------------------------------------------

func TestComputeAvailableSeats(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(10)
	a := h.store.addBooking(rest.ID, at("10:00"), domain.Duration1Hour, 4)
	h.store.addBooking(rest.ID, at("10:30"), domain.Duration30Min, 3)

	assert.Equal(t, 3, h.seats(t, rest, "10:45", "15min", ""))
	assert.Equal(t, 6, h.seats(t, rest, "10:00", "15min", ""))
	assert.Equal(t, 10, h.seats(t, rest, "11:00", "1h", ""))
	assert.Equal(t, 7, h.seats(t, rest, "10:45", "15min", a.ID))
}

func TestComputeAvailableSeatsClampsForDisplay(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	h.store.addBooking(rest.ID, at("10:00"), domain.Duration1Hour, 3)
	h.store.addBooking(rest.ID, at("10:00"), domain.Duration1Hour, 3)

	assert.Equal(t, 0, h.seats(t, rest, "10:00", "1h", ""))

	remaining, err := h.availability.Remaining(context.Background(), rest.ID, rest.TotalSeats,
		domain.NewInterval(at("10:00"), domain.Duration1Hour), "")
	require.NoError(t, err)
	assert.Equal(t, -2, remaining)
}

func TestComputeAvailableSeatsErrors(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	ctx := context.Background()

	_, err := h.availability.Execute(ctx, AvailabilityInput{RestaurantID: "missing", Time: iso("10:00"), Duration: "1h"})
	assert.True(t, domain.IsNotFound(err))

	_, err = h.availability.Execute(ctx, AvailabilityInput{RestaurantID: rest.ID, Time: iso("10:00"), Duration: "90min"})
	require.True(t, domain.IsInvalidArgument(err))
	assert.Equal(t, "duration", fieldOf(err))

	_, err = h.availability.Execute(ctx, AvailabilityInput{RestaurantID: rest.ID, Time: "tomorrow", Duration: "1h"})
	require.True(t, domain.IsInvalidArgument(err))
	assert.Equal(t, "reservationTime", fieldOf(err))
}

func TestZonelessTimeUsesRestaurantTimezone(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	rest.Timezone = "America/Sao_Paulo"
	h.store.restaurants[rest.ID] = *rest

	out, err := h.availability.Execute(context.Background(), AvailabilityInput{
		RestaurantID: rest.ID,
		Time:         "2025-03-14T19:00",
		Duration:     "30min",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC), out.Start)
	assert.Equal(t, time.Date(2025, 3, 14, 22, 30, 0, 0, time.UTC), out.End)
}

// ------------------------------------------------------
// Admission properties
// ------------------------------------------------------

func TestTouchingIntervalsDoNotOverlap(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	_, err := h.book(t, rest, "10:00", "30min", 4)
	require.NoError(t, err)

	assert.Equal(t, 4, h.seats(t, rest, "10:30", "30min", ""))
	_, err = h.book(t, rest, "10:30", "30min", 4)
	assert.NoError(t, err)
}

func TestRejectionReportsRemainingSeats(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	_, err := h.book(t, rest, "10:00", "30min", 3)
	require.NoError(t, err)

	_, err = h.book(t, rest, "10:00", "15min", 2)
	require.True(t, domain.IsCapacityExceeded(err), "got %v", err)

	var be *domain.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, be.AvailableSeats)
	assert.Len(t, h.store.active(rest.ID), 1)
}

func TestExactCapacityIsAdmitted(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	h.store.addBooking(rest.ID, at("10:00"), domain.Duration1Hour, 2)

	_, err := h.book(t, rest, "10:15", "15min", 2)
	assert.NoError(t, err)
	assert.Equal(t, 0, h.seats(t, rest, "10:15", "15min", ""))
}

func TestModifyExcludesItself(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	id, err := h.book(t, rest, "10:00", "1h", 4)
	require.NoError(t, err)

	guests := 4
	out, err := h.update.Execute(context.Background(), UpdateBookingInput{
		BookingID:       id,
		ReservationTime: iso("10:00"),
		Duration:        "1h",
		Guests:          &guests,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Guests)

	assert.Equal(t, 4, h.seats(t, rest, "10:00", "1h", id))
}

func TestModifyChecksFullNewGuestCount(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(6)
	id, err := h.book(t, rest, "10:00", "1h", 2)
	require.NoError(t, err)
	h.store.addBooking(rest.ID, at("10:30"), domain.Duration30Min, 3)

	guests := 4
	_, err = h.update.Execute(context.Background(), UpdateBookingInput{BookingID: id, Guests: &guests})
	require.True(t, domain.IsCapacityExceeded(err))

	b, err := h.store.GetBooking(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Guests, "rejected update leaves the booking untouched")

	guests = 3
	out, err := h.update.Execute(context.Background(), UpdateBookingInput{BookingID: id, Guests: &guests})
	require.NoError(t, err)
	assert.Equal(t, at("10:00"), out.ReservationTime)
	assert.Equal(t, "1h", out.Duration)
}

func TestModifyMovesSlot(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	id, err := h.book(t, rest, "10:00", "1h", 4)
	require.NoError(t, err)

	out, err := h.update.Execute(context.Background(), UpdateBookingInput{
		BookingID:       id,
		ReservationTime: iso("12:00"),
		Duration:        "45min",
	})
	require.NoError(t, err)
	assert.Equal(t, at("12:45"), out.EndTime)
	assert.Equal(t, 4, h.seats(t, rest, "10:00", "1h", ""))
	assert.Equal(t, 0, h.seats(t, rest, "12:30", "15min", ""))
}

func TestCancellationFreesCapacity(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	id, err := h.book(t, rest, "10:00", "1h", 4)
	require.NoError(t, err)

	_, err = h.book(t, rest, "10:00", "1h", 4)
	require.True(t, domain.IsCapacityExceeded(err))

	out, err := h.cancel.Execute(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), out.Status)
	assert.NotNil(t, out.CancelledAt)

	_, err = h.book(t, rest, "10:00", "1h", 4)
	assert.NoError(t, err)
}

func TestCancelTwiceIsNotFound(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	id, err := h.book(t, rest, "10:00", "1h", 2)
	require.NoError(t, err)

	_, err = h.cancel.Execute(context.Background(), id)
	require.NoError(t, err)

	_, err = h.cancel.Execute(context.Background(), id)
	assert.True(t, domain.IsNotFound(err))

	_, err = h.cancel.Execute(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))

	// the record itself is still readable
	got, err := h.get.Execute(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
	assert.Equal(t, "Trattoria", got.Restaurant.Name)
}

func TestConcurrentRaceForLastSeat(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	h.store.addBooking(rest.ID, at("10:00"), domain.Duration1Hour, 3)

	const callers = 8
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		errs     = make([]error, callers)
		admitted int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = h.book(t, rest, "10:15", "30min", 1)
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		assert.True(t, domain.IsCapacityExceeded(err) || domain.IsConflict(err), "unexpected error %v", err)
	}
	assert.Equal(t, 1, admitted)
	assertCapacityInvariant(t, h.store, rest)
}

func TestRandomSequenceKeepsCapacityInvariant(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(6)
	rng := rand.New(rand.NewSource(42))
	durations := []string{"15min", "30min", "45min", "1h"}
	var ids []string

	for i := 0; i < 200; i++ {
		hm := time.Date(0, 1, 1, 9+rng.Intn(4), 15*rng.Intn(4), 0, 0, time.UTC).Format("15:04")
		switch op := rng.Intn(10); {
		case op < 6 || len(ids) == 0:
			if id, err := h.book(t, rest, hm, durations[rng.Intn(4)], 1+rng.Intn(6)); err == nil {
				ids = append(ids, id)
			} else {
				require.True(t, domain.IsCapacityExceeded(err), "unexpected error %v", err)
			}
		case op < 8:
			guests := 1 + rng.Intn(6)
			_, err := h.update.Execute(context.Background(), UpdateBookingInput{
				BookingID:       ids[rng.Intn(len(ids))],
				ReservationTime: iso(hm),
				Duration:        durations[rng.Intn(4)],
				Guests:          &guests,
			})
			if err != nil {
				require.True(t, domain.IsCapacityExceeded(err) || domain.IsNotFound(err), "unexpected error %v", err)
			}
		default:
			_, err := h.cancel.Execute(context.Background(), ids[rng.Intn(len(ids))])
			if err != nil {
				require.True(t, domain.IsNotFound(err), "unexpected error %v", err)
			}
		}
		assertCapacityInvariant(t, h.store, rest)
	}
}

// the overlap sum only changes at reservation starts, so checking every
// start instant covers the whole timeline
func assertCapacityInvariant(t *testing.T, store *fakeStore, rest *models.Restaurant) {
	t.Helper()
	active := store.active(rest.ID)
	for _, probe := range active {
		sum := 0
		for _, b := range active {
			if domain.Window(&b).Contains(probe.ReservationTime) {
				sum += b.Guests
			}
		}
		require.LessOrEqual(t, sum, rest.TotalSeats, "over capacity at %s", probe.ReservationTime)
	}
}

// ------------------------------------------------------
// Retries
// ------------------------------------------------------

func TestRetryableConflictIsRetried(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	h.store.retryableTx = 2

	_, err := h.book(t, rest, "10:00", "1h", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, h.store.txCalls)
}

func TestRetriesExhaustedIsConflict(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	h.store.retryableTx = 10

	_, err := h.book(t, rest, "10:00", "1h", 2)
	require.True(t, domain.IsConflict(err), "got %v", err)
	assert.ErrorIs(t, err, domain.ErrRetryable)
	assert.Equal(t, 4, h.store.txCalls)
	assert.Empty(t, h.store.active(rest.ID))
}

// ------------------------------------------------------
// Validation and policy
// ------------------------------------------------------

func TestCreateValidation(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)
	base := CreateBookingInput{
		RestaurantID:    rest.ID,
		ReservationTime: iso("10:00"),
		Duration:        "1h",
		Guests:          2,
		UserName:        "Ana",
		UserEmail:       "ana@example.com",
	}

	cases := map[string]struct {
		mutate func(in *CreateBookingInput)
		field  string
	}{
		"zero guests":     {func(in *CreateBookingInput) { in.Guests = 0 }, "guests"},
		"negative guests": {func(in *CreateBookingInput) { in.Guests = -1 }, "guests"},
		"more than seats": {func(in *CreateBookingInput) { in.Guests = 5 }, "guests"},
		"bad duration":    {func(in *CreateBookingInput) { in.Duration = "2h" }, "duration"},
		"bad time":        {func(in *CreateBookingInput) { in.ReservationTime = "14/03/2025" }, "reservationTime"},
		"missing name":    {func(in *CreateBookingInput) { in.UserName = "  " }, "userName"},
		"bad email":       {func(in *CreateBookingInput) { in.UserEmail = "ana" }, "userEmail"},
		"no restaurant":   {func(in *CreateBookingInput) { in.RestaurantID = "" }, "restaurantId"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := h.create.Execute(context.Background(), in)
			require.True(t, domain.IsInvalidArgument(err), "got %v", err)
			assert.Equal(t, tc.field, fieldOf(err))
		})
	}

	assert.Empty(t, h.store.active(rest.ID))
	assert.Zero(t, h.store.txCalls, "invalid input never reaches admission")
}

func TestCreateUnknownRestaurant(t *testing.T) {
	h := newHarness(t, Policy{})
	_, err := h.book(t, &models.Restaurant{ID: "missing"}, "10:00", "1h", 2)
	assert.True(t, domain.IsNotFound(err))
}

func TestPastBookingsFollowPolicy(t *testing.T) {
	now := func() time.Time { return at("12:00") }

	lenient := newHarness(t, Policy{Now: now})
	rest := lenient.store.addRestaurant(4)
	_, err := lenient.book(t, rest, "09:00", "1h", 2)
	assert.NoError(t, err)

	strict := newHarness(t, Policy{Now: now, RejectPast: true})
	rest = strict.store.addRestaurant(4)
	_, err = strict.book(t, rest, "09:00", "1h", 2)
	require.True(t, domain.IsInvalidArgument(err))
	assert.Equal(t, "reservationTime", fieldOf(err))

	_, err = strict.book(t, rest, "13:00", "1h", 2)
	assert.NoError(t, err)
}

func TestCreateNormalizesAndNotifies(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)

	out, err := h.create.Execute(context.Background(), CreateBookingInput{
		RestaurantID:    rest.ID,
		ReservationTime: "2025-03-14T10:00:30.000+01:00",
		Duration:        "45min",
		Guests:          2,
		UserName:        "  Ana ",
		UserEmail:       "Ana@Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 14, 9, 0, 30, 0, time.UTC), out.ReservationTime)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 45, 30, 0, time.UTC), out.EndTime)
	assert.Equal(t, "Ana", out.UserName)
	assert.Equal(t, "ana@example.com", out.UserEmail)
	assert.Equal(t, "confirmed", out.Status)

	_, err = h.cancel.Execute(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{queue.TypeBookingCreated, queue.TypeBookingCancelled}, h.pub.types())
}

func TestCreateRejectsFractionalSeconds(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(4)

	_, err := h.create.Execute(context.Background(), CreateBookingInput{
		RestaurantID:    rest.ID,
		ReservationTime: "2025-03-14T10:00:30.750+01:00",
		Duration:        "45min",
		Guests:          2,
		UserName:        "Ana",
		UserEmail:       "ana@example.com",
	})
	require.True(t, domain.IsInvalidArgument(err))
	assert.Equal(t, "reservationTime", fieldOf(err))
}

func TestListBookingsByDate(t *testing.T) {
	h := newHarness(t, Policy{})
	rest := h.store.addRestaurant(10)
	rest.Timezone = "Europe/Lisbon"
	h.store.restaurants[rest.ID] = *rest

	h.store.addBooking(rest.ID, at("10:00"), domain.Duration1Hour, 2)
	h.store.addBooking(rest.ID, at("08:00"), domain.Duration30Min, 2)
	h.store.addBooking(rest.ID, day.Add(-30*time.Minute), domain.Duration30Min, 2)

	rows, err := h.list.Execute(context.Background(), rest, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 8, rows[0].StartTime.Hour())
	assert.Equal(t, "Europe/Lisbon", rows[0].StartTime.Location().String())

	_, err = h.list.Execute(context.Background(), rest, "14-03-2025")
	assert.True(t, domain.IsInvalidArgument(err))
}

func fieldOf(err error) string {
	var be *domain.Error
	if errors.As(err, &be) {
		return be.Field
	}
	return ""
}
