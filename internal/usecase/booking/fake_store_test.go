package booking

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/models"
)

// fakeStore is an in-memory Store. Writes made inside InRestaurantTx are
// applied only when fn returns nil. It takes no restaurant lock of its own,
// so serialization in tests comes from Admission.
type fakeStore struct {
	mu          sync.Mutex
	restaurants map[string]models.Restaurant
	bookings    map[string]models.Booking

	// the first retryableTx transactions fail with ErrRetryable
	retryableTx int
	txCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		restaurants: make(map[string]models.Restaurant),
		bookings:    make(map[string]models.Booking),
	}
}

func (s *fakeStore) addRestaurant(seats int) *models.Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := models.Restaurant{ID: uuid.NewString(), Name: "Trattoria", TotalSeats: seats, Timezone: "UTC"}
	s.restaurants[r.ID] = r
	return &r
}

func (s *fakeStore) addBooking(restaurantID string, start time.Time, d domain.Duration, guests int) *models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := models.Booking{
		ID:              uuid.NewString(),
		RestaurantID:    restaurantID,
		ReservationTime: start,
		EndTime:         start.Add(d.Span()),
		Duration:        d.String(),
		Guests:          guests,
		UserName:        "Seed",
		UserEmail:       "seed@example.com",
		Status:          string(domain.StatusConfirmed),
	}
	s.bookings[b.ID] = b
	return &b
}

func (s *fakeStore) active(restaurantID string) []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.RestaurantID == restaurantID && domain.Active(&b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservationTime.Before(out[j].ReservationTime) })
	return out
}

func (s *fakeStore) GetRestaurant(_ context.Context, id string) (*models.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[id]
	if !ok {
		return nil, domain.NotFound("restaurant")
	}
	return &r, nil
}

func (s *fakeStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.NotFound("booking")
	}
	return &b, nil
}

func (s *fakeStore) GetActiveBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.Active(b) {
		return nil, domain.NotFound("booking")
	}
	return b, nil
}

func (s *fakeStore) ListOverlapping(_ context.Context, restaurantID string, start, end time.Time, excludeID string) ([]domain.Occupancy, error) {
	s.mu.Lock()
	want := domain.Interval{Start: start, End: end}
	var out []domain.Occupancy
	for _, b := range s.bookings {
		if b.RestaurantID != restaurantID || b.ID == excludeID || !domain.Active(&b) {
			continue
		}
		if domain.Window(&b).Overlaps(want) {
			out = append(out, domain.Occupancy{ID: b.ID, Guests: b.Guests})
		}
	}
	s.mu.Unlock()

	// widen the read-decide-write gap so unsynchronized callers would race
	runtime.Gosched()
	time.Sleep(time.Millisecond)
	return out, nil
}

func (s *fakeStore) ListBookingsForPeriod(_ context.Context, restaurantID string, start, end time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.RestaurantID == restaurantID && !b.ReservationTime.Before(start) && b.ReservationTime.Before(end) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservationTime.Before(out[j].ReservationTime) })
	return out, nil
}

func (s *fakeStore) CreateBooking(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.bookings[b.ID] = *b
	return nil
}

func (s *fakeStore) UpdateBooking(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[b.ID]
	if !ok || !domain.Active(&cur) {
		return domain.NotFound("booking")
	}
	s.bookings[b.ID] = *b
	return nil
}

func (s *fakeStore) CancelBooking(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[id]
	if !ok || !domain.Active(&cur) {
		return domain.NotFound("booking")
	}
	cur.Status = string(domain.StatusCancelled)
	cur.CancelledAt = &at
	s.bookings[id] = cur
	return nil
}

func (s *fakeStore) InRestaurantTx(ctx context.Context, restaurantID string, fn func(repo domain.Repository) error) error {
	s.mu.Lock()
	s.txCalls++
	fail := s.retryableTx > 0
	if fail {
		s.retryableTx--
	}
	_, ok := s.restaurants[restaurantID]
	s.mu.Unlock()

	if fail {
		return fmt.Errorf("%w: serialization failure", domain.ErrRetryable)
	}
	if !ok {
		return domain.NotFound("restaurant")
	}

	tx := &fakeTx{fakeStore: s}
	if err := fn(tx); err != nil {
		return err
	}
	for _, apply := range tx.pending {
		if err := apply(); err != nil {
			return err
		}
	}
	return nil
}

// fakeTx defers writes until commit.
type fakeTx struct {
	*fakeStore
	pending []func() error
}

func (t *fakeTx) CreateBooking(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	t.pending = append(t.pending, func() error { return t.fakeStore.CreateBooking(ctx, b) })
	return nil
}

func (t *fakeTx) UpdateBooking(ctx context.Context, b *models.Booking) error {
	t.pending = append(t.pending, func() error { return t.fakeStore.UpdateBooking(ctx, b) })
	return nil
}

var _ domain.Store = (*fakeStore)(nil)
