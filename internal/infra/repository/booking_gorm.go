package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/models"
)

type BookingGormRepository struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db, lockTimeout: 2 * time.Second}
}

// --------------------------------------------------
// Restaurant
// --------------------------------------------------

func (r *BookingGormRepository) GetRestaurant(
	ctx context.Context,
	id string,
) (*models.Restaurant, error) {

	var rest models.Restaurant
	if err := r.db.WithContext(ctx).First(&rest, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "restaurant")
	}
	return &rest, nil
}

// --------------------------------------------------
// Booking (read)
// --------------------------------------------------

func (r *BookingGormRepository) GetBooking(
	ctx context.Context,
	id string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "booking")
	}
	return &b, nil
}

func (r *BookingGormRepository) GetActiveBooking(
	ctx context.Context,
	id string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(domain.StatusConfirmed)).
		First(&b).Error; err != nil {
		return nil, notFoundOr(err, "booking")
	}
	return &b, nil
}

func (r *BookingGormRepository) ListOverlapping(
	ctx context.Context,
	restaurantID string,
	start time.Time,
	end time.Time,
	excludeID string,
) ([]domain.Occupancy, error) {

	q := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("id", "guests").
		Where(
			"restaurant_id = ? AND status = ? AND reservation_time < ? AND end_time > ?",
			restaurantID,
			string(domain.StatusConfirmed),
			end.UTC(),
			start.UTC(),
		)

	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var rows []models.Booking
	if err := q.Find(&rows).Error; err != nil {
		return nil, classify(err)
	}

	out := make([]domain.Occupancy, 0, len(rows))
	for _, b := range rows {
		out = append(out, domain.Occupancy{ID: b.ID, Guests: b.Guests})
	}
	return out, nil
}

func (r *BookingGormRepository) ListBookingsForPeriod(
	ctx context.Context,
	restaurantID string,
	start time.Time,
	end time.Time,
) ([]models.Booking, error) {

	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where(
			"restaurant_id = ? AND reservation_time >= ? AND reservation_time < ?",
			restaurantID,
			start.UTC(),
			end.UTC(),
		).
		Order("reservation_time ASC").
		Find(&bookings).Error; err != nil {
		return nil, classify(err)
	}
	return bookings, nil
}

// --------------------------------------------------
// Booking (write)
// --------------------------------------------------

func (r *BookingGormRepository) CreateBooking(
	ctx context.Context,
	b *models.Booking,
) error {
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error)
}

func (r *BookingGormRepository) UpdateBooking(
	ctx context.Context,
	b *models.Booking,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", b.ID, string(domain.StatusConfirmed)).
		Updates(map[string]any{
			"reservation_time": b.ReservationTime,
			"end_time":         b.EndTime,
			"duration":         b.Duration,
			"guests":           b.Guests,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("booking")
	}
	return nil
}

func (r *BookingGormRepository) CancelBooking(
	ctx context.Context,
	id string,
	at time.Time,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, string(domain.StatusConfirmed)).
		Updates(map[string]any{
			"status":       string(domain.StatusCancelled),
			"cancelled_at": at.UTC(),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("booking")
	}
	return nil
}

// --------------------------------------------------
// Exclusion scope
// --------------------------------------------------

// InRestaurantTx locks the restaurant row for the lifetime of the
// transaction so admissions for one restaurant run one at a time across
// every replica.
func (r *BookingGormRepository) InRestaurantTx(
	ctx context.Context,
	restaurantID string,
	fn func(repo domain.Repository) error,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockRestaurant(tx, restaurantID); err != nil {
			return err
		}
		return fn(&BookingGormRepository{db: tx, lockTimeout: r.lockTimeout})
	})

	return classify(err)
}

// DeleteRestaurant removes a restaurant and its bookings behind the same row
// lock admissions take, so no booking can be admitted between the check and
// the delete. It fails with domain.ErrActiveBookings while a confirmed
// booking ends after now.
func (r *BookingGormRepository) DeleteRestaurant(
	ctx context.Context,
	restaurantID string,
	now time.Time,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockRestaurant(tx, restaurantID); err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Booking{}).
			Where("restaurant_id = ? AND status = ? AND end_time > ?",
				restaurantID, string(domain.StatusConfirmed), now.UTC()).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrActiveBookings
		}

		if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Restaurant{}, "id = ?", restaurantID).Error
	})

	return classify(err)
}

// lockRestaurant takes the restaurant row FOR UPDATE inside tx.
func (r *BookingGormRepository) lockRestaurant(tx *gorm.DB, restaurantID string) error {
	if tx.Dialector.Name() == "postgres" && r.lockTimeout > 0 {
		if err := tx.Exec("SELECT set_config('lock_timeout', ?, true)", lockTimeoutSetting(r.lockTimeout)).Error; err != nil {
			return err
		}
	}

	var rest models.Restaurant
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&rest, "id = ?", restaurantID).Error; err != nil {
		return notFoundOr(err, "restaurant")
	}
	return nil
}

func notFoundOr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity)
	}
	return classify(err)
}

// Compile-time check
var _ domain.Store = (*BookingGormRepository)(nil)
