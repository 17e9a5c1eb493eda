package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/table-booking/internal/audit"
	"github.com/BruksfildServices01/table-booking/internal/models"
	"github.com/BruksfildServices01/table-booking/internal/queue"
)

// Notifier fans committed booking changes out to the audit trail and the
// notifications queue. Failures are logged and never reach the caller.
type Notifier struct {
	audit     *audit.Dispatcher
	publisher queue.Publisher
	log       zerolog.Logger
}

func NewNotifier(
	audit *audit.Dispatcher,
	publisher queue.Publisher,
	log zerolog.Logger,
) *Notifier {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	return &Notifier{audit: audit, publisher: publisher, log: log}
}

func (n *Notifier) bookingChanged(
	ctx context.Context,
	eventType string,
	action string,
	actor string,
	b *models.Booking,
	rest *models.Restaurant,
) {
	if n == nil {
		return
	}

	n.audit.Dispatch(audit.Event{
		RestaurantID: b.RestaurantID,
		Actor:        actor,
		Action:       action,
		Entity:       "booking",
		EntityID:     b.ID,
		Metadata: map[string]any{
			"reservationTime": b.ReservationTime.UTC(),
			"duration":        b.Duration,
			"guests":          b.Guests,
		},
	})

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	ev := queue.Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Booking: &queue.BookingEvent{
			BookingID:       b.ID,
			RestaurantID:    b.RestaurantID,
			RestaurantName:  rest.Name,
			ReservationTime: b.ReservationTime.UTC(),
			EndTime:         b.EndTime.UTC(),
			Timezone:        rest.Timezone,
			Duration:        b.Duration,
			Guests:          b.Guests,
			UserName:        b.UserName,
			UserEmail:       b.UserEmail,
		},
	}
	if err := n.publisher.Publish(pubCtx, ev); err != nil {
		n.log.Warn().Err(err).Str("type", eventType).Str("booking_id", b.ID).Msg("publish notification failed")
	}
}
