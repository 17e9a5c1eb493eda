package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/table-booking/internal/timezone"
)

// Consumer reads the notifications queue and renders each event as the
// message a guest or owner would receive. Delivery of the rendered text is
// left to the log sink.
type Consumer struct {
	url   string
	queue string
	log   zerolog.Logger
}

func NewConsumer(url, queue string, log zerolog.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, log: log.With().Str("component", "notifier").Logger()}
}

// Run consumes until ctx is cancelled, redialing the broker with backoff.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("set qos failed")
	}
	if _, err := declare(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.Error().Err(err).Msg("handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message and logs its rendered notification.
func (c *Consumer) Handle(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	to, subject, text, err := Render(ev)
	if err != nil {
		return err
	}
	c.log.Info().
		Str("type", ev.Type).
		Str("to", to).
		Str("subject", subject).
		Msg(text)
	return nil
}

// Render turns an event into recipient, subject and body.
func Render(ev Event) (to, subject, body string, err error) {
	switch ev.Type {
	case TypeBookingCreated, TypeBookingUpdated, TypeBookingCancelled:
		b := ev.Booking
		if b == nil {
			return "", "", "", fmt.Errorf("%s without booking payload", ev.Type)
		}
		verb := map[string]string{
			TypeBookingCreated:   "confirmed",
			TypeBookingUpdated:   "updated",
			TypeBookingCancelled: "cancelled",
		}[ev.Type]

		when := b.ReservationTime.In(timezone.Location(b.Timezone, timezone.DefaultTimezone))

		var sb strings.Builder
		fmt.Fprintf(&sb, "Hi %s, your table at %s is %s.", b.UserName, b.RestaurantName, verb)
		if ev.Type != TypeBookingCancelled {
			fmt.Fprintf(&sb, " %s for %d guest(s), %s.", when.Format("Mon 02 Jan 2006 15:04"), b.Guests, b.Duration)
		}
		return b.UserEmail, fmt.Sprintf("Booking %s: %s", verb, b.RestaurantName), sb.String(), nil

	case TypeVerificationRequested:
		u := ev.User
		if u == nil {
			return "", "", "", fmt.Errorf("%s without user payload", ev.Type)
		}
		return u.Email, "Verify your email",
			fmt.Sprintf("Hi %s, please confirm your email by opening %s", u.Name, u.VerifyURL), nil
	}
	return "", "", "", fmt.Errorf("unknown event type %q", ev.Type)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
