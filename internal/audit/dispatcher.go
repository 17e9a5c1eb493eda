package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Event struct {
	RestaurantID string
	Actor        string
	Action       string
	Entity       string
	EntityID     string
	Metadata     any
}

// Writer persists one audit event.
type Writer interface {
	Write(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	writer Writer
	log    zerolog.Logger
	queue  chan Event
	done   chan struct{}
	once   sync.Once
}

func NewDispatcher(writer Writer, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		writer: writer,
		log:    log.With().Str("component", "audit").Logger(),
		queue:  make(chan Event, 100),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.writer.Write(ctx, ev); err != nil {
			d.log.Warn().Err(err).Str("action", ev.Action).Str("entity_id", ev.EntityID).Msg("audit write failed")
		}
		cancel()
	}
}

// Dispatch never blocks the request: a full queue drops the event. A nil
// dispatcher discards everything.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn().Str("action", ev.Action).Msg("audit queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() { close(d.queue) })
	<-d.done
}
