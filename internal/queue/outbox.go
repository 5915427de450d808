package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
)

// ErrOutboxFull is returned when the outbox buffer has no room left.
var ErrOutboxFull = errors.New("event outbox full")

// Outbox buffers booking events and hands them to a sink from a single
// goroutine, so booking transitions never wait on the broker.
type Outbox struct {
	sink    booking.EventPublisher
	events  chan booking.Event
	timeout time.Duration
	log     *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewOutbox returns an outbox holding up to size events.  Each delivery to
// sink gets timeout.
func NewOutbox(sink booking.EventPublisher, size int, timeout time.Duration) *Outbox {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Outbox{
		sink:    sink,
		events:  make(chan booking.Event, size),
		timeout: timeout,
		log:     logger.Get(),
		done:    make(chan struct{}),
	}
}

// Publish queues ev without blocking.
func (o *Outbox) Publish(ctx context.Context, ev booking.Event) error {
	select {
	case o.events <- ev:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Start delivers queued events until Stop is called or ctx is cancelled.
func (o *Outbox) Start(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case ev := <-o.events:
				o.deliver(ev)
			case <-o.done:
				o.drain()
				return
			case <-ctx.Done():
				o.drain()
				return
			}
		}
	}()
}

// drain delivers whatever is still buffered.
func (o *Outbox) drain() {
	for {
		select {
		case ev := <-o.events:
			o.deliver(ev)
		default:
			return
		}
	}
}

func (o *Outbox) deliver(ev booking.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if err := o.sink.Publish(ctx, ev); err != nil {
		o.log.Warn("deliver booking event failed", "event", ev.Type, "booking_id", ev.Booking.ID, "error", err)
	}
}

// Stop ends delivery after flushing the buffer.
func (o *Outbox) Stop() {
	o.stopOnce.Do(func() { close(o.done) })
	o.wg.Wait()
}
