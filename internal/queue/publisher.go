package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
)

// Publisher sends booking events to RabbitMQ.  It keeps one connection and
// channel open and redials on the next publish after the broker drops them.
type Publisher struct {
	url string
	log *slog.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

// DialTimeout bounds the TCP connect and AMQP handshake of one dial when
// the caller's context carries no earlier deadline.
const DialTimeout = 3 * time.Second

// NewPublisher dials url.  The first connection must succeed; later
// failures are retried per publish.
func NewPublisher(ctx context.Context, url string) (*Publisher, error) {
	p := &Publisher{url: url, log: logger.Get()}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// dialTimeout is DialTimeout or the time left before ctx's deadline,
// whichever is shorter.
func dialTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d := DialTimeout
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if left < d {
			d = left
		}
	}
	return d, nil
}

func (p *Publisher) connectLocked(ctx context.Context) error {
	d, err := dialTimeout(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(d),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.declared = map[string]bool{}
	return nil
}

// Publish sends ev as a persistent JSON message to the queue named after
// its type.
func (p *Publisher) Publish(ctx context.Context, ev booking.Event) error {
	body, err := json.Marshal(NewBookingEvent(ev))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	queue := string(ev.Type)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		p.closeLocked()
		if err := p.connectLocked(ctx); err != nil {
			return err
		}
	}
	if !p.declared[queue] {
		if _, err := p.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		p.declared[queue] = true
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.Booking.ID + ":" + queue,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	p.log.DebugContext(ctx, "booking event published", "queue", queue, "booking_id", ev.Booking.ID)
	return nil
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
