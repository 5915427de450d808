package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
)

// Consumer reads every booking queue and appends one line per event to a
// ticket log file.
type Consumer struct {
	url     string
	logPath string
	log     *slog.Logger
	mu      sync.Mutex
}

// NewConsumer returns a consumer writing to logPath.
func NewConsumer(url, logPath string) *Consumer {
	if logPath == "" {
		logPath = filepath.Join("logs", "tickets.log")
	}
	return &Consumer{url: url, logPath: logPath, log: logger.Get()}
}

// Run connects to the broker and consumes until ctx is cancelled, redialing
// with exponential backoff when the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("ticket consumer: dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("ticket consumer: consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
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

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("ticket consumer: set QoS failed", "error", err)
	}

	merged := make(chan amqp.Delivery)
	var wg sync.WaitGroup
	for _, q := range Queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		wg.Add(1)
		go func(src <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range src {
				select {
				case merged <- d:
				case <-ctx.Done():
					return
				}
			}
		}(msgs)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()
	c.log.Info("ticket consumer: listening", "queues", strings.Join(Queues, ","), "file", c.logPath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-merged:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.Error("ticket consumer: handle message failed", "queue", d.RoutingKey, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends it to the ticket log.
func (c *Consumer) Handle(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.BookingID == "" {
		return errors.New("event without type or booking id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as one ticket log line.
func FormatLine(ev BookingEvent) string {
	return fmt.Sprintf("[%s] %s | code=%s | booking_id=%s | user_id=%d | show_id=%d | movie=%q | starts_at=%s | seats=[%s] | total=%d cents | status=%s\n",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.BookingCode, ev.BookingID, ev.UserID, ev.ShowID,
		ev.MovieTitle, ev.StartsAt.UTC().Format(time.RFC3339), strings.Join(ev.Seats, ","), ev.TotalCents, ev.Status)
}
