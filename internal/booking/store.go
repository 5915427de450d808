// Package booking implements the seat inventory and the booking lifecycle
// of a show: holds, confirmation, cancellation and hold expiry.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// Store is the persistence the booking core needs.  WithShow must serialize
// callbacks per show and commit seat and booking writes atomically.
type Store interface {
	GetShow(ctx context.Context, id uint64) (model.Show, error)
	ShowSeats(ctx context.Context, id uint64) (model.SeatMap, error)
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	GetBookingByCode(ctx context.Context, code string) (model.Booking, error)
	ListBookings(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
	WithShow(ctx context.Context, showID uint64, fn func(tx repository.ShowTx) error) error
}

// PaymentProof is what the client brings back from the payment page.
type PaymentProof struct {
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Verification is the payment provider's verdict on a proof.
type Verification struct {
	Verified  bool
	PaymentID string
}

// PaymentProvider creates payment orders and verifies payment proofs.
type PaymentProvider interface {
	InitiateOrder(ctx context.Context, bookingID string, amount int64) (string, error)
	Verify(ctx context.Context, orderRef string, proof PaymentProof) (Verification, error)
}

// EventType names a booking event; it doubles as the queue name.
type EventType string

const (
	EventConfirmed EventType = "booking.confirmed"
	EventCancelled EventType = "booking.cancelled"
	EventExpired   EventType = "booking.expired"
)

// Event reports a booking reaching a new state.
type Event struct {
	Type       EventType
	Booking    model.Booking
	OccurredAt time.Time
}

// EventPublisher receives booking events.  Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

const (
	defaultHoldTTL    = 10 * time.Minute
	defaultSweepBatch = 200
)

type options struct {
	now        func() time.Time
	holdTTL    time.Duration
	sweepBatch int
	events     EventPublisher
	log        *slog.Logger
	newCode    func(time.Time) string
}

// Option customizes an Inventory or a Service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithHoldTTL sets how long a pending booking may hold its seats.
func WithHoldTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.holdTTL = d
		}
	}
}

// WithSweepBatch bounds how many stale bookings one sweep handles.
func WithSweepBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sweepBatch = n
		}
	}
}

// WithEvents sets the event sink.
func WithEvents(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithCodeGenerator replaces the booking code generator.
func WithCodeGenerator(fn func(time.Time) string) Option {
	return func(o *options) { o.newCode = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		now:        time.Now,
		holdTTL:    defaultHoldTTL,
		sweepBatch: defaultSweepBatch,
		newCode:    NewBookingCode,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = logger.Get()
	}
	return o
}

// storeError turns a repository failure into a domain error when it means
// "not found" and wraps anything else as an infrastructure failure.  Domain
// errors returned from WithShow callbacks pass through.
func storeError(err error, notFound *Error) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("booking store: %w", err)
}
