// Package queue carries booking events over RabbitMQ: the publisher used by
// the API server and the consumer run by the notifier process.
package queue

import (
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Queues lists the durable queues, one per event type.
var Queues = []string{
	string(booking.EventConfirmed),
	string(booking.EventCancelled),
	string(booking.EventExpired),
}

// BookingEvent is the JSON message body.  It carries enough of the booking
// for consumers to notify the customer without reading the database.
type BookingEvent struct {
	Type        string              `json:"type"`
	BookingID   string              `json:"booking_id"`
	BookingCode string              `json:"booking_code"`
	UserID      uint64              `json:"user_id"`
	ShowID      uint64              `json:"show_id"`
	MovieTitle  string              `json:"movie_title"`
	StartsAt    time.Time           `json:"starts_at"`
	Seats       []string            `json:"seats"`
	Email       string              `json:"email"`
	TotalCents  int64               `json:"total_cents"`
	Status      model.BookingStatus `json:"status"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

// NewBookingEvent flattens a domain event into its message form.
func NewBookingEvent(ev booking.Event) BookingEvent {
	b := ev.Booking
	return BookingEvent{
		Type:        string(ev.Type),
		BookingID:   b.ID,
		BookingCode: b.Code,
		UserID:      b.UserID,
		ShowID:      b.ShowID,
		MovieTitle:  b.MovieTitle,
		StartsAt:    b.StartsAt.UTC(),
		Seats:       model.SeatLabels(b.Seats),
		Email:       b.Email,
		TotalCents:  b.Pricing.Total,
		Status:      b.Status,
		OccurredAt:  ev.OccurredAt.UTC(),
	}
}
