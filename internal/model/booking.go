package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingExpired   BookingStatus = "EXPIRED"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingExpired:
		return true
	}
	return false
}

// Pricing is the price breakdown of a booking in minor units.  It is fixed
// when the booking is created.
type Pricing struct {
	BasePrice      int64 `json:"base_price_cents"`
	ConvenienceFee int64 `json:"convenience_fee_cents"`
	Tax            int64 `json:"tax_cents"`
	Total          int64 `json:"total_cents"`
}

// Booking is a customer's claim on a set of seats of one show.
//
// Fields:
//
//	ID         – opaque identifier (UUID), also the owner of seat holds.
//	Code       – human readable booking code printed on tickets.
//	UserID     – customer who created the booking.
//	ShowID     – show whose seats are claimed.
//	MovieID    – movie of the show, kept for reporting.
//	MovieTitle – title of the movie at booking time.
//	StartsAt   – show start time at booking time.
//	Seats      – requested seats, deduplicated and sorted.
//	Email      – contact email.
//	Phone      – contact phone (10 digits).
//	Pricing    – price breakdown.
//	Status     – lifecycle state.
//	OrderRef   – payment order reference, empty until initiated.
//	PaymentRef – payment id, set on confirmation.
type Booking struct {
	ID         string        `json:"id"`                    // bookings.id
	Code       string        `json:"booking_code"`          // bookings.code
	UserID     uint64        `json:"user_id"`               // bookings.user_id
	ShowID     uint64        `json:"show_id"`               // bookings.show_id
	MovieID    uint64        `json:"movie_id"`              // bookings.movie_id
	MovieTitle string        `json:"movie_title"`           // bookings.movie_title
	StartsAt   time.Time     `json:"starts_at"`             // bookings.starts_at
	Seats      []Seat        `json:"seats"`                 // bookings.seats (JSON)
	Email      string        `json:"email"`                 // bookings.email
	Phone      string        `json:"phone"`                 // bookings.phone
	Pricing    Pricing       `json:"pricing"`               // bookings.*_cents
	Status     BookingStatus `json:"status"`                // bookings.status
	OrderRef   string        `json:"order_ref,omitempty"`   // bookings.order_ref
	PaymentRef string        `json:"payment_ref,omitempty"` // bookings.payment_ref
	CreatedAt  time.Time     `json:"created_at"`            // bookings.created_at
	UpdatedAt  time.Time     `json:"updated_at"`            // bookings.updated_at
}

// Terminal reports whether no further automatic transition can happen.
func (b Booking) Terminal() bool {
	return b.Status == BookingCancelled || b.Status == BookingExpired
}
