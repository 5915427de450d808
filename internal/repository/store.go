package repository

import (
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// ShowTx is the unit of per-show serialization handed to WithShow
// callbacks.  Seat map mutations and booking writes made through it are
// committed together when the callback returns nil and discarded otherwise.
type ShowTx interface {
	// Show returns the locked show.
	Show() model.Show
	// Seats returns the mutable seat map of the show.
	Seats() model.SeatMap
	// Booking reads a booking as seen inside the unit, including writes made
	// earlier in the same callback.
	Booking(id string) (model.Booking, error)
	// PutBooking inserts or replaces a booking.
	PutBooking(b model.Booking) error
	// UpdateShow replaces the editable show fields (price, start time,
	// format, location and layout) with those of sh.  A start time taken by
	// another show in the same theater fails with ErrConflict.
	UpdateShow(sh model.Show) error
}

// BookingFilter narrows ListBookings.  Zero values mean "any".
type BookingFilter struct {
	UserID      uint64
	ShowID      uint64
	Status      model.BookingStatus
	CreatedFrom time.Time // inclusive
	CreatedTo   time.Time // inclusive
	Limit       int
	OldestFirst bool // default order is newest first
}

func (f BookingFilter) match(b model.Booking) bool {
	if f.UserID != 0 && b.UserID != f.UserID {
		return false
	}
	if f.ShowID != 0 && b.ShowID != f.ShowID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if !f.CreatedFrom.IsZero() && b.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && b.CreatedAt.After(f.CreatedTo) {
		return false
	}
	return true
}

// ShowFilter narrows ListShows.
type ShowFilter struct {
	MovieID         uint64
	Title           string    // movie title, case-insensitive substring
	Theater         string    // case-insensitive substring
	From            time.Time // starts_at >= From
	To              time.Time // starts_at < To
	IncludeInactive bool
	Limit           int
}
