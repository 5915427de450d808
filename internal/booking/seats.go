package booking

import (
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// MaxSeatsPerBooking caps how many seats one booking may claim.
const MaxSeatsPerBooking = 10

func checkSeatCount(seats []model.Seat) error {
	switch {
	case len(seats) == 0:
		return validationError("Please select at least one seat")
	case len(seats) > MaxSeatsPerBooking:
		return validationError("A booking can hold at most %d seats", MaxSeatsPerBooking)
	}
	return nil
}

// holdSeats claims seats for bookingID in m.  It is all or nothing: on any
// error m is left untouched.  Seats already held by bookingID count as
// claimed, which makes a repeated hold with the same seats a no-op.
func holdSeats(show model.Show, m model.SeatMap, bookingID string, seats []model.Seat, now time.Time) error {
	if show.Started(now) {
		return ErrShowStarted
	}
	var invalid []model.Seat
	for _, s := range seats {
		if !show.ValidSeat(s) {
			invalid = append(invalid, s)
		}
	}
	if len(invalid) > 0 {
		return invalidSeatsError(invalid)
	}

	var conflicts []model.Seat
	allBooked := true
	for _, s := range seats {
		c, taken := m[s]
		if !taken || (c.State == model.SeatHeld && c.BookingID == bookingID) {
			continue
		}
		conflicts = append(conflicts, s)
		if c.State != model.SeatBooked {
			allBooked = false
		}
	}
	if len(conflicts) > 0 {
		return unavailableSeatsError(conflicts, allBooked)
	}

	for _, s := range seats {
		m[s] = model.SeatClaim{State: model.SeatHeld, BookingID: bookingID}
	}
	return nil
}

// confirmHeld turns every seat held by bookingID into a booked seat and
// returns how many were converted.
func confirmHeld(m model.SeatMap, bookingID string) int {
	held := m.OwnedBy(bookingID, model.SeatHeld)
	for _, s := range held {
		m[s] = model.SeatClaim{State: model.SeatBooked, BookingID: bookingID}
	}
	return len(held)
}

// releaseHeld frees the seats held by bookingID.  Booked seats stay.
func releaseHeld(m model.SeatMap, bookingID string) int {
	return freeSeats(m, m.OwnedBy(bookingID, model.SeatHeld))
}

// releaseAll frees every seat owned by bookingID, held or booked.
func releaseAll(m model.SeatMap, bookingID string) int {
	n := releaseHeld(m, bookingID)
	return n + freeSeats(m, m.OwnedBy(bookingID, model.SeatBooked))
}

func freeSeats(m model.SeatMap, seats []model.Seat) int {
	for _, s := range seats {
		delete(m, s)
	}
	return len(seats)
}
