package model

import "sort"

// SeatState is the occupancy state of one seat of a show.
type SeatState string

const (
	SeatFree   SeatState = "FREE"
	SeatHeld   SeatState = "HELD"
	SeatBooked SeatState = "BOOKED"
)

// SeatClaim is the occupancy of a non-free seat together with the booking
// that owns it.
type SeatClaim struct {
	State     SeatState // show_seats.status (HELD or BOOKED)
	BookingID string    // show_seats.booking_id
}

// SeatMap is a show's seat occupancy keyed by coordinate.  Only held and
// booked seats are present; a missing coordinate is free.
type SeatMap map[Seat]SeatClaim

// State returns the state of seat, SeatFree when unclaimed.
func (m SeatMap) State(seat Seat) SeatState {
	if c, ok := m[seat]; ok {
		return c.State
	}
	return SeatFree
}

// Clone returns an independent copy of the map.
func (m SeatMap) Clone() SeatMap {
	out := make(SeatMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Count returns the number of seats in state.
func (m SeatMap) Count(state SeatState) int {
	n := 0
	for _, c := range m {
		if c.State == state {
			n++
		}
	}
	return n
}

// OwnedBy returns the seats claimed by bookingID in the given state, sorted.
func (m SeatMap) OwnedBy(bookingID string, state SeatState) []Seat {
	var out []Seat
	for seat, c := range m {
		if c.BookingID == bookingID && c.State == state {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
