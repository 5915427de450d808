package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShowLayout(t *testing.T) {
	s := Show{TotalSeats: 30, SeatsPerRow: 12}
	assert.Equal(t, 3, s.RowCount())
	assert.Equal(t, []Row{{"A", 12}, {"B", 12}, {"C", 6}}, s.Layout())

	assert.True(t, s.ValidSeat(Seat{Row: "C", Number: 6}))
	assert.False(t, s.ValidSeat(Seat{Row: "C", Number: 7}))
	assert.False(t, s.ValidSeat(Seat{Row: "D", Number: 1}))
	assert.False(t, s.ValidSeat(Seat{Row: "A", Number: 0}))
	assert.False(t, s.ValidSeat(Seat{Row: "a", Number: 1}))
	assert.False(t, s.ValidSeat(Seat{Row: "AA", Number: 1}))

	def := Show{TotalSeats: DefaultTotalSeats}
	assert.Equal(t, 10, def.RowCount())
	assert.Equal(t, DefaultSeatsPerRow, def.SeatsInRow("J"))
	assert.Empty(t, Show{}.Layout())
}

func TestShowStarted(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	s := Show{StartsAt: start}
	assert.False(t, s.Started(start.Add(-time.Second)))
	assert.True(t, s.Started(start))
}

func TestNormalizeSeats(t *testing.T) {
	in := []Seat{{"b", 2}, {" A", 10}, {"A", 2}, {"B", 2}}
	out := NormalizeSeats(in)
	assert.Equal(t, []Seat{{"A", 2}, {"A", 10}, {"B", 2}}, out)
	assert.Equal(t, "b", in[0].Row, "input untouched")
	assert.Equal(t, []string{"A2", "A10", "B2"}, SeatLabels(out))
}

func TestSeatMap(t *testing.T) {
	m := SeatMap{
		{"A", 2}: {State: SeatHeld, BookingID: "x"},
		{"A", 1}: {State: SeatHeld, BookingID: "x"},
		{"B", 1}: {State: SeatBooked, BookingID: "y"},
	}
	assert.Equal(t, SeatFree, m.State(Seat{"C", 1}))
	assert.Equal(t, 2, m.Count(SeatHeld))
	assert.Equal(t, []Seat{{"A", 1}, {"A", 2}}, m.OwnedBy("x", SeatHeld))
	assert.Empty(t, m.OwnedBy("x", SeatBooked))

	c := m.Clone()
	delete(c, Seat{"B", 1})
	assert.Equal(t, SeatBooked, m.State(Seat{"B", 1}))
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, BookingPending.Valid())
	assert.False(t, BookingStatus("bogus").Valid())
	assert.True(t, Booking{Status: BookingExpired}.Terminal())
	assert.False(t, Booking{Status: BookingConfirmed}.Terminal())
}
