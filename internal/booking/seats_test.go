package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

func TestSeatMapTransitions(t *testing.T) {
	m := model.SeatMap{
		seat("A", 1): {State: model.SeatHeld, BookingID: "b1"},
		seat("A", 2): {State: model.SeatHeld, BookingID: "b1"},
		seat("A", 3): {State: model.SeatHeld, BookingID: "b2"},
		seat("B", 1): {State: model.SeatBooked, BookingID: "b1"},
	}

	assert.Equal(t, 2, confirmHeld(m, "b1"))
	assert.Equal(t, model.SeatBooked, m.State(seat("A", 1)))
	assert.Zero(t, confirmHeld(m, "b1"))

	assert.Zero(t, releaseHeld(m, "b1"), "booked seats stay")
	assert.Equal(t, 1, releaseHeld(m, "b2"))
	assert.Equal(t, model.SeatFree, m.State(seat("A", 3)))

	m[seat("C", 1)] = model.SeatClaim{State: model.SeatHeld, BookingID: "b1"}
	assert.Equal(t, 4, releaseAll(m, "b1"))
	assert.Empty(t, m)
}
