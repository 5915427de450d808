package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

func TestAvailabilityOfFreshShow(t *testing.T) {
	f := newFixture(t)

	a, err := f.inv.Availability(context.Background(), f.show.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, a.TotalSeats)
	assert.Equal(t, 120, a.FreeCount)
	assert.Zero(t, a.HeldCount)
	assert.Zero(t, a.BookedCount)
	assert.Len(t, a.Rows, 10)
	assert.Empty(t, a.Seats)
}

func TestAvailabilityUnknownShow(t *testing.T) {
	f := newFixture(t)

	_, err := f.inv.Availability(context.Background(), 999)
	assert.ErrorIs(t, err, ErrShowNotFound)
}

func TestTryHoldIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.inv.TryHold(ctx, f.show.ID, "b1", []model.Seat{seat("A", 1)}))

	err := f.inv.TryHold(ctx, f.show.ID, "b2", []model.Seat{seat("A", 2), seat("A", 1)})
	require.ErrorIs(t, err, ErrSeatUnavailable)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []model.Seat{seat("A", 1)}, de.Seats)
	assert.Equal(t, "Seat A1 is no longer available", de.Message)

	seats, err := f.store.ShowSeats(ctx, f.show.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, seats.State(seat("A", 2)))
	assert.Equal(t, 1, seats.Count(model.SeatHeld))
}

func TestTryHoldRepeatedBySameBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	want := []model.Seat{seat("C", 4), seat("C", 5)}

	require.NoError(t, f.inv.TryHold(ctx, f.show.ID, "b1", want))
	require.NoError(t, f.inv.TryHold(ctx, f.show.ID, "b1", want))

	a, err := f.inv.Availability(ctx, f.show.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.HeldCount)
	assert.Equal(t, 118, a.FreeCount)
}

func TestTryHoldInvalidSeats(t *testing.T) {
	f := newFixture(t)

	err := f.inv.TryHold(context.Background(), f.show.ID, "b1",
		[]model.Seat{seat("K", 1), seat("A", 13), seat("A", 1)})
	require.ErrorIs(t, err, ErrSeatInvalid)
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []model.Seat{seat("A", 13), seat("K", 1)}, de.Seats)

	seats, err := f.store.ShowSeats(context.Background(), f.show.ID)
	require.NoError(t, err)
	assert.Empty(t, seats)
}

func TestTryHoldPartialLastRow(t *testing.T) {
	f := newFixture(t)
	small := f.addShow(t, model.Show{Theater: "Screen 2", TotalSeats: 15, SeatsPerRow: 12, PriceCents: 100})
	ctx := context.Background()

	require.NoError(t, f.inv.TryHold(ctx, small.ID, "b1", []model.Seat{seat("B", 3)}))
	err := f.inv.TryHold(ctx, small.ID, "b2", []model.Seat{seat("B", 4)})
	assert.ErrorIs(t, err, ErrSeatInvalid)
}

func TestTryHoldSeatCountLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.inv.TryHold(ctx, f.show.ID, "b1", nil)
	assert.ErrorIs(t, err, ErrValidation)

	many := make([]model.Seat, 0, MaxSeatsPerBooking+1)
	for i := 1; i <= MaxSeatsPerBooking+1; i++ {
		many = append(many, seat("A", i))
	}
	err = f.inv.TryHold(ctx, f.show.ID, "b1", many)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTryHoldAfterShowStarted(t *testing.T) {
	f := newFixture(t)
	started := f.addShow(t, model.Show{
		Theater:     "Screen 3",
		StartsAt:    f.clock.Now().Add(-time.Minute),
		TotalSeats:  120,
		SeatsPerRow: 12,
	})

	err := f.inv.TryHold(context.Background(), started.ID, "b1", []model.Seat{seat("A", 1)})
	assert.ErrorIs(t, err, ErrShowStarted)
}

func TestTryHoldUnknownShow(t *testing.T) {
	f := newFixture(t)

	err := f.inv.TryHold(context.Background(), 424242, "b1", []model.Seat{seat("A", 1)})
	assert.ErrorIs(t, err, ErrShowNotFound)
}

func TestConfirmAndRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.inv.TryHold(ctx, f.show.ID, "b1", []model.Seat{seat("A", 1), seat("A", 2)}))
	require.NoError(t, f.inv.Confirm(ctx, f.show.ID, "b1"))

	// booked seats survive a release
	require.NoError(t, f.inv.Release(ctx, f.show.ID, "b1"))
	a, err := f.inv.Availability(ctx, f.show.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.BookedCount)
	assert.Equal(t, 118, a.FreeCount)

	err = f.inv.TryHold(ctx, f.show.ID, "b2", []model.Seat{seat("A", 1)})
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Seat A1 is already booked", de.Message)

	assert.ErrorIs(t, f.inv.Confirm(ctx, f.show.ID, "nobody"), ErrNoActiveHold)
	assert.NoError(t, f.inv.Release(ctx, f.show.ID, "nobody"))
}

func TestReleaseFreesHeldSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.inv.TryHold(ctx, f.show.ID, "b1", []model.Seat{seat("D", 7)}))
	require.NoError(t, f.inv.Release(ctx, f.show.ID, "b1"))
	require.NoError(t, f.inv.TryHold(ctx, f.show.ID, "b2", []model.Seat{seat("D", 7)}))
}

func TestServiceAndInventoryShareSeatState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.create(t, alice, seat("F", 1), seat("F", 2))
	err := f.inv.TryHold(ctx, f.show.ID, "other", []model.Seat{seat("F", 2)})
	require.ErrorIs(t, err, ErrSeatUnavailable)

	// re-holding the booking's own seats is a no-op
	require.NoError(t, f.inv.TryHold(ctx, f.show.ID, b.ID, []model.Seat{seat("F", 1), seat("F", 2)}))
	require.NoError(t, f.inv.Release(ctx, f.show.ID, b.ID))
	require.NoError(t, f.inv.TryHold(ctx, f.show.ID, "other", []model.Seat{seat("F", 2)}))
}

func TestConcurrentHoldsOnOneSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("b%d", i)
			err := f.inv.TryHold(ctx, f.show.ID, id, []model.Seat{seat("E", 6)})
			if err == nil {
				mu.Lock()
				winners = append(winners, id)
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrSeatUnavailable)
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	seats, err := f.store.ShowSeats(ctx, f.show.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SeatClaim{State: model.SeatHeld, BookingID: winners[0]}, seats[seat("E", 6)])
}

func TestConcurrentOverlappingHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 40
	requested := make(map[string][]model.Seat, workers)
	for i := 0; i < workers; i++ {
		start := i%10 + 1
		requested[fmt.Sprintf("b%d", i)] = []model.Seat{seat("F", start), seat("F", start+1)}
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won = map[string]bool{}
	)
	for id, seats := range requested {
		wg.Add(1)
		go func(id string, seats []model.Seat) {
			defer wg.Done()
			if f.inv.TryHold(ctx, f.show.ID, id, seats) == nil {
				mu.Lock()
				won[id] = true
				mu.Unlock()
			}
		}(id, seats)
	}
	wg.Wait()

	seats, err := f.store.ShowSeats(ctx, f.show.ID)
	require.NoError(t, err)
	require.NotEmpty(t, won)
	for s, c := range seats {
		assert.True(t, won[c.BookingID], "seat %s owned by losing booking %s", s, c.BookingID)
	}
	for id := range won {
		for _, s := range requested[id] {
			assert.Equal(t, id, seats[s].BookingID, "booking %s lost seat %s", id, s)
		}
	}
}
