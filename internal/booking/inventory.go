package booking

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// SeatStatus is one occupied seat in an availability report.
type SeatStatus struct {
	Row    string          `json:"row"`
	Number int             `json:"number"`
	Status model.SeatState `json:"status"`
}

// Availability is a read-only view of a show's seat occupancy.  Seats lists
// only held and booked seats; every other seat of Rows is free.
type Availability struct {
	ShowID      uint64       `json:"show_id"`
	StartsAt    time.Time    `json:"starts_at"`
	TotalSeats  int          `json:"total_seats"`
	FreeCount   int          `json:"free_count"`
	HeldCount   int          `json:"held_count"`
	BookedCount int          `json:"booked_count"`
	Rows        []model.Row  `json:"rows"`
	Seats       []SeatStatus `json:"seats"`
}

// Inventory is the single entry point for seat state changes of shows.
type Inventory struct {
	store Store
	opts  options
}

// NewInventory returns an Inventory over store.
func NewInventory(store Store, opts ...Option) *Inventory {
	return &Inventory{store: store, opts: buildOptions(opts)}
}

// Availability reports the occupancy of a show.
func (inv *Inventory) Availability(ctx context.Context, showID uint64) (Availability, error) {
	show, err := inv.store.GetShow(ctx, showID)
	if err != nil {
		return Availability{}, storeError(err, ErrShowNotFound)
	}
	if !show.IsActive {
		return Availability{}, ErrShowNotFound
	}
	seats, err := inv.store.ShowSeats(ctx, showID)
	if err != nil {
		return Availability{}, storeError(err, ErrShowNotFound)
	}
	return buildAvailability(show, seats), nil
}

func buildAvailability(show model.Show, seats model.SeatMap) Availability {
	a := Availability{
		ShowID:      show.ID,
		StartsAt:    show.StartsAt,
		TotalSeats:  show.TotalSeats,
		HeldCount:   seats.Count(model.SeatHeld),
		BookedCount: seats.Count(model.SeatBooked),
		Rows:        show.Layout(),
		Seats:       make([]SeatStatus, 0, len(seats)),
	}
	a.FreeCount = a.TotalSeats - a.HeldCount - a.BookedCount
	for s, c := range seats {
		a.Seats = append(a.Seats, SeatStatus{Row: s.Row, Number: s.Number, Status: c.State})
	}
	sort.Slice(a.Seats, func(i, j int) bool {
		return model.Seat{Row: a.Seats[i].Row, Number: a.Seats[i].Number}.Less(
			model.Seat{Row: a.Seats[j].Row, Number: a.Seats[j].Number})
	})
	return a
}

// TryHold atomically claims seats of a show for bookingID.  Either every
// seat is held or none is.  Repeating the call with the same booking and
// seats succeeds without changing anything.
func (inv *Inventory) TryHold(ctx context.Context, showID uint64, bookingID string, seats []model.Seat) error {
	seats = model.NormalizeSeats(seats)
	if err := checkSeatCount(seats); err != nil {
		return err
	}
	now := inv.opts.now()
	err := inv.store.WithShow(ctx, showID, func(tx repository.ShowTx) error {
		return inv.holdIn(tx, bookingID, seats, now)
	})
	observeHold(err)
	if err != nil {
		return storeError(err, ErrShowNotFound)
	}
	return nil
}

// Confirm converts the seats held by bookingID into booked seats.
func (inv *Inventory) Confirm(ctx context.Context, showID uint64, bookingID string) error {
	err := inv.store.WithShow(ctx, showID, func(tx repository.ShowTx) error {
		return inv.confirmIn(tx, bookingID)
	})
	if err != nil {
		return storeError(err, ErrShowNotFound)
	}
	return nil
}

// Release frees the seats held by bookingID.  Booked seats are untouched
// and releasing a booking without a hold is a no-op.
func (inv *Inventory) Release(ctx context.Context, showID uint64, bookingID string) error {
	var n int
	err := inv.store.WithShow(ctx, showID, func(tx repository.ShowTx) error {
		n = inv.releaseIn(tx, bookingID)
		return nil
	})
	if err != nil {
		return storeError(err, ErrShowNotFound)
	}
	metrics.SeatsReleased.WithLabelValues("release").Add(float64(n))
	return nil
}

// The *In methods are the write operations above run inside a show unit
// that the caller already holds, so the booking lifecycle can change seats
// and bookings in one commit.

func (inv *Inventory) holdIn(tx repository.ShowTx, bookingID string, seats []model.Seat, now time.Time) error {
	show := tx.Show()
	if !show.IsActive {
		return ErrShowNotFound
	}
	return holdSeats(show, tx.Seats(), bookingID, seats, now)
}

func (inv *Inventory) confirmIn(tx repository.ShowTx, bookingID string) error {
	if confirmHeld(tx.Seats(), bookingID) == 0 {
		return ErrNoActiveHold
	}
	return nil
}

func (inv *Inventory) releaseIn(tx repository.ShowTx, bookingID string) int {
	return releaseHeld(tx.Seats(), bookingID)
}

// freeIn drops held and booked seats of bookingID.  Only cancellation uses it.
func (inv *Inventory) freeIn(tx repository.ShowTx, bookingID string) int {
	return releaseAll(tx.Seats(), bookingID)
}

func observeHold(err error) {
	result := "ok"
	if err != nil {
		switch KindOf(err) {
		case KindSeatUnavailable:
			result = "unavailable"
		case KindSeatInvalid:
			result = "invalid"
		case KindShowStarted:
			result = "started"
		case KindShowNotFound:
			result = "not_found"
		default:
			result = "error"
		}
	}
	metrics.HoldAttempts.WithLabelValues(result).Inc()
}
