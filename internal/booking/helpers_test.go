package booking

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakePayments struct {
	mu       sync.Mutex
	verified bool
	err      error
	orderErr error
	onVerify func()
	orders   int
}

func (f *fakePayments) InitiateOrder(ctx context.Context, bookingID string, amount int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return "", f.orderErr
	}
	f.orders++
	return "order_" + bookingID[:8], nil
}

func (f *fakePayments) Verify(ctx context.Context, orderRef string, proof PaymentProof) (Verification, error) {
	f.mu.Lock()
	hook, verified, err := f.onVerify, f.verified, f.err
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return Verification{}, err
	}
	return Verification{Verified: verified, PaymentID: proof.PaymentID}, nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEvents) Publish(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEvents) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	store    *repository.MemoryStore
	clock    *fakeClock
	payments *fakePayments
	events   *recordingEvents
	svc      *Service
	inv      *Inventory
	show     model.Show
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    repository.NewMemoryStore(),
		clock:    newFakeClock(),
		payments: &fakePayments{verified: true},
		events:   &recordingEvents{},
	}
	opts := []Option{
		WithClock(f.clock.Now),
		WithHoldTTL(10 * time.Minute),
		WithEvents(f.events),
		WithLogger(quietLogger),
	}
	f.svc = NewService(f.store, f.payments, opts...)
	f.inv = f.svc.Inventory()
	f.show = f.addShow(t, model.Show{TotalSeats: 120, SeatsPerRow: 12, PriceCents: 200})
	return f
}

func (f *fixture) addShow(t *testing.T, sh model.Show) model.Show {
	t.Helper()
	if sh.StartsAt.IsZero() {
		sh.StartsAt = f.clock.Now().Add(24 * time.Hour)
	}
	if sh.Theater == "" {
		sh.Theater = "Screen " + sh.StartsAt.Format(time.RFC3339Nano)
	}
	sh.MovieID = 7
	sh.MovieTitle = "Dune"
	sh.IsActive = true
	created, err := f.store.CreateShows(context.Background(), []model.Show{sh})
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0]
}

func (f *fixture) create(t *testing.T, userID uint64, seats ...model.Seat) model.Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), CreateRequest{
		UserID: userID,
		ShowID: f.show.ID,
		Seats:  seats,
		Email:  "ada@example.com",
		Phone:  "9876543210",
	})
	require.NoError(t, err)
	return b
}

func seat(row string, n int) model.Seat { return model.Seat{Row: row, Number: n} }
