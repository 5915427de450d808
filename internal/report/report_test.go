package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

type fakeBookings []model.Booking

func (f fakeBookings) ListBookings(ctx context.Context, flt repository.BookingFilter) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f {
		if flt.Status != "" && b.Status != flt.Status {
			continue
		}
		if !flt.CreatedFrom.IsZero() && b.CreatedAt.Before(flt.CreatedFrom) {
			continue
		}
		if !flt.CreatedTo.IsZero() && b.CreatedAt.After(flt.CreatedTo) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type fakeUsers int

func (f fakeUsers) CountByRole(ctx context.Context, role string) (int, error) { return int(f), nil }

type fakeShows []model.Show

func (f fakeShows) ListShows(ctx context.Context, flt repository.ShowFilter) ([]model.Show, error) {
	return f, nil
}

func bookingAt(day int, movie uint64, title string, status model.BookingStatus, seats int, total int64) model.Booking {
	return model.Booking{
		Code:       "BK" + title,
		MovieID:    movie,
		MovieTitle: title,
		Status:     status,
		Seats:      make([]model.Seat, seats),
		Pricing:    model.Pricing{Total: total},
		CreatedAt:  time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC),
	}
}

// newest first, as the stores return them
var sample = fakeBookings{
	bookingAt(3, 2, "Arrival", model.BookingCancelled, 1, 500),
	bookingAt(2, 1, "Dune", model.BookingConfirmed, 3, 738),
	bookingAt(2, 2, "Arrival", model.BookingConfirmed, 2, 1000),
	bookingAt(1, 1, "Dune", model.BookingConfirmed, 1, 246),
	bookingAt(1, 3, "Heat", model.BookingExpired, 2, 400),
}

func TestReportAllTime(t *testing.T) {
	a := NewAggregator(sample, nil, nil)

	r, err := a.Report(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, Totals{RevenueCents: 1984, Bookings: 3, Tickets: 6, AvgBookingValueCents: 661}, r.Totals)
	assert.Equal(t, []MovieRevenue{
		{MovieID: 2, Title: "Arrival", Bookings: 1, Tickets: 2, RevenueCents: 1000},
		{MovieID: 1, Title: "Dune", Bookings: 2, Tickets: 4, RevenueCents: 984},
	}, r.TopMovies)
	assert.Equal(t, []DailyRevenue{
		{Date: "2026-03-01", RevenueCents: 246, Bookings: 1},
		{Date: "2026-03-02", RevenueCents: 1738, Bookings: 2},
	}, r.DailyRevenue)
	require.Len(t, r.RecentTransactions, 5)
	assert.Equal(t, model.BookingCancelled, r.RecentTransactions[0].Status)
	assert.Nil(t, r.From)
}

func TestReportRange(t *testing.T) {
	a := NewAggregator(sample, nil, nil)
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Nanosecond)

	r, err := a.Report(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Totals.Bookings)
	assert.Len(t, r.RecentTransactions, 2)
	assert.Len(t, r.DailyRevenue, 1)
	require.NotNil(t, r.From)
	assert.Equal(t, from, *r.From)
}

func TestReportEmpty(t *testing.T) {
	r, err := NewAggregator(fakeBookings{}, nil, nil).Report(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, r.Totals)
	assert.NotNil(t, r.TopMovies)
	assert.NotNil(t, r.DailyRevenue)
}

func TestStats(t *testing.T) {
	shows := fakeShows{{MovieID: 1}, {MovieID: 1}, {MovieID: 4}}
	s, err := NewAggregator(sample, fakeUsers(12), shows).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalBookings: 3, TotalRevenueCents: 1984, TotalCustomers: 12, ActiveMovies: 2}, s)
}
