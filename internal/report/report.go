// Package report aggregates revenue and booking figures for administrators.
// Only confirmed bookings count towards revenue.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

const (
	topMoviesLimit   = 10
	recentTransLimit = 20
	dayLayout        = "2006-01-02"
)

// BookingSource lists bookings.
type BookingSource interface {
	ListBookings(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
}

// CustomerCounter counts users by role.
type CustomerCounter interface {
	CountByRole(ctx context.Context, role string) (int, error)
}

// ShowSource lists shows.
type ShowSource interface {
	ListShows(ctx context.Context, f repository.ShowFilter) ([]model.Show, error)
}

type Totals struct {
	RevenueCents         int64 `json:"total_revenue_cents"`
	Bookings             int   `json:"total_bookings"`
	Tickets              int   `json:"total_tickets"`
	AvgBookingValueCents int64 `json:"avg_booking_value_cents"`
}

type MovieRevenue struct {
	MovieID      uint64 `json:"movie_id"`
	Title        string `json:"title"`
	Bookings     int    `json:"bookings"`
	Tickets      int    `json:"tickets"`
	RevenueCents int64  `json:"revenue_cents"`
}

type DailyRevenue struct {
	Date         string `json:"date"`
	RevenueCents int64  `json:"revenue_cents"`
	Bookings     int    `json:"bookings"`
}

type Transaction struct {
	Date        time.Time           `json:"date"`
	BookingCode string              `json:"booking_code"`
	UserID      uint64              `json:"user_id"`
	Movie       string              `json:"movie"`
	Tickets     int                 `json:"tickets"`
	AmountCents int64               `json:"amount_cents"`
	Status      model.BookingStatus `json:"status"`
}

// Report is the admin report for a period.
type Report struct {
	From               *time.Time     `json:"from,omitempty"`
	To                 *time.Time     `json:"to,omitempty"`
	Totals             Totals         `json:"totals"`
	TopMovies          []MovieRevenue `json:"top_movies"`
	DailyRevenue       []DailyRevenue `json:"daily_revenue"`
	RecentTransactions []Transaction  `json:"recent_transactions"`
}

// Stats are the all-time dashboard figures.
type Stats struct {
	TotalBookings     int   `json:"total_bookings"`
	TotalRevenueCents int64 `json:"total_revenue_cents"`
	TotalCustomers    int   `json:"total_customers"`
	ActiveMovies      int   `json:"active_movies"`
}

// Aggregator computes reports from the booking store.
type Aggregator struct {
	bookings BookingSource
	users    CustomerCounter
	shows    ShowSource
}

// NewAggregator returns an Aggregator.  users and shows may be nil, in which
// case the related Stats fields stay zero.
func NewAggregator(bookings BookingSource, users CustomerCounter, shows ShowSource) *Aggregator {
	return &Aggregator{bookings: bookings, users: users, shows: shows}
}

// Report summarizes bookings created in [from, to].  Zero bounds are open.
func (a *Aggregator) Report(ctx context.Context, from, to time.Time) (Report, error) {
	all, err := a.bookings.ListBookings(ctx, repository.BookingFilter{CreatedFrom: from, CreatedTo: to})
	if err != nil {
		return Report{}, fmt.Errorf("list bookings: %w", err)
	}

	r := Report{
		TopMovies:          []MovieRevenue{},
		DailyRevenue:       []DailyRevenue{},
		RecentTransactions: []Transaction{},
	}
	if !from.IsZero() {
		r.From = &from
	}
	if !to.IsZero() {
		r.To = &to
	}

	movies := map[uint64]*MovieRevenue{}
	days := map[string]*DailyRevenue{}
	for _, b := range all {
		if len(r.RecentTransactions) < recentTransLimit {
			r.RecentTransactions = append(r.RecentTransactions, Transaction{
				Date:        b.CreatedAt,
				BookingCode: b.Code,
				UserID:      b.UserID,
				Movie:       b.MovieTitle,
				Tickets:     len(b.Seats),
				AmountCents: b.Pricing.Total,
				Status:      b.Status,
			})
		}
		if b.Status != model.BookingConfirmed {
			continue
		}
		r.Totals.RevenueCents += b.Pricing.Total
		r.Totals.Bookings++
		r.Totals.Tickets += len(b.Seats)

		m, ok := movies[b.MovieID]
		if !ok {
			m = &MovieRevenue{MovieID: b.MovieID, Title: b.MovieTitle}
			movies[b.MovieID] = m
		}
		m.Bookings++
		m.Tickets += len(b.Seats)
		m.RevenueCents += b.Pricing.Total

		key := b.CreatedAt.UTC().Format(dayLayout)
		d, ok := days[key]
		if !ok {
			d = &DailyRevenue{Date: key}
			days[key] = d
		}
		d.Bookings++
		d.RevenueCents += b.Pricing.Total
	}
	if r.Totals.Bookings > 0 {
		r.Totals.AvgBookingValueCents = r.Totals.RevenueCents / int64(r.Totals.Bookings)
	}

	for _, m := range movies {
		r.TopMovies = append(r.TopMovies, *m)
	}
	sort.Slice(r.TopMovies, func(i, j int) bool {
		if r.TopMovies[i].RevenueCents != r.TopMovies[j].RevenueCents {
			return r.TopMovies[i].RevenueCents > r.TopMovies[j].RevenueCents
		}
		return r.TopMovies[i].MovieID < r.TopMovies[j].MovieID
	})
	if len(r.TopMovies) > topMoviesLimit {
		r.TopMovies = r.TopMovies[:topMoviesLimit]
	}

	for _, d := range days {
		r.DailyRevenue = append(r.DailyRevenue, *d)
	}
	sort.Slice(r.DailyRevenue, func(i, j int) bool { return r.DailyRevenue[i].Date < r.DailyRevenue[j].Date })
	return r, nil
}

// Stats returns all-time totals.
func (a *Aggregator) Stats(ctx context.Context) (Stats, error) {
	confirmed, err := a.bookings.ListBookings(ctx, repository.BookingFilter{Status: model.BookingConfirmed})
	if err != nil {
		return Stats{}, fmt.Errorf("list bookings: %w", err)
	}
	var s Stats
	for _, b := range confirmed {
		s.TotalBookings++
		s.TotalRevenueCents += b.Pricing.Total
	}
	if a.users != nil {
		if s.TotalCustomers, err = a.users.CountByRole(ctx, model.RoleCustomer); err != nil {
			return Stats{}, fmt.Errorf("count customers: %w", err)
		}
	}
	if a.shows != nil {
		shows, err := a.shows.ListShows(ctx, repository.ShowFilter{})
		if err != nil {
			return Stats{}, fmt.Errorf("list shows: %w", err)
		}
		movies := map[uint64]struct{}{}
		for _, sh := range shows {
			movies[sh.MovieID] = struct{}{}
		}
		s.ActiveMovies = len(movies)
	}
	return s, nil
}
