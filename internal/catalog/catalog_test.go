package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

func validRequest() ScheduleRequest {
	return ScheduleRequest{
		MovieID:    7,
		MovieTitle: "Dune",
		StartDate:  "2026-03-01",
		EndDate:    "2026-03-03",
		TimeSlots:  []string{"10:00", "18:30"},
		Theater:    "PVR Screen 1",
		Location:   "Bengaluru",
		PriceCents: 25000,
	}
}

func TestScheduleExpandsDatesAndSlots(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+30*60)
	svc := NewService(repository.NewMemoryStore(), kolkata)

	res, err := svc.Schedule(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 6, res.Created)
	assert.Zero(t, res.Skipped)

	first := res.Shows[0]
	assert.Equal(t, model.Format2D, first.Format)
	assert.Equal(t, 120, first.TotalSeats)
	assert.Equal(t, 12, first.SeatsPerRow)
	assert.True(t, first.IsActive)
	// 10:00 in Kolkata is 04:30 UTC
	assert.Equal(t, time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC), first.StartsAt.UTC())
}

func TestScheduleSkipsTakenSlots(t *testing.T) {
	svc := NewService(repository.NewMemoryStore(), time.UTC)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.EndDate = "2026-03-04"
	req.TimeSlots = []string{"10:00", "10:00", "18:30"}
	res, err := svc.Schedule(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 6, res.Skipped)
}

func TestScheduleValidation(t *testing.T) {
	svc := NewService(repository.NewMemoryStore(), time.UTC)

	tests := []struct {
		name   string
		mutate func(*ScheduleRequest)
		msg    string
	}{
		{"missing movie", func(r *ScheduleRequest) { r.MovieID = 0 }, "movie_id is required"},
		{"missing theater", func(r *ScheduleRequest) { r.Theater = "" }, "theater is required"},
		{"no slots", func(r *ScheduleRequest) { r.TimeSlots = nil }, "time_slots is required"},
		{"bad date", func(r *ScheduleRequest) { r.StartDate = "01/03/2026" }, "start_date must match 2006-01-02"},
		{"bad format", func(r *ScheduleRequest) { r.Format = "5D" }, "format must be one of 2D 3D IMAX 4DX"},
		{"start after end", func(r *ScheduleRequest) { r.StartDate = "2026-03-05" }, "Start date cannot be after end date"},
		{"too many days", func(r *ScheduleRequest) { r.EndDate = "2026-06-01" }, "A schedule can span at most 62 days"},
		{"too many rows", func(r *ScheduleRequest) { r.TotalSeats = 400; r.SeatsPerRow = 10 }, "400 seats at 10 per row need more than 26 rows"},
		{"negative price", func(r *ScheduleRequest) { r.PriceCents = -1 }, "price_cents is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Schedule(context.Background(), req)
			require.ErrorIs(t, err, booking.ErrValidation)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestListByDateAndDeactivate(t *testing.T) {
	svc := NewService(repository.NewMemoryStore(), time.UTC)
	ctx := context.Background()
	res, err := svc.Schedule(ctx, validRequest())
	require.NoError(t, err)

	day, err := svc.List(ctx, ListQuery{Date: "2026-03-02"})
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.True(t, day[0].StartsAt.Before(day[1].StartsAt))

	byTheater, err := svc.List(ctx, ListQuery{Theater: "screen 1"})
	require.NoError(t, err)
	assert.Len(t, byTheater, 6)

	_, err = svc.List(ctx, ListQuery{Date: "tomorrow"})
	assert.ErrorIs(t, err, booking.ErrValidation)

	id := res.Shows[0].ID
	require.NoError(t, svc.Deactivate(ctx, id))
	_, err = svc.Get(ctx, id, false)
	assert.ErrorIs(t, err, booking.ErrShowNotFound)
	sh, err := svc.Get(ctx, id, true)
	require.NoError(t, err)
	assert.False(t, sh.IsActive)

	all, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	assert.ErrorIs(t, svc.Deactivate(ctx, 999), booking.ErrShowNotFound)
}

func TestListByTitleAndUpcoming(t *testing.T) {
	svc := NewService(repository.NewMemoryStore(), time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	_, err := svc.Schedule(ctx, validRequest())
	require.NoError(t, err)

	byTitle, err := svc.List(ctx, ListQuery{Title: "dun"})
	require.NoError(t, err)
	assert.Len(t, byTitle, 6)
	none, err := svc.List(ctx, ListQuery{Title: "tenet"})
	require.NoError(t, err)
	assert.Empty(t, none)

	// 2026-03-02 18:30 and both shows of 2026-03-03 are still ahead
	upcoming, err := svc.List(ctx, ListQuery{Upcoming: true})
	require.NoError(t, err)
	assert.Len(t, upcoming, 3)

	day, err := svc.List(ctx, ListQuery{Date: "2026-03-01", Upcoming: true})
	require.NoError(t, err)
	assert.Len(t, day, 2)
}

func ptr[T any](v T) *T { return &v }

func scheduled(t *testing.T) (*Service, *repository.MemoryStore, []model.Show) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := NewService(store, time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC) }
	res, err := svc.Schedule(context.Background(), validRequest())
	require.NoError(t, err)
	return svc, store, res.Shows
}

func TestUpdateShow(t *testing.T) {
	svc, _, shows := scheduled(t)
	ctx := context.Background()
	id := shows[0].ID

	sh, err := svc.Update(ctx, id, UpdateRequest{
		PriceCents: ptr(int64(30000)),
		Time:       ptr("12:15"),
		Format:     ptr(model.FormatIMAX),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), sh.PriceCents)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC), sh.StartsAt)
	assert.Equal(t, model.FormatIMAX, sh.Format)

	got, err := svc.Get(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), got.PriceCents)
	assert.Equal(t, sh.StartsAt, got.StartsAt)

	sh, err = svc.Update(ctx, id, UpdateRequest{Date: ptr("2026-03-05")})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 5, 12, 15, 0, 0, time.UTC), sh.StartsAt)
}

func TestUpdateShowWithClaimedSeats(t *testing.T) {
	for _, state := range []model.SeatState{model.SeatHeld, model.SeatBooked} {
		t.Run(string(state), func(t *testing.T) {
			svc, store, shows := scheduled(t)
			ctx := context.Background()
			id := shows[0].ID
			require.NoError(t, store.WithShow(ctx, id, func(tx repository.ShowTx) error {
				tx.Seats()[model.Seat{Row: "A", Number: 1}] = model.SeatClaim{State: state, BookingID: "b-1"}
				return nil
			}))

			_, err := svc.Update(ctx, id, UpdateRequest{PriceCents: ptr(int64(1))})
			require.ErrorIs(t, err, booking.ErrShowHasBookings)

			got, err := svc.Get(ctx, id, false)
			require.NoError(t, err)
			assert.Equal(t, int64(25000), got.PriceCents)
		})
	}
}

func TestUpdateShowRejects(t *testing.T) {
	svc, _, shows := scheduled(t)
	ctx := context.Background()
	id := shows[0].ID // 2026-03-01 10:00

	_, err := svc.Update(ctx, id, UpdateRequest{})
	assert.ErrorIs(t, err, booking.ErrValidation)

	_, err = svc.Update(ctx, id, UpdateRequest{Time: ptr("25:00")})
	assert.ErrorIs(t, err, booking.ErrValidation)

	_, err = svc.Update(ctx, id, UpdateRequest{Date: ptr("2026-02-01")})
	assert.ErrorIs(t, err, booking.ErrValidation)

	_, err = svc.Update(ctx, id, UpdateRequest{TotalSeats: ptr(400), SeatsPerRow: ptr(10)})
	assert.ErrorIs(t, err, booking.ErrValidation)

	// 18:30 on the same day is already scheduled in this theater
	_, err = svc.Update(ctx, id, UpdateRequest{Time: ptr("18:30")})
	require.ErrorIs(t, err, booking.ErrValidation)
	assert.Contains(t, err.Error(), "already has a show")

	_, err = svc.Update(ctx, 999, UpdateRequest{PriceCents: ptr(int64(1))})
	assert.ErrorIs(t, err, booking.ErrShowNotFound)

	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC) }
	_, err = svc.Update(ctx, id, UpdateRequest{PriceCents: ptr(int64(1))})
	assert.ErrorIs(t, err, booking.ErrShowStarted)
}
