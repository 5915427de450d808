// Package catalog schedules shows and serves the show listings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

const (
	// MaxScheduleDays bounds the date range of one Schedule call.
	MaxScheduleDays = 62

	dateLayout = "2006-01-02"
	slotLayout = "15:04"
)

// Store is the show persistence the catalog needs.
type Store interface {
	CreateShows(ctx context.Context, shows []model.Show) ([]model.Show, error)
	ListShows(ctx context.Context, f repository.ShowFilter) ([]model.Show, error)
	GetShow(ctx context.Context, id uint64) (model.Show, error)
	DeactivateShow(ctx context.Context, id uint64) error
	WithShow(ctx context.Context, showID uint64, fn func(tx repository.ShowTx) error) error
}

// ScheduleRequest creates one show per date in [StartDate, EndDate] and
// time slot.
type ScheduleRequest struct {
	MovieID     uint64   `json:"movie_id" validate:"required"`
	MovieTitle  string   `json:"movie_title" validate:"required,max=200"`
	StartDate   string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	TimeSlots   []string `json:"time_slots" validate:"required,min=1,max=24,dive,datetime=15:04"`
	Theater     string   `json:"theater" validate:"required,max=100"`
	Location    string   `json:"location" validate:"max=200"`
	Format      string   `json:"format" validate:"omitempty,oneof=2D 3D IMAX 4DX"`
	PriceCents  int64    `json:"price_cents" validate:"gte=0"`
	TotalSeats  int      `json:"total_seats" validate:"omitempty,min=1"`
	SeatsPerRow int      `json:"seats_per_row" validate:"omitempty,min=1"`
}

// UpdateRequest edits one show.  Nil fields keep their current value; Date
// and Time are read in the theater time zone.
type UpdateRequest struct {
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time" validate:"omitempty,datetime=15:04"`
	Format      *string `json:"format" validate:"omitempty,oneof=2D 3D IMAX 4DX"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	TotalSeats  *int    `json:"total_seats" validate:"omitempty,min=1"`
	SeatsPerRow *int    `json:"seats_per_row" validate:"omitempty,min=1"`
}

func (r UpdateRequest) empty() bool {
	return r.PriceCents == nil && r.Date == nil && r.Time == nil && r.Format == nil &&
		r.Location == nil && r.TotalSeats == nil && r.SeatsPerRow == nil
}

// ScheduleResult reports what Schedule did.  Slots that already had a show
// in the same theater are skipped.
type ScheduleResult struct {
	Created int          `json:"created"`
	Skipped int          `json:"skipped"`
	Shows   []model.Show `json:"shows"`
}

// ListQuery filters List.  Date is YYYY-MM-DD in the theater time zone.
// Upcoming drops shows that already started; it is ignored when Date is set.
type ListQuery struct {
	Date            string
	Title           string
	Theater         string
	Upcoming        bool
	MovieID         uint64
	IncludeInactive bool
	Limit           int
}

// Service manages the show catalog.
type Service struct {
	store    Store
	loc      *time.Location
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// NewService returns a catalog whose dates and time slots are read in loc.
func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, validate: booking.Validate, log: logger.Get(), now: time.Now}
}

// Location returns the theater time zone.
func (s *Service) Location() *time.Location { return s.loc }

// Schedule expands req into shows and stores them.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (ScheduleResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return ScheduleResult{}, fieldError(err)
	}
	start, err := time.ParseInLocation(dateLayout, req.StartDate, s.loc)
	if err != nil {
		return ScheduleResult{}, invalid("start_date must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(dateLayout, req.EndDate, s.loc)
	if err != nil {
		return ScheduleResult{}, invalid("end_date must be YYYY-MM-DD")
	}
	if start.After(end) {
		return ScheduleResult{}, invalid("Start date cannot be after end date")
	}
	if end.After(start.AddDate(0, 0, MaxScheduleDays-1)) {
		return ScheduleResult{}, invalid("A schedule can span at most %d days", MaxScheduleDays)
	}

	tmpl := model.Show{
		MovieID:     req.MovieID,
		MovieTitle:  strings.TrimSpace(req.MovieTitle),
		Theater:     strings.TrimSpace(req.Theater),
		Location:    strings.TrimSpace(req.Location),
		Format:      req.Format,
		PriceCents:  req.PriceCents,
		TotalSeats:  req.TotalSeats,
		SeatsPerRow: req.SeatsPerRow,
		IsActive:    true,
	}
	if tmpl.Format == "" {
		tmpl.Format = model.Format2D
	}
	if tmpl.TotalSeats == 0 {
		tmpl.TotalSeats = model.DefaultTotalSeats
	}
	if tmpl.SeatsPerRow == 0 {
		tmpl.SeatsPerRow = model.DefaultSeatsPerRow
	}
	if tmpl.RowCount() > model.MaxRows {
		return ScheduleResult{}, invalid("%d seats at %d per row need more than %d rows",
			tmpl.TotalSeats, tmpl.SeatsPerRow, model.MaxRows)
	}

	slots, err := parseSlots(req.TimeSlots)
	if err != nil {
		return ScheduleResult{}, err
	}
	var shows []model.Show
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, slot := range slots {
			sh := tmpl
			sh.StartsAt = time.Date(day.Year(), day.Month(), day.Day(), slot.Hour(), slot.Minute(), 0, 0, s.loc).UTC()
			shows = append(shows, sh)
		}
	}
	if len(shows) == 0 {
		return ScheduleResult{}, invalid("The schedule produces no shows")
	}

	created, err := s.store.CreateShows(ctx, shows)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("create shows: %w", err)
	}
	res := ScheduleResult{Created: len(created), Skipped: len(shows) - len(created), Shows: created}
	s.log.InfoContext(ctx, "shows scheduled",
		"movie_id", req.MovieID, "theater", tmpl.Theater, "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

func parseSlots(raw []string) ([]time.Time, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		t, err := time.Parse(slotLayout, strings.TrimSpace(r))
		if err != nil {
			return nil, invalid("time slot %q must be HH:MM", r)
		}
		key := t.Format(slotLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out, nil
}

// List returns shows ordered by start time.
func (s *Service) List(ctx context.Context, q ListQuery) ([]model.Show, error) {
	f := repository.ShowFilter{
		MovieID:         q.MovieID,
		Title:           strings.TrimSpace(q.Title),
		Theater:         strings.TrimSpace(q.Theater),
		IncludeInactive: q.IncludeInactive,
		Limit:           q.Limit,
	}
	if q.Date != "" {
		day, err := time.ParseInLocation(dateLayout, q.Date, s.loc)
		if err != nil {
			return nil, invalid("date must be YYYY-MM-DD")
		}
		f.From = day.UTC()
		f.To = day.AddDate(0, 0, 1).UTC()
	} else if q.Upcoming {
		f.From = s.now().UTC()
	}
	shows, err := s.store.ListShows(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	return shows, nil
}

// Get returns one show.  Deactivated shows are reported as missing unless
// includeInactive is set.
func (s *Service) Get(ctx context.Context, id uint64, includeInactive bool) (model.Show, error) {
	sh, err := s.store.GetShow(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !sh.IsActive && !includeInactive) {
		return model.Show{}, booking.ErrShowNotFound
	}
	if err != nil {
		return model.Show{}, fmt.Errorf("get show: %w", err)
	}
	return sh, nil
}

// Deactivate hides a show from listings and blocks new holds on it.
// Existing bookings are kept.
func (s *Service) Deactivate(ctx context.Context, id uint64) error {
	err := s.store.DeactivateShow(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return booking.ErrShowNotFound
	}
	if err != nil {
		return fmt.Errorf("deactivate show: %w", err)
	}
	s.log.InfoContext(ctx, "show deactivated", "show_id", id)
	return nil
}

// Update edits a show that has no held or booked seats.  The check and the
// write run under the show's lock, so a hold cannot slip in between.
func (s *Service) Update(ctx context.Context, id uint64, req UpdateRequest) (model.Show, error) {
	if err := s.validate.Struct(req); err != nil {
		return model.Show{}, fieldError(err)
	}
	if req.empty() {
		return model.Show{}, invalid("Nothing to update")
	}

	var out model.Show
	var theater string
	err := s.store.WithShow(ctx, id, func(tx repository.ShowTx) error {
		cur := tx.Show()
		theater = cur.Theater
		now := s.now()
		if cur.Started(now) {
			return booking.ErrShowStarted
		}
		if len(tx.Seats()) > 0 {
			return booking.ErrShowHasBookings
		}
		next, err := s.apply(cur, req)
		if err != nil {
			return err
		}
		if !next.StartsAt.After(now) {
			return invalid("The new start time must be in the future")
		}
		if err := tx.UpdateShow(next); err != nil {
			return err
		}
		out = tx.Show()
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Show{}, booking.ErrShowNotFound
	case errors.Is(err, repository.ErrConflict):
		return model.Show{}, invalid("Theater %s already has a show at that time", theater)
	case err != nil:
		var de *booking.Error
		if errors.As(err, &de) {
			return model.Show{}, err
		}
		return model.Show{}, fmt.Errorf("update show: %w", err)
	}
	s.log.InfoContext(ctx, "show updated", "show_id", id, "starts_at", out.StartsAt, "price_cents", out.PriceCents)
	return out, nil
}

func (s *Service) apply(sh model.Show, req UpdateRequest) (model.Show, error) {
	if req.PriceCents != nil {
		sh.PriceCents = *req.PriceCents
	}
	if req.Format != nil {
		sh.Format = *req.Format
	}
	if req.Location != nil {
		sh.Location = strings.TrimSpace(*req.Location)
	}
	if req.TotalSeats != nil {
		sh.TotalSeats = *req.TotalSeats
	}
	if req.SeatsPerRow != nil {
		sh.SeatsPerRow = *req.SeatsPerRow
	}
	if sh.RowCount() > model.MaxRows {
		return sh, invalid("%d seats at %d per row need more than %d rows", sh.TotalSeats, sh.SeatsPerRow, model.MaxRows)
	}
	if req.Date != nil || req.Time != nil {
		local := sh.StartsAt.In(s.loc)
		day := local.Format(dateLayout)
		slot := local.Format(slotLayout)
		if req.Date != nil {
			day = *req.Date
		}
		if req.Time != nil {
			slot = *req.Time
		}
		at, err := time.ParseInLocation(dateLayout+" "+slotLayout, day+" "+slot, s.loc)
		if err != nil {
			return sh, invalid("date and time must be YYYY-MM-DD and HH:MM")
		}
		sh.StartsAt = at.UTC()
	}
	return sh, nil
}

func invalid(format string, args ...any) error {
	return &booking.Error{Kind: booking.KindValidation, Message: fmt.Sprintf(format, args...)}
}

func fieldError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return invalid("%s", err.Error())
	}
	fe := fields[0]
	switch fe.Tag() {
	case "required":
		return invalid("%s is required", fe.Field())
	case "datetime":
		return invalid("%s must match %s", fe.Field(), fe.Param())
	case "oneof":
		return invalid("%s must be one of %s", fe.Field(), fe.Param())
	}
	return invalid("%s is invalid", fe.Field())
}
