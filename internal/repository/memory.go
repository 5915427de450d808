package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// MemoryStore keeps shows, seat maps and bookings in process memory.  Each
// show has its own mutex, so WithShow callbacks for one show never overlap
// while different shows proceed in parallel.
type MemoryStore struct {
	mu         sync.RWMutex
	nextShowID uint64
	shows      map[uint64]model.Show
	seats      map[uint64]model.SeatMap
	bookings   map[string]model.Booking
	codes      map[string]string // booking code -> booking id
	locks      map[uint64]*sync.Mutex
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shows:    make(map[uint64]model.Show),
		seats:    make(map[uint64]model.SeatMap),
		bookings: make(map[string]model.Booking),
		codes:    make(map[string]string),
		locks:    make(map[uint64]*sync.Mutex),
	}
}

func (s *MemoryStore) showLock(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// GetShow returns the show with id.
func (s *MemoryStore) GetShow(ctx context.Context, id uint64) (model.Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shows[id]
	if !ok {
		return model.Show{}, ErrNotFound
	}
	return sh, nil
}

// ShowSeats returns a snapshot of the show's seat map.
func (s *MemoryStore) ShowSeats(ctx context.Context, id uint64) (model.SeatMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.shows[id]; !ok {
		return nil, ErrNotFound
	}
	return s.seats[id].Clone(), nil
}

// CreateShows inserts shows, assigning ids.  A show whose theater and start
// time match an existing one is skipped.  It returns the inserted shows.
func (s *MemoryStore) CreateShows(ctx context.Context, shows []model.Show) ([]model.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	taken := make(map[string]bool, len(s.shows))
	for _, sh := range s.shows {
		taken[slotKey(sh)] = true
	}
	created := make([]model.Show, 0, len(shows))
	now := time.Now().UTC()
	for _, sh := range shows {
		key := slotKey(sh)
		if taken[key] {
			continue
		}
		taken[key] = true
		s.nextShowID++
		sh.ID = s.nextShowID
		sh.CreatedAt, sh.UpdatedAt = now, now
		s.shows[sh.ID] = sh
		s.seats[sh.ID] = model.SeatMap{}
		created = append(created, sh)
	}
	return created, nil
}

func slotKey(sh model.Show) string {
	return strings.ToLower(sh.Theater) + "|" + sh.StartsAt.UTC().Format(time.RFC3339)
}

// ListShows returns shows matching f ordered by start time.
func (s *MemoryStore) ListShows(ctx context.Context, f ShowFilter) ([]model.Show, error) {
	s.mu.RLock()
	out := make([]model.Show, 0)
	theater := strings.ToLower(f.Theater)
	title := strings.ToLower(f.Title)
	for _, sh := range s.shows {
		if !f.IncludeInactive && !sh.IsActive {
			continue
		}
		if f.MovieID != 0 && sh.MovieID != f.MovieID {
			continue
		}
		if theater != "" && !strings.Contains(strings.ToLower(sh.Theater), theater) {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(sh.MovieTitle), title) {
			continue
		}
		if !f.From.IsZero() && sh.StartsAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !sh.StartsAt.Before(f.To) {
			continue
		}
		out = append(out, sh)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// DeactivateShow hides a show from listings.  The show and its bookings stay.
func (s *MemoryStore) DeactivateShow(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shows[id]
	if !ok {
		return ErrNotFound
	}
	sh.IsActive = false
	sh.UpdatedAt = time.Now().UTC()
	s.shows[id] = sh
	return nil
}

// GetBooking returns the booking with id.
func (s *MemoryStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return cloneBooking(b), nil
}

// GetBookingByCode returns the booking with the given booking code.
func (s *MemoryStore) GetBookingByCode(ctx context.Context, code string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return cloneBooking(s.bookings[id]), nil
}

// ListBookings returns bookings matching f, newest first unless
// f.OldestFirst is set.
func (s *MemoryStore) ListBookings(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	s.mu.RLock()
	out := make([]model.Booking, 0)
	for _, b := range s.bookings {
		if f.match(b) {
			out = append(out, cloneBooking(b))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if f.OldestFirst {
			a, b = b, a
		}
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// WithShow runs fn with exclusive access to the show's seat map.
func (s *MemoryStore) WithShow(ctx context.Context, showID uint64, fn func(tx ShowTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.showLock(showID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	sh, ok := s.shows[showID]
	before := s.seats[showID]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	tx := &memShowTx{store: s, show: sh, seats: before.Clone(), staged: map[string]model.Booking{}}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range tx.staged {
		if id, ok := s.codes[b.Code]; ok && id != b.ID {
			return ErrConflict
		}
	}
	if tx.edit != nil {
		key := slotKey(*tx.edit)
		for id, other := range s.shows {
			if id != showID && slotKey(other) == key {
				return ErrConflict
			}
		}
		cur := s.shows[showID]
		cur.PriceCents = tx.edit.PriceCents
		cur.StartsAt = tx.edit.StartsAt.UTC()
		cur.Format = tx.edit.Format
		cur.Location = tx.edit.Location
		cur.TotalSeats = tx.edit.TotalSeats
		cur.SeatsPerRow = tx.edit.SeatsPerRow
		cur.UpdatedAt = time.Now().UTC()
		s.shows[showID] = cur
	}
	if !sameSeats(before, tx.seats) {
		s.seats[showID] = tx.seats
		sh = s.shows[showID]
		sh.SeatVersion++
		s.shows[showID] = sh
	}
	for id, b := range tx.staged {
		s.bookings[id] = b
		s.codes[b.Code] = id
	}
	return nil
}

type memShowTx struct {
	store  *MemoryStore
	show   model.Show
	seats  model.SeatMap
	staged map[string]model.Booking
	edit   *model.Show
}

func (t *memShowTx) Show() model.Show     { return t.show }
func (t *memShowTx) Seats() model.SeatMap { return t.seats }

func (t *memShowTx) Booking(id string) (model.Booking, error) {
	if b, ok := t.staged[id]; ok {
		return cloneBooking(b), nil
	}
	return t.store.GetBooking(context.Background(), id)
}

func (t *memShowTx) PutBooking(b model.Booking) error {
	t.staged[b.ID] = cloneBooking(b)
	return nil
}

func (t *memShowTx) UpdateShow(sh model.Show) error {
	t.edit = &sh
	t.show.PriceCents, t.show.StartsAt, t.show.Format = sh.PriceCents, sh.StartsAt.UTC(), sh.Format
	t.show.Location, t.show.TotalSeats, t.show.SeatsPerRow = sh.Location, sh.TotalSeats, sh.SeatsPerRow
	return nil
}

func sameSeats(a, b model.SeatMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func cloneBooking(b model.Booking) model.Booking {
	b.Seats = append([]model.Seat(nil), b.Seats...)
	return b
}
