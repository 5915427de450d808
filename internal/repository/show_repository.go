package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// ShowRepo manages shows and their seat maps in MySQL.  Seat occupancy lives
// in show_seats, one row per held or booked seat keyed by
// (show_id, row_label, seat_number); free seats have no row.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const showColumns = `id, movie_id, movie_title, theater, location, format, price_cents, total_seats,
	seats_per_row, starts_at, is_active, seat_version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanShow(row scanner) (model.Show, error) {
	var s model.Show
	err := row.Scan(&s.ID, &s.MovieID, &s.MovieTitle, &s.Theater, &s.Location, &s.Format, &s.PriceCents,
		&s.TotalSeats, &s.SeatsPerRow, &s.StartsAt, &s.IsActive, &s.SeatVersion, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// GetShow retrieves a show by its ID.
func (r *ShowRepo) GetShow(ctx context.Context, id uint64) (model.Show, error) {
	return scanShow(r.db.QueryRowContext(ctx, "SELECT "+showColumns+" FROM shows WHERE id = ?", id))
}

// ShowSeats returns the seat map of a show as of one consistent read.
func (r *ShowRepo) ShowSeats(ctx context.Context, id uint64) (model.SeatMap, error) {
	if _, err := r.GetShow(ctx, id); err != nil {
		return nil, err
	}
	return loadSeats(ctx, r.db, id, false)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadSeats(ctx context.Context, q querier, showID uint64, forUpdate bool) (model.SeatMap, error) {
	query := `SELECT row_label, seat_number, status, booking_id FROM show_seats WHERE show_id = ?`
	if forUpdate {
		query += " FOR UPDATE"
	}
	rows, err := q.QueryContext(ctx, query, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := model.SeatMap{}
	for rows.Next() {
		var seat model.Seat
		var claim model.SeatClaim
		if err := rows.Scan(&seat.Row, &seat.Number, &claim.State, &claim.BookingID); err != nil {
			return nil, err
		}
		seats[seat] = claim
	}
	return seats, rows.Err()
}

// CreateShows inserts shows in one transaction.  A show colliding with an
// existing (theater, starts_at) slot is skipped.  It returns the inserted
// shows with their generated ids.
func (r *ShowRepo) CreateShows(ctx context.Context, shows []model.Show) ([]model.Show, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT IGNORE INTO shows (movie_id, movie_title, theater, location, format, price_cents,
		total_seats, seats_per_row, starts_at, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	created := make([]model.Show, 0, len(shows))
	now := time.Now().UTC()
	for _, s := range shows {
		res, err := tx.ExecContext(ctx, q, s.MovieID, s.MovieTitle, s.Theater, s.Location, s.Format,
			s.PriceCents, s.TotalSeats, s.SeatsPerRow, s.StartsAt.UTC(), s.IsActive)
		if err != nil {
			return nil, fmt.Errorf("insert show: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		s.ID = uint64(id)
		s.CreatedAt, s.UpdatedAt = now, now
		created = append(created, s)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return created, nil
}

// ListShows returns shows matching f ordered by start time.
func (r *ShowRepo) ListShows(ctx context.Context, f ShowFilter) ([]model.Show, error) {
	var where []string
	var args []any
	if !f.IncludeInactive {
		where = append(where, "is_active = 1")
	}
	if f.MovieID != 0 {
		where = append(where, "movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.Theater != "" {
		where = append(where, "LOWER(theater) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Theater)+"%")
	}
	if f.Title != "" {
		where = append(where, "LOWER(movie_title) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Title)+"%")
	}
	if !f.From.IsZero() {
		where = append(where, "starts_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "starts_at < ?")
		args = append(args, f.To.UTC())
	}
	q := "SELECT " + showColumns + " FROM shows"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY starts_at, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Show, 0)
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeactivateShow clears is_active.  Shows are never deleted so booking
// history stays intact.
func (r *ShowRepo) DeactivateShow(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE shows SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetShow(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// WithShow locks the show row with SELECT ... FOR UPDATE, which serializes
// every seat operation on that show, and runs fn inside the transaction.
// On success the seat diff is written, seat_version is bumped and the
// transaction commits.
func (r *ShowRepo) WithShow(ctx context.Context, showID uint64, fn func(tx ShowTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	show, err := scanShow(tx.QueryRowContext(ctx, "SELECT "+showColumns+" FROM shows WHERE id = ? FOR UPDATE", showID))
	if err != nil {
		return err
	}
	before, err := loadSeats(ctx, tx, showID, true)
	if err != nil {
		return fmt.Errorf("load seats: %w", err)
	}
	stx := &sqlShowTx{ctx: ctx, tx: tx, show: show, seats: before.Clone()}
	if err := fn(stx); err != nil {
		return err
	}
	changed, err := writeSeatDiff(ctx, tx, showID, before, stx.seats)
	if err != nil {
		return fmt.Errorf("write seats: %w", err)
	}
	if changed {
		if _, err := tx.ExecContext(ctx, "UPDATE shows SET seat_version = seat_version + 1 WHERE id = ?", showID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func writeSeatDiff(ctx context.Context, tx *sql.Tx, showID uint64, before, after model.SeatMap) (bool, error) {
	changed := false
	for seat := range before {
		if _, ok := after[seat]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM show_seats WHERE show_id = ? AND row_label = ? AND seat_number = ?",
			showID, seat.Row, seat.Number); err != nil {
			return false, err
		}
		changed = true
	}
	const upsert = `INSERT INTO show_seats (show_id, row_label, seat_number, status, booking_id)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE status = VALUES(status), booking_id = VALUES(booking_id)`
	for seat, claim := range after {
		if prev, ok := before[seat]; ok && prev == claim {
			continue
		}
		if _, err := tx.ExecContext(ctx, upsert, showID, seat.Row, seat.Number, claim.State, claim.BookingID); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}

type sqlShowTx struct {
	ctx   context.Context
	tx    *sql.Tx
	show  model.Show
	seats model.SeatMap
}

func (t *sqlShowTx) Show() model.Show     { return t.show }
func (t *sqlShowTx) Seats() model.SeatMap { return t.seats }

func (t *sqlShowTx) Booking(id string) (model.Booking, error) {
	return scanBooking(t.tx.QueryRowContext(t.ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ? FOR UPDATE", id))
}

func (t *sqlShowTx) PutBooking(b model.Booking) error {
	return putBooking(t.ctx, t.tx, b)
}

func (t *sqlShowTx) UpdateShow(sh model.Show) error {
	_, err := t.tx.ExecContext(t.ctx, `UPDATE shows SET price_cents = ?, starts_at = ?, format = ?, location = ?,
		total_seats = ?, seats_per_row = ? WHERE id = ?`,
		sh.PriceCents, sh.StartsAt.UTC(), sh.Format, sh.Location, sh.TotalSeats, sh.SeatsPerRow, t.show.ID)
	if isDuplicateKey(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	t.show.PriceCents, t.show.StartsAt, t.show.Format = sh.PriceCents, sh.StartsAt.UTC(), sh.Format
	t.show.Location, t.show.TotalSeats, t.show.SeatsPerRow = sh.Location, sh.TotalSeats, sh.SeatsPerRow
	return nil
}
