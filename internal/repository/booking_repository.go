package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// BookingRepo reads bookings from MySQL.  Writes happen inside
// ShowRepo.WithShow so they share the seat map transaction.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, code, user_id, show_id, movie_id, movie_title, starts_at, seats, email, phone,
	base_cents, fee_cents, tax_cents, total_cents, status, order_ref, payment_ref, created_at, updated_at`

func scanBooking(row scanner) (model.Booking, error) {
	var b model.Booking
	var seats []byte
	var paymentRef sql.NullString
	err := row.Scan(&b.ID, &b.Code, &b.UserID, &b.ShowID, &b.MovieID, &b.MovieTitle, &b.StartsAt, &seats,
		&b.Email, &b.Phone, &b.Pricing.BasePrice, &b.Pricing.ConvenienceFee, &b.Pricing.Tax, &b.Pricing.Total,
		&b.Status, &b.OrderRef, &paymentRef, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(seats, &b.Seats); err != nil {
		return b, fmt.Errorf("decode seats of booking %s: %w", b.ID, err)
	}
	b.PaymentRef = paymentRef.String
	return b, nil
}

// GetBooking retrieves a booking by id.
func (r *BookingRepo) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
}

// GetBookingByCode retrieves a booking by its booking code.
func (r *BookingRepo) GetBookingByCode(ctx context.Context, code string) (model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE code = ?", code))
}

// ListBookings returns bookings matching f, newest first unless
// f.OldestFirst is set.
func (r *BookingRepo) ListBookings(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	var where []string
	var args []any
	if f.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.ShowID != 0 {
		where = append(where, "show_id = ?")
		args = append(args, f.ShowID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if !f.CreatedFrom.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.CreatedFrom.UTC())
	}
	if !f.CreatedTo.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, f.CreatedTo.UTC())
	}
	q := "SELECT " + bookingColumns + " FROM bookings"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.OldestFirst {
		q += " ORDER BY created_at ASC, id ASC"
	} else {
		q += " ORDER BY created_at DESC, id DESC"
	}
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func putBooking(ctx context.Context, tx *sql.Tx, b model.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return err
	}
	var paymentRef any
	if b.PaymentRef != "" {
		paymentRef = b.PaymentRef
	}
	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM bookings WHERE id = ?", b.ID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		const ins = `INSERT INTO bookings (id, code, user_id, show_id, movie_id, movie_title, starts_at, seats,
			email, phone, base_cents, fee_cents, tax_cents, total_cents, status, order_ref, payment_ref,
			created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err = tx.ExecContext(ctx, ins, b.ID, b.Code, b.UserID, b.ShowID, b.MovieID, b.MovieTitle,
			b.StartsAt.UTC(), seats, b.Email, b.Phone, b.Pricing.BasePrice, b.Pricing.ConvenienceFee,
			b.Pricing.Tax, b.Pricing.Total, b.Status, b.OrderRef, paymentRef, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	case err != nil:
		return err
	}
	// Seats and pricing are immutable after creation.
	const upd = `UPDATE bookings SET status = ?, order_ref = ?, payment_ref = ?, updated_at = ? WHERE id = ?`
	_, err = tx.ExecContext(ctx, upd, b.Status, b.OrderRef, paymentRef, b.UpdatedAt.UTC(), b.ID)
	return err
}

// MySQLStore combines the show and booking repositories into the store the
// booking core and the catalog depend on.
type MySQLStore struct {
	*ShowRepo
	*BookingRepo
}

// NewMySQLStore returns a store backed by db.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{ShowRepo: NewShowRepo(db), BookingRepo: NewBookingRepo(db)}
}
