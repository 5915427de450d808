package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// Requester identifies who is acting on a booking.
type Requester struct {
	UserID uint64
	Admin  bool
}

// CreateRequest carries the input of Service.Create.
type CreateRequest struct {
	UserID uint64
	ShowID uint64
	Seats  []model.Seat
	Email  string
	Phone  string
}

// Service drives bookings through PENDING -> CONFIRMED | CANCELLED | EXPIRED
// and CONFIRMED -> CANCELLED.  Every transition re-reads the booking inside
// the show's serialized unit and only proceeds from the expected state, so a
// confirmation racing the expiry sweep ends in exactly one outcome.
type Service struct {
	store    Store
	inv      *Inventory
	payments PaymentProvider
	opts     options
}

// NewService returns a booking service.  payments may be nil, in which case
// bookings never get a payment order and cannot be confirmed.
func NewService(store Store, payments PaymentProvider, opts ...Option) *Service {
	o := buildOptions(opts)
	return &Service{store: store, inv: &Inventory{store: store, opts: o}, payments: payments, opts: o}
}

// Inventory returns the seat inventory every seat change of the service
// goes through.
func (s *Service) Inventory() *Inventory { return s.inv }

// HoldTTL returns how long a pending booking keeps its seats.
func (s *Service) HoldTTL() time.Duration { return s.opts.holdTTL }

// HoldExpiresAt returns when the hold of a pending booking lapses.
func (s *Service) HoldExpiresAt(b model.Booking) time.Time {
	return b.CreatedAt.Add(s.opts.holdTTL)
}

func (s *Service) holdExpired(b model.Booking, now time.Time) bool {
	return !now.Before(s.HoldExpiresAt(b))
}

// Create validates the request, holds the seats and persists a pending
// booking in one unit.  When the hold fails nothing is stored.  A payment
// order is requested afterwards; if that fails the booking stays pending
// and InitiatePayment can be retried.
func (s *Service) Create(ctx context.Context, req CreateRequest) (model.Booking, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if err := validateContact(email, phone); err != nil {
		return model.Booking{}, err
	}
	seats := model.NormalizeSeats(req.Seats)
	if err := checkSeatCount(seats); err != nil {
		return model.Booking{}, err
	}

	var b model.Booking
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		b, err = s.create(ctx, req, email, phone, seats)
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
	}
	observeHold(err)
	if err != nil {
		return model.Booking{}, storeError(err, ErrShowNotFound)
	}
	metrics.Transitions.WithLabelValues(string(model.BookingPending)).Inc()
	s.opts.log.InfoContext(ctx, "booking created",
		"booking_id", b.ID, "code", b.Code, "show_id", b.ShowID, "seats", len(b.Seats), "total_cents", b.Pricing.Total)

	if s.payments != nil {
		ref, perr := s.payments.InitiateOrder(ctx, b.ID, b.Pricing.Total)
		if perr != nil {
			s.opts.log.WarnContext(ctx, "payment order failed", "booking_id", b.ID, "error", perr)
			return b, nil
		}
		if updated, uerr := s.attachOrder(ctx, b, ref); uerr == nil {
			b = updated
		} else {
			s.opts.log.WarnContext(ctx, "store payment order failed", "booking_id", b.ID, "error", uerr)
		}
	}
	return b, nil
}

func (s *Service) create(ctx context.Context, req CreateRequest, email, phone string, seats []model.Seat) (model.Booking, error) {
	now := s.opts.now().UTC()
	b := model.Booking{
		ID:        uuid.NewString(),
		Code:      s.opts.newCode(now),
		UserID:    req.UserID,
		ShowID:    req.ShowID,
		Seats:     seats,
		Email:     email,
		Phone:     phone,
		Status:    model.BookingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.WithShow(ctx, req.ShowID, func(tx repository.ShowTx) error {
		show := tx.Show()
		if !show.IsActive {
			return ErrShowNotFound
		}
		pricing, err := ComputePrice(show.PriceCents, len(seats))
		if err != nil {
			return err
		}
		if err := s.inv.holdIn(tx, b.ID, seats, now); err != nil {
			return err
		}
		b.MovieID = show.MovieID
		b.MovieTitle = show.MovieTitle
		b.StartsAt = show.StartsAt
		b.Pricing = pricing
		return tx.PutBooking(b)
	})
	return b, err
}

// InitiatePayment returns the booking with a payment order, creating the
// order when the booking does not have one yet.
func (s *Service) InitiatePayment(ctx context.Context, bookingID string, who Requester) (model.Booking, error) {
	b, err := s.owned(ctx, bookingID, who)
	if err != nil {
		return model.Booking{}, err
	}
	if err := pendingOnly(b); err != nil {
		return model.Booking{}, err
	}
	if b.OrderRef != "" {
		return b, nil
	}
	if s.payments == nil {
		return model.Booking{}, newError(KindPaymentNotVerified, "payments are not available")
	}
	ref, err := s.payments.InitiateOrder(ctx, b.ID, b.Pricing.Total)
	if err != nil {
		s.opts.log.WarnContext(ctx, "payment order failed", "booking_id", b.ID, "error", err)
		return model.Booking{}, &Error{Kind: KindPaymentNotVerified, Message: "payment order could not be created", Err: err}
	}
	return s.attachOrder(ctx, b, ref)
}

func (s *Service) attachOrder(ctx context.Context, b model.Booking, ref string) (model.Booking, error) {
	var out model.Booking
	err := s.store.WithShow(ctx, b.ShowID, func(tx repository.ShowTx) error {
		cur, err := tx.Booking(b.ID)
		if err != nil {
			return err
		}
		if err := pendingOnly(cur); err != nil {
			return err
		}
		out = cur
		if cur.OrderRef != "" {
			return nil
		}
		cur.OrderRef = ref
		cur.UpdatedAt = s.opts.now().UTC()
		out = cur
		return tx.PutBooking(cur)
	})
	if err != nil {
		return model.Booking{}, storeError(err, ErrBookingNotFound)
	}
	return out, nil
}

// ConfirmPayment verifies proof with the payment provider and, on success,
// books the held seats and confirms the booking.  A failed or unreachable
// verification releases the hold and cancels the booking.  Confirming an
// already confirmed booking with the same payment id returns it unchanged.
func (s *Service) ConfirmPayment(ctx context.Context, bookingID string, who Requester, proof PaymentProof) (model.Booking, error) {
	b, err := s.owned(ctx, bookingID, who)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status == model.BookingConfirmed && proof.PaymentID != "" && b.PaymentRef == proof.PaymentID {
		return b, nil
	}
	if err := pendingOnly(b); err != nil {
		return model.Booking{}, err
	}
	now := s.opts.now().UTC()
	if s.holdExpired(b, now) {
		if _, err := s.expire(ctx, b, now); err != nil {
			return model.Booking{}, err
		}
		return model.Booking{}, newError(KindNoActiveHold, "The seat hold for booking %s has expired", b.Code)
	}
	if b.OrderRef == "" {
		return model.Booking{}, validationError("payment has not been initiated for booking %s", b.Code)
	}
	if s.payments == nil {
		return model.Booking{}, ErrPaymentNotVerified
	}

	v, verr := s.payments.Verify(ctx, b.OrderRef, proof)
	if verr != nil || !v.Verified {
		s.opts.log.WarnContext(ctx, "payment verification failed", "booking_id", b.ID, "order_ref", b.OrderRef, "error", verr)
		if _, err := s.failPayment(ctx, b); err != nil {
			return model.Booking{}, err
		}
		return model.Booking{}, &Error{Kind: KindPaymentNotVerified, Message: "Payment could not be verified; the seats have been released", Err: verr}
	}

	var out model.Booking
	err = s.store.WithShow(ctx, b.ShowID, func(tx repository.ShowTx) error {
		cur, err := tx.Booking(b.ID)
		if err != nil {
			return err
		}
		if cur.Status != model.BookingPending {
			return stateError(cur)
		}
		if err := s.inv.confirmIn(tx, cur.ID); err != nil {
			return err
		}
		cur.Status = model.BookingConfirmed
		cur.PaymentRef = v.PaymentID
		cur.UpdatedAt = now
		out = cur
		return tx.PutBooking(cur)
	})
	if err != nil {
		if KindOf(err) != "" {
			s.opts.log.WarnContext(ctx, "payment verified but booking no longer pending",
				"booking_id", b.ID, "payment_id", v.PaymentID, "error", err)
		}
		return model.Booking{}, storeError(err, ErrBookingNotFound)
	}
	metrics.Transitions.WithLabelValues(string(model.BookingConfirmed)).Inc()
	s.opts.log.InfoContext(ctx, "booking confirmed", "booking_id", out.ID, "show_id", out.ShowID, "payment_id", out.PaymentRef)
	s.publish(ctx, EventConfirmed, out)
	return out, nil
}

// failPayment releases the hold of a pending booking and cancels it.  It
// does nothing when the booking already left PENDING.
func (s *Service) failPayment(ctx context.Context, b model.Booking) (bool, error) {
	var out model.Booking
	var released int
	changed := false
	err := s.store.WithShow(ctx, b.ShowID, func(tx repository.ShowTx) error {
		cur, err := tx.Booking(b.ID)
		if err != nil {
			return err
		}
		if cur.Status != model.BookingPending {
			return nil
		}
		released = s.inv.releaseIn(tx, cur.ID)
		cur.Status = model.BookingCancelled
		cur.UpdatedAt = s.opts.now().UTC()
		out, changed = cur, true
		return tx.PutBooking(cur)
	})
	if err != nil {
		return false, storeError(err, ErrBookingNotFound)
	}
	if changed {
		metrics.SeatsReleased.WithLabelValues("payment_failed").Add(float64(released))
		metrics.Transitions.WithLabelValues(string(model.BookingCancelled)).Inc()
		s.publish(ctx, EventCancelled, out)
	}
	return changed, nil
}

// Cancel cancels a pending or confirmed booking of the requester and frees
// its seats.  It is refused once the show has started.
func (s *Service) Cancel(ctx context.Context, bookingID string, who Requester) (model.Booking, error) {
	b, err := s.lookup(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	now := s.opts.now().UTC()
	var out model.Booking
	var released int
	err = s.store.WithShow(ctx, b.ShowID, func(tx repository.ShowTx) error {
		cur, err := tx.Booking(b.ID)
		if err != nil {
			return err
		}
		if cur.UserID != who.UserID {
			return newError(KindForbidden, "Only the customer who made booking %s can cancel it", cur.Code)
		}
		if cur.Terminal() {
			if cur.Status == model.BookingExpired {
				return newError(KindAlreadyCancelled, "Booking %s has already expired", cur.Code)
			}
			return newError(KindAlreadyCancelled, "Booking %s is already cancelled", cur.Code)
		}
		if tx.Show().Started(now) {
			return newError(KindShowStarted, "Cannot cancel booking %s: the show has already started", cur.Code)
		}
		released = s.inv.freeIn(tx, cur.ID)
		cur.Status = model.BookingCancelled
		cur.UpdatedAt = now
		out = cur
		return tx.PutBooking(cur)
	})
	if err != nil {
		return model.Booking{}, storeError(err, ErrBookingNotFound)
	}
	metrics.SeatsReleased.WithLabelValues("cancelled").Add(float64(released))
	metrics.Transitions.WithLabelValues(string(model.BookingCancelled)).Inc()
	s.opts.log.InfoContext(ctx, "booking cancelled", "booking_id", out.ID, "show_id", out.ShowID, "seats_released", released)
	s.publish(ctx, EventCancelled, out)
	return out, nil
}

// ExpireStaleHolds expires pending bookings whose hold outlived the hold TTL
// and frees their seats.  It returns how many bookings it expired.
func (s *Service) ExpireStaleHolds(ctx context.Context) (int, error) {
	now := s.opts.now().UTC()
	stale, err := s.store.ListBookings(ctx, repository.BookingFilter{
		Status:      model.BookingPending,
		CreatedTo:   now.Add(-s.opts.holdTTL),
		Limit:       s.opts.sweepBatch,
		OldestFirst: true,
	})
	if err != nil {
		return 0, fmt.Errorf("list stale bookings: %w", err)
	}
	expired := 0
	for _, b := range stale {
		ok, err := s.expire(ctx, b, now)
		if err != nil {
			s.opts.log.ErrorContext(ctx, "expire booking failed", "booking_id", b.ID, "show_id", b.ShowID, "error", err)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// expire moves a still pending, timed-out booking to EXPIRED and releases
// its held seats.  It reports false when the booking was no longer eligible.
func (s *Service) expire(ctx context.Context, b model.Booking, now time.Time) (bool, error) {
	var out model.Booking
	var released int
	changed := false
	err := s.store.WithShow(ctx, b.ShowID, func(tx repository.ShowTx) error {
		cur, err := tx.Booking(b.ID)
		if err != nil {
			return err
		}
		if cur.Status != model.BookingPending || !s.holdExpired(cur, now) {
			return nil
		}
		released = s.inv.releaseIn(tx, cur.ID)
		cur.Status = model.BookingExpired
		cur.UpdatedAt = now
		out, changed = cur, true
		return tx.PutBooking(cur)
	})
	if err != nil {
		return false, storeError(err, ErrBookingNotFound)
	}
	if changed {
		metrics.SeatsReleased.WithLabelValues("expired").Add(float64(released))
		metrics.Transitions.WithLabelValues(string(model.BookingExpired)).Inc()
		s.opts.log.InfoContext(ctx, "booking expired", "booking_id", out.ID, "show_id", out.ShowID, "seats_released", released)
		s.publish(ctx, EventExpired, out)
	}
	return changed, nil
}

// Get returns a booking by id or booking code.  Only its owner or an admin
// may read it.
func (s *Service) Get(ctx context.Context, idOrCode string, who Requester) (model.Booking, error) {
	b, err := s.lookup(ctx, idOrCode)
	if err != nil {
		return model.Booking{}, err
	}
	if !who.Admin && b.UserID != who.UserID {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

// ListForUser returns the bookings of userID, newest first, optionally
// filtered by status.
func (s *Service) ListForUser(ctx context.Context, userID uint64, status model.BookingStatus) ([]model.Booking, error) {
	if status != "" && !status.Valid() {
		return nil, validationError("unknown booking status %q", status)
	}
	out, err := s.store.ListBookings(ctx, repository.BookingFilter{UserID: userID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

// ListAll returns bookings across all users for administrators.
func (s *Service) ListAll(ctx context.Context, status model.BookingStatus, limit int) ([]model.Booking, error) {
	if status != "" && !status.Valid() {
		return nil, validationError("unknown booking status %q", status)
	}
	out, err := s.store.ListBookings(ctx, repository.BookingFilter{Status: status, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

func (s *Service) lookup(ctx context.Context, idOrCode string) (model.Booking, error) {
	b, err := s.store.GetBooking(ctx, idOrCode)
	if errors.Is(err, repository.ErrNotFound) {
		b, err = s.store.GetBookingByCode(ctx, idOrCode)
	}
	if err != nil {
		return model.Booking{}, storeError(err, ErrBookingNotFound)
	}
	return b, nil
}

func (s *Service) owned(ctx context.Context, idOrCode string, who Requester) (model.Booking, error) {
	b, err := s.lookup(ctx, idOrCode)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != who.UserID {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

func pendingOnly(b model.Booking) error {
	if b.Status == model.BookingPending {
		return nil
	}
	return stateError(b)
}

func stateError(b model.Booking) error {
	switch b.Status {
	case model.BookingCancelled:
		return newError(KindAlreadyCancelled, "Booking %s is cancelled", b.Code)
	case model.BookingExpired:
		return newError(KindNoActiveHold, "The seat hold for booking %s has expired", b.Code)
	case model.BookingConfirmed:
		return newError(KindNoActiveHold, "Booking %s is already confirmed", b.Code)
	}
	return ErrNoActiveHold
}

func (s *Service) publish(ctx context.Context, typ EventType, b model.Booking) {
	if s.opts.events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	ev := Event{Type: typ, Booking: b, OccurredAt: s.opts.now().UTC()}
	if err := s.opts.events.Publish(pctx, ev); err != nil {
		s.opts.log.WarnContext(ctx, "publish booking event failed", "event", typ, "booking_id", b.ID, "error", err)
	}
}
