package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Kind classifies expected, recoverable booking failures.  Anything that is
// not an *Error is an infrastructure failure.
type Kind string

const (
	KindShowNotFound       Kind = "SHOW_NOT_FOUND"
	KindBookingNotFound    Kind = "BOOKING_NOT_FOUND"
	KindSeatInvalid        Kind = "SEAT_INVALID"
	KindSeatUnavailable    Kind = "SEAT_UNAVAILABLE"
	KindShowStarted        Kind = "SHOW_STARTED"
	KindAlreadyCancelled   Kind = "ALREADY_CANCELLED"
	KindNoActiveHold       Kind = "NO_ACTIVE_HOLD"
	KindPaymentNotVerified Kind = "PAYMENT_NOT_VERIFIED"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindForbidden          Kind = "FORBIDDEN"
	KindShowHasBookings    Kind = "SHOW_HAS_BOOKINGS"
)

// Error is a domain error.  Seats names the offending coordinates for
// KindSeatInvalid and KindSeatUnavailable.
type Error struct {
	Kind    Kind
	Message string
	Seats   []model.Seat
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so the Err* values below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrShowNotFound       = &Error{Kind: KindShowNotFound, Message: "show not found"}
	ErrBookingNotFound    = &Error{Kind: KindBookingNotFound, Message: "booking not found"}
	ErrSeatInvalid        = &Error{Kind: KindSeatInvalid, Message: "invalid seat"}
	ErrSeatUnavailable    = &Error{Kind: KindSeatUnavailable, Message: "seat unavailable"}
	ErrShowStarted        = &Error{Kind: KindShowStarted, Message: "show has already started"}
	ErrAlreadyCancelled   = &Error{Kind: KindAlreadyCancelled, Message: "booking is already cancelled"}
	ErrNoActiveHold       = &Error{Kind: KindNoActiveHold, Message: "booking holds no seats"}
	ErrPaymentNotVerified = &Error{Kind: KindPaymentNotVerified, Message: "payment could not be verified"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "not allowed to access this booking"}
	ErrShowHasBookings    = &Error{Kind: KindShowHasBookings, Message: "Cannot update a show that has bookings. Please create a new show instead."}
)

// KindOf returns the kind of a domain error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func invalidSeatsError(seats []model.Seat) *Error {
	return &Error{
		Kind:    KindSeatInvalid,
		Message: fmt.Sprintf("%s not part of this show's layout", seatPhrase(seats, "is", "are")),
		Seats:   seats,
	}
}

func unavailableSeatsError(seats []model.Seat, allBooked bool) *Error {
	what := "no longer available"
	if allBooked {
		what = "already booked"
	}
	return &Error{
		Kind:    KindSeatUnavailable,
		Message: fmt.Sprintf("%s %s", seatPhrase(seats, "is", "are"), what),
		Seats:   seats,
	}
}

// seatPhrase renders "Seat A5 is" or "Seats A5, A6 are".
func seatPhrase(seats []model.Seat, one, many string) string {
	labels := strings.Join(model.SeatLabels(seats), ", ")
	if len(seats) == 1 {
		return "Seat " + labels + " " + one
	}
	return "Seats " + labels + " " + many
}
