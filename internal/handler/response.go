package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Error codes that do not come from the booking core.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// errorBody is the failure envelope shared by every endpoint.
type errorBody struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Seats   []string `json:"seats,omitempty"`
}

// ok writes {"success":true, ...fields}.
func ok(c echo.Context, status int, fields echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(status, body)
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, errorBody{Error: code, Message: msg})
}

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind booking.Kind) int {
	switch kind {
	case booking.KindShowNotFound, booking.KindBookingNotFound:
		return http.StatusNotFound
	case booking.KindValidation, booking.KindSeatInvalid:
		return http.StatusBadRequest
	case booking.KindForbidden:
		return http.StatusForbidden
	case booking.KindSeatUnavailable, booking.KindShowStarted,
		booking.KindAlreadyCancelled, booking.KindNoActiveHold, booking.KindShowHasBookings:
		return http.StatusConflict
	case booking.KindPaymentNotVerified:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

// domainError renders err.  Domain errors keep their message; anything
// else is logged and hidden behind a generic 500.
func domainError(c echo.Context, err error) error {
	kind := booking.KindOf(err)
	if kind == "" {
		logger.WithContext(c.Request().Context()).Error("request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		return fail(c, http.StatusInternalServerError, CodeInternal, "something went wrong, please try again")
	}
	body := errorBody{Error: string(kind), Message: err.Error()}
	var e *booking.Error
	if errors.As(err, &e) && len(e.Seats) > 0 {
		body.Message = e.Message
		body.Seats = model.SeatLabels(e.Seats)
	}
	return c.JSON(statusFor(kind), body)
}
