package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// PaymentInfo is what clients need to open the payment page.
type PaymentInfo interface {
	KeyID() string
	Currency() string
}

// BookingHandler serves the customer booking endpoints.
type BookingHandler struct {
	Bookings *booking.Service
	Payments PaymentInfo
}

func NewBookingHandler(svc *booking.Service, payments PaymentInfo) *BookingHandler {
	return &BookingHandler{Bookings: svc, Payments: payments}
}

type seatReq struct {
	Row    string `json:"row" validate:"required"`
	Number int    `json:"number" validate:"required"`
}

type createBookingReq struct {
	ShowID uint64    `json:"show_id" validate:"required"`
	Seats  []seatReq `json:"seats" validate:"required,min=1,dive"`
	Email  string    `json:"email"`
	Phone  string    `json:"phone"`
}

type confirmReq struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// bookingView adds derived fields to a booking.
type bookingView struct {
	model.Booking
	SeatLabels    []string   `json:"seat_labels"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

func (h *BookingHandler) view(b model.Booking) bookingView {
	v := bookingView{Booking: b, SeatLabels: model.SeatLabels(b.Seats)}
	if b.Status == model.BookingPending {
		exp := h.Bookings.HoldExpiresAt(b)
		v.HoldExpiresAt = &exp
	}
	return v
}

func (h *BookingHandler) views(bs []model.Booking) []bookingView {
	out := make([]bookingView, len(bs))
	for i, b := range bs {
		out[i] = h.view(b)
	}
	return out
}

// Create handles POST /v1/bookings.  The seats are held for the hold TTL
// while the customer pays.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bindValid(c, &req); err != nil {
		return domainError(c, err)
	}
	seats := make([]model.Seat, len(req.Seats))
	for i, s := range req.Seats {
		seats[i] = model.Seat{Row: strings.TrimSpace(s.Row), Number: s.Number}
	}
	who := requester(c)
	b, err := h.Bookings.Create(c.Request().Context(), booking.CreateRequest{
		UserID: who.UserID,
		ShowID: req.ShowID,
		Seats:  seats,
		Email:  req.Email,
		Phone:  req.Phone,
	})
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusCreated, echo.Map{
		"message": "Seats held, complete payment to confirm",
		"booking": h.view(b),
	})
}

// ListMine handles GET /v1/bookings and GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	who := requester(c)
	bs, err := h.Bookings.ListForUser(c.Request().Context(), who.UserID, queryStatus(c))
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"count": len(bs), "bookings": h.views(bs)})
}

// Get handles GET /v1/bookings/:id; the id may also be a booking code.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.Bookings.Get(c.Request().Context(), c.Param("id"), requester(c))
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"booking": h.view(b)})
}

// PaymentOrder handles POST /v1/bookings/:id/payment-order.
func (h *BookingHandler) PaymentOrder(c echo.Context) error {
	b, err := h.Bookings.InitiatePayment(c.Request().Context(), c.Param("id"), requester(c))
	if err != nil {
		return domainError(c, err)
	}
	order := echo.Map{
		"id":           b.OrderRef,
		"amount_cents": b.Pricing.Total,
		"receipt":      b.Code,
	}
	if h.Payments != nil {
		order["currency"] = h.Payments.Currency()
		order["key_id"] = h.Payments.KeyID()
	}
	return ok(c, http.StatusOK, echo.Map{"order": order, "booking": h.view(b)})
}

// Confirm handles POST /v1/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := bindValid(c, &req); err != nil {
		return domainError(c, err)
	}
	b, err := h.Bookings.ConfirmPayment(c.Request().Context(), c.Param("id"), requester(c),
		booking.PaymentProof{PaymentID: req.PaymentID, Signature: req.Signature})
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"message": "Booking confirmed",
		"booking": h.view(b),
	})
}

// Cancel handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	b, err := h.Bookings.Cancel(c.Request().Context(), c.Param("id"), requester(c))
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"message": "Booking cancelled",
		"booking": h.view(b),
	})
}
