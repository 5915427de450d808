package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// RegisterCustomer registers the booking endpoints under /v1.  They need a
// valid JWT; administrators may use them too.
func RegisterCustomer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.POST("/bookings", h.Create)
	g.GET("/bookings", h.ListMine)
	g.GET("/my-bookings", h.ListMine)
	g.GET("/bookings/:id", h.Get)
	g.POST("/bookings/:id/payment-order", h.PaymentOrder)
	g.POST("/bookings/:id/confirm", h.Confirm)
	g.DELETE("/bookings/:id", h.Cancel)
}
