package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Shows ----
	g.POST("/shows", a.CreateShows)
	g.PUT("/shows/:id", a.UpdateShow)
	g.DELETE("/shows/:id", a.DeactivateShow)

	// ---- Bookings and revenue ----
	g.GET("/bookings", a.ListBookings)
	g.GET("/stats", a.Stats)
	g.GET("/reports", a.Reports)
}
