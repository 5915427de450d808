// Package router registers the HTTP routes of the API on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers account and token routes.  Register, login,
// refresh and logout live under /v1/auth; /v1/me needs an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body or revokes every session
	// of the bearer, so it runs without JWTAuth.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me, middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
}

// RegisterPublic registers the guest browse endpoints.  cache wraps the
// listings; seat availability always hits the store.
func RegisterPublic(e *echo.Echo, p *handler.ShowHandler, cache echo.MiddlewareFunc) {
	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	e.GET("/v1/shows", p.List, cache)
	e.GET("/v1/shows/:id", p.Get, cache)
	e.GET("/v1/shows/:id/seats", p.Seats)
}
