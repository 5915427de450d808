package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
)

// ShowHandler serves the public show listings and seat availability.
type ShowHandler struct {
	Catalog   *catalog.Service
	Inventory *booking.Inventory
}

func NewShowHandler(cat *catalog.Service, inv *booking.Inventory) *ShowHandler {
	return &ShowHandler{Catalog: cat, Inventory: inv}
}

// List handles GET /v1/shows?date=&title=&theater=&movie_id=&upcoming=&limit=.
func (h *ShowHandler) List(c echo.Context) error {
	q := catalog.ListQuery{
		Date:     c.QueryParam("date"),
		Title:    c.QueryParam("title"),
		Theater:  c.QueryParam("theater"),
		Upcoming: c.QueryParam("upcoming") == "true",
	}
	if raw := c.QueryParam("movie_id"); raw != "" {
		movieID, err := queryInt(c, "movie_id", 0)
		if err != nil {
			return domainError(c, err)
		}
		q.MovieID = uint64(movieID)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return domainError(c, err)
	}
	q.Limit = limit

	shows, err := h.Catalog.List(c.Request().Context(), q)
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"count": len(shows), "shows": shows})
}

// Get handles GET /v1/shows/:id.
func (h *ShowHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return domainError(c, err)
	}
	show, err := h.Catalog.Get(c.Request().Context(), id, false)
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"show": show, "layout": show.Layout()})
}

// Seats handles GET /v1/shows/:id/seats.
func (h *ShowHandler) Seats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return domainError(c, err)
	}
	av, err := h.Inventory.Availability(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"availability": av})
}
