package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/report"
)

// AdminHandler serves the ADMIN endpoints: scheduling, bookings overview
// and revenue reports.
type AdminHandler struct {
	Catalog  *catalog.Service
	Bookings *booking.Service
	Reporter *report.Aggregator
	// Purge drops cached public responses after catalog writes.  May be nil.
	Purge func(ctx context.Context) error
}

func NewAdminHandler(cat *catalog.Service, svc *booking.Service, rep *report.Aggregator, purge func(ctx context.Context) error) *AdminHandler {
	return &AdminHandler{Catalog: cat, Bookings: svc, Reporter: rep, Purge: purge}
}

func (h *AdminHandler) purge(ctx context.Context) {
	if h.Purge == nil {
		return
	}
	if err := h.Purge(ctx); err != nil {
		logger.WithContext(ctx).Warn("cache purge failed", "error", err)
	}
}

// CreateShows handles POST /v1/admin/shows.
func (h *AdminHandler) CreateShows(c echo.Context) error {
	var req catalog.ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return domainError(c, invalidInput("invalid request body"))
	}
	ctx := c.Request().Context()
	res, err := h.Catalog.Schedule(ctx, req)
	if err != nil {
		return domainError(c, err)
	}
	h.purge(ctx)
	return ok(c, http.StatusCreated, echo.Map{
		"created": res.Created,
		"skipped": res.Skipped,
		"shows":   res.Shows,
	})
}

// DeactivateShow handles DELETE /v1/admin/shows/:id.
func (h *AdminHandler) DeactivateShow(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return domainError(c, err)
	}
	ctx := c.Request().Context()
	if err := h.Catalog.Deactivate(ctx, id); err != nil {
		return domainError(c, err)
	}
	h.purge(ctx)
	return ok(c, http.StatusOK, echo.Map{"message": "Show deactivated"})
}

// UpdateShow handles PUT /v1/admin/shows/:id.  Shows with held or booked
// seats cannot be edited.
func (h *AdminHandler) UpdateShow(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return domainError(c, err)
	}
	var req catalog.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return domainError(c, invalidInput("invalid request body"))
	}
	ctx := c.Request().Context()
	sh, err := h.Catalog.Update(ctx, id, req)
	if err != nil {
		return domainError(c, err)
	}
	h.purge(ctx)
	return ok(c, http.StatusOK, echo.Map{"message": "Show updated", "show": sh})
}

// ListBookings handles GET /v1/admin/bookings?status=&limit=.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		return domainError(c, err)
	}
	bs, err := h.Bookings.ListAll(c.Request().Context(), queryStatus(c), limit)
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"count": len(bs), "bookings": bs})
}

// Stats handles GET /v1/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	st, err := h.Reporter.Stats(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"stats": st})
}

// Reports handles GET /v1/admin/reports?from=YYYY-MM-DD&to=YYYY-MM-DD.  Both
// days are inclusive and read in the theater time zone.
func (h *AdminHandler) Reports(c echo.Context) error {
	loc := h.Catalog.Location()
	from, err := parseDay(c.QueryParam("from"), "from", loc)
	if err != nil {
		return domainError(c, err)
	}
	to, err := parseDay(c.QueryParam("to"), "to", loc)
	if err != nil {
		return domainError(c, err)
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return domainError(c, invalidInput("from cannot be after to"))
	}
	rep, err := h.Reporter.Report(c.Request().Context(), from.UTC(), to.UTC())
	if err != nil {
		return domainError(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"report": rep})
}

func parseDay(raw, name string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, invalidInput("%s must be YYYY-MM-DD", name)
	}
	return d, nil
}
