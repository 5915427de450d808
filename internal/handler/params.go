package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, invalidInput("%s must be a positive integer", name)
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, invalidInput("%s must be a non-negative integer", name)
	}
	return n, nil
}

func queryStatus(c echo.Context) model.BookingStatus {
	return model.BookingStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
}

// requester builds the acting identity from the JWT claims.
func requester(c echo.Context) booking.Requester {
	uid, _ := middleware.UserID(c)
	return booking.Requester{UserID: uid, Admin: middleware.Role(c) == model.RoleAdmin}
}
