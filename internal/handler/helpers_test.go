package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/payment"
	"github.com/iliyamo/cinema-ticket-booking/internal/report"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/router"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

const (
	jwtSecret  = "handler-test-secret"
	paySecret  = "pay-secret"
	adminEmail = "boss@example.com"
)

type api struct {
	e      *echo.Echo
	cfg    config.Config
	store  *repository.MemoryStore
	users  *repository.MemoryUsers
	svc    *booking.Service
	show   model.Show
	purged int
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger.InitWriter(io.Discard, "ERROR", "text")

	a := &api{
		cfg: config.Config{
			JWTSecret:    jwtSecret,
			AccessTTLMin: 15,
			RefreshTTL:   24 * time.Hour,
			BcryptCost:   4,
			AdminEmails:  []string{adminEmail},
		},
		store: repository.NewMemoryStore(),
		users: repository.NewMemoryUsers(),
	}
	created, err := a.store.CreateShows(context.Background(), []model.Show{{
		MovieID:     1,
		MovieTitle:  "Interstellar",
		Theater:     "Screen 1",
		Format:      model.Format2D,
		PriceCents:  20000,
		TotalSeats:  120,
		SeatsPerRow: 12,
		StartsAt:    time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute),
		IsActive:    true,
	}})
	require.NoError(t, err)
	a.show = created[0]

	gateway := payment.NewGateway(payment.Config{KeyID: "key_test", KeySecret: paySecret})
	a.svc = booking.NewService(a.store, gateway)
	inv := a.svc.Inventory()
	cat := catalog.NewService(a.store, time.UTC)
	rep := report.NewAggregator(a.store, a.users, a.store)
	purge := func(ctx context.Context) error { a.purged++; return nil }

	e := echo.New()
	e.Validator = handler.NewValidator()
	router.RegisterRoutes(e, handler.NewHealthHandler(nil))
	router.RegisterAuth(e, handler.NewAuthHandler(a.cfg, a.users, repository.NewMemoryTokens()), jwtSecret)
	router.RegisterPublic(e, handler.NewShowHandler(cat, inv), nil)
	router.RegisterCustomer(e, handler.NewBookingHandler(a.svc, gateway), jwtSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(cat, a.svc, rep, purge), jwtSecret)
	a.e = e
	return a
}

// user creates an account and returns its id and bearer header.
func (a *api) user(t *testing.T, email, role string) (uint64, string) {
	t.Helper()
	id, err := a.users.Create(context.Background(), email, "password123", role, 4)
	require.NoError(t, err)
	tok, err := utils.NewAccessToken(jwtSecret, id, role, time.Hour)
	require.NoError(t, err)
	return id, "Bearer " + tok.Token
}

func (a *api) do(t *testing.T, method, path, auth, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func obj(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "%v is not an object", v)
	return m
}

func bookingBody(showID uint64, seats ...string) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = `{"row":"` + s[:1] + `","number":` + s[1:] + `}`
	}
	return `{"show_id":` + jsonNum(showID) + `,"seats":[` + strings.Join(parts, ",") +
		`],"email":"jane@example.com","phone":"9876543210"}`
}

func jsonNum(n uint64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
