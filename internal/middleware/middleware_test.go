package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

const secret = "test-secret"

func newEcho() *echo.Echo {
	e := echo.New()
	e.Use(RequestLogger())
	g := e.Group("/v1", JWTAuth(secret))
	g.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "ok": ok, "role": Role(c), "rid": logger.RequestID(c.Request().Context())})
	})
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireRole("ADMIN"))
	return e
}

func bearer(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuth(t *testing.T) {
	e := newEcho()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", bearer(t, 7, "CUSTOMER"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"ok":true,"role":"CUSTOMER","rid":"`+rec.Header().Get(HeaderRequestID)+`"}`, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := newEcho()

	for role, want := range map[string]int{"ADMIN": http.StatusNoContent, "CUSTOMER": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin", nil)
		req.Header.Set(echo.HeaderAuthorization, bearer(t, 1, role))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestRequestLoggerKeepsCallerRequestID(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 3, "CUSTOMER"))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	assert.Contains(t, rec.Body.String(), `"rid":"req-123"`)
}

func TestRedisMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	calls := 0
	e.GET("/x", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "ok")
	}, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil),
		NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, calls)
	assert.NoError(t, PurgeCache(context.Background(), nil, "cache"))
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/bookings")
	c.Set(CtxUserID, uint64(5))

	assert.Equal(t, "rl:ip:10.0.0.9", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:user:5:route:POST /v1/bookings", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))
	assert.Equal(t, "rl:ip:10.0.0.9:user:5:route:POST /v1/bookings", rateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}

func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestTokenBucketWithRedis(t *testing.T) {
	rdb := redisForTest(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute, TTL: time.Minute,
		KeyStrategy: "ip", Prefix: "rltest:" + t.Name()}
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRedisCacheWithRedis(t *testing.T) {
	rdb := redisForTest(t)
	prefix := "cachetest:" + t.Name()
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: prefix, MaxBodyBytes: 1024}
	calls := 0
	e := echo.New()
	e.GET("/shows", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, NewRedisCache(cfg, rdb))
	t.Cleanup(func() { _ = PurgeCache(context.Background(), rdb, prefix) })

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shows?date=2026-03-01", nil))
		return rec
	}
	first, second := get(), get()
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	require.NoError(t, PurgeCache(context.Background(), rdb, prefix))
	assert.Equal(t, "MISS", get().Header().Get("X-Cache"))
}
