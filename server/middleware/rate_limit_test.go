package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowPerKey(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	// Keys have independent buckets.
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Len())
}

func TestBurstFloor(t *testing.T) {
	rl := NewRateLimiter(0.001, 0)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}

func TestWaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	require.NoError(t, rl.Wait(context.Background(), "a"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, "a"))
}

func TestIdleLimitersAreEvicted(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("old")

	now = now.Add(idleLimiterTTL + time.Second)
	rl.Allow("new")
	assert.Equal(t, 1, rl.Len())
}

func TestEchoMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	e := echo.New()
	e.GET("/limited", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, rl.Echo())

	serve := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = ip + ":4321"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1").Code)
	rec := serve("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
	assert.Equal(t, http.StatusOK, serve("10.0.0.2").Code)
}
