package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	verrors "github.com/hrygo/notegraph/server/internal/errors"
)

// idleLimiterTTL is how long a client's limiter is kept after its last request.
const idleLimiterTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*entry
	rps    rate.Limit
	burst  int
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second per key,
// with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limits: make(map[string]*entry),
		rps:    rate.Limit(rps),
		burst:  burst,
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if e, ok := rl.limits[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	rl.evictLocked(now)
	limiter := rate.NewLimiter(rl.rps, rl.burst)
	rl.limits[key] = &entry{limiter: limiter, lastSeen: now}
	return limiter
}

func (rl *RateLimiter) evictLocked(now time.Time) {
	for key, e := range rl.limits {
		if now.Sub(e.lastSeen) > idleLimiterTTL {
			delete(rl.limits, key)
		}
	}
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// Echo returns a middleware rejecting requests over the limit with 429.
// Requests are keyed by client IP.
func (rl *RateLimiter) Echo() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if rl.Allow(key) {
				return next(c)
			}
			slog.Debug("rate limit exceeded",
				slog.String("client", key),
				slog.String("path", c.Path()),
			)
			err := verrors.RateLimitExceeded("too many snapshot requests")
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"code":    string(err.Code),
				"message": err.Message,
			})
		}
	}
}
