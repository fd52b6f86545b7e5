package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/notegraph/internal/profile"
	ratelimit "github.com/hrygo/notegraph/server/middleware"
	"github.com/hrygo/notegraph/server/stats"
	"github.com/hrygo/notegraph/server/view"
)

// snapshotBurst is the per-client burst of the snapshot rate limit.
const snapshotBurst = 4

type APIV1Service struct {
	Profile *profile.Profile
	Source  view.NoteSource
	Stats   *stats.Collector

	snapshotLimiter *ratelimit.RateLimiter
	// snapshotSemaphore limits concurrent PNG rendering to bound memory.
	snapshotSemaphore *semaphore.Weighted
}

// NewAPIV1Service wires the graph API over source. collector may be nil.
func NewAPIV1Service(profile *profile.Profile, source view.NoteSource, collector *stats.Collector) *APIV1Service {
	return &APIV1Service{
		Profile:           profile,
		Source:            source,
		Stats:             collector,
		snapshotLimiter:   ratelimit.NewRateLimiter(profile.SnapshotRPS, snapshotBurst),
		snapshotSemaphore: semaphore.NewWeighted(3),
	}
}

// RegisterGateway registers the graph API, health and metrics routes with the given Echo instance.
func (s *APIV1Service) RegisterGateway(echoServer *echo.Echo) {
	api := echoServer.Group("/api/v1")
	api.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	api.GET("/graph", s.GetGraph)
	api.GET("/graph/layout", s.GetGraphLayout)
	api.GET("/graph/snapshot.png", s.GetGraphSnapshot, s.snapshotLimiter.Echo())
	api.GET("/stats", s.GetStats)

	echoServer.GET("/healthz", s.Healthz)
	echoServer.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// viewOptions builds the options of a request-scoped view. Handlers step the
// engine themselves, so the background layout loop stays off.
func (s *APIV1Service) viewOptions() view.Options {
	return view.OptionsFromProfile(s.Profile, "http")
}
