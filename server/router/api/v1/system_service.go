package v1

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	verrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/internal/observability"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

// MetricsOverviewResponse is the in-process view counters per surface.
type MetricsOverviewResponse struct {
	Surfaces []SurfaceOverview `json:"surfaces"`
}

// SurfaceOverview is one row of MetricsOverviewResponse.
type SurfaceOverview struct {
	Surface        string `json:"surface"`
	Mounted        int64  `json:"mounted"`
	FetchFailed    int64  `json:"fetch_failed"`
	Frames         int64  `json:"frames"`
	AverageFetchMs int64  `json:"average_fetch_ms"`
}

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.Profile.Version,
		Mode:    s.Profile.Mode,
	})
}

// GetStats returns the collection statistics. refresh=true collects before answering.
// GET /api/v1/stats?refresh=true
func (s *APIV1Service) GetStats(c echo.Context) error {
	if s.Stats == nil {
		return c.JSON(http.StatusOK, s.metricsOverview())
	}
	if raw := c.QueryParam("refresh"); raw != "" {
		refresh, err := strconv.ParseBool(raw)
		if err != nil {
			return s.errorResponse(c, verrors.InvalidArgument("refresh must be a boolean"))
		}
		if refresh {
			if err := s.Stats.Collect(c.Request().Context()); err != nil {
				return s.errorResponse(c, verrors.FetchFailed(err))
			}
		}
	}
	return c.JSON(http.StatusOK, s.Stats.GetStats())
}

func (s *APIV1Service) metricsOverview() MetricsOverviewResponse {
	snapshot := observability.GlobalMetrics().Snapshot()
	resp := MetricsOverviewResponse{Surfaces: make([]SurfaceOverview, 0, len(snapshot))}
	for surface, m := range snapshot {
		resp.Surfaces = append(resp.Surfaces, SurfaceOverview{
			Surface:        surface,
			Mounted:        m.Mounted,
			FetchFailed:    m.FetchFailed,
			Frames:         m.Frames,
			AverageFetchMs: m.AverageFetchMs,
		})
	}
	sort.Slice(resp.Surfaces, func(i, j int) bool {
		return resp.Surfaces[i].Surface < resp.Surfaces[j].Surface
	})
	return resp
}
