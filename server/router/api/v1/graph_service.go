package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/plugin/layout"
	"github.com/hrygo/notegraph/plugin/render"
	"github.com/hrygo/notegraph/plugin/render/raster"
	verrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/view"
)

const (
	defaultSnapshotWidth  = 800
	defaultSnapshotHeight = 600
	maxSnapshotSide       = 4096
	// defaultSnapshotTicks lets a fresh layout spread out before it is drawn.
	defaultSnapshotTicks = 300
)

// GraphResponse is the body of GET /api/v1/graph.
type GraphResponse struct {
	ViewID  string        `json:"view_id"`
	Status  string        `json:"status"`
	Message string        `json:"message,omitempty"`
	Nodes   []*graph.Node `json:"nodes"`
	Edges   []graph.Edge  `json:"edges"`
	Stats   graph.Stats   `json:"stats"`
}

// NodePosition is the live position of one node.
type NodePosition struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// LayoutResponse is the body of GET /api/v1/graph/layout.
type LayoutResponse struct {
	ViewID  string         `json:"view_id"`
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Tick    uint64         `json:"tick"`
	Energy  float64        `json:"energy"`
	Settled bool           `json:"settled"`
	Nodes   []NodePosition `json:"nodes"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetGraph returns the nodes, edges and statistics of the knowledge graph.
// GET /api/v1/graph?shared_tags=false&tag=go&favorite=true&min_importance=0.5
func (s *APIV1Service) GetGraph(c echo.Context) error {
	v, err := s.openView(c)
	if err != nil {
		return s.errorResponse(c, err)
	}
	defer v.Close()

	status, _ := v.State()
	resp := GraphResponse{
		ViewID: v.ID(),
		Status: status.String(),
		Nodes:  []*graph.Node{},
		Edges:  []graph.Edge{},
	}
	if g := v.Graph(); g != nil {
		resp.Nodes = append(resp.Nodes, g.Nodes...)
		resp.Edges = append(resp.Edges, g.Edges...)
		resp.Stats = g.Stats()
	}
	if status == view.StatusEmpty {
		resp.Message = view.EmptyMessage
	}
	return c.JSON(http.StatusOK, resp)
}

// GetGraphLayout steps a fresh layout and returns the node positions.
// GET /api/v1/graph/layout?ticks=200
func (s *APIV1Service) GetGraphLayout(c echo.Context) error {
	ticks, err := s.parseTicks(c, 0)
	if err != nil {
		return s.errorResponse(c, err)
	}
	v, err := s.openView(c)
	if err != nil {
		return s.errorResponse(c, err)
	}
	defer v.Close()

	status, _ := v.State()
	resp := LayoutResponse{
		ViewID: v.ID(),
		Status: status.String(),
		Nodes:  []NodePosition{},
	}
	if status == view.StatusEmpty {
		resp.Message = view.EmptyMessage
		return c.JSON(http.StatusOK, resp)
	}

	snap := stepLayout(v.Engine(), ticks)
	resp.Tick, resp.Energy, resp.Settled = snap.Tick, snap.Energy, snap.Settled
	for i, n := range v.Graph().Nodes {
		resp.Nodes = append(resp.Nodes, NodePosition{
			ID:    n.ID,
			Title: n.Title,
			X:     snap.Positions[i].X,
			Y:     snap.Positions[i].Y,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetGraphSnapshot renders the graph to a PNG.
// GET /api/v1/graph/snapshot.png?width=800&height=600&ticks=300
func (s *APIV1Service) GetGraphSnapshot(c echo.Context) error {
	width, err := parseSide(c, "width", defaultSnapshotWidth)
	if err != nil {
		return s.errorResponse(c, err)
	}
	height, err := parseSide(c, "height", defaultSnapshotHeight)
	if err != nil {
		return s.errorResponse(c, err)
	}
	ticks, err := s.parseTicks(c, defaultSnapshotTicks)
	if err != nil {
		return s.errorResponse(c, err)
	}

	ctx := c.Request().Context()
	if err := s.snapshotSemaphore.Acquire(ctx, 1); err != nil {
		return s.errorResponse(c, verrors.Canceled(err))
	}
	defer s.snapshotSemaphore.Release(1)

	v, err := s.openView(c)
	if err != nil {
		return s.errorResponse(c, err)
	}
	defer v.Close()

	canvas := raster.New(width, height)
	if r := v.Renderer(); r != nil {
		stepLayout(v.Engine(), ticks)
		r.Resize(width, height)
		r.Draw(canvas)
	} else {
		canvas.Clear(render.Background)
		canvas.Text(16, float64(height)/2, view.EmptyMessage, render.TextSecondary)
	}

	c.Response().Header().Set(echo.HeaderContentType, "image/png")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	c.Response().WriteHeader(http.StatusOK)
	if err := canvas.EncodePNG(c.Response()); err != nil {
		slog.Error("failed to write snapshot", slog.String("view_id", v.ID()), slog.String("error", err.Error()))
		return nil
	}
	return nil
}

// openView mounts a request-scoped view and waits for its fetch. Failed and
// canceled views are returned as errors; ready and empty views are returned.
func (s *APIV1Service) openView(c echo.Context) (*view.View, error) {
	filter, err := s.parseFilter(c)
	if err != nil {
		return nil, err
	}
	opts := s.viewOptions()
	opts.Filter = filter

	ctx := c.Request().Context()
	v := view.New(s.Source, nil, opts)
	if err := v.Mount(ctx); err != nil {
		return nil, verrors.Internal(err)
	}
	if err := v.WaitReady(ctx); err != nil {
		_ = v.Close()
		return nil, err
	}
	switch status, err := v.State(); status {
	case view.StatusReady, view.StatusEmpty:
		return v, nil
	default:
		_ = v.Close()
		if err == nil {
			err = verrors.Internal(errors.Errorf("view ended in state %s", status))
		}
		return nil, err
	}
}

func (s *APIV1Service) parseFilter(c echo.Context) (*graph.Filter, error) {
	filter := &graph.Filter{
		Tags:          c.QueryParams()["tag"],
		HideSharedTag: s.Profile.HideSharedTags,
	}
	if raw := c.QueryParam("shared_tags"); raw != "" {
		show, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, verrors.InvalidArgument("shared_tags must be a boolean")
		}
		filter.HideSharedTag = !show
	}
	if raw := c.QueryParam("favorite"); raw != "" {
		favorite, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, verrors.InvalidArgument("favorite must be a boolean")
		}
		filter.FavoritesOnly = favorite
	}
	if raw := c.QueryParam("min_importance"); raw != "" {
		minImportance, err := strconv.ParseFloat(raw, 64)
		if err != nil || minImportance < 0 || minImportance > 1 {
			return nil, verrors.InvalidArgument("min_importance must be between 0 and 1")
		}
		filter.MinImportance = minImportance
	}
	return filter, nil
}

func (s *APIV1Service) parseTicks(c echo.Context, defaultTicks int) (int, error) {
	raw := c.QueryParam("ticks")
	if raw == "" {
		return min(defaultTicks, s.Profile.SnapshotMaxTick), nil
	}
	ticks, err := strconv.Atoi(raw)
	if err != nil || ticks < 0 {
		return 0, verrors.InvalidArgument("ticks must be a non-negative integer")
	}
	if ticks > s.Profile.SnapshotMaxTick {
		return 0, verrors.InvalidArgument("ticks exceeds the limit").WithContext("max", s.Profile.SnapshotMaxTick)
	}
	return ticks, nil
}

func parseSide(c echo.Context, name string, defaultValue int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue, nil
	}
	side, err := strconv.Atoi(raw)
	if err != nil || side <= 0 || side > maxSnapshotSide {
		return 0, verrors.InvalidArgument(name + " must be between 1 and 4096")
	}
	return side, nil
}

// stepLayout advances the engine up to ticks times, stopping once it settles.
func stepLayout(engine *layout.Engine, ticks int) *layout.Snapshot {
	snap := engine.Snapshot()
	for i := 0; i < ticks && !snap.Settled; i++ {
		snap = engine.Step()
	}
	return snap
}

func (s *APIV1Service) errorResponse(c echo.Context, err error) error {
	code := verrors.GetCodeFromError(err, verrors.ErrCodeInternal)
	status := http.StatusInternalServerError
	switch code {
	case verrors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case verrors.ErrCodeFetchFailed:
		status = http.StatusBadGateway
	case verrors.ErrCodeCanceled:
		status = http.StatusServiceUnavailable
	case verrors.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	}
	if status >= http.StatusInternalServerError {
		slog.Error("graph request failed",
			slog.String("path", c.Path()),
			slog.String("error_code", string(code)),
			slog.String("error", err.Error()),
		)
	}

	message := err.Error()
	var viewErr *verrors.ViewError
	if errors.As(err, &viewErr) {
		message = viewErr.Message
		if viewErr.Cause != nil && s.Profile.IsDev() {
			message = viewErr.Error()
		}
	}
	return c.JSON(status, ErrorResponse{Code: string(code), Message: message})
}
