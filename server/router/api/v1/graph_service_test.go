package v1

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/server/stats"
	"github.com/hrygo/notegraph/server/view"
	"github.com/hrygo/notegraph/store"
	storetest "github.com/hrygo/notegraph/store/test"
)

var linkedNotes = []graph.Note{
	{ID: "a", Title: "Alpha", Body: "[[Beta]] #go", Favorite: true},
	{ID: "b", Title: "Beta", Body: "#go"},
	{ID: "c", Title: "Gamma", Body: "#go"},
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Mode:            "dev",
		Version:         "test",
		CreatorID:       1,
		SnapshotRPS:     1000,
		SnapshotMaxTick: 500,
	}
}

func newTestServer(t *testing.T, p *profile.Profile, source view.NoteSource, collector *stats.Collector) *echo.Echo {
	t.Helper()
	e := echo.New()
	NewAPIV1Service(p, source, collector).RegisterGateway(e)
	return e
}

func staticSource(notes []graph.Note, err error) view.NoteSource {
	return view.NoteSourceFunc(func(context.Context) ([]graph.Note, error) {
		return notes, err
	})
}

func get(t *testing.T, e *echo.Echo, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGetGraph(t *testing.T) {
	e := newTestServer(t, testProfile(), staticSource(linkedNotes, nil), nil)

	rec := get(t, e, "/api/v1/graph")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[GraphResponse](t, rec)
	assert.Equal(t, "ready", resp.Status)
	assert.NotEmpty(t, resp.ViewID)
	assert.Len(t, resp.Nodes, 3)
	assert.Len(t, resp.Edges, 3)
	assert.Equal(t, 1, resp.Stats.LinkEdges)
	assert.Equal(t, 2, resp.Stats.SharedTagEdges)
	assert.Contains(t, rec.Body.String(), `"kind":"link"`)
}

func TestGetGraphFilters(t *testing.T) {
	e := newTestServer(t, testProfile(), staticSource(linkedNotes, nil), nil)

	resp := decode[GraphResponse](t, get(t, e, "/api/v1/graph?shared_tags=false"))
	require.Len(t, resp.Edges, 1)
	assert.Equal(t, graph.EdgeExplicitLink, resp.Edges[0].Kind)

	// One favorite node has no edge left to draw.
	resp = decode[GraphResponse](t, get(t, e, "/api/v1/graph?favorite=true"))
	assert.Equal(t, "empty", resp.Status)
	assert.Equal(t, view.EmptyMessage, resp.Message)

	rec := get(t, e, "/api/v1/graph?favorite=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decode[ErrorResponse](t, rec).Code)

	rec = get(t, e, "/api/v1/graph?min_importance=2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGraphEmptyAndFailed(t *testing.T) {
	e := newTestServer(t, testProfile(), staticSource(nil, nil), nil)
	rec := get(t, e, "/api/v1/graph")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[GraphResponse](t, rec)
	assert.Equal(t, "empty", resp.Status)
	assert.Empty(t, resp.Nodes)
	assert.Empty(t, resp.Edges)

	e = newTestServer(t, testProfile(), staticSource(nil, pkgerrors.New("database is locked")), nil)
	rec = get(t, e, "/api/v1/graph")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "FETCH_FAILED", errResp.Code)
	assert.Contains(t, errResp.Message, "database is locked")
}

func TestGetGraphLayout(t *testing.T) {
	e := newTestServer(t, testProfile(), staticSource(linkedNotes, nil), nil)

	rec := get(t, e, "/api/v1/graph/layout?ticks=25")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LayoutResponse](t, rec)
	assert.Equal(t, "ready", resp.Status)
	assert.LessOrEqual(t, resp.Tick, uint64(25))
	assert.Positive(t, resp.Tick)
	require.Len(t, resp.Nodes, 3)
	assert.Equal(t, "a", resp.Nodes[0].ID)
	assert.Equal(t, "Alpha", resp.Nodes[0].Title)

	rec = get(t, e, "/api/v1/graph/layout?ticks=501")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = get(t, e, "/api/v1/graph/layout?ticks=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGraphSnapshot(t *testing.T) {
	e := newTestServer(t, testProfile(), staticSource(linkedNotes, nil), nil)

	rec := get(t, e, "/api/v1/graph/snapshot.png?width=320&height=200&ticks=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	rec = get(t, e, "/api/v1/graph/snapshot.png?width=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	empty := newTestServer(t, testProfile(), staticSource(nil, nil), nil)
	rec = get(t, empty, "/api/v1/graph/snapshot.png?width=64&height=48")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = png.Decode(rec.Body)
	require.NoError(t, err)
}

func TestGetGraphSnapshotRateLimited(t *testing.T) {
	p := testProfile()
	p.SnapshotRPS = 0.001
	e := newTestServer(t, p, staticSource(linkedNotes, nil), nil)

	for i := 0; i < snapshotBurst; i++ {
		rec := get(t, e, "/api/v1/graph/snapshot.png?width=16&height=16&ticks=0")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := get(t, e, "/api/v1/graph/snapshot.png?width=16&height=16&ticks=0")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decode[ErrorResponse](t, rec).Code)

	// Other routes are not limited.
	assert.Equal(t, http.StatusOK, get(t, e, "/api/v1/graph").Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	e := newTestServer(t, testProfile(), staticSource(linkedNotes, nil), nil)

	rec := get(t, e, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)

	require.Equal(t, http.StatusOK, get(t, e, "/api/v1/graph").Code)
	rec = get(t, e, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notegraph_views_mounted_total")

	rec = get(t, e, "/api/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[MetricsOverviewResponse](t, rec)
	var surfaces []string
	for _, s := range overview.Surfaces {
		surfaces = append(surfaces, s.Surface)
	}
	assert.Contains(t, surfaces, "http")
}

func TestStoreBackedGraphAndStats(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	for _, n := range []*store.Note{
		{UID: "u1", CreatorID: 1, Title: "One", Body: "[[Two]]", Tags: []string{"x"}},
		{UID: "u2", CreatorID: 1, Title: "Two", Tags: []string{"x"}},
		{UID: "u3", CreatorID: 1, Title: "Three", RowStatus: store.Deleted},
	} {
		_, err := ts.CreateNote(ctx, n)
		require.NoError(t, err)
	}

	p := testProfile()
	collector := stats.NewCollector(ts, p.CreatorID)
	e := newTestServer(t, p, &view.StoreSource{Store: ts, CreatorID: p.CreatorID}, collector)

	resp := decode[GraphResponse](t, get(t, e, "/api/v1/graph"))
	assert.Equal(t, "ready", resp.Status)
	assert.Len(t, resp.Nodes, 2)
	assert.Len(t, resp.Edges, 1)

	rec := get(t, e, "/api/v1/stats?refresh=true")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[stats.Stats](t, rec)
	assert.Equal(t, int64(2), st.TotalNotes)
	assert.Equal(t, 1, st.Graph.LinkEdges)

	assert.Equal(t, http.StatusBadRequest, get(t, e, "/api/v1/stats?refresh=soon").Code)
}
