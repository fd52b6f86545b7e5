package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/plugin/layout"
)

type fixedSource struct {
	snap *layout.Snapshot
}

func (s fixedSource) Snapshot() *layout.Snapshot { return s.snap }

type recorder struct {
	w, h  int
	lines []color.Color
	discs []color.Color
	texts []string
}

func (r *recorder) Size() (int, int)  { return r.w, r.h }
func (r *recorder) Clear(color.Color) {}
func (r *recorder) Disc(_, _, _ float64, c color.Color) {
	r.discs = append(r.discs, c)
}
func (r *recorder) Line(_, _, _, _, _ float64, c color.Color) {
	r.lines = append(r.lines, c)
}
func (r *recorder) Text(_, _ float64, s string, _ color.Color) {
	r.texts = append(r.texts, s)
}

// fixture places A at the world origin and B at (100, 0) on an 800x600 screen,
// so A is drawn at (400, 300) and B at (500, 300) with zoom 1.
func fixture(t *testing.T) (*Renderer, *[]string) {
	t.Helper()
	g := graph.FromNotes([]graph.Note{
		{ID: "a", Title: "A", Body: "[[B]]", Tags: []string{"x"}},
		{ID: "b", Title: "B", Tags: []string{"x"}},
		{ID: "c", Title: "C", Tags: []string{"x"}},
	})
	require.Len(t, g.Nodes, 3)
	src := fixedSource{snap: &layout.Snapshot{Positions: []graph.Vec{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 200}}}}
	var activated []string
	r := New(g, src, DefaultOptions(), func(id string) { activated = append(activated, id) })
	r.Resize(800, 600)
	return r, &activated
}

func TestCameraRoundTrip(t *testing.T) {
	c := NewCamera(800, 600)
	c.Pan = graph.Vec{X: 30, Y: -20}
	c.ZoomBy(2)
	w := graph.Vec{X: 12.5, Y: -40}
	back := c.ScreenToWorld(c.WorldToScreen(w))
	assert.InDelta(t, w.X, back.X, 1e-9)
	assert.InDelta(t, w.Y, back.Y, 1e-9)
	assert.Equal(t, graph.Vec{X: 400 + 30 + 25, Y: 300 - 20 - 80}, c.WorldToScreen(w))
}

func TestHoverExactNode(t *testing.T) {
	r, _ := fixture(t)
	r.PointerMove(400, 300)
	assert.Equal(t, Hovering{NodeID: "a"}, r.State())

	r.PointerMove(505, 302)
	assert.Equal(t, Hovering{NodeID: "b"}, r.State())
}

func TestHoverClearsFarFromNodes(t *testing.T) {
	r, _ := fixture(t)
	r.PointerMove(400, 300)
	r.PointerMove(450, 450)
	assert.Equal(t, Idle{}, r.State())
}

func TestHitRadiusIsInPixels(t *testing.T) {
	r, _ := fixture(t)
	r.Wheel(-1)
	r.Wheel(-1)
	zoom := r.Camera().Zoom
	require.InDelta(t, 1.21, zoom, 1e-9)

	// B sits at 400 + 100*zoom; 11 pixels off is inside, 13 is outside.
	bx := 400 + 100*zoom
	_, ok := r.HitTest(bx+11, 300)
	assert.True(t, ok)
	_, ok = r.HitTest(bx+13, 300)
	assert.False(t, ok)
}

func TestHitPrefersNearest(t *testing.T) {
	g := graph.FromNotes([]graph.Note{{ID: "p", Title: "P"}, {ID: "q", Title: "Q"}})
	src := fixedSource{snap: &layout.Snapshot{Positions: []graph.Vec{{X: 0}, {X: 8}}}}
	r := New(g, src, DefaultOptions(), nil)
	r.Resize(100, 100)
	id, ok := r.HitTest(50+7, 50)
	require.True(t, ok)
	assert.Equal(t, "q", id)
}

func TestDragPans(t *testing.T) {
	r, activated := fixture(t)
	r.PointerDown(100, 100)
	assert.IsType(t, Dragging{}, r.State())

	// Dragging over a node does not hover it.
	r.PointerMove(400, 300)
	assert.IsType(t, Dragging{}, r.State())

	r.PointerMove(130, 80)
	assert.Equal(t, graph.Vec{X: 30, Y: -20}, r.Camera().Pan)

	r.PointerUp()
	assert.Equal(t, Idle{}, r.State())
	assert.Empty(t, *activated)

	// A second drag starts from the accumulated pan.
	r.PointerDown(0, 0)
	r.PointerMove(10, 10)
	assert.Equal(t, graph.Vec{X: 40, Y: -10}, r.Camera().Pan)
	r.PointerLeave()
	assert.Equal(t, Idle{}, r.State())
}

func TestPointerDownOnNodeActivates(t *testing.T) {
	r, activated := fixture(t)
	r.PointerDown(500, 300)
	assert.Equal(t, []string{"b"}, *activated)
	assert.Equal(t, "b", r.Selected())
	assert.Equal(t, Hovering{NodeID: "b"}, r.State())

	r.PointerMove(520, 300)
	assert.Equal(t, graph.Vec{}, r.Camera().Pan)
}

func TestWheelClampsZoom(t *testing.T) {
	r, _ := fixture(t)
	for range 100 {
		r.Wheel(-3)
	}
	assert.Equal(t, MaxZoom, r.Camera().Zoom)
	for range 100 {
		r.Wheel(3)
	}
	assert.Equal(t, MinZoom, r.Camera().Zoom)

	r.Wheel(0)
	assert.Equal(t, MinZoom, r.Camera().Zoom)
}

func TestDetachDropsInput(t *testing.T) {
	r, activated := fixture(t)
	r.Detach()
	r.PointerDown(400, 300)
	r.PointerMove(400, 300)
	r.Wheel(-1)
	r.Resize(10, 10)
	assert.Empty(t, *activated)
	assert.Equal(t, Idle{}, r.State())
	assert.Equal(t, NewCamera(800, 600), r.Camera())
}

func TestDrawLayersAndToggles(t *testing.T) {
	r, _ := fixture(t)
	rec := &recorder{w: 800, h: 600}
	r.Draw(rec)

	// a-b is explicit; a-c and b-c share a tag.
	require.Len(t, rec.lines, 3)
	assert.Equal(t, color.Color(EdgeSharedTag), rec.lines[0])
	assert.Equal(t, color.Color(EdgeExplicit), rec.lines[2])
	assert.Len(t, rec.discs, 3)
	assert.Equal(t, []string{"3 nodes, 3 edges"}, rec.texts)

	r.SetShowSharedTagEdges(false)
	r.PointerMove(400, 300)
	rec = &recorder{w: 800, h: 600}
	r.Draw(rec)
	require.Len(t, rec.lines, 1)
	assert.Equal(t, color.Color(EdgeExplicit), rec.lines[0])
	// The hovered node is drawn last and labelled.
	assert.Equal(t, color.Color(NodeFocused), rec.discs[len(rec.discs)-1])
	assert.Equal(t, []string{"A", "3 nodes, 1 edges"}, rec.texts)

	r.SetLabelMode(LabelsAlways)
	rec = &recorder{w: 800, h: 600}
	r.Draw(rec)
	assert.ElementsMatch(t, []string{"B", "C", "A", "3 nodes, 1 edges"}, rec.texts)
}

func TestDrawFallsBackToSeededPositions(t *testing.T) {
	g := graph.FromNotes([]graph.Note{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
	r := New(g, fixedSource{}, DefaultOptions(), nil)
	r.Resize(200, 200)
	id, ok := r.HitTest(100+g.Nodes[0].Position.X, 100+g.Nodes[0].Position.Y)
	require.True(t, ok)
	assert.Equal(t, "a", id)
}
