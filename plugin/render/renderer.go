package render

import (
	"fmt"
	"sync"

	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/plugin/layout"
)

// PositionSource publishes layout snapshots. *layout.Engine implements it.
type PositionSource interface {
	Snapshot() *layout.Snapshot
}

// LabelMode selects which node labels are drawn.
type LabelMode int

const (
	// LabelsOnFocus draws labels for the hovered and selected nodes only.
	LabelsOnFocus LabelMode = iota
	// LabelsAlways draws every label.
	LabelsAlways
)

func (m LabelMode) String() string {
	if m == LabelsAlways {
		return "always"
	}
	return "focus"
}

// Options tune the renderer.
type Options struct {
	ShowSharedTagEdges bool
	Labels             LabelMode
	// HitRadius is the pick distance in screen pixels.
	HitRadius float64
	// NodeRadius is the disc radius in world units.
	NodeRadius float64
}

// DefaultOptions shows both edge kinds and focus labels.
func DefaultOptions() Options {
	return Options{
		ShowSharedTagEdges: true,
		Labels:             LabelsOnFocus,
		HitRadius:          12,
		NodeRadius:         6,
	}
}

// ActivateFunc receives the id of a node the user activated.
type ActivateFunc func(noteID string)

// Renderer owns the camera and pointer state of one graph view. Input methods
// and Draw may be called from different goroutines.
type Renderer struct {
	g          *graph.Graph
	source     PositionSource
	onActivate ActivateFunc

	mu       sync.Mutex
	opts     Options
	camera   Camera
	state    Interaction
	selected string
	detached bool
}

// New returns a renderer for g reading live positions from source.
// onActivate may be nil.
func New(g *graph.Graph, source PositionSource, opts Options, onActivate ActivateFunc) *Renderer {
	def := DefaultOptions()
	if opts.HitRadius <= 0 {
		opts.HitRadius = def.HitRadius
	}
	if opts.NodeRadius <= 0 {
		opts.NodeRadius = def.NodeRadius
	}
	return &Renderer{
		g:          g,
		source:     source,
		onActivate: onActivate,
		opts:       opts,
		camera:     NewCamera(0, 0),
		state:      Idle{},
	}
}

// Camera returns a copy of the current camera.
func (r *Renderer) Camera() Camera {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.camera
}

// State returns the current interaction state.
func (r *Renderer) State() Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Selected returns the id of the last activated node.
func (r *Renderer) Selected() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// Options returns the current display options.
func (r *Renderer) Options() Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts
}

// SetShowSharedTagEdges toggles the shared-tag edge layer.
func (r *Renderer) SetShowSharedTagEdges(show bool) {
	r.mu.Lock()
	r.opts.ShowSharedTagEdges = show
	r.mu.Unlock()
}

// SetLabelMode switches between focus and always-on labels.
func (r *Renderer) SetLabelMode(mode LabelMode) {
	r.mu.Lock()
	r.opts.Labels = mode
	r.mu.Unlock()
}

// Resize updates the surface dimensions.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detached {
		return
	}
	r.camera.Resize(width, height)
}

// PointerMove updates the hover state, or the pan while dragging.
func (r *Renderer) PointerMove(x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detached {
		return
	}
	p := graph.Vec{X: x, Y: y}
	if d, ok := r.state.(Dragging); ok {
		r.camera.Pan = d.StartPan.Add(p.Sub(d.StartPointer))
		return
	}
	if id, ok := r.hitTest(p); ok {
		r.state = Hovering{NodeID: id}
		return
	}
	r.state = Idle{}
}

// PointerDown activates the node under the pointer, or starts a drag on
// empty space.
func (r *Renderer) PointerDown(x, y float64) {
	r.mu.Lock()
	if r.detached {
		r.mu.Unlock()
		return
	}
	p := graph.Vec{X: x, Y: y}
	id, hit := r.hitTest(p)
	if !hit {
		r.state = Dragging{StartPointer: p, StartPan: r.camera.Pan}
		r.mu.Unlock()
		return
	}
	r.state = Hovering{NodeID: id}
	r.selected = id
	activate := r.onActivate
	r.mu.Unlock()

	if activate != nil {
		activate(id)
	}
}

// PointerUp ends a drag.
func (r *Renderer) PointerUp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detached {
		return
	}
	if _, ok := r.state.(Dragging); ok {
		r.state = Idle{}
	}
}

// PointerLeave ends a drag and clears the hover.
func (r *Renderer) PointerLeave() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detached {
		return
	}
	r.state = Idle{}
}

// Wheel zooms in for negative deltaY (scroll up) and out for positive.
func (r *Renderer) Wheel(deltaY float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detached {
		return
	}
	switch {
	case deltaY < 0:
		r.camera.ZoomBy(ZoomStep)
	case deltaY > 0:
		r.camera.ZoomBy(1 / ZoomStep)
	}
}

// Detach drops every later input event. Draw keeps working.
func (r *Renderer) Detach() {
	r.mu.Lock()
	r.detached = true
	r.state = Idle{}
	r.mu.Unlock()
}

// HitTest returns the node nearest to the screen point within the hit radius.
func (r *Renderer) HitTest(x, y float64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hitTest(graph.Vec{X: x, Y: y})
}

func (r *Renderer) hitTest(p graph.Vec) (string, bool) {
	positions := r.positions()
	world := r.camera.ScreenToWorld(p)
	radius := r.opts.HitRadius / r.camera.Zoom
	best, bestD := -1, radius*radius
	for i, pos := range positions {
		if d := pos.Sub(world).Len2(); d < bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return "", false
	}
	return r.g.Nodes[best].ID, true
}

// positions returns the latest snapshot, falling back to the seeded layout
// when the source has nothing that matches the graph.
func (r *Renderer) positions() []graph.Vec {
	if r.source != nil {
		if snap := r.source.Snapshot(); snap != nil && len(snap.Positions) == len(r.g.Nodes) {
			return snap.Positions
		}
	}
	seeded := make([]graph.Vec, len(r.g.Nodes))
	for i, n := range r.g.Nodes {
		seeded[i] = n.Position
	}
	return seeded
}

// Draw paints one frame from the latest snapshot.
func (r *Renderer) Draw(c Canvas) {
	r.mu.Lock()
	camera, opts, state, selected := r.camera, r.opts, r.state, r.selected
	positions := r.positions()
	r.mu.Unlock()

	hovered := ""
	if h, ok := state.(Hovering); ok {
		hovered = h.NodeID
	}

	c.Clear(Background)

	screen := make([]graph.Vec, len(positions))
	for i, p := range positions {
		screen[i] = camera.WorldToScreen(p)
	}

	visible := 0
	drawEdges := func(kind graph.EdgeKind, width float64) {
		col := EdgeExplicit
		if kind == graph.EdgeSharedTag {
			col = EdgeSharedTag
		}
		for _, e := range r.g.Edges {
			if e.Kind != kind {
				continue
			}
			a, b := r.g.IndexOf(e.Source), r.g.IndexOf(e.Target)
			if a < 0 || b < 0 {
				continue
			}
			c.Line(screen[a].X, screen[a].Y, screen[b].X, screen[b].Y, width*camera.Zoom, col)
			visible++
		}
	}
	if opts.ShowSharedTagEdges {
		drawEdges(graph.EdgeSharedTag, 0.5)
	}
	drawEdges(graph.EdgeExplicitLink, 1.5)

	radius := opts.NodeRadius * camera.Zoom
	var focused []int
	for i, n := range r.g.Nodes {
		if n.ID == hovered || n.ID == selected {
			focused = append(focused, i)
			continue
		}
		col := NodeNormal
		if n.Favorite {
			col = NodeFavorite
		}
		c.Disc(screen[i].X, screen[i].Y, radius, col)
		if opts.Labels == LabelsAlways {
			c.Text(screen[i].X+radius+4, screen[i].Y, n.Title, TextSecondary)
		}
	}
	for _, i := range focused {
		c.Disc(screen[i].X, screen[i].Y, radius*1.5, NodeFocused)
		c.Text(screen[i].X+radius*1.5+4, screen[i].Y, r.g.Nodes[i].Title, TextPrimary)
	}

	c.Text(8, 16, fmt.Sprintf("%d nodes, %d edges", len(r.g.Nodes), visible), TextSecondary)
}
