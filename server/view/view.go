// Package view owns one mounted graph view: the single note fetch, the
// loading, empty and failed states, the layout loop and teardown.
package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/plugin/layout"
	"github.com/hrygo/notegraph/plugin/render"
	verrors "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/internal/observability"
)

var tracer = otel.Tracer("notegraph.view")

// EmptyMessage is shown when there is nothing to draw.
const EmptyMessage = "No connected notes yet. Link notes with [[Title]] or give them a shared #tag."

// Status is the lifecycle state of a view.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusEmpty
	StatusFailed
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options configure a view.
type Options struct {
	// Surface names the host in logs and metrics (tui, http, raster).
	Surface   string
	CreatorID int32
	Logger    *slog.Logger

	Layout  layout.Config
	Render  render.Options
	Builder []graph.BuilderOption
	// Filter narrows the graph after analysis.
	Filter *graph.Filter
	// Simulate runs the layout loop after the fetch. Hosts that step the
	// engine themselves leave it off.
	Simulate bool
}

// View is one mounted graph view. It fetches once; a new note set needs a new View.
type View struct {
	source NoteSource
	nav    Navigator
	opts   Options
	vc     *observability.ViewContext

	mu       sync.RWMutex
	status   Status
	err      error
	graph    *graph.Graph
	engine   *layout.Engine
	renderer *render.Renderer
	ctx      context.Context

	ready     chan struct{}
	readyOnce sync.Once
	mounted   bool
	cancel    context.CancelFunc
	group     *errgroup.Group
	closeOnce sync.Once
	closeErr  error
}

// New returns an unmounted view. nav may be nil.
func New(source NoteSource, nav Navigator, opts Options) *View {
	if opts.Surface == "" {
		opts.Surface = "headless"
	}
	return &View{
		source: source,
		nav:    nav,
		opts:   opts,
		vc:     observability.NewViewContext(opts.Logger, opts.Surface, opts.CreatorID),
		status: StatusLoading,
		ready:  make(chan struct{}),
	}
}

// ID returns the view id used in logs.
func (v *View) ID() string {
	return v.vc.ViewID
}

// Mount starts the fetch and, once it resolves with a drawable graph, the
// layout loop. It returns immediately; the view is in the loading state
// until Ready is closed.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mounted {
		return errors.New("view already mounted")
	}
	v.mounted = true

	ctx, v.cancel = context.WithCancel(observability.WithViewContext(ctx, v.vc))
	v.ctx = ctx
	v.group, ctx = errgroup.WithContext(ctx)
	v.group.Go(func() error {
		return v.load(ctx)
	})
	observability.GlobalMetrics().RecordMount(v.opts.Surface)
	v.vc.Info("view mounted")
	return nil
}

func (v *View) load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "view.load",
		trace.WithAttributes(
			attribute.String("view.id", v.vc.ViewID),
			attribute.String("view.surface", v.opts.Surface),
		),
	)
	defer span.End()

	start := time.Now()
	notes, err := v.source.ListNotes(ctx)
	observability.GlobalMetrics().RecordFetch(v.opts.Surface, time.Since(start), err != nil)
	if ctx.Err() != nil {
		// Closed while fetching; the result is discarded.
		v.finish(StatusClosed, verrors.Canceled(ctx.Err()), nil)
		return nil
	}
	if err != nil {
		viewErr := verrors.FetchFailed(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		v.vc.Error("failed to fetch notes", err, slog.String(observability.LogFieldErrorCode, string(viewErr.Code)))
		v.finish(StatusFailed, viewErr, nil)
		return nil
	}

	g := graph.FromNotes(notes, v.opts.Builder...)
	graph.Analyze(g)
	if v.opts.Filter != nil {
		g = graph.ApplyFilter(g, *v.opts.Filter)
	}
	span.SetAttributes(attribute.Int("graph.nodes", len(g.Nodes)), attribute.Int("graph.edges", len(g.Edges)))
	v.vc.Info("graph built",
		slog.Int(observability.LogFieldNodes, len(g.Nodes)),
		slog.Int(observability.LogFieldEdges, len(g.Edges)),
		slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()),
	)
	if g.IsEmpty() {
		v.finish(StatusEmpty, nil, g)
		return nil
	}

	engine := layout.NewEngine(g, v.opts.Layout)
	v.mu.Lock()
	v.engine = engine
	v.renderer = render.New(g, engine, v.opts.Render, v.activate)
	v.mu.Unlock()
	v.finish(StatusReady, nil, g)

	if !v.opts.Simulate {
		return nil
	}
	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "layout loop")
	}
	snap := engine.Snapshot()
	v.vc.Debug("layout stopped",
		slog.Uint64("tick", snap.Tick),
		slog.Float64("energy", snap.Energy),
		slog.Bool("settled", snap.Settled),
	)
	return nil
}

func (v *View) finish(status Status, err error, g *graph.Graph) {
	v.mu.Lock()
	if v.status == StatusLoading {
		v.status, v.err, v.graph = status, err, g
	}
	v.mu.Unlock()
	v.readyOnce.Do(func() { close(v.ready) })
}

func (v *View) activate(noteID string) {
	v.vc.Info("node activated", slog.String("note_id", noteID))
	if v.nav == nil {
		return
	}
	v.mu.RLock()
	ctx := v.ctx
	v.mu.RUnlock()
	if err := v.nav.NavigateToNote(ctx, noteID); err != nil {
		v.vc.Warn("navigation failed", slog.String("note_id", noteID), slog.String("error", err.Error()))
	}
}

// Ready is closed once the fetch has resolved or the view has closed.
func (v *View) Ready() <-chan struct{} {
	return v.ready
}

// WaitReady blocks until Ready is closed or ctx is done.
func (v *View) WaitReady(ctx context.Context) error {
	select {
	case <-v.ready:
		return nil
	case <-ctx.Done():
		return verrors.Canceled(ctx.Err())
	}
}

// State returns the status and, for failed or closed views, the reason.
func (v *View) State() (Status, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status, v.err
}

// Graph returns the built graph, or nil while loading or after a failure.
func (v *View) Graph() *graph.Graph {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.graph
}

// Engine returns the layout engine of a ready view.
func (v *View) Engine() *layout.Engine {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.engine
}

// Renderer returns the renderer of a ready view.
func (v *View) Renderer() *render.Renderer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.renderer
}

// Close stops the fetch and layout loop, detaches input and waits for the
// loops to exit. It is safe to call more than once.
func (v *View) Close() error {
	v.closeOnce.Do(func() {
		v.mu.Lock()
		cancel, group, renderer := v.cancel, v.group, v.renderer
		if v.status == StatusLoading || v.status == StatusReady {
			v.status, v.err = StatusClosed, verrors.Canceled(context.Canceled)
		}
		v.mu.Unlock()

		if renderer != nil {
			renderer.Detach()
		}
		if cancel != nil {
			cancel()
		}
		if group != nil {
			v.closeErr = group.Wait()
		}
		// A late-finishing fetch may have built a renderer after the detach above.
		if r := v.Renderer(); r != nil {
			r.Detach()
		}
		v.readyOnce.Do(func() { close(v.ready) })
		v.vc.Info("view closed", slog.Int64(observability.LogFieldDuration, v.vc.DurationMs()))
	})
	return v.closeErr
}
