package layout

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/plugin/graph"
)

func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	notes := []graph.Note{
		{ID: "1", Title: "One", Body: "[[Two]]"},
		{ID: "2", Title: "Two", Body: "[[Three]]"},
		{ID: "3", Title: "Three", Body: "[[Four]]"},
		{ID: "4", Title: "Four", Body: "[[Five]]"},
		{ID: "5", Title: "Five", Body: "[[One]] [[Three]]"},
	}
	g := graph.FromNotes(notes, graph.WithRand(rand.New(rand.NewPCG(9, 9))))
	require.Len(t, g.Edges, 6)
	return g
}

func TestEnergyDecays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SettleEnergy = 0
	e := NewEngine(chainGraph(t), cfg)

	first := e.Step()
	require.Greater(t, first.Energy, 0.0)

	var last *Snapshot
	for i := 1; i < 500; i++ {
		last = e.Step()
	}
	assert.Equal(t, uint64(500), last.Tick)
	assert.Less(t, last.Energy, first.Energy)
	assert.False(t, last.Settled)
}

func TestLinkedNodesApproachRestLength(t *testing.T) {
	g := graph.FromNotes([]graph.Note{
		{ID: "a", Title: "A", Body: "[[B]]"},
		{ID: "b", Title: "B"},
	})
	e := NewEngine(g, DefaultConfig())
	for i := 0; i < 2000; i++ {
		e.Step()
	}

	snap := e.Snapshot()
	dist := math.Sqrt(snap.Positions[0].Sub(snap.Positions[1]).Len2())
	// Gravity and repulsion balance the spring close to its rest length.
	assert.Greater(t, dist, 100.0)
	assert.Less(t, dist, 250.0)
}

func TestCoincidentNodesStayFinite(t *testing.T) {
	g := graph.FromNotes([]graph.Note{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	for _, n := range g.Nodes {
		n.Position = graph.Vec{X: 5, Y: 5}
	}
	e := NewEngine(g, DefaultConfig())

	for i := 0; i < 50; i++ {
		snap := e.Step()
		for _, p := range snap.Positions {
			require.True(t, finite(p), "tick %d produced %v", snap.Tick, p)
		}
	}
	snap := e.Snapshot()
	assert.Greater(t, snap.Positions[0].Sub(snap.Positions[1]).Len2(), 1.0)
}

func TestGravityPullsTowardCenter(t *testing.T) {
	g := graph.FromNotes([]graph.Note{{ID: "lonely"}})
	g.Nodes[0].Position = graph.Vec{X: 1000, Y: -1000}
	e := NewEngine(g, DefaultConfig())

	before := e.Snapshot().Positions[0].Len2()
	for i := 0; i < 100; i++ {
		e.Step()
	}
	assert.Less(t, e.Snapshot().Positions[0].Len2(), before)
}

func TestSnapshotsAreImmutable(t *testing.T) {
	e := NewEngine(chainGraph(t), DefaultConfig())
	initial := e.Snapshot()
	kept := append([]graph.Vec(nil), initial.Positions...)

	e.Step()
	assert.Equal(t, kept, initial.Positions)
	assert.NotSame(t, initial, e.Snapshot())
	assert.Equal(t, uint64(0), initial.Tick)
}

func TestSettles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SettleEnergy = 1e-3
	cfg.SettleTicks = 10
	e := NewEngine(chainGraph(t), cfg)

	before := testutil.ToFloat64(settledTotal)
	settledAt := uint64(0)
	for i := 0; i < 5000 && settledAt == 0; i++ {
		if snap := e.Step(); snap.Settled {
			settledAt = snap.Tick
		}
	}
	assert.NotZero(t, settledAt)

	// Stepping a settled layout counts it once.
	e.Step()
	e.Step()
	assert.Equal(t, before+1, testutil.ToFloat64(settledTotal))
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Config{}.withDefaults())

	partial := Config{Repulsion: 100}.withDefaults()
	assert.Equal(t, 100.0, partial.Repulsion)
	assert.Equal(t, 0.0, partial.Gravity)
	assert.Equal(t, DefaultConfig().TickInterval, partial.TickInterval)

	// Nodes of a zero-config engine push apart like a default one.
	e := NewEngine(chainGraph(t), Config{})
	first := e.Step()
	assert.Greater(t, first.Energy, 0.0)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = time.Millisecond
	cfg.SettleEnergy = 0
	e := NewEngine(chainGraph(t), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return e.Snapshot().Tick > 5 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	stopped := e.Snapshot().Tick
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, stopped, e.Snapshot().Tick)
}

func TestRunReleasesTickerWhenSettled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = time.Millisecond
	cfg.SettleEnergy = 1e9
	cfg.SettleTicks = 3
	e := NewEngine(chainGraph(t), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = e.Run(ctx) }()

	require.Eventually(t, func() bool { return e.Snapshot().Settled }, time.Second, time.Millisecond)
	tick := e.Snapshot().Tick
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, tick, e.Snapshot().Tick)
}
