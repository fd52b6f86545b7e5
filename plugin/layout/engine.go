package layout

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hrygo/notegraph/plugin/graph"
)

// Snapshot is an immutable view of all node positions after a tick.
// Positions is indexed like the Nodes of the graph the engine was built from.
type Snapshot struct {
	Tick      uint64
	Positions []graph.Vec
	// Energy is the total kinetic energy (unit mass) after the tick.
	Energy  float64
	Settled bool
}

// Engine owns the mutable simulation state of one graph. Step and Run mutate
// private buffers and publish a fresh Snapshot; readers only ever see whole
// snapshots through Snapshot.
type Engine struct {
	cfg   Config
	edges [][2]int

	mu    sync.Mutex
	pos   []graph.Vec
	vel   []graph.Vec
	force []graph.Vec
	tick  uint64
	calm  int
	// settled is set on the first settled tick.
	settled bool

	current atomic.Pointer[Snapshot]
}

// NewEngine copies the seeded node positions and velocities of g.
func NewEngine(g *graph.Graph, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	n := len(g.Nodes)
	e := &Engine{
		cfg:   cfg,
		pos:   make([]graph.Vec, n),
		vel:   make([]graph.Vec, n),
		force: make([]graph.Vec, n),
	}
	for i, node := range g.Nodes {
		e.pos[i] = node.Position
		e.vel[i] = node.Velocity
	}
	for _, edge := range g.Edges {
		a, b := g.IndexOf(edge.Source), g.IndexOf(edge.Target)
		if a < 0 || b < 0 || a == b {
			continue
		}
		e.edges = append(e.edges, [2]int{a, b})
	}
	e.publish(false, kineticEnergy(e.vel))
	return e
}

// Snapshot returns the most recently published snapshot. It never blocks on a tick.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Step advances the simulation by one tick and returns the published snapshot.
func (e *Engine) Step() *Snapshot {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.accumulate()
	e.integrate()
	e.tick++

	energy := kineticEnergy(e.vel)
	settled := false
	if e.cfg.SettleEnergy > 0 {
		if energy < e.cfg.SettleEnergy {
			e.calm++
		} else {
			e.calm = 0
		}
		settled = e.calm >= e.cfg.SettleTicks
	}

	if settled && !e.settled {
		e.settled = true
		settledTotal.Inc()
	}

	snap := e.publish(settled, energy)
	ticksTotal.Inc()
	tickDuration.Observe(time.Since(start).Seconds())
	return snap
}

// Run ticks on the configured interval until ctx is done. Once the layout
// settles the ticker is released and Run just waits for ctx.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if snap := e.Step(); snap.Settled {
				ticker.Stop()
				<-ctx.Done()
				return nil
			}
		}
	}
}

// accumulate computes the force on every node into e.force.
func (e *Engine) accumulate() {
	cfg := e.cfg
	for i := range e.force {
		e.force[i] = graph.Vec{}
	}

	n := len(e.pos)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			unit, dist := direction(e.pos[i].Sub(e.pos[j]), i, j)
			if dist < cfg.MinDistance {
				dist = cfg.MinDistance
			}
			push := unit.Scale(cfg.Repulsion / (dist * dist))
			e.force[i] = e.force[i].Add(push)
			e.force[j] = e.force[j].Sub(push)
		}
	}

	for i := range e.pos {
		e.force[i] = e.force[i].Add(cfg.Center.Sub(e.pos[i]).Scale(cfg.Gravity))
	}

	for _, edge := range e.edges {
		a, b := edge[0], edge[1]
		unit, dist := direction(e.pos[b].Sub(e.pos[a]), a, b)
		if dist < cfg.MinDistance {
			dist = cfg.MinDistance
		}
		pull := unit.Scale(cfg.Attraction * (dist - cfg.RestLength))
		e.force[a] = e.force[a].Add(pull)
		e.force[b] = e.force[b].Sub(pull)
	}
}

// integrate applies v += F·dt, p += v·dt, v *= damping.
func (e *Engine) integrate() {
	cfg := e.cfg
	for i := range e.pos {
		v := e.vel[i].Add(e.force[i].Scale(cfg.DtFactor))
		if cfg.MaxVelocity > 0 {
			if speed2 := v.Len2(); speed2 > cfg.MaxVelocity*cfg.MaxVelocity {
				v = v.Scale(cfg.MaxVelocity / math.Sqrt(speed2))
			}
		}
		p := e.pos[i].Add(v.Scale(cfg.DtFactor))
		if !finite(p) || !finite(v) {
			// Keep the last good position rather than poisoning the node forever.
			e.vel[i] = graph.Vec{}
			continue
		}
		e.pos[i] = p
		e.vel[i] = v.Scale(cfg.Damping)
	}
}

func (e *Engine) publish(settled bool, energy float64) *Snapshot {
	positions := make([]graph.Vec, len(e.pos))
	copy(positions, e.pos)
	snap := &Snapshot{
		Tick:      e.tick,
		Positions: positions,
		Energy:    energy,
		Settled:   settled,
	}
	e.current.Store(snap)
	return snap
}

// direction returns the unit vector of d and its length. Coincident points
// get a fixed direction derived from their indices so the pair still separates.
func direction(d graph.Vec, i, j int) (graph.Vec, float64) {
	dist := math.Sqrt(d.Len2())
	if dist == 0 {
		angle := float64(i*31+j*17) * 0.618
		return graph.Vec{X: math.Cos(angle), Y: math.Sin(angle)}, 0
	}
	return d.Scale(1 / dist), dist
}

func kineticEnergy(vel []graph.Vec) float64 {
	total := 0.0
	for _, v := range vel {
		total += 0.5 * v.Len2()
	}
	return total
}

func finite(v graph.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
