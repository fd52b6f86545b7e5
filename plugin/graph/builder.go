package graph

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Builder validates edge candidates against a note set and seeds node positions.
// A Builder is not safe for concurrent use.
type Builder struct {
	rng            *rand.Rand
	baseRadius     float64
	radiusPerNode  float64
	jitter         float64
	verticalJitter float64
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRand sets the random source used for position jitter.
func WithRand(rng *rand.Rand) BuilderOption {
	return func(b *Builder) {
		b.rng = rng
	}
}

// WithSeedRadius sets the seed circle radius as base + perNode*len(nodes).
func WithSeedRadius(base, perNode float64) BuilderOption {
	return func(b *Builder) {
		b.baseRadius = base
		b.radiusPerNode = perNode
	}
}

// WithJitter bounds the random perturbation of seed positions.
func WithJitter(jitter, vertical float64) BuilderOption {
	return func(b *Builder) {
		b.jitter = jitter
		b.verticalJitter = vertical
	}
}

// NewBuilder creates a new Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	now := uint64(time.Now().UnixNano())
	b := &Builder{
		rng:            rand.New(rand.NewPCG(now, now>>1)),
		baseRadius:     100,
		radiusPerNode:  6,
		jitter:         10,
		verticalJitter: 20,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the canonical graph. Notes with an empty or repeated id are
// skipped (first wins). Candidates are dropped when an endpoint is unknown,
// when both endpoints are equal, or when their canonical
// (min(id), max(id), kind) key was already taken. A shared-tag candidate is
// also dropped when the pair has an explicit link.
func (b *Builder) Build(notes []Note, c Candidates) *Graph {
	g := &Graph{index: make(map[string]int, len(notes))}
	for _, n := range notes {
		if n.ID == "" {
			continue
		}
		if _, dup := g.index[n.ID]; dup {
			continue
		}
		tags, ok := c.Tags[n.ID]
		if !ok {
			tags = normalizeTags(n.Tags)
		}
		g.index[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, &Node{
			ID:       n.ID,
			Title:    n.Title,
			Tags:     tags,
			Favorite: n.Favorite,
		})
	}

	seen := make(map[edgeKey]struct{}, len(c.Explicit)+len(c.SharedTag))
	dropped := 0
	add := func(e Edge, kind EdgeKind) {
		if e.Source == e.Target {
			dropped++
			return
		}
		if _, ok := g.index[e.Source]; !ok {
			dropped++
			return
		}
		if _, ok := g.index[e.Target]; !ok {
			dropped++
			return
		}
		if kind == EdgeSharedTag {
			if _, linked := seen[keyOf(e.Source, e.Target, EdgeExplicitLink)]; linked {
				dropped++
				return
			}
		}
		key := keyOf(e.Source, e.Target, kind)
		if _, dup := seen[key]; dup {
			dropped++
			return
		}
		seen[key] = struct{}{}
		g.Edges = append(g.Edges, Edge{Source: e.Source, Target: e.Target, Kind: kind})
	}
	for _, e := range c.Explicit {
		add(e, EdgeExplicitLink)
	}
	for _, e := range c.SharedTag {
		add(e, EdgeSharedTag)
	}
	if dropped > 0 {
		slog.Debug("dropped graph edge candidates", slog.Int("dropped", dropped))
	}

	b.seedPositions(g.Nodes)
	return g
}

// seedPositions spreads nodes over a circle whose radius grows with the node
// count. Each node is perturbed by less than half the chord to its neighbour,
// so no two nodes can start at the same point.
func (b *Builder) seedPositions(nodes []*Node) {
	n := len(nodes)
	if n == 0 {
		return
	}
	radius := b.baseRadius + b.radiusPerNode*float64(n)
	chord := 2 * radius
	if n > 2 {
		chord = 2 * radius * math.Sin(math.Pi/float64(n))
	}
	jitter := math.Min(b.jitter, chord/6)
	vertical := math.Min(b.verticalJitter, chord/6)

	for i, node := range nodes {
		angle := 2 * math.Pi * float64(i) / float64(n)
		node.Position = Vec{
			X: radius*math.Cos(angle) + b.uniform(jitter),
			Y: radius*math.Sin(angle) + b.uniform(jitter) + b.uniform(vertical),
		}
		node.Velocity = Vec{}
	}
}

// uniform returns a value in [-bound, bound).
func (b *Builder) uniform(bound float64) float64 {
	if bound <= 0 {
		return 0
	}
	return (b.rng.Float64()*2 - 1) * bound
}

// FromNotes extracts candidates and builds the graph in one step.
func FromNotes(notes []Note, opts ...BuilderOption) *Graph {
	return NewBuilder(opts...).Build(notes, NewExtractor().Extract(notes))
}
