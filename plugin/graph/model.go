// Package graph derives the knowledge graph of a note collection: explicit
// wiki-link edges, shared-tag edges and seeded node positions.
package graph

import (
	"time"

	"github.com/pkg/errors"
)

// Note is the read-only note record the graph is derived from.
type Note struct {
	ID        string
	Title     string
	Body      string
	Tags      []string
	Favorite  bool
	UpdatedAt time.Time
}

// EdgeKind distinguishes explicit links from inferred shared-tag relations.
type EdgeKind int

const (
	// EdgeExplicitLink is a `[[Title]]` reference from one note body to another note.
	EdgeExplicitLink EdgeKind = iota
	// EdgeSharedTag connects two notes that carry a common tag.
	EdgeSharedTag
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeExplicitLink:
		return "link"
	case EdgeSharedTag:
		return "shared_tag"
	default:
		return "unknown"
	}
}

// Vec is a 2D vector in world coordinates.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v*s.
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

// Len2 returns the squared length of v.
func (v Vec) Len2() float64 { return v.X*v.X + v.Y*v.Y }

// Node is the graph representation of one note.
type Node struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags,omitempty"`
	Favorite bool     `json:"favorite"`
	// Position and Velocity are the seeded values. The live values evolve
	// inside the layout engine and are published as snapshots.
	Position Vec `json:"position"`
	Velocity Vec `json:"velocity"`

	// Importance and Cluster are filled by Analyze.
	Importance float64 `json:"importance"`
	Cluster    int     `json:"cluster"`
}

// Edge is an undirected relation between two distinct nodes.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// MarshalText lets EdgeKind render as a name in JSON.
func (k EdgeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the names written by MarshalText.
func (k *EdgeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "link":
		*k = EdgeExplicitLink
	case "shared_tag":
		*k = EdgeSharedTag
	default:
		return errors.Errorf("unknown edge kind %q", text)
	}
	return nil
}

// edgeKey is the canonical (min(id), max(id), kind) identity of an edge.
type edgeKey struct {
	lo, hi string
	kind   EdgeKind
}

func keyOf(a, b string, kind EdgeKind) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b, kind: kind}
}

// Graph is a node set keyed by id plus an edge list. A Graph is never
// mutated after Build returns; a new note set means a new Graph.
type Graph struct {
	Nodes []*Node
	Edges []Edge

	index map[string]int
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.Nodes[i], true
}

// IndexOf returns the position of the node in Nodes, or -1.
func (g *Graph) IndexOf(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Explicit returns the explicit-link edges.
func (g *Graph) Explicit() []Edge {
	return g.edgesOfKind(EdgeExplicitLink)
}

// SharedTag returns the shared-tag edges.
func (g *Graph) SharedTag() []Edge {
	return g.edgesOfKind(EdgeSharedTag)
}

func (g *Graph) edgesOfKind(kind EdgeKind) []Edge {
	var edges []Edge
	for _, e := range g.Edges {
		if e.Kind == kind {
			edges = append(edges, e)
		}
	}
	return edges
}

// IsEmpty reports whether the graph has nothing worth drawing: no nodes or no edges.
func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0 || len(g.Edges) == 0
}

// Stats contains graph statistics.
type Stats struct {
	NodeCount      int `json:"node_count"`
	EdgeCount      int `json:"edge_count"`
	LinkEdges      int `json:"link_edges"`
	SharedTagEdges int `json:"shared_tag_edges"`
	ClusterCount   int `json:"cluster_count"`
	OrphanCount    int `json:"orphan_count"`
}

// Stats counts nodes and edges. ClusterCount is only meaningful after Analyze.
func (g *Graph) Stats() Stats {
	s := Stats{NodeCount: len(g.Nodes), EdgeCount: len(g.Edges)}
	degree := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		switch e.Kind {
		case EdgeExplicitLink:
			s.LinkEdges++
		case EdgeSharedTag:
			s.SharedTagEdges++
		}
		degree[e.Source]++
		degree[e.Target]++
	}
	clusters := make(map[int]struct{})
	for _, n := range g.Nodes {
		if degree[n.ID] == 0 {
			s.OrphanCount++
		}
		clusters[n.Cluster] = struct{}{}
	}
	if len(g.Nodes) > 0 {
		s.ClusterCount = len(clusters)
	}
	return s
}
