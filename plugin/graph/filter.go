package graph

import (
	"strings"
)

// Filter narrows a graph for display.
type Filter struct {
	// Tags keeps nodes carrying at least one of the tags.
	Tags []string
	// FavoritesOnly keeps favorite notes only.
	FavoritesOnly bool
	// MinImportance keeps nodes at or above the importance score.
	MinImportance float64
	// HideSharedTag drops shared-tag edges.
	HideSharedTag bool
}

// ApplyFilter returns a new graph holding the nodes that pass the filter and
// the edges whose endpoints both survive. Node values are copied.
func ApplyFilter(g *Graph, filter Filter) *Graph {
	if g == nil {
		return nil
	}

	out := &Graph{index: make(map[string]int)}
	for _, node := range g.Nodes {
		if len(filter.Tags) > 0 && !hasAnyTag(node.Tags, filter.Tags) {
			continue
		}
		if filter.FavoritesOnly && !node.Favorite {
			continue
		}
		if node.Importance < filter.MinImportance {
			continue
		}
		copied := *node
		out.index[node.ID] = len(out.Nodes)
		out.Nodes = append(out.Nodes, &copied)
	}

	for _, e := range g.Edges {
		if filter.HideSharedTag && e.Kind == EdgeSharedTag {
			continue
		}
		_, okSource := out.index[e.Source]
		_, okTarget := out.index[e.Target]
		if okSource && okTarget {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

func hasAnyTag(nodeTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range nodeTags {
			if strings.EqualFold(strings.TrimPrefix(w, "#"), t) {
				return true
			}
		}
	}
	return false
}
