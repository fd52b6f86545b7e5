package graph

// Analyze fills Importance (PageRank, normalized to 0-1) and Cluster (label
// propagation) for every node. Edges count in both directions.
func Analyze(g *Graph) {
	if g == nil || len(g.Nodes) == 0 {
		return
	}
	neighbors := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		neighbors[e.Source] = append(neighbors[e.Source], e.Target)
		neighbors[e.Target] = append(neighbors[e.Target], e.Source)
	}
	computePageRank(g, neighbors)
	detectCommunities(g, neighbors)
}

func computePageRank(g *Graph, neighbors map[string][]string) {
	const (
		damping    = 0.85
		iterations = 20
	)

	n := float64(len(g.Nodes))
	scores := make(map[string]float64, len(g.Nodes))
	for _, node := range g.Nodes {
		scores[node.ID] = 1.0 / n
	}

	for iter := 0; iter < iterations; iter++ {
		next := make(map[string]float64, len(scores))
		for id := range scores {
			sum := 0.0
			for _, in := range neighbors[id] {
				if degree := len(neighbors[in]); degree > 0 {
					sum += scores[in] / float64(degree)
				}
			}
			next[id] = (1-damping)/n + damping*sum
		}
		scores = next
	}

	var maxScore float64
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore > 0 {
		for _, node := range g.Nodes {
			node.Importance = scores[node.ID] / maxScore
		}
	}
}

// detectCommunities assigns cluster ids in node order. Ties between equally
// common neighbour labels go to the smallest label so results are stable.
func detectCommunities(g *Graph, neighbors map[string][]string) {
	labels := make(map[string]int, len(g.Nodes))
	for i, node := range g.Nodes {
		labels[node.ID] = i
	}

	const maxIterations = 10
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for _, node := range g.Nodes {
			if len(neighbors[node.ID]) == 0 {
				continue
			}
			counts := make(map[int]int)
			for _, nb := range neighbors[node.ID] {
				counts[labels[nb]]++
			}
			best, bestCount := labels[node.ID], 0
			for label, count := range counts {
				if count > bestCount || (count == bestCount && label < best) {
					best, bestCount = label, count
				}
			}
			if labels[node.ID] != best {
				labels[node.ID] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	clusters := make(map[int]int)
	for _, node := range g.Nodes {
		label := labels[node.ID]
		if _, ok := clusters[label]; !ok {
			clusters[label] = len(clusters)
		}
		node.Cluster = clusters[label]
	}
}
