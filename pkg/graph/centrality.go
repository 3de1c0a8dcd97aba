package graph

// BetweennessCentrality computes betweenness centrality for every node
// using Brandes' algorithm over unweighted shortest paths. Scores are
// normalized by 1/((n-1)(n-2)) to match the conventional directed-graph
// normalization, so values fall in [0, 1].
func (g *DiGraph) BetweennessCentrality() map[string]float64 {
	nodes := g.Nodes()
	cb := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		cb[n] = 0
	}

	for _, s := range nodes {
		// BFS from s accumulating shortest-path counts.
		stack := make([]string, 0, len(nodes))
		preds := make(map[string][]string, len(nodes))
		sigma := map[string]float64{s: 1}
		dist := map[string]int{s: 0}

		queue := []string{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)

			for _, w := range g.Successors(v) {
				if _, seen := dist[w]; !seen {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		// Back-propagate dependencies in reverse BFS order.
		delta := make(map[string]float64, len(stack))
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	n := float64(len(nodes))
	if n > 2 {
		scale := 1 / ((n - 1) * (n - 2))
		for k := range cb {
			cb[k] *= scale
		}
	}
	return cb
}
