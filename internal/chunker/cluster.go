package chunker

// FindClusters partitions paths into connected components of g. Components are
// returned in order of their first member in paths; members appear in
// depth-first discovery order with neighbors visited in path order. Files
// with no relations form singleton clusters.
func FindClusters(paths []string, g *ImportGraph) [][]string {
	inBatch := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		inBatch[p] = struct{}{}
	}

	visited := make(map[string]struct{}, len(paths))
	var clusters [][]string

	for _, start := range paths {
		if _, seen := visited[start]; seen {
			continue
		}

		var cluster []string
		stack := []string{start}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := visited[node]; seen {
				continue
			}
			visited[node] = struct{}{}
			cluster = append(cluster, node)

			neighbors := g.Neighbors(node)
			// push in reverse so the smallest path is explored first
			for i := len(neighbors) - 1; i >= 0; i-- {
				n := neighbors[i]
				if _, ok := inBatch[n]; !ok {
					continue
				}
				if _, seen := visited[n]; !seen {
					stack = append(stack, n)
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}
