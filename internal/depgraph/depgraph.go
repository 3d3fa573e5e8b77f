// Package depgraph provides the topological sort the type table uses to
// order newtype definitions by their dependency DAG. An explicit queue
// rather than recursion, so a cycle shows up as a short final result
// instead of a stack overflow.
package depgraph

// Sort performs a Kahn's-algorithm topological sort over a dependency graph
// expressed as node -> the nodes it depends on. The returned order lists
// dependencies before dependents. ok is false if the graph contains a
// cycle — the caller is expected to translate that into CyclicTypes.
func Sort[T comparable](deps map[T][]T) (order []T, ok bool) {
	indegree := make(map[T]int, len(deps))
	for node := range deps {
		if _, seen := indegree[node]; !seen {
			indegree[node] = 0
		}
	}
	for _, ds := range deps {
		for _, d := range ds {
			indegree[d]++
		}
	}

	var queue []T
	for node, deg := range indegree {
		if deg == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]T, 0, len(indegree))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)
		for _, d := range deps[node] {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(result) != len(indegree) {
		return nil, false
	}

	// indegree[d] counts how many other nodes name d as a dependency, so
	// the queue above starts with nodes nothing depends on (the most
	// composite types) and peels inward toward their field types. Reverse
	// to get the dependency-first order the type table needs: a struct's
	// field types must be laid out before the struct itself.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, true
}
