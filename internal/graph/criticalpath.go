package graph

import "github.com/j-raghavan/chronoguard-lite/internal/apperrors"

// CriticalPath is the longest-weighted path through a DAG, along with
// its total weight and the heaviest node on it (the bottleneck).
type CriticalPath[T comparable] struct {
	Path            []T
	TotalWeight     float64
	Bottleneck      T
	BottleneckWeight float64
}

// FindCriticalPath computes the critical path of g using per-node
// weights, via topological-order relaxation:
// dist[succ] = max(dist[succ], dist[v] + weight(v)). O(V+E).
// Returns InvalidArgument if g is empty and CyclicDependency if it
// contains a cycle.
func FindCriticalPath[T comparable](g *Graph[T], weights map[T]float64) (CriticalPath[T], error) {
	order, err := TopologicalSort(g)
	if err != nil {
		return CriticalPath[T]{}, err
	}
	if len(order) == 0 {
		return CriticalPath[T]{}, apperrors.InvalidArgument("cannot compute critical path of an empty graph")
	}

	dist := make(map[T]float64, len(order))
	pred := make(map[T]*T, len(order))
	for _, n := range order {
		dist[n] = 0
	}

	for _, v := range order {
		w := weights[v]
		for _, succ := range g.Successors(v) {
			candidate := dist[v] + w
			if candidate > dist[succ] {
				dist[succ] = candidate
				node := v
				pred[succ] = &node
			}
		}
	}

	var best T
	bestScore := -1.0
	found := false
	for _, n := range order {
		score := dist[n] + weights[n]
		if !found || score > bestScore {
			bestScore = score
			best = n
			found = true
		}
	}

	path := []T{best}
	cur := best
	for pred[cur] != nil {
		cur = *pred[cur]
		path = append(path, cur)
	}
	reverse(path)

	bottleneck := path[0]
	bottleneckWeight := weights[bottleneck]
	for _, n := range path {
		if weights[n] > bottleneckWeight {
			bottleneck = n
			bottleneckWeight = weights[n]
		}
	}

	return CriticalPath[T]{
		Path:             path,
		TotalWeight:      bestScore,
		Bottleneck:       bottleneck,
		BottleneckWeight: bottleneckWeight,
	}, nil
}
