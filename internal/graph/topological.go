package graph

import (
	"fmt"
	"sort"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

// TopologicalSort orders g's nodes via Kahn's algorithm: a FIFO queue
// seeded with every zero-in-degree node, repeatedly dequeuing a node,
// appending it to the result, and decrementing its successors'
// in-degree counters. The seed nodes are queued in ascending order of
// their %v form and successors in edge-insertion order, so with a FIFO
// queue (rather than, say, a stack or a heap) the output is
// deterministic for a fixed graph and insertion order.
//
// Returns CyclicDependency, naming every node whose in-degree never
// reached zero, if the result is shorter than the node count.
func TopologicalSort[T comparable](g *Graph[T]) ([]T, error) {
	inDegree := make(map[T]int, g.NodeCount())
	for _, n := range g.Nodes() {
		inDegree[n] = g.InDegree(n)
	}

	nodes := g.Nodes()
	sort.SliceStable(nodes, func(i, j int) bool {
		return fmt.Sprintf("%v", nodes[i]) < fmt.Sprintf("%v", nodes[j])
	})
	queue := make([]T, 0, g.NodeCount())
	for _, n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	result := make([]T, 0, g.NodeCount())
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		result = append(result, n)
		for _, succ := range g.Successors(n) {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(result) != g.NodeCount() {
		remaining := make([]string, 0)
		for n, d := range inDegree {
			if d > 0 {
				remaining = append(remaining, fmt.Sprintf("%v", n))
			}
		}
		return nil, apperrors.CyclicDependency(remaining)
	}
	return result, nil
}
