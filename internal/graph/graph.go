// Package graph implements a generic directed graph plus the
// algorithms the policy DAG engine needs: topological sort, cycle
// detection, and critical-path analysis.
package graph

// Graph is a directed graph over comparable node identifiers, with
// both forward and reverse adjacency. Every node that has been added
// appears in both adjacency maps, possibly with an empty list.
type Graph[T comparable] struct {
	forward map[T][]T
	reverse map[T][]T
}

// New creates an empty graph.
func New[T comparable]() *Graph[T] {
	return &Graph[T]{forward: map[T][]T{}, reverse: map[T][]T{}}
}

// AddNode registers a node with no edges, if not already present.
func (g *Graph[T]) AddNode(n T) {
	if _, ok := g.forward[n]; !ok {
		g.forward[n] = nil
		g.reverse[n] = nil
	}
}

// AddEdge adds the edge u->v, creating either endpoint if absent.
// Duplicate edges are tolerated (not deduplicated).
func (g *Graph[T]) AddEdge(u, v T) {
	g.AddNode(u)
	g.AddNode(v)
	g.forward[u] = append(g.forward[u], v)
	g.reverse[v] = append(g.reverse[v], u)
}

// RemoveEdge removes one occurrence of the edge u->v. Panics-free: it
// is a no-op error return when the edge does not exist.
func (g *Graph[T]) RemoveEdge(u, v T) bool {
	idx := indexOf(g.forward[u], v)
	if idx < 0 {
		return false
	}
	g.forward[u] = removeAt(g.forward[u], idx)
	g.reverse[v] = removeAt(g.reverse[v], indexOf(g.reverse[v], u))
	return true
}

// RemoveNode deletes n and every edge touching it.
func (g *Graph[T]) RemoveNode(n T) {
	for _, succ := range g.forward[n] {
		g.reverse[succ] = removeAllOf(g.reverse[succ], n)
	}
	for _, pred := range g.reverse[n] {
		g.forward[pred] = removeAllOf(g.forward[pred], n)
	}
	delete(g.forward, n)
	delete(g.reverse, n)
}

// HasNode reports whether n has been added.
func (g *Graph[T]) HasNode(n T) bool {
	_, ok := g.forward[n]
	return ok
}

// HasEdge reports whether the edge u->v exists.
func (g *Graph[T]) HasEdge(u, v T) bool {
	return indexOf(g.forward[u], v) >= 0
}

// Successors returns the nodes n points to.
func (g *Graph[T]) Successors(n T) []T { return g.forward[n] }

// Predecessors returns the nodes that point to n.
func (g *Graph[T]) Predecessors(n T) []T { return g.reverse[n] }

// InDegree returns len(Predecessors(n)).
func (g *Graph[T]) InDegree(n T) int { return len(g.reverse[n]) }

// OutDegree returns len(Successors(n)).
func (g *Graph[T]) OutDegree(n T) int { return len(g.forward[n]) }

// Nodes returns every node in unspecified order.
func (g *Graph[T]) Nodes() []T {
	nodes := make([]T, 0, len(g.forward))
	for n := range g.forward {
		nodes = append(nodes, n)
	}
	return nodes
}

// NodeCount returns the number of nodes.
func (g *Graph[T]) NodeCount() int { return len(g.forward) }

// EdgeCount returns the total number of edges.
func (g *Graph[T]) EdgeCount() int {
	total := 0
	for _, succs := range g.forward {
		total += len(succs)
	}
	return total
}

func indexOf[T comparable](s []T, v T) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func removeAt[T any](s []T, idx int) []T {
	return append(s[:idx], s[idx+1:]...)
}

func removeAllOf[T comparable](s []T, v T) []T {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
