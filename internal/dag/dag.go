// Package dag implements the stage dependency graph the chain builder uses
// to order processor invocations. Nodes are stages; an edge A -> B means B
// reads a parameter A writes.
package dag

import (
	"fmt"
	"sort"
)

type node struct {
	id    string
	index int
	deps  map[string]*node
	dependents map[string]*node
}

// Graph is a directed graph of stage nodes, built in declaration order.
type Graph struct {
	nodes map[string]*node
	order []*node
}

// CycleError reports the members of a dependency cycle, in declaration
// order.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving %v", e.Nodes)
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a node. The insertion sequence defines declaration order,
// which TopoSort uses to break ties. Adding an existing ID does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	n := &node{
		id:         id,
		index:      len(g.order),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
}

// AddEdge records that toID depends on fromID. Self-edges and unknown
// nodes are errors.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, toID)
	}
	from, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	to, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	to.deps[fromID] = from
	from.dependents[toID] = to
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// TopoSort returns all node IDs in a topological order of the dependency
// graph. Among nodes whose dependencies are all satisfied, the one declared
// first comes first, so the order is stable and deterministic. A cycle
// yields a CycleError naming its members.
func (g *Graph) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for _, n := range g.order {
		indegree[n.id] = len(n.deps)
	}

	var ready []*node
	for _, n := range g.order {
		if indegree[n.id] == 0 {
			ready = append(ready, n)
		}
	}

	sorted := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		// Kahn's algorithm with a declaration-ordered ready list: take
		// the earliest-declared ready node each round.
		next := 0
		for i := 1; i < len(ready); i++ {
			if ready[i].index < ready[next].index {
				next = i
			}
		}
		n := ready[next]
		ready = append(ready[:next], ready[next+1:]...)
		sorted = append(sorted, n.id)

		for _, dep := range sortedDependents(n) {
			indegree[dep.id]--
			if indegree[dep.id] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(sorted) != len(g.nodes) {
		var cycle []string
		for _, n := range g.order {
			if indegree[n.id] > 0 {
				cycle = append(cycle, n.id)
			}
		}
		return nil, &CycleError{Nodes: cycle}
	}
	return sorted, nil
}

func sortedDependents(n *node) []*node {
	out := make([]*node, 0, len(n.dependents))
	for _, d := range n.dependents {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}
