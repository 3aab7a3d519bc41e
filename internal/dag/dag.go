package dag

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/deploygrid/internal/unit"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds u to the graph. The declaration index is the number of nodes
// added before it. Adding a second unit with the same name fails.
func (g *Graph) AddNode(u *unit.Unit) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[u.Name]; ok {
		return &DuplicateDeclarationError{Unit: u.Name}
	}

	g.nodes[u.Name] = &node{
		id:         u.Name,
		unit:       u,
		index:      len(g.declared),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.declared = append(g.declared, u.Name)
	return nil
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Len returns the number of units in the graph.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// Unit returns the declaration of the named unit.
func (g *Graph) Unit(id string) (*unit.Unit, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return n.unit, true
}

// Units returns all declarations in declaration order.
func (g *Graph) Units() []*unit.Unit {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]*unit.Unit, len(g.declared))
	for i, id := range g.declared {
		out[i] = g.nodes[id].unit
	}
	return out
}

// Dependencies returns the names of the units the given unit depends on, in
// declaration order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return names(sortedNodes(n.deps)), nil
}

// Dependents returns the names of the units that depend on the given unit, in
// declaration order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return names(sortedNodes(n.dependents)), nil
}

// DetectCycles checks the graph for cycles with a depth-first traversal over
// dependencies, colouring nodes unvisited, in progress or done. Reaching an
// in-progress node closes a cycle, which is returned as a *CycleError.
// Traversal follows declaration order so the reported cycle is stable.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	const (
		unvisited = iota
		inProgress
		done
	)
	colour := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		colour[n.id] = inProgress
		stack = append(stack, n.id)

		for _, dep := range sortedNodes(n.deps) {
			switch colour[dep.id] {
			case inProgress:
				start := slices.Index(stack, dep.id)
				return &CycleError{Members: append([]string(nil), stack[start:]...)}
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		colour[n.id] = done
		return nil
	}

	for _, id := range g.declared {
		if colour[id] == unvisited {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedNodes(set map[string]*node) []*node {
	out := make([]*node, 0, len(set))
	for _, n := range set {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *node) int { return a.index - b.index })
	return out
}

func names(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}
