package dag

import (
	"sync"

	"github.com/specialistvlad/deploygrid/internal/unit"
)

// Graph is a collection of units and their dependencies, representing a DAG.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by unit name.
	nodes map[string]*node
	// declared holds node names in declaration order.
	declared []string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using unit names),
// not by direct struct manipulation.
type node struct {
	id   string
	unit *unit.Unit
	// index is the declaration position used to break ordering ties.
	index int
	// deps holds the set of nodes that this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the set of nodes that depend on this node (successors).
	dependents map[string]*node
}
