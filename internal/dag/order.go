package dag

import "slices"

// Order returns the execution order: a unit appears only after all of its
// dependencies, and among units that become eligible at the same time the
// one declared first comes first. The graph must be acyclic.
func (g *Graph) Order() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	pending := make(map[string]int, len(g.nodes))
	var ready []*node
	for _, id := range g.declared {
		n := g.nodes[id]
		pending[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n.id)

		for _, dep := range n.dependents {
			pending[dep.id]--
			if pending[dep.id] == 0 {
				i, _ := slices.BinarySearchFunc(ready, dep.index, func(r *node, idx int) int { return r.index - idx })
				ready = slices.Insert(ready, i, dep)
			}
		}
	}
	return order
}

// Waves groups units into layers: every unit in a wave depends only on units
// from earlier waves. Units within a wave are in declaration order.
func (g *Graph) Waves() [][]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	depth := make(map[string]int, len(g.nodes))
	var visit func(n *node) int
	visit = func(n *node) int {
		if d, ok := depth[n.id]; ok {
			return d
		}
		d := 0
		for _, dep := range n.deps {
			d = max(d, visit(dep)+1)
		}
		depth[n.id] = d
		return d
	}

	var waves [][]string
	for _, id := range g.declared {
		d := visit(g.nodes[id])
		for len(waves) <= d {
			waves = append(waves, nil)
		}
		waves[d] = append(waves[d], id)
	}
	return waves
}
