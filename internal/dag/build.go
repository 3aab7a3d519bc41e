package dag

import (
	"context"
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// Build constructs the dependency graph for units, which must be given in
// declaration order. It fails with *DuplicateDeclarationError,
// *UnknownUnitError or *CycleError and has no other side effects.
func Build(ctx context.Context, units []*unit.Unit) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building dependency graph.", "unit_count", len(units))

	g := New()

	// Pass 1: nodes.
	for _, u := range units {
		if u.Name == "" {
			return nil, fmt.Errorf("unit at position %d has no name", len(g.declared))
		}
		if err := g.AddNode(u); err != nil {
			return nil, err
		}
	}

	// Pass 2: edges from argument references and depends_on.
	for _, u := range units {
		for _, ref := range u.References() {
			if ref == u.Name {
				return nil, &CycleError{Members: []string{u.Name}}
			}
			if _, ok := g.nodes[ref]; !ok {
				return nil, &UnknownUnitError{Unit: u.Name, Ref: ref}
			}
			if err := g.AddEdge(ref, u.Name); err != nil {
				return nil, fmt.Errorf("linking %q to %q: %w", u.Name, ref, err)
			}
			logger.Debug("Linked dependency.", "unit", u.Name, "depends_on", ref)
		}
	}

	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	logger.Debug("Dependency graph built.", "unit_count", g.Len())
	return g, nil
}
