package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
)

// PlanStep is one unit in execution order.
type PlanStep struct {
	Name      string   `json:"name"`
	Contract  string   `json:"contract"`
	Arguments []string `json:"arguments"`
	DependsOn []string `json:"depends_on"`
	Wave      int      `json:"wave"`
}

// Plan loads the grid and builds the dependency graph without touching the
// network, then prints the execution order.
func (a *App) Plan(ctx context.Context) ([]PlanStep, error) {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Plan method started.", "config", a.config)

	p, err := a.loadPlan(ctx)
	if err != nil {
		return nil, err
	}

	wave := make(map[string]int, p.graph.Len())
	for i, names := range p.graph.Waves() {
		for _, name := range names {
			wave[name] = i
		}
	}

	steps := make([]PlanStep, 0, p.graph.Len())
	for _, name := range p.graph.Order() {
		u, _ := p.graph.Unit(name)
		deps, err := p.graph.Dependencies(name)
		if err != nil {
			return nil, err
		}
		if deps == nil {
			deps = []string{}
		}
		args := make([]string, len(u.Args))
		for i, arg := range u.Args {
			args[i] = arg.String()
		}
		steps = append(steps, PlanStep{
			Name:      name,
			Contract:  u.ContractName(),
			Arguments: args,
			DependsOn: deps,
			Wave:      wave[name],
		})
	}

	if a.config.JSON {
		return steps, printJSON(a.outW, steps)
	}
	w := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tUNIT\tCONTRACT\tWAVE\tARGUMENTS")
	for i, s := range steps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, s.Name, s.Contract, s.Wave, "["+strings.Join(s.Arguments, ", ")+"]")
	}
	return steps, w.Flush()
}
