package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/specialistvlad/deploygrid/internal/chain"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/executor"
	"github.com/specialistvlad/deploygrid/internal/ledger"
	"github.com/specialistvlad/deploygrid/internal/model"
	"github.com/specialistvlad/deploygrid/internal/store"
)

// plan is a loaded grid with its dependency graph.
type plan struct {
	grid  *model.Grid
	graph *dag.Graph
}

func (a *App) loadPlan(ctx context.Context) (*plan, error) {
	if a.config.GridPath == "" {
		return nil, errors.New("grid path is required")
	}
	env, err := loadEnv(a.config.EnvFile)
	if err != nil {
		return nil, err
	}
	grid, err := model.LoadGrid(ctx, a.config.GridPath, env)
	if err != nil {
		return nil, fmt.Errorf("failed to load grid: %w", err)
	}
	graph, err := dag.Build(ctx, grid.Declarations())
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	return &plan{grid: grid, graph: graph}, nil
}

// Deploy loads the grid, deploys every unit to the selected network and
// writes the report. On failure the report covers the units deployed before
// the failing one and the returned error names that unit.
func (a *App) Deploy(ctx context.Context) (*Report, error) {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Deploy method started.", "config", a.config)

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(ctx, a.config.HealthcheckPort); err != nil {
			return nil, err
		}
		defer a.closeHealthcheckServer(ctx)
	}

	p, err := a.loadPlan(ctx)
	if err != nil {
		return nil, err
	}
	network, err := p.grid.Network(a.config.Network)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Dependency graph built.", "unit_count", p.graph.Len(), "network", network.Name)

	var (
		db   *sql.DB
		runs *store.RunRepo
	)
	run := store.Run{ID: uuid.NewString(), Grid: a.config.GridPath, Network: network.Name}
	if a.config.StateDB != "" {
		db, err = store.Open(a.config.StateDB)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		runs = &store.RunRepo{DB: db, Now: a.now}
		if run, err = runs.Create(ctx, a.config.GridPath, network.Name); err != nil {
			return nil, err
		}
	}
	logger := a.logger.With("run_id", run.ID)
	ctx = ctxlog.WithLogger(ctx, logger)

	l, runErr := a.execute(ctx, p, network)
	if l == nil {
		l = ledger.New()
	}

	status := runStatus(runErr)
	if db != nil {
		// The run context may be canceled already.
		persistCtx := context.WithoutCancel(ctx)
		deployments := &store.DeploymentRepo{DB: db}
		if err := deployments.SaveLedger(persistCtx, run.ID, l, contractOf(p.graph)); err != nil {
			logger.Error("Failed to persist ledger.", "error", err)
			runErr = errors.Join(runErr, err)
		}
		if err := runs.Finish(persistCtx, run.ID, status, runErr); err != nil {
			logger.Error("Failed to finish run.", "error", err)
		}
	}

	report := newReport(run.ID, a.config.GridPath, network.Name, status, runErr, l, p.graph)
	if err := a.writeReport(report); err != nil {
		return report, errors.Join(runErr, err)
	}

	if runErr != nil {
		logger.Error("❌ Deployment failed.", "deployed", l.Len(), "error", runErr)
		return report, runErr
	}
	logger.Info("🏁 Deployment finished.", "deployed", l.Len())
	return report, nil
}

func (a *App) execute(ctx context.Context, p *plan, network *model.Network) (*ledger.Ledger, error) {
	if p.graph.Len() == 0 {
		a.logger.Warn("No units found in grid, deployment not required.")
		return ledger.New(), nil
	}

	cfg := chain.Config{
		Network:    network.Name,
		URL:        network.URL,
		PrivateKey: network.PrivateKey,
		ChainID:    network.ChainID,
		GasLimit:   network.GasLimit,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deployer, err := a.dial(ctx, cfg, a.config.ArtifactsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network %q: %w", network.Name, err)
	}
	defer deployer.Close()

	ctxlog.FromContext(ctx).Info("🚀 Starting deployment...", "units", p.graph.Len(), "workers", a.config.Workers)
	exec := executor.New(p.graph, deployer.Deploy,
		executor.WithWorkers(a.config.Workers),
		executor.WithTimeout(a.config.Timeout),
		executor.WithMetrics(a.metrics),
		executor.WithClock(a.now),
	)
	return exec.Run(ctx)
}

func runStatus(err error) store.RunStatus {
	var canceled *executor.CanceledError
	switch {
	case err == nil:
		return store.RunSucceeded
	case errors.As(err, &canceled), errors.Is(err, context.Canceled):
		return store.RunCanceled
	default:
		return store.RunFailed
	}
}

func contractOf(g *dag.Graph) func(string) string {
	return func(name string) string {
		if u, ok := g.Unit(name); ok {
			return u.ContractName()
		}
		return name
	}
}
