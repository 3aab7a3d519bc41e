// Package executor walks a dependency graph and invokes a deployment action
// exactly once per unit, recording results in a ledger.
//
// Units run in the graph's deterministic order on a single goroutine by
// default. With more than one worker, units are deployed in waves of mutually
// independent units. Either way the run halts after the first failure and
// never retries.
package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/ledger"
	"github.com/specialistvlad/deploygrid/internal/metrics"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// DeployFunc deploys one unit with its resolved constructor arguments and
// returns the result, whose Address dependents will receive.
type DeployFunc func(ctx context.Context, u *unit.Unit, args []any) (ledger.Result, error)

// DefaultTimeout bounds a single deployment action when no timeout is set.
const DefaultTimeout = 5 * time.Minute

// Executor runs one orchestration over a graph.
type Executor struct {
	graph   *dag.Graph
	deploy  DeployFunc
	workers int
	timeout time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	// statuses maps unit name to unit.Status. Each unit is only ever written
	// by the goroutine deploying it.
	statuses sync.Map
	started  atomic.Bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the number of units deployed concurrently within a wave.
// Values below 2 select sequential execution.
func WithWorkers(n int) Option {
	return func(e *Executor) { e.workers = n }
}

// WithTimeout sets the per-unit timeout used when a unit has none. Zero or
// negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an executor for g.
func New(g *dag.Graph, deploy DeployFunc, opts ...Option) *Executor {
	e := &Executor{
		graph:   g,
		deploy:  deploy,
		workers: 1,
		timeout: DefaultTimeout,
		metrics: metrics.NopMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run deploys every unit of the graph. The returned ledger holds the results
// of every unit deployed before Run returned, also when it returns an error.
// Run may only be called once per Executor.
func (e *Executor) Run(ctx context.Context) (*ledger.Ledger, error) {
	logger := ctxlog.FromContext(ctx)
	l := ledger.New()

	if !e.started.CompareAndSwap(false, true) {
		return l, errors.New("executor: Run called more than once")
	}

	logger.Debug("Executor starting run.", "unit_count", e.graph.Len(), "workers", e.workers)
	var err error
	if e.workers > 1 {
		err = e.runWaves(ctx, l)
	} else {
		err = e.runSequential(ctx, l)
	}
	logger.Debug("Executor finished run.", "deployed", l.Len(), "error", err)
	return l, err
}

// Status returns the current status of the named unit. Unknown units and
// units not yet attempted are Pending.
func (e *Executor) Status(name string) unit.Status {
	if s, ok := e.statuses.Load(name); ok {
		return s.(unit.Status)
	}
	return unit.Pending
}
