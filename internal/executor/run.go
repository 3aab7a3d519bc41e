package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/ledger"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// runSequential deploys units one at a time in graph order.
func (e *Executor) runSequential(ctx context.Context, l *ledger.Ledger) error {
	for _, name := range e.graph.Order() {
		if err := ctx.Err(); err != nil {
			return &CanceledError{Next: name, Err: err}
		}
		res, err := e.deployUnit(ctx, name, l)
		if err != nil {
			return err
		}
		if err := e.record(ctx, l, name, res); err != nil {
			return err
		}
	}
	return nil
}

type outcome struct {
	res ledger.Result
	err error
	// skipped is set when the unit was never started; canceled tells
	// whether cancellation rather than a sibling's failure caused it.
	skipped  bool
	canceled bool
}

// runWaves deploys each wave of independent units concurrently, at most
// e.workers at a time. Results are recorded in declaration order once the
// wave has settled. After a failure no further unit is started; units
// already in flight finish and are recorded when they succeed.
func (e *Executor) runWaves(ctx context.Context, l *ledger.Ledger) error {
	logger := ctxlog.FromContext(ctx)

	for i, wave := range e.graph.Waves() {
		if err := ctx.Err(); err != nil {
			return &CanceledError{Next: wave[0], Err: err}
		}
		logger.Debug("Starting wave.", "wave", i, "units", wave)

		var (
			g       errgroup.Group
			halted  atomic.Bool
			results = make([]outcome, len(wave))
		)
		g.SetLimit(e.workers)
		for j, name := range wave {
			g.Go(func() error {
				if ctx.Err() != nil {
					results[j] = outcome{skipped: true, canceled: true}
					return nil
				}
				if halted.Load() {
					results[j] = outcome{skipped: true}
					return nil
				}
				res, err := e.deployUnit(ctx, name, l)
				if err != nil {
					halted.Store(true)
				}
				results[j] = outcome{res: res, err: err}
				return nil
			})
		}
		_ = g.Wait()

		var first, canceled error
		for j, name := range wave {
			o := results[j]
			switch {
			case o.err != nil:
				if first == nil {
					first = o.err
				}
			case o.skipped:
				if o.canceled && canceled == nil {
					canceled = &CanceledError{Next: name, Err: ctx.Err()}
				}
			default:
				if err := e.record(ctx, l, name, o.res); err != nil {
					return err
				}
			}
		}
		if first != nil {
			return first
		}
		if canceled != nil {
			return canceled
		}
	}
	return nil
}

func (e *Executor) record(ctx context.Context, l *ledger.Ledger, name string, res ledger.Result) error {
	if err := l.Record(name, res); err != nil {
		return fmt.Errorf("recording result: %w", err)
	}
	if err := e.transition(name, unit.Deployed); err != nil {
		return err
	}
	e.metrics.LedgerSize.Set(float64(l.Len()))
	ctxlog.FromContext(ctx).Info("✅ Unit deployed.", "unit", name, "address", res.Address)
	return nil
}
