package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/ledger"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// deployUnit runs the deployment action for one unit under its timeout. On
// failure the unit is marked Failed and a *DeployError is returned. On
// success the unit stays InProgress until its result is recorded.
func (e *Executor) deployUnit(ctx context.Context, name string, l *ledger.Ledger) (ledger.Result, error) {
	u, ok := e.graph.Unit(name)
	if !ok {
		return ledger.Result{}, fmt.Errorf("executor: unit %q missing from graph", name)
	}
	ctx, logger := ctxlog.With(ctx, "unit", name, "contract", u.ContractName())

	if err := e.transition(name, unit.InProgress); err != nil {
		return ledger.Result{}, err
	}
	e.metrics.InFlight.Add(1)
	defer e.metrics.InFlight.Add(-1)

	fail := func(reason string, cause error) (ledger.Result, error) {
		_ = e.transition(name, unit.Failed)
		e.metrics.UnitsFailed.With("contract", u.ContractName(), "reason", reason).Add(1)
		logger.Error("❌ Unit deployment failed.", "reason", reason, "error", cause)
		return ledger.Result{}, &DeployError{Unit: name, Err: cause}
	}

	args, err := ResolveArgs(u, l)
	if err != nil {
		return fail("arguments", err)
	}

	timeout := e.timeout
	if u.Timeout > 0 {
		timeout = u.Timeout
	}
	unitCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		unitCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	logger.Info("🚀 Deploying unit.", "args", len(args))
	start := time.Now()
	res, err := e.call(unitCtx, timeout, u, args)
	e.metrics.DeployDuration.With("contract", u.ContractName()).Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case ctx.Err() != nil:
			return fail("canceled", err)
		case errors.Is(err, errDeadline) || errors.Is(unitCtx.Err(), context.DeadlineExceeded):
			return fail("timeout", &DeployTimeoutError{Unit: name, Timeout: timeout})
		default:
			return fail("error", err)
		}
	}
	if res.Address == "" {
		return fail("error", errors.New("deployment action returned no address"))
	}
	if res.DeployedAt.IsZero() {
		res.DeployedAt = e.now()
	}

	e.metrics.UnitsDeployed.With("contract", u.ContractName()).Add(1)
	logger.Debug("Deployment action succeeded.", "duration", time.Since(start))
	return res, nil
}

// errDeadline is returned by call when the action outlives its timeout.
var errDeadline = errors.New("deployment action exceeded its timeout")

// call invokes the deployment action and waits for it to return or for
// timeout to elapse. The action is expected to honour ctx; one that does not
// is abandoned once the timeout elapses. Cancellation of ctx alone does not
// abandon the action, so a unit in flight settles before the run stops.
func (e *Executor) call(ctx context.Context, timeout time.Duration, u *unit.Unit, args []any) (ledger.Result, error) {
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("deployment action panicked: %v", r)}
			}
		}()
		res, err := e.deploy(ctx, u, args)
		done <- outcome{res: res, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case o := <-done:
		return o.res, o.err
	case <-expired:
		select {
		case o := <-done:
			return o.res, o.err
		default:
			return ledger.Result{}, errDeadline
		}
	}
}
