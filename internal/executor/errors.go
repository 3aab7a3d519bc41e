package executor

import (
	"context"
	"fmt"
	"time"
)

// DeployError reports that the deployment action failed for a unit.
type DeployError struct {
	Unit string
	Err  error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploying unit %q: %v", e.Unit, e.Err)
}

func (e *DeployError) Unwrap() error { return e.Err }

// DeployTimeoutError reports that a deployment action did not complete in
// time. It is returned wrapped in a DeployError.
type DeployTimeoutError struct {
	Unit    string
	Timeout time.Duration
}

func (e *DeployTimeoutError) Error() string {
	return fmt.Sprintf("unit %q did not deploy within %s", e.Unit, e.Timeout)
}

func (e *DeployTimeoutError) Unwrap() error { return context.DeadlineExceeded }

// CanceledError reports that the run was cancelled before Next was attempted.
type CanceledError struct {
	Next string
	Err  error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("run cancelled before unit %q: %v", e.Next, e.Err)
}

func (e *CanceledError) Unwrap() error { return e.Err }
