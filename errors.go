package vrpspd

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInstance              = errors.New("invalid instance")
	ErrInfeasibleInitialSolution    = errors.New("no initial set of routes fits the fleet")
	ErrMasterInfeasible             = errors.New("restricted master problem is infeasible")
	ErrMasterUnbounded              = errors.New("restricted master problem is unbounded")
	ErrIntegerRestrictionInfeasible = errors.New("no integer solution over the column pool")
)

// RunError is returned by Solve when a run stops in an error state.
type RunError struct {
	Stage   Stage
	Elapsed time.Duration
	Err     error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s after %s: %v", e.Stage, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
