package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for time-marching operations.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates vectors whose lengths disagree.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrInvalidGrid indicates a time grid that is too short or not strictly increasing.
	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrUnknownScheme indicates a scheme identifier outside the supported set.
	ErrUnknownScheme = errors.New("dynamo: unknown integration scheme")

	// ErrEvaluation indicates the right-hand-side evaluator failed or
	// produced unusable output.
	ErrEvaluation = errors.New("dynamo: right-hand-side evaluation failed")

	// ErrNonConvergence indicates the root finder did not converge.
	ErrNonConvergence = errors.New("dynamo: root finder did not converge")

	// ErrBoundary indicates the boundary applicator failed.
	ErrBoundary = errors.New("dynamo: boundary applicator failed")

	// ErrNilCollaborator indicates a required system, boundary or solver was nil.
	ErrNilCollaborator = errors.New("dynamo: nil collaborator")

	// ErrContextCanceled indicates the integration was interrupted.
	ErrContextCanceled = errors.New("dynamo: integration canceled by context")
)

// SimulationError wraps an error with the step at which it occurred.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// EvaluationError reports a failed or malformed right-hand-side evaluation.
type EvaluationError struct {
	Wrapped error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrEvaluation, e.Wrapped)
}

func (e *EvaluationError) Unwrap() error { return e.Wrapped }

func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

// NonConvergenceError carries the last iterate of a failed root search.
type NonConvergenceError struct {
	Iterations   int
	ResidualNorm float64
	Last         State
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%v after %d iterations (residual %.3e)", ErrNonConvergence, e.Iterations, e.ResidualNorm)
}

func (e *NonConvergenceError) Is(target error) bool { return target == ErrNonConvergence }
