package integrators

import (
	"context"
	"fmt"

	"github.com/san-kum/timemarch/internal/dynamo"
	"github.com/san-kum/timemarch/internal/solver"
)

// Executor marches an initial condition through a time grid with one scheme.
// An Executor holds no per-call state and may be shared between goroutines
// as long as any solver passed with WithSolver is.
type Executor struct {
	scheme Scheme
	opts   options
}

func (e *Executor) Scheme() Scheme { return e.scheme }

// stepper writes the interior of next from prev. It must not touch the ghost
// cells of next.
type stepper interface {
	advance(prev, next dynamo.State, dt float64) error
}

// iterationCounter is implemented by root finders that report their work.
type iterationCounter interface {
	Iterations() int
}

// Integrate returns the len(times)×(len(phi0)+2) trajectory. Row 0 holds phi0
// with ghost cells set by bc; every later row is produced by the scheme and
// then handed to bc before it is read again.
//
// On failure the partially filled trajectory is returned together with a
// *dynamo.SimulationError naming the failed step.
func (e *Executor) Integrate(ctx context.Context, sys dynamo.System, phi0 dynamo.State, times []float64, bc dynamo.Boundary) (*dynamo.Trajectory, error) {
	if sys == nil || bc == nil {
		return nil, fmt.Errorf("%w: system and boundary are required", dynamo.ErrNilCollaborator)
	}
	if len(phi0) == 0 {
		return nil, fmt.Errorf("%w: empty initial condition", dynamo.ErrDimensionMismatch)
	}
	if err := dynamo.ValidateGrid(times); err != nil {
		return nil, err
	}
	if e.opts.validate && !phi0.IsValid() {
		return nil, fmt.Errorf("initial condition: %w", dynamo.ErrInvalidState)
	}

	eval := &evaluator{sys: sys, validate: e.opts.validate}
	rf := e.opts.solver
	if rf == nil && e.scheme.Implicit() {
		rf = solver.NewNewton(solver.DefaultConfig())
	}
	st, err := e.newStepper(eval, rf)
	if err != nil {
		return nil, err
	}

	traj := dynamo.NewTrajectory(times, len(phi0))
	row0 := traj.Row(0)
	copy(row0[1:], phi0)
	if err := bc.Apply(row0); err != nil {
		return traj, &dynamo.SimulationError{Step: 0, Time: times[0], State: row0.Clone(), Wrapped: boundaryError(err)}
	}

	log := e.opts.logger.With("scheme", e.scheme.String())
	log.Debug("integration started", "n", len(phi0), "points", len(times))

	for i := 0; i < len(times)-1; i++ {
		if err := ctx.Err(); err != nil {
			return traj, &dynamo.SimulationError{
				Step:    i,
				Time:    times[i],
				State:   traj.Row(i).Clone(),
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err),
			}
		}

		dt := times[i+1] - times[i]
		prev, next := traj.Row(i), traj.Row(i+1)
		calls := eval.calls

		if err := st.advance(prev, next, dt); err != nil {
			log.Debug("step failed", "step", i+1, "t", times[i+1], "err", err)
			return traj, &dynamo.SimulationError{Step: i + 1, Time: times[i+1], State: prev.Clone(), Wrapped: err}
		}
		if err := bc.Apply(next); err != nil {
			return traj, &dynamo.SimulationError{Step: i + 1, Time: times[i+1], State: next.Clone(), Wrapped: boundaryError(err)}
		}

		if e.opts.onStep != nil {
			e.opts.onStep()
		}
		info := StepInfo{Scheme: e.scheme, Step: i + 1, Time: times[i+1], Dt: dt, Evaluations: eval.calls - calls}
		if ic, ok := rf.(iterationCounter); ok && e.scheme.Implicit() {
			info.SolverIterations = ic.Iterations()
		}
		for _, obs := range e.opts.observers {
			obs.OnStep(info)
		}
		log.Debug("step", "step", info.Step, "t", info.Time, "dt", dt, "evals", info.Evaluations, "iters", info.SolverIterations)
	}

	log.Debug("integration finished", "evaluations", eval.calls)
	return traj, nil
}

func (e *Executor) newStepper(eval *evaluator, rf dynamo.RootFinder) (stepper, error) {
	switch e.scheme {
	case ForwardEuler:
		return &forwardEuler{eval: eval}, nil
	case BackwardEuler:
		return &backwardEuler{eval: eval, solver: rf}, nil
	case CrankNicolson:
		return &crankNicolson{eval: eval, solver: rf}, nil
	}
	return nil, fmt.Errorf("%w: %v", dynamo.ErrUnknownScheme, e.scheme)
}

func boundaryError(err error) error {
	return fmt.Errorf("%w: %w", dynamo.ErrBoundary, err)
}

// evaluator wraps a System with output validation and a call counter.
type evaluator struct {
	sys      dynamo.System
	validate bool
	calls    int
}

func (e *evaluator) derive(x dynamo.State) (dynamo.State, error) {
	e.calls++
	dx, err := e.sys.Derive(x)
	if err != nil {
		return nil, &dynamo.EvaluationError{Wrapped: err}
	}
	if len(dx) != len(x) {
		return nil, &dynamo.EvaluationError{
			Wrapped: fmt.Errorf("%w: derivative has %d entries, state %d", dynamo.ErrDimensionMismatch, len(dx), len(x)),
		}
	}
	if e.validate && !dx.Interior().IsValid() {
		return nil, &dynamo.EvaluationError{Wrapped: dynamo.ErrInvalidState}
	}
	return dx, nil
}
