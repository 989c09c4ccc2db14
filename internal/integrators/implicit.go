package integrators

import (
	"fmt"

	"github.com/san-kum/timemarch/internal/dynamo"
)

// candidate assembles extended states for residual evaluation. Ghost cells
// are frozen at the previous row's values for the whole solve.
type candidate struct {
	prev dynamo.State
	work dynamo.State
}

func newCandidate(prev dynamo.State) candidate {
	return candidate{prev: prev.Clone(), work: prev.Clone()}
}

func (c candidate) Dim() int { return len(c.prev) - dynamo.GhostCells }

func (c candidate) extend(x dynamo.State) dynamo.State {
	copy(c.work[1:len(c.work)-1], x)
	return c.work
}

// backwardResidual is r(c) = c − prev − dt·f(c).
type backwardResidual struct {
	candidate
	dt   float64
	eval *evaluator
}

func (r *backwardResidual) Eval(dst, x dynamo.State) error {
	f, err := r.eval.derive(r.extend(x))
	if err != nil {
		return err
	}
	for j := range x {
		dst[j] = x[j] - r.prev[j+1] - r.dt*f[j+1]
	}
	return nil
}

// averagedResidual is r(c) = (c − prev)/dt − ½(f(prev) + f(c)) with f(prev)
// evaluated once per step.
type averagedResidual struct {
	candidate
	dt     float64
	rhsOld dynamo.State
	eval   *evaluator
}

func (r *averagedResidual) Eval(dst, x dynamo.State) error {
	f, err := r.eval.derive(r.extend(x))
	if err != nil {
		return err
	}
	for j := range x {
		dst[j] = (x[j]-r.prev[j+1])/r.dt - 0.5*(r.rhsOld[j+1]+f[j+1])
	}
	return nil
}

type backwardEuler struct {
	eval   *evaluator
	solver dynamo.RootFinder
}

func (s *backwardEuler) advance(prev, next dynamo.State, dt float64) error {
	r := &backwardResidual{candidate: newCandidate(prev), dt: dt, eval: s.eval}
	return solveInto(s.solver, r, prev, next)
}

type crankNicolson struct {
	eval   *evaluator
	solver dynamo.RootFinder
}

func (s *crankNicolson) advance(prev, next dynamo.State, dt float64) error {
	rhsOld, err := s.eval.derive(prev)
	if err != nil {
		return err
	}
	r := &averagedResidual{candidate: newCandidate(prev), dt: dt, rhsOld: rhsOld.Clone(), eval: s.eval}
	return solveInto(s.solver, r, prev, next)
}

// solveInto finds the root of r starting from prev's interior and writes it
// into next's interior.
func solveInto(rf dynamo.RootFinder, r dynamo.Residual, prev, next dynamo.State) error {
	if rf == nil {
		return fmt.Errorf("%w: implicit scheme needs a root finder", dynamo.ErrNilCollaborator)
	}
	root, err := rf.FindRoot(r, prev.Interior().Clone())
	if err != nil {
		return err
	}
	if len(root) != r.Dim() {
		return fmt.Errorf("%w: root finder returned %d entries, want %d", dynamo.ErrDimensionMismatch, len(root), r.Dim())
	}
	copy(next[1:len(next)-1], root)
	return nil
}
