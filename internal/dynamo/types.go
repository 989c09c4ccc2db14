package dynamo

import (
	"fmt"
	"math"
)

// GhostCells is the number of ghost slots surrounding the physical unknowns.
const GhostCells = 2

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the infinity norm of s.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// Interior returns the physical unknowns of an extended state. The result
// aliases s.
func (s State) Interior() State {
	if len(s) < GhostCells {
		return nil
	}
	return s[1 : len(s)-1]
}

// Extend embeds phi into a new extended state with zeroed ghost cells.
func Extend(phi State) State {
	x := make(State, len(phi)+GhostCells)
	copy(x[1:], phi)
	return x
}

// System evaluates the time derivative of an extended state. The result has
// the same length as x. Implementations must not retain or modify x.
type System interface {
	Derive(x State) (State, error)
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(x State) (State, error)

func (f SystemFunc) Derive(x State) (State, error) { return f(x) }

// Boundary populates the ghost cells of an extended state in place. It must
// leave the interior untouched.
type Boundary interface {
	Apply(x State) error
}

// BoundaryFunc adapts a plain function to Boundary.
type BoundaryFunc func(x State) error

func (f BoundaryFunc) Apply(x State) error { return f(x) }

// Residual is a vector-valued function whose root defines an implicit step.
type Residual interface {
	Dim() int
	Eval(dst, x State) error
}

// RootFinder returns a vector that zeroes r, starting from guess.
type RootFinder interface {
	FindRoot(r Residual, guess State) (State, error)
}

// Configurable is implemented by systems and boundaries with tunable
// parameters.
type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}

// ValidateGrid reports whether times is usable as a time grid: at least two
// finite, strictly increasing points.
func ValidateGrid(times []float64) error {
	if len(times) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidGrid, len(times))
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: non-finite time at index %d", ErrInvalidGrid, i)
		}
		if i > 0 && t <= times[i-1] {
			return fmt.Errorf("%w: times[%d]=%g does not exceed times[%d]=%g", ErrInvalidGrid, i, t, i-1, times[i-1])
		}
	}
	return nil
}

// UniformGrid returns steps+1 evenly spaced points from t0 to t1.
func UniformGrid(t0, t1 float64, steps int) []float64 {
	if steps < 1 {
		return []float64{t0}
	}
	times := make([]float64, steps+1)
	h := (t1 - t0) / float64(steps)
	for i := range times {
		times[i] = t0 + float64(i)*h
	}
	times[steps] = t1
	return times
}
