// Package solver provides the nonlinear root finder used by the implicit
// schemes.
package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/timemarch/internal/dynamo"
)

const (
	DefaultAbsTol        = 1e-10
	DefaultStepTol       = 1e-12
	DefaultMaxIterations = 50
)

// Formula selects the finite-difference stencil for the Jacobian.
type Formula int

const (
	Forward Formula = iota
	Central
)

func (f Formula) String() string {
	switch f {
	case Forward:
		return "forward"
	case Central:
		return "central"
	}
	return fmt.Sprintf("Formula(%d)", int(f))
}

// ParseFormula maps "forward" or "central" to a Formula. An empty name
// selects Forward.
func ParseFormula(name string) (Formula, error) {
	switch name {
	case "", "forward":
		return Forward, nil
	case "central":
		return Central, nil
	}
	return 0, fmt.Errorf("unknown jacobian formula: %s", name)
}

type Config struct {
	// AbsTol is the infinity-norm residual below which a candidate is a root.
	AbsTol float64

	// StepTol stops iteration once a Newton update is smaller than
	// StepTol*(1+|x|) in the infinity norm and the residual is below
	// sqrt(AbsTol). A stalled update with a larger residual is not a root.
	StepTol float64

	// MaxIterations bounds the number of Newton updates per solve.
	MaxIterations int

	Formula Formula
}

func DefaultConfig() Config {
	return Config{
		AbsTol:        DefaultAbsTol,
		StepTol:       DefaultStepTol,
		MaxIterations: DefaultMaxIterations,
		Formula:       Forward,
	}
}

// Newton solves r(x) = 0 with Newton's method and a finite-difference
// Jacobian. A Newton value is not safe for concurrent use; its statistics
// describe the most recent FindRoot call.
type Newton struct {
	cfg         Config
	iterations  int
	evaluations int
}

// NewNewton returns a solver; zero or negative fields of cfg take their
// defaults.
func NewNewton(cfg Config) *Newton {
	if cfg.AbsTol <= 0 {
		cfg.AbsTol = DefaultAbsTol
	}
	if cfg.StepTol <= 0 {
		cfg.StepTol = DefaultStepTol
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Newton{cfg: cfg}
}

func (n *Newton) Config() Config { return n.cfg }

// Iterations is the number of Newton updates taken by the last solve.
func (n *Newton) Iterations() int { return n.iterations }

// Evaluations is the number of residual evaluations made by the last solve,
// including those spent on the Jacobian.
func (n *Newton) Evaluations() int { return n.evaluations }

func (n *Newton) FindRoot(r dynamo.Residual, guess dynamo.State) (dynamo.State, error) {
	dim := r.Dim()
	if len(guess) != dim {
		return nil, fmt.Errorf("%w: guess has %d entries, residual expects %d", dynamo.ErrDimensionMismatch, len(guess), dim)
	}
	n.iterations, n.evaluations = 0, 0

	x := guess.Clone()
	res := make(dynamo.State, dim)
	if err := n.eval(r, res, x); err != nil {
		return nil, err
	}

	var evalErr error
	f := func(y, xx []float64) {
		if evalErr != nil {
			return
		}
		evalErr = n.eval(r, y, xx)
	}
	settings := &fd.JacobianSettings{Formula: fd.Forward}
	if n.cfg.Formula == Central {
		settings.Formula = fd.Central
	}

	jac := mat.NewDense(dim, dim, nil)
	step := mat.NewVecDense(dim, nil)
	var lu mat.LU

	for iter := 0; iter < n.cfg.MaxIterations; iter++ {
		resNorm := floats.Norm(res, math.Inf(1))
		if resNorm <= n.cfg.AbsTol {
			return x, nil
		}

		if n.cfg.Formula == Forward {
			settings.OriginValue = res
		}
		fd.Jacobian(jac, f, x, settings)
		if evalErr != nil {
			return nil, evalErr
		}

		lu.Factorize(jac)
		if err := lu.SolveVecTo(step, false, mat.NewVecDense(dim, res)); err != nil && !wellConditioned(err) {
			return nil, &dynamo.NonConvergenceError{Iterations: iter, ResidualNorm: resNorm, Last: x.Clone()}
		}
		dx := step.RawVector().Data
		if !dynamo.State(dx).IsValid() {
			return nil, &dynamo.NonConvergenceError{Iterations: iter, ResidualNorm: resNorm, Last: x.Clone()}
		}

		floats.Sub(x, dx)
		n.iterations = iter + 1
		if err := n.eval(r, res, x); err != nil {
			return nil, err
		}

		small := floats.Norm(dx, math.Inf(1)) <= n.cfg.StepTol*(1+floats.Norm(x, math.Inf(1)))
		if small && res.IsValid() && floats.Norm(res, math.Inf(1)) <= math.Sqrt(n.cfg.AbsTol) {
			return x, nil
		}
	}

	resNorm := floats.Norm(res, math.Inf(1))
	if resNorm <= n.cfg.AbsTol {
		return x, nil
	}
	return nil, &dynamo.NonConvergenceError{Iterations: n.iterations, ResidualNorm: resNorm, Last: x}
}

func (n *Newton) eval(r dynamo.Residual, dst, x dynamo.State) error {
	n.evaluations++
	return r.Eval(dst, x)
}

// wellConditioned reports whether a solve error is only a finite condition
// number warning.
func wellConditioned(err error) bool {
	var cond mat.Condition
	if !errors.As(err, &cond) {
		return false
	}
	return !math.IsInf(float64(cond), 0) && !math.IsNaN(float64(cond))
}
