// Package integrators implements the one-step time-marching schemes.
//
// A [Scheme] names one of three formulas; [Select] turns it into an
// [Executor] that marches an extended state through a time grid:
//
//	exec, err := integrators.Select(integrators.BackwardEuler)
//	traj, err := exec.Integrate(ctx, sys, phi0, times, bc)
package integrators

import (
	"fmt"
	"strings"

	"github.com/san-kum/timemarch/internal/dynamo"
)

// Scheme is the closed set of supported one-step formulas.
type Scheme int

const (
	// ForwardEuler is the explicit update x₊ = x + dt·f(x).
	ForwardEuler Scheme = iota
	// BackwardEuler solves x₊ − x − dt·f(x₊) = 0.
	BackwardEuler
	// CrankNicolson solves (x₊ − x)/dt − ½(f(x) + f(x₊)) = 0.
	CrankNicolson
)

var schemeNames = [...]string{
	ForwardEuler:  "forward-euler",
	BackwardEuler: "backward-euler",
	CrankNicolson: "crank-nicolson",
}

var schemeAliases = map[string]Scheme{
	"forward-euler":  ForwardEuler,
	"fe":             ForwardEuler,
	"euler":          ForwardEuler,
	"explicit":       ForwardEuler,
	"backward-euler": BackwardEuler,
	"be":             BackwardEuler,
	"implicit":       BackwardEuler,
	"implicit-euler": BackwardEuler,
	"crank-nicolson": CrankNicolson,
	"cn":             CrankNicolson,
	"trapezoidal":    CrankNicolson,
	"trapezoid":      CrankNicolson,
}

func (s Scheme) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
	return schemeNames[s]
}

func (s Scheme) Valid() bool {
	return s >= ForwardEuler && s <= CrankNicolson
}

// Implicit reports whether the scheme needs a nonlinear solve per step.
func (s Scheme) Implicit() bool {
	return s == BackwardEuler || s == CrankNicolson
}

// Order is the global order of accuracy in time.
func (s Scheme) Order() int {
	if s == CrankNicolson {
		return 2
	}
	return 1
}

// Schemes lists every supported scheme in declaration order.
func Schemes() []Scheme {
	return []Scheme{ForwardEuler, BackwardEuler, CrankNicolson}
}

// ParseScheme resolves a scheme name. Matching ignores case and treats
// spaces and underscores as hyphens, so "Crank Nicolson" and
// "crank_nicolson" both resolve.
func ParseScheme(name string) (Scheme, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)
	s, ok := schemeAliases[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownScheme, name)
	}
	return s, nil
}

// Select returns the executor for s.
func Select(s Scheme, opts ...Option) (*Executor, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrUnknownScheme, s)
	}
	return &Executor{scheme: s, opts: gatherOptions(opts)}, nil
}

// SelectByName combines ParseScheme and Select.
func SelectByName(name string, opts ...Option) (*Executor, error) {
	s, err := ParseScheme(name)
	if err != nil {
		return nil, err
	}
	return Select(s, opts...)
}

func NewForwardEuler(opts ...Option) *Executor {
	return &Executor{scheme: ForwardEuler, opts: gatherOptions(opts)}
}

func NewBackwardEuler(opts ...Option) *Executor {
	return &Executor{scheme: BackwardEuler, opts: gatherOptions(opts)}
}

func NewCrankNicolson(opts ...Option) *Executor {
	return &Executor{scheme: CrankNicolson, opts: gatherOptions(opts)}
}
