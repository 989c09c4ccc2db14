package physics

import (
	"fmt"
	"sync/atomic"

	"github.com/san-kum/timemarch/internal/dynamo"
)

func checkExtended(x dynamo.State) error {
	if len(x) < dynamo.GhostCells+1 {
		return fmt.Errorf("%w: extended state of length %d has no interior", dynamo.ErrDimensionMismatch, len(x))
	}
	return nil
}

// Dirichlet fixes both ghost cells to prescribed values.
type Dirichlet struct {
	Left, Right float64
}

func (d Dirichlet) Apply(x dynamo.State) error {
	if err := checkExtended(x); err != nil {
		return err
	}
	x[0], x[len(x)-1] = d.Left, d.Right
	return nil
}

func (d *Dirichlet) Params() map[string]float64 {
	return map[string]float64{"left": d.Left, "right": d.Right}
}

func (d *Dirichlet) SetParam(n string, v float64) error {
	switch n {
	case "left":
		d.Left = v
	case "right":
		d.Right = v
	default:
		return fmt.Errorf("dirichlet: unknown parameter %q", n)
	}
	return nil
}

// Neumann prescribes the outward derivative at each edge: the ghost cell is
// the adjacent interior value shifted by flux*Dx.
type Neumann struct {
	Left, Right, Dx float64
}

func (n Neumann) Apply(x dynamo.State) error {
	if err := checkExtended(x); err != nil {
		return err
	}
	last := len(x) - 1
	x[0] = x[1] + n.Left*n.Dx
	x[last] = x[last-1] + n.Right*n.Dx
	return nil
}

func (n *Neumann) Params() map[string]float64 {
	return map[string]float64{"left": n.Left, "right": n.Right, "dx": n.Dx}
}

func (n *Neumann) SetParam(name string, v float64) error {
	switch name {
	case "left":
		n.Left = v
	case "right":
		n.Right = v
	case "dx":
		n.Dx = v
	default:
		return fmt.Errorf("neumann: unknown parameter %q", name)
	}
	return nil
}

// Periodic wraps the domain: each ghost cell copies the interior cell at the
// opposite edge.
type Periodic struct{}

func (Periodic) Apply(x dynamo.State) error {
	if err := checkExtended(x); err != nil {
		return err
	}
	last := len(x) - 1
	x[0], x[last] = x[last-1], x[1]
	return nil
}

// Counting records how many times the wrapped boundary was applied.
type Counting struct {
	dynamo.Boundary
	calls atomic.Int64
}

func NewCounting(b dynamo.Boundary) *Counting {
	return &Counting{Boundary: b}
}

func (c *Counting) Apply(x dynamo.State) error {
	c.calls.Add(1)
	return c.Boundary.Apply(x)
}

func (c *Counting) Calls() int { return int(c.calls.Load()) }
