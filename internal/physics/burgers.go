package physics

import (
	"fmt"

	"github.com/san-kum/timemarch/internal/dynamo"
)

// Burgers is the viscous Burgers equation u_t + u*u_x = nu*u_xx, discretized
// with central differences. The convective term makes it a useful nonlinear
// test for the implicit schemes.
type Burgers struct {
	Viscosity, Dx float64
}

func NewBurgers(viscosity, dx float64) *Burgers {
	return &Burgers{Viscosity: viscosity, Dx: dx}
}

func (b *Burgers) Derive(s dynamo.State) (dynamo.State, error) {
	if len(s) < dynamo.GhostCells+1 {
		return nil, fmt.Errorf("%w: burgers needs at least one interior cell", dynamo.ErrDimensionMismatch)
	}
	if b.Dx <= 0 {
		return nil, fmt.Errorf("burgers: dx must be positive, got %g", b.Dx)
	}
	dx := make(dynamo.State, len(s))
	h2 := b.Dx * b.Dx
	for i := 1; i < len(s)-1; i++ {
		conv := s[i] * (s[i+1] - s[i-1]) / (2 * b.Dx)
		diff := b.Viscosity * (s[i-1] - 2*s[i] + s[i+1]) / h2
		dx[i] = diff - conv
	}
	return dx, nil
}

func (b *Burgers) Params() map[string]float64 {
	return map[string]float64{"viscosity": b.Viscosity, "dx": b.Dx}
}

func (b *Burgers) SetParam(n string, v float64) error {
	switch n {
	case "viscosity", "nu":
		b.Viscosity = v
	case "dx":
		b.Dx = v
	default:
		return fmt.Errorf("burgers: unknown parameter %q", n)
	}
	return nil
}
