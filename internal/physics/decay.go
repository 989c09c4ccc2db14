package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/timemarch/internal/dynamo"
)

// Decay is dx/dt = -Rate*x applied independently to every interior cell.
type Decay struct {
	Rate float64
}

func NewDecay(rate float64) *Decay {
	return &Decay{Rate: rate}
}

func (d *Decay) Derive(x dynamo.State) (dynamo.State, error) {
	if len(x) < dynamo.GhostCells+1 {
		return nil, fmt.Errorf("%w: decay needs at least one interior cell", dynamo.ErrDimensionMismatch)
	}
	dx := make(dynamo.State, len(x))
	for i := 1; i < len(x)-1; i++ {
		dx[i] = -d.Rate * x[i]
	}
	return dx, nil
}

// Exact returns the analytic solution x0*exp(-Rate*t).
func (d *Decay) Exact(x0, t float64) float64 {
	return x0 * math.Exp(-d.Rate*t)
}

func (d *Decay) Params() map[string]float64 {
	return map[string]float64{"rate": d.Rate}
}

func (d *Decay) SetParam(n string, v float64) error {
	switch n {
	case "rate", "k":
		d.Rate = v
	default:
		return fmt.Errorf("decay: unknown parameter %q", n)
	}
	return nil
}
