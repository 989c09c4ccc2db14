package physics

import (
	"fmt"

	"github.com/san-kum/timemarch/internal/dynamo"
)

// Heat implements the 1D diffusion equation u_t = alpha*u_xx using central
// finite differences. Edge cells read their outer neighbour from the ghost
// cells.
type Heat struct {
	Diffusivity, Dx float64
}

func NewHeat(diffusivity, dx float64) *Heat {
	return &Heat{Diffusivity: diffusivity, Dx: dx}
}

func (h *Heat) Derive(s dynamo.State) (dynamo.State, error) {
	if len(s) < dynamo.GhostCells+1 {
		return nil, fmt.Errorf("%w: heat needs at least one interior cell", dynamo.ErrDimensionMismatch)
	}
	if h.Dx <= 0 {
		return nil, fmt.Errorf("heat: dx must be positive, got %g", h.Dx)
	}
	dx, c := make(dynamo.State, len(s)), h.Diffusivity/(h.Dx*h.Dx)
	for i := 1; i < len(s)-1; i++ {
		dx[i] = c * (s[i-1] - 2*s[i] + s[i+1])
	}
	return dx, nil
}

// StableDt is the largest forward Euler step that keeps the scheme stable.
func (h *Heat) StableDt() float64 {
	if h.Diffusivity <= 0 {
		return 0
	}
	return h.Dx * h.Dx / (2 * h.Diffusivity)
}

func (h *Heat) Params() map[string]float64 {
	return map[string]float64{"diffusivity": h.Diffusivity, "dx": h.Dx}
}

func (h *Heat) SetParam(n string, v float64) error {
	switch n {
	case "diffusivity", "alpha":
		h.Diffusivity = v
	case "dx":
		h.Dx = v
	default:
		return fmt.Errorf("heat: unknown parameter %q", n)
	}
	return nil
}

// Advection implements u_t + c*u_x = 0 with first-order upwinding. The
// upwind side follows the sign of Speed.
type Advection struct {
	Speed, Dx float64
}

func NewAdvection(speed, dx float64) *Advection {
	return &Advection{Speed: speed, Dx: dx}
}

func (a *Advection) Derive(s dynamo.State) (dynamo.State, error) {
	if len(s) < dynamo.GhostCells+1 {
		return nil, fmt.Errorf("%w: advection needs at least one interior cell", dynamo.ErrDimensionMismatch)
	}
	if a.Dx <= 0 {
		return nil, fmt.Errorf("advection: dx must be positive, got %g", a.Dx)
	}
	dx, c := make(dynamo.State, len(s)), a.Speed/a.Dx
	for i := 1; i < len(s)-1; i++ {
		if a.Speed >= 0 {
			dx[i] = -c * (s[i] - s[i-1])
		} else {
			dx[i] = -c * (s[i+1] - s[i])
		}
	}
	return dx, nil
}

func (a *Advection) Params() map[string]float64 {
	return map[string]float64{"speed": a.Speed, "dx": a.Dx}
}

func (a *Advection) SetParam(n string, v float64) error {
	switch n {
	case "speed", "c":
		a.Speed = v
	case "dx":
		a.Dx = v
	default:
		return fmt.Errorf("advection: unknown parameter %q", n)
	}
	return nil
}
