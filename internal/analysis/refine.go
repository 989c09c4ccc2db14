package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/timemarch/internal/config"
	"github.com/san-kum/timemarch/internal/dynamo"
	"github.com/san-kum/timemarch/internal/experiment"
	"github.com/san-kum/timemarch/internal/physics"
)

// Level is one entry of a refinement study.
type Level struct {
	Steps int
	Dt    float64
	Error float64
	// Order is the observed order against the previous coarser level, NaN on
	// the coarsest one.
	Order float64
}

// ExactFinal returns the analytic interior at cfg.Grid.End for problems that
// have one. Only decay qualifies.
func ExactFinal(cfg *config.Config, registry *experiment.Registry) (dynamo.State, bool) {
	sys, err := registry.GetSystem(cfg.System, cfg.SystemParams())
	if err != nil {
		return nil, false
	}
	decay, ok := sys.(*physics.Decay)
	if !ok {
		return nil, false
	}
	phi0, err := cfg.InitialState()
	if err != nil {
		return nil, false
	}
	out := make(dynamo.State, len(phi0))
	for i, x0 := range phi0 {
		out[i] = decay.Exact(x0, cfg.Grid.End-cfg.Grid.Start)
	}
	return out, true
}

// Refine integrates cfg on uniform grids with each step count and measures
// the max-norm error of the final interior against reference. With a nil
// reference the error is taken against a run with twice the finest step
// count. The runs execute concurrently.
func Refine(ctx context.Context, cfg *config.Config, registry *experiment.Registry, steps []int, reference dynamo.State) ([]Level, error) {
	if len(steps) < 2 {
		return nil, errors.New("refinement needs at least two step counts")
	}
	steps = append([]int(nil), steps...)
	sort.Ints(steps)
	if steps[0] < 1 {
		return nil, fmt.Errorf("%w: step counts must be positive", dynamo.ErrInvalidGrid)
	}

	counts := steps
	if reference == nil {
		counts = append(counts, 2*steps[len(steps)-1])
	}

	jobs := make([]dynamo.Job, len(counts))
	for i, n := range counts {
		c := cfg.Clone()
		c.Grid.Times = nil
		c.Grid.Steps = n
		jobs[i] = func(ctx context.Context) (*dynamo.Trajectory, error) {
			res, err := experiment.New(c, registry, nil).Run(ctx)
			if err != nil {
				return nil, err
			}
			return res.Trajectory, nil
		}
	}

	outcomes := dynamo.RunAll(ctx, jobs)
	for i, out := range outcomes {
		if out.Err != nil {
			return nil, fmt.Errorf("%d steps: %w", counts[i], out.Err)
		}
	}
	if reference == nil {
		reference = outcomes[len(outcomes)-1].Trajectory.Final().Interior()
	}

	span := cfg.Grid.End - cfg.Grid.Start
	levels := make([]Level, len(steps))
	for i, n := range steps {
		final := outcomes[i].Trajectory.Final().Interior()
		if len(final) != len(reference) {
			return nil, fmt.Errorf("%w: reference has %d cells, run has %d", dynamo.ErrDimensionMismatch, len(reference), len(final))
		}
		var e float64
		for j := range final {
			e = math.Max(e, math.Abs(final[j]-reference[j]))
		}
		levels[i] = Level{Steps: n, Dt: span / float64(n), Error: e, Order: math.NaN()}
		if i > 0 {
			prev := levels[i-1]
			levels[i].Order = math.Log(prev.Error/e) / math.Log(prev.Dt/levels[i].Dt)
		}
	}
	return levels, nil
}
