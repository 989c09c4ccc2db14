package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/timemarch/internal/dynamo"
	"github.com/san-kum/timemarch/internal/physics"
)

// sharedSpacing is filled in for every system and boundary from the cell
// count, whether or not the target uses it.
const sharedSpacing = "dx"

type Registry struct {
	systems    map[string]func() dynamo.System
	boundaries map[string]func() dynamo.Boundary
}

func NewRegistry() *Registry {
	r := &Registry{
		systems:    make(map[string]func() dynamo.System),
		boundaries: make(map[string]func() dynamo.Boundary),
	}

	r.systems["decay"] = func() dynamo.System { return physics.NewDecay(1) }
	r.systems["heat"] = func() dynamo.System { return physics.NewHeat(0.01, 1) }
	r.systems["advection"] = func() dynamo.System { return physics.NewAdvection(1, 1) }
	r.systems["burgers"] = func() dynamo.System { return physics.NewBurgers(0.01, 1) }

	r.boundaries["dirichlet"] = func() dynamo.Boundary { return &physics.Dirichlet{} }
	r.boundaries["neumann"] = func() dynamo.Boundary { return &physics.Neumann{Dx: 1} }
	r.boundaries["periodic"] = func() dynamo.Boundary { return physics.Periodic{} }

	return r
}

// GetSystem builds the named system and applies params to it. The shared
// "dx" key is skipped by systems without a grid spacing; any other unknown
// name is an error.
func (r *Registry) GetSystem(name string, params map[string]float64) (dynamo.System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return nil, fmt.Errorf("unknown system: %s", name)
	}
	sys := fn()
	if err := configure(sys, params); err != nil {
		return nil, fmt.Errorf("system %s: %w", name, err)
	}
	return sys, nil
}

func (r *Registry) GetBoundary(kind string, params map[string]float64) (dynamo.Boundary, error) {
	fn, ok := r.boundaries[kind]
	if !ok {
		return nil, fmt.Errorf("unknown boundary: %s", kind)
	}
	bc := fn()
	if err := configure(bc, params); err != nil {
		return nil, fmt.Errorf("boundary %s: %w", kind, err)
	}
	return bc, nil
}

func configure(target any, params map[string]float64) error {
	c, ok := target.(dynamo.Configurable)
	if !ok {
		return nil
	}
	known := c.Params()
	for name, v := range params {
		if _, ok := known[name]; !ok {
			if name == sharedSpacing {
				continue
			}
			return fmt.Errorf("unknown parameter %q (known: %v)", name, sortedKeys(known))
		}
		if err := c.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) ListSystems() []string {
	return sortedKeys(r.systems)
}

func (r *Registry) ListBoundaries() []string {
	return sortedKeys(r.boundaries)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
