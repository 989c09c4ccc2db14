package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/timemarch/internal/dynamo"
	"github.com/san-kum/timemarch/internal/integrators"
	"github.com/san-kum/timemarch/internal/physics"
	"github.com/san-kum/timemarch/internal/solver"
)

const (
	DefaultSystem    = "heat"
	DefaultScheme    = "crank-nicolson"
	DefaultNodes     = 32
	DefaultStart     = 0.0
	DefaultEnd       = 1.0
	DefaultSteps     = 100
	DefaultProfile   = "sine"
	DefaultAmplitude = 1.0
	DefaultBoundary  = "dirichlet"
)

type Config struct {
	System   string             `yaml:"system"`
	Scheme   string             `yaml:"scheme"`
	Nodes    int                `yaml:"nodes"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	Grid     GridConfig         `yaml:"grid"`
	Initial  InitialConfig      `yaml:"initial"`
	Boundary BoundaryConfig     `yaml:"boundary"`
	Solver   SolverConfig       `yaml:"solver"`
}

// GridConfig describes the time grid. Explicit Times take precedence over
// the uniform Start/End/Steps description.
type GridConfig struct {
	Start float64   `yaml:"start"`
	End   float64   `yaml:"end"`
	Steps int       `yaml:"steps"`
	Times []float64 `yaml:"times,omitempty"`
}

// InitialConfig selects a named profile, or explicit Values which also fix
// the number of cells.
type InitialConfig struct {
	Profile   string    `yaml:"profile"`
	Amplitude float64   `yaml:"amplitude"`
	Values    []float64 `yaml:"values,omitempty"`
}

type BoundaryConfig struct {
	Kind  string  `yaml:"kind"`
	Left  float64 `yaml:"left"`
	Right float64 `yaml:"right"`
}

type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	StepTolerance float64 `yaml:"step_tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Jacobian      string  `yaml:"jacobian"`
}

func DefaultConfig() *Config {
	return &Config{
		System: DefaultSystem,
		Scheme: DefaultScheme,
		Nodes:  DefaultNodes,
		Params: map[string]float64{},
		Grid: GridConfig{
			Start: DefaultStart,
			End:   DefaultEnd,
			Steps: DefaultSteps,
		},
		Initial: InitialConfig{
			Profile:   DefaultProfile,
			Amplitude: DefaultAmplitude,
		},
		Boundary: BoundaryConfig{Kind: DefaultBoundary},
		Solver: SolverConfig{
			Tolerance:     solver.DefaultAbsTol,
			StepTolerance: solver.DefaultStepTol,
			MaxIterations: solver.DefaultMaxIterations,
			Jacobian:      solver.Forward.String(),
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base: fields the file names
// replace base's, params merge key by key, and base itself is untouched.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so presets can be adjusted safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Params = make(map[string]float64, len(c.Params))
	for k, v := range c.Params {
		out.Params[k] = v
	}
	out.Grid.Times = append([]float64(nil), c.Grid.Times...)
	out.Initial.Values = append([]float64(nil), c.Initial.Values...)
	return &out
}

// Validate checks everything that can be checked without building the
// system.
func (c *Config) Validate() error {
	if _, err := integrators.ParseScheme(c.Scheme); err != nil {
		return err
	}
	if c.N() < 1 {
		return fmt.Errorf("%w: nodes must be positive, got %d", dynamo.ErrDimensionMismatch, c.N())
	}
	if _, err := c.TimeGrid(); err != nil {
		return err
	}
	if len(c.Initial.Values) == 0 {
		if _, err := physics.Profile(c.Initial.Profile, c.N(), c.Initial.Amplitude); err != nil {
			return err
		}
	}
	if _, err := solver.ParseFormula(c.Solver.Jacobian); err != nil {
		return err
	}
	return nil
}

func (c *Config) SchemeValue() (integrators.Scheme, error) {
	return integrators.ParseScheme(c.Scheme)
}

// N is the number of interior cells.
func (c *Config) N() int {
	if len(c.Initial.Values) > 0 {
		return len(c.Initial.Values)
	}
	return c.Nodes
}

// Dx is the cell width on the unit interval.
func (c *Config) Dx() float64 {
	return physics.CellWidth(c.N())
}

func (c *Config) TimeGrid() ([]float64, error) {
	times := c.Grid.Times
	if len(times) == 0 {
		if c.Grid.Steps < 1 {
			return nil, fmt.Errorf("%w: steps must be positive, got %d", dynamo.ErrInvalidGrid, c.Grid.Steps)
		}
		times = dynamo.UniformGrid(c.Grid.Start, c.Grid.End, c.Grid.Steps)
	}
	if err := dynamo.ValidateGrid(times); err != nil {
		return nil, err
	}
	return append([]float64(nil), times...), nil
}

func (c *Config) InitialState() (dynamo.State, error) {
	if len(c.Initial.Values) > 0 {
		return dynamo.State(c.Initial.Values).Clone(), nil
	}
	return physics.Profile(c.Initial.Profile, c.N(), c.Initial.Amplitude)
}

// SystemParams returns the system parameters with dx filled in from the
// cell count unless set explicitly.
func (c *Config) SystemParams() map[string]float64 {
	params := map[string]float64{"dx": c.Dx()}
	for k, v := range c.Params {
		params[k] = v
	}
	return params
}

func (c *Config) BoundaryParams() map[string]float64 {
	return map[string]float64{
		"left":  c.Boundary.Left,
		"right": c.Boundary.Right,
		"dx":    c.Dx(),
	}
}

func (c *Config) SolverSettings() (solver.Config, error) {
	formula, err := solver.ParseFormula(c.Solver.Jacobian)
	if err != nil {
		return solver.Config{}, err
	}
	return solver.Config{
		AbsTol:        c.Solver.Tolerance,
		StepTol:       c.Solver.StepTolerance,
		MaxIterations: c.Solver.MaxIterations,
		Formula:       formula,
	}, nil
}
