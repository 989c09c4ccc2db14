// Package automation runs batches of configured integrations: scripted
// scenarios loaded from YAML and one-dimensional parameter sweeps.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/timemarch/internal/config"
	"github.com/san-kum/timemarch/internal/experiment"
	"github.com/san-kum/timemarch/internal/storage"
)

// Scenario is a named sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Runs        []ScenarioStep `yaml:"-"`
}

// ScenarioStep is one run of a scenario. Config starts from the named
// preset, or from the defaults, with the fields given in the file on top.
type ScenarioStep struct {
	Name   string
	Preset string
	Config *config.Config
}

type scenarioFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Runs        []yaml.Node `yaml:"runs"`
}

type stepHeader struct {
	Name   string `yaml:"name"`
	Preset string `yaml:"preset"`
	System string `yaml:"system"`
}

// ParseScenario decodes a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Runs) == 0 {
		return nil, errors.New("scenario has no runs")
	}

	sc := &Scenario{Name: file.Name, Description: file.Description}
	for i := range file.Runs {
		node := &file.Runs[i]

		var head stepHeader
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}

		cfg := config.DefaultConfig()
		if head.Preset != "" {
			cfg = config.GetPreset(head.System, head.Preset)
			if cfg == nil {
				return nil, fmt.Errorf("run %d: unknown preset %s/%s", i+1, head.System, head.Preset)
			}
		}
		if err := node.Decode(cfg); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}

		name := head.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", cfg.System, i+1)
		}
		sc.Runs = append(sc.Runs, ScenarioStep{Name: name, Preset: head.Preset, Config: cfg})
	}
	return sc, nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sc, nil
}

// StepResult pairs a scenario step with its outcome. RunID is empty when the
// run was not stored.
type StepResult struct {
	Name   string
	RunID  string
	Result *experiment.Result
}

// RunScenario executes the steps in order and stops at the first failure.
// Each successful run is saved to st unless st is nil.
func RunScenario(ctx context.Context, sc *Scenario, registry *experiment.Registry, st *storage.Store, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	results := make([]StepResult, 0, len(sc.Runs))

	for i, step := range sc.Runs {
		logger.Info("scenario step", "scenario", sc.Name, "step", i+1, "of", len(sc.Runs), "name", step.Name)

		res, err := experiment.New(step.Config, registry, logger).Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}

		out := StepResult{Name: step.Name, Result: res}
		if st != nil {
			out.RunID, err = st.Save(storage.RunMetadata{
				System:           step.Config.System,
				Scheme:           res.Scheme.String(),
				Boundary:         step.Config.Boundary.Kind,
				Params:           step.Config.SystemParams(),
				Steps:            res.Steps,
				BoundaryCalls:    res.BoundaryCalls,
				SolverIterations: res.SolverIterations,
				Metrics:          res.Metrics,
			}, res.Trajectory)
			if err != nil {
				return results, fmt.Errorf("step %d (%s) save: %w", i+1, step.Name, err)
			}
		}
		results = append(results, out)
	}

	return results, nil
}

// ParameterSweep varies one knob of a base configuration over a uniform
// range. Param is "steps", "nodes" or the name of a system parameter.
type ParameterSweep struct {
	Param    string
	Min, Max float64
	Points   int
	// MaxGrowth bounds the final-to-initial norm ratio of a stable run.
	// Zero means 1.
	MaxGrowth float64
}

type SweepResult struct {
	Value  float64
	Growth float64
	Peak   float64
	Stable bool
	Err    error
}

// RunSweep integrates base once per sweep value. A failing run is recorded
// as unstable rather than aborting the sweep; only a canceled context stops
// it early.
func RunSweep(ctx context.Context, base *config.Config, registry *experiment.Registry, sweep ParameterSweep) ([]SweepResult, error) {
	if sweep.Points < 2 {
		return nil, fmt.Errorf("sweep needs at least two points, got %d", sweep.Points)
	}
	if sweep.Param != "steps" && sweep.Param != "nodes" {
		if _, err := registry.GetSystem(base.System, map[string]float64{sweep.Param: sweep.Min}); err != nil {
			return nil, fmt.Errorf("sweep parameter: %w", err)
		}
	}
	maxGrowth := sweep.MaxGrowth
	if maxGrowth == 0 {
		maxGrowth = 1
	}

	results := make([]SweepResult, 0, sweep.Points)
	step := (sweep.Max - sweep.Min) / float64(sweep.Points-1)

	for i := 0; i < sweep.Points; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		value := sweep.Min + float64(i)*step

		cfg := base.Clone()
		switch sweep.Param {
		case "steps":
			cfg.Grid.Times = nil
			cfg.Grid.Steps = int(math.Round(value))
		case "nodes":
			cfg.Initial.Values = nil
			cfg.Nodes = int(math.Round(value))
		default:
			if cfg.Params == nil {
				cfg.Params = map[string]float64{}
			}
			cfg.Params[sweep.Param] = value
		}

		point := SweepResult{Value: value}
		res, err := experiment.New(cfg, registry, nil).Run(ctx)
		switch {
		case err != nil:
			point.Err = err
		default:
			point.Growth = res.Metrics["growth"]
			point.Peak = res.Metrics["peak"]
			point.Stable = res.Metrics["stability"] == 1 && point.Growth <= maxGrowth
		}
		results = append(results, point)
	}

	return results, nil
}
