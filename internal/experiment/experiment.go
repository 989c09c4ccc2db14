package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/timemarch/internal/config"
	"github.com/san-kum/timemarch/internal/dynamo"
	"github.com/san-kum/timemarch/internal/integrators"
	"github.com/san-kum/timemarch/internal/metrics"
	"github.com/san-kum/timemarch/internal/physics"
	"github.com/san-kum/timemarch/internal/solver"
)

// Result summarizes one configured run.
type Result struct {
	Scheme           integrators.Scheme
	Trajectory       *dynamo.Trajectory
	Steps            int64
	BoundaryCalls    int
	Evaluations      int
	SolverIterations int
	Metrics          map[string]float64
	Elapsed          time.Duration
}

// Experiment turns a run configuration into an integration.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *slog.Logger
	recorder *metrics.Recorder
}

func New(cfg *config.Config, registry *Registry, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Experiment{cfg: cfg, registry: registry, logger: logger}
}

// SetRecorder attaches Prometheus instrumentation to subsequent runs.
func (e *Experiment) SetRecorder(r *metrics.Recorder) {
	e.recorder = r
}

// tally sums per-step work.
type tally struct {
	evaluations, iterations int
}

func (t *tally) OnStep(info integrators.StepInfo) {
	t.evaluations += info.Evaluations
	t.iterations += info.SolverIterations
}

// Run integrates the configured problem. On failure the returned Result
// still carries the partial trajectory when one was allocated.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	scheme, err := e.cfg.SchemeValue()
	if err != nil {
		return nil, err
	}

	sys, err := e.registry.GetSystem(e.cfg.System, e.cfg.SystemParams())
	if err != nil {
		return nil, err
	}
	bc, err := e.registry.GetBoundary(e.cfg.Boundary.Kind, e.cfg.BoundaryParams())
	if err != nil {
		return nil, err
	}
	counting := physics.NewCounting(bc)

	phi0, err := e.cfg.InitialState()
	if err != nil {
		return nil, err
	}
	times, err := e.cfg.TimeGrid()
	if err != nil {
		return nil, err
	}
	settings, err := e.cfg.SolverSettings()
	if err != nil {
		return nil, err
	}

	counter := metrics.NewStepCounter()
	work := &tally{}
	opts := []integrators.Option{
		integrators.WithStepCounter(counter.Inc),
		integrators.WithObserver(work),
		integrators.WithLogger(e.logger),
		integrators.WithSolver(solver.NewNewton(settings)),
	}
	if e.recorder != nil {
		opts = append(opts, integrators.WithObserver(e.recorder))
	}
	exec, err := integrators.Select(scheme, opts...)
	if err != nil {
		return nil, err
	}

	e.logger.Info("run started", "system", e.cfg.System, "scheme", scheme.String(), "n", len(phi0), "points", len(times))

	start := time.Now()
	traj, err := exec.Integrate(ctx, sys, phi0, times, counting)
	elapsed := time.Since(start)
	if e.recorder != nil {
		e.recorder.ObserveRun(scheme, elapsed, err)
	}

	res := &Result{
		Scheme:           scheme,
		Trajectory:       traj,
		Steps:            counter.Value(),
		BoundaryCalls:    counting.Calls(),
		Evaluations:      work.evaluations,
		SolverIterations: work.iterations,
		Elapsed:          elapsed,
	}
	if traj != nil {
		res.Metrics = metrics.Evaluate(traj, metrics.Default(e.cfg.Dx())...)
	}
	if err != nil {
		e.logger.Error("run failed", "system", e.cfg.System, "scheme", scheme.String(), "err", err)
		return res, fmt.Errorf("%s/%s: %w", e.cfg.System, scheme, err)
	}

	e.logger.Info("run finished", "steps", res.Steps, "evaluations", res.Evaluations, "elapsed", elapsed)
	return res, nil
}
