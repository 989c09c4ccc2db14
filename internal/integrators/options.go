package integrators

import (
	"log/slog"

	"github.com/san-kum/timemarch/internal/dynamo"
)

// DefaultValidate enables dimension and finiteness checks on every
// right-hand-side evaluation.
const DefaultValidate = true

// StepInfo describes one completed step.
type StepInfo struct {
	Scheme Scheme
	// Step is the index of the row just produced (1..T-1).
	Step int
	Time float64
	Dt   float64
	// Evaluations counts right-hand-side calls spent on this step.
	Evaluations int
	// SolverIterations is reported by root finders exposing Iterations().
	SolverIterations int
}

// Observer is notified after every completed step.
type Observer interface {
	OnStep(info StepInfo)
}

// Option configures an Executor.
type Option func(*options)

type options struct {
	solver    dynamo.RootFinder
	onStep    func()
	observers []Observer
	logger    *slog.Logger
	validate  bool
}

func defaultOptions() options {
	return options{
		logger:   slog.New(slog.DiscardHandler),
		validate: DefaultValidate,
	}
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSolver sets the root finder used by the implicit schemes. Without it
// every Integrate call uses a fresh solver.Newton with default settings.
func WithSolver(s dynamo.RootFinder) Option {
	if s == nil {
		panic("integrators: WithSolver(nil)")
	}
	return func(o *options) { o.solver = s }
}

// WithStepCounter registers a callback invoked once per completed step.
func WithStepCounter(fn func()) Option {
	if fn == nil {
		panic("integrators: WithStepCounter(nil)")
	}
	return func(o *options) { o.onStep = fn }
}

func WithObserver(obs Observer) Option {
	if obs == nil {
		panic("integrators: WithObserver(nil)")
	}
	return func(o *options) { o.observers = append(o.observers, obs) }
}

func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("integrators: WithLogger(nil)")
	}
	return func(o *options) { o.logger = l }
}

// WithValidation toggles the per-evaluation finiteness check. Dimension
// checks always run.
func WithValidation(on bool) Option {
	return func(o *options) { o.validate = on }
}
