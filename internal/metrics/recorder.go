package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/timemarch/internal/integrators"
)

// Recorder exports integration work as Prometheus metrics labelled by scheme.
// It implements integrators.Observer.
type Recorder struct {
	registry    *prometheus.Registry
	steps       *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	iterations  *prometheus.HistogramVec
	duration    *prometheus.HistogramVec
	failures    *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timemarch_steps_total",
			Help: "Completed time steps",
		}, []string{"scheme"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timemarch_rhs_evaluations_total",
			Help: "Right-hand-side evaluations",
		}, []string{"scheme"}),
		iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timemarch_solver_iterations",
			Help:    "Root finder iterations per implicit step",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}, []string{"scheme"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timemarch_integrate_seconds",
			Help:    "Wall time of one Integrate call",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"scheme"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timemarch_failures_total",
			Help: "Integrations that ended with an error",
		}, []string{"scheme"}),
	}
	r.registry.MustRegister(r.steps, r.evaluations, r.iterations, r.duration, r.failures)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) OnStep(info integrators.StepInfo) {
	scheme := info.Scheme.String()
	r.steps.WithLabelValues(scheme).Inc()
	r.evaluations.WithLabelValues(scheme).Add(float64(info.Evaluations))
	if info.Scheme.Implicit() {
		r.iterations.WithLabelValues(scheme).Observe(float64(info.SolverIterations))
	}
}

// ObserveRun records the duration and outcome of one integration.
func (r *Recorder) ObserveRun(scheme integrators.Scheme, elapsed time.Duration, err error) {
	r.duration.WithLabelValues(scheme.String()).Observe(elapsed.Seconds())
	if err != nil {
		r.failures.WithLabelValues(scheme.String()).Inc()
	}
}

// WriteTextfile writes the current values in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
