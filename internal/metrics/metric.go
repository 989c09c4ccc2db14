// Package metrics provides run diagnostics: trajectory metrics, the step
// counter and Prometheus instrumentation.
package metrics

import "github.com/san-kum/timemarch/internal/dynamo"

// Metric accumulates a scalar over the rows of a trajectory.
type Metric interface {
	Name() string
	Observe(row dynamo.State, t float64)
	Value() float64
	Reset()
}

// Evaluate resets each metric, feeds it every row of traj and returns the
// values by name.
func Evaluate(traj *dynamo.Trajectory, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	times := traj.Times()
	for _, m := range ms {
		m.Reset()
		for i := 0; i < traj.Rows(); i++ {
			m.Observe(traj.Row(i), times[i])
		}
		out[m.Name()] = m.Value()
	}
	return out
}

// Default returns the metrics reported for every run.
func Default(dx float64) []Metric {
	return []Metric{NewPeak(), NewGrowth(), NewMassDrift(dx), NewStability(1e6)}
}
