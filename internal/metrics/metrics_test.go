package metrics

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/timemarch/internal/dynamo"
	"github.com/san-kum/timemarch/internal/integrators"
	"github.com/san-kum/timemarch/internal/physics"
)

func trajectory(t *testing.T, rows ...dynamo.State) *dynamo.Trajectory {
	t.Helper()
	times := make([]float64, len(rows))
	for i := range times {
		times[i] = float64(i)
	}
	traj, err := dynamo.FromStates(times, rows)
	if err != nil {
		t.Fatalf("FromStates failed: %v", err)
	}
	return traj
}

func TestEvaluate(t *testing.T) {
	traj := trajectory(t,
		dynamo.State{0, 3, 4, 0},
		dynamo.State{0, 1.5, 2, 0},
		dynamo.State{9, 0.3, 0.4, 9},
	)

	got := Evaluate(traj, Default(0.5)...)

	if got["peak"] != 4 {
		t.Errorf("peak = %v, want 4", got["peak"])
	}
	if math.Abs(got["growth"]-0.1) > 1e-12 {
		t.Errorf("growth = %v, want 0.1", got["growth"])
	}
	if math.Abs(got["mass_drift"]-0.9) > 1e-12 {
		t.Errorf("mass_drift = %v, want 0.9", got["mass_drift"])
	}
	if got["stability"] != 1 {
		t.Errorf("stability = %v, want 1", got["stability"])
	}
}

func TestStability_Violations(t *testing.T) {
	traj := trajectory(t,
		dynamo.State{0, 1, 0},
		dynamo.State{0, 1e9, 0},
		dynamo.State{0, math.NaN(), 0},
		dynamo.State{0, 2, 0},
	)
	got := Evaluate(traj, NewStability(1e6))
	if got["stability"] != 0.5 {
		t.Errorf("stability = %v, want 0.5", got["stability"])
	}
}

func TestEvaluate_ResetsBetweenRuns(t *testing.T) {
	p := NewPeak()
	Evaluate(trajectory(t, dynamo.State{0, 10, 0}, dynamo.State{0, 1, 0}), p)
	got := Evaluate(trajectory(t, dynamo.State{0, 2, 0}, dynamo.State{0, 1, 0}), p)
	if got["peak"] != 2 {
		t.Errorf("peak = %v, want 2 after reset", got["peak"])
	}
}

func TestStepCounter(t *testing.T) {
	c := NewStepCounter()
	for i := 0; i < 5; i++ {
		c.Inc()
	}
	if c.Value() != 5 {
		t.Errorf("Value = %d, want 5", c.Value())
	}
	c.Reset()
	if c.Value() != 0 {
		t.Errorf("Value after reset = %d", c.Value())
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	exec := integrators.NewBackwardEuler(integrators.WithObserver(rec))

	start := time.Now()
	_, err := exec.Integrate(context.Background(), physics.NewDecay(1), dynamo.State{1}, dynamo.UniformGrid(0, 1, 4), physics.Dirichlet{})
	rec.ObserveRun(integrators.BackwardEuler, time.Since(start), err)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	rec.ObserveRun(integrators.BackwardEuler, time.Millisecond, errors.New("failed"))

	if got := testutil.ToFloat64(rec.steps.WithLabelValues("backward-euler")); got != 4 {
		t.Errorf("steps = %v, want 4", got)
	}
	if got := testutil.ToFloat64(rec.evaluations.WithLabelValues("backward-euler")); got < 4 {
		t.Errorf("evaluations = %v, want >= 4", got)
	}
	if got := testutil.ToFloat64(rec.failures.WithLabelValues("backward-euler")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timemarch_steps_total") {
		t.Error("textfile missing steps counter")
	}
}
