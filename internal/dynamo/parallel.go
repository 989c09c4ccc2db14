package dynamo

import (
	"context"
	"sync"
	"time"
)

// Job is one independent integration run.
type Job func(ctx context.Context) (*Trajectory, error)

// Outcome is the result of a Job.
type Outcome struct {
	Trajectory *Trajectory
	Err        error
	Elapsed    time.Duration
}

// RunAll executes independent jobs concurrently and returns their outcomes in
// job order. Each job marches its own grid sequentially; only whole runs
// overlap.
func RunAll(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			start := time.Now()
			traj, err := job(ctx)
			out[idx] = Outcome{Trajectory: traj, Err: err, Elapsed: time.Since(start)}
		}(i, job)
	}

	wg.Wait()
	return out
}
