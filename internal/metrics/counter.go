package metrics

import "sync/atomic"

// StepCounter counts completed steps. Pass Inc to
// integrators.WithStepCounter.
type StepCounter struct {
	n atomic.Int64
}

func NewStepCounter() *StepCounter { return &StepCounter{} }

func (c *StepCounter) Inc() { c.n.Add(1) }

func (c *StepCounter) Value() int64 { return c.n.Load() }

func (c *StepCounter) Reset() { c.n.Store(0) }
