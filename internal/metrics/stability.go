package metrics

import (
	"math"

	"github.com/san-kum/timemarch/internal/dynamo"
)

// Stability is the fraction of rows whose interior stays finite and below
// threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(row dynamo.State, t float64) {
	s.samples++
	for _, val := range row.Interior() {
		if math.IsNaN(val) || math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Peak is the largest interior magnitude seen.
type Peak struct {
	peak float64
}

func NewPeak() *Peak { return &Peak{} }

func (p *Peak) Name() string { return "peak" }

func (p *Peak) Observe(row dynamo.State, t float64) {
	p.peak = math.Max(p.peak, row.Interior().MaxAbs())
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() { p.peak = 0 }

// Growth is the ratio of the final to the initial interior 2-norm. Values
// above one on a dissipative problem point at an unstable step size.
type Growth struct {
	initial, current float64
	samples          int
}

func NewGrowth() *Growth { return &Growth{} }

func (g *Growth) Name() string { return "growth" }

func (g *Growth) Observe(row dynamo.State, t float64) {
	n := row.Interior().Norm()
	if g.samples == 0 {
		g.initial = n
	}
	g.current = n
	g.samples++
}

func (g *Growth) Value() float64 {
	if g.initial == 0 {
		return 0
	}
	return g.current / g.initial
}

func (g *Growth) Reset() {
	g.initial, g.current, g.samples = 0, 0, 0
}
