package metrics

import (
	"math"

	"github.com/san-kum/timemarch/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// MassDrift tracks the largest relative change of the discrete integral
// sum(u)*dx from its initial value. Conservative problems with periodic
// boundaries should keep it near zero.
type MassDrift struct {
	dx       float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassDrift(dx float64) *MassDrift {
	return &MassDrift{dx: dx}
}

func (m *MassDrift) Name() string { return "mass_drift" }

func (m *MassDrift) Observe(row dynamo.State, t float64) {
	mass := floats.Sum(row.Interior()) * m.dx
	if m.samples == 0 {
		m.initial = mass
	}
	m.samples++

	drift := math.Abs(mass - m.initial)
	if m.initial != 0 {
		drift /= math.Abs(m.initial)
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial, m.maxDrift, m.samples = 0, 0, 0
}
