package dynamo

import (
	"gonum.org/v1/gonum/mat"
)

// Trajectory is the time-by-state record of one integration: row i holds the
// extended state at Times()[i].
type Trajectory struct {
	times []float64
	data  *mat.Dense
	n     int
}

// NewTrajectory allocates a zeroed len(times)×(n+2) trajectory. The grid is
// copied.
func NewTrajectory(times []float64, n int) *Trajectory {
	t := make([]float64, len(times))
	copy(t, times)
	return &Trajectory{
		times: t,
		data:  mat.NewDense(len(times), n+GhostCells, nil),
		n:     n,
	}
}

func (t *Trajectory) Rows() int { return len(t.times) }

func (t *Trajectory) Cols() int { return t.n + GhostCells }

// N is the number of physical unknowns per row.
func (t *Trajectory) N() int { return t.n }

func (t *Trajectory) Times() []float64 { return t.times }

// Row returns row i as an extended state aliasing the trajectory storage.
func (t *Trajectory) Row(i int) State {
	return State(t.data.RawRowView(i))
}

// Interior returns a copy of the physical unknowns of row i.
func (t *Trajectory) Interior(i int) State {
	return t.Row(i).Interior().Clone()
}

// Final returns a copy of the last extended row.
func (t *Trajectory) Final() State {
	return t.Row(len(t.times) - 1).Clone()
}

func (t *Trajectory) At(i, j int) float64 { return t.data.At(i, j) }

// Column returns a copy of column j across all rows.
func (t *Trajectory) Column(j int) []float64 {
	return mat.Col(nil, j, t.data)
}

// Matrix exposes the dense backing store read-only.
func (t *Trajectory) Matrix() mat.Matrix { return t.data }

// Equal reports whether both trajectories share a grid and hold identical values.
func (t *Trajectory) Equal(o *Trajectory) bool {
	if o == nil || len(t.times) != len(o.times) || t.n != o.n {
		return false
	}
	for i := range t.times {
		if t.times[i] != o.times[i] {
			return false
		}
	}
	return mat.Equal(t.data, o.data)
}

// EqualApprox is Equal with an absolute tolerance on the entries.
func (t *Trajectory) EqualApprox(o *Trajectory, tol float64) bool {
	if o == nil || len(t.times) != len(o.times) || t.n != o.n {
		return false
	}
	return mat.EqualApprox(t.data, o.data, tol)
}

// States returns a copy of every row.
func (t *Trajectory) States() []State {
	rows := make([]State, len(t.times))
	for i := range rows {
		rows[i] = t.Row(i).Clone()
	}
	return rows
}

// FromStates rebuilds a trajectory from stored rows. Each row must be an
// extended state of the same length.
func FromStates(times []float64, rows []State) (*Trajectory, error) {
	if len(times) != len(rows) || len(rows) == 0 {
		return nil, ErrDimensionMismatch
	}
	cols := len(rows[0])
	if cols < GhostCells+1 {
		return nil, ErrDimensionMismatch
	}
	t := NewTrajectory(times, cols-GhostCells)
	for i, r := range rows {
		if len(r) != cols {
			return nil, ErrDimensionMismatch
		}
		t.data.SetRow(i, r)
	}
	return t, nil
}
