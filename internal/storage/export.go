package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/timemarch/internal/dynamo"
)

type ExportData struct {
	System   string    `json:"system"`
	Scheme   string    `json:"scheme"`
	Boundary string    `json:"boundary"`
	Nodes    int       `json:"nodes"`
	Steps    int       `json:"steps"`
	Times    []float64 `json:"times"`
	States   []Values  `json:"states"`
	Metrics  Metrics   `json:"metrics,omitempty"`
}

// NewExport flattens a trajectory; States carries full rows including the
// ghost cells.
func NewExport(meta RunMetadata, traj *dynamo.Trajectory) ExportData {
	data := ExportData{
		System:   meta.System,
		Scheme:   meta.Scheme,
		Boundary: meta.Boundary,
		Nodes:    traj.N(),
		Steps:    traj.Rows() - 1,
		Times:    traj.Times(),
		States:   make([]Values, traj.Rows()),
		Metrics:  meta.Metrics,
	}
	for i := range data.States {
		data.States[i] = append(Values(nil), traj.Row(i)...)
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSON writes a stored run to path, or to stdout when path is empty.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	data := NewExport(*meta, traj)

	if path == "" {
		return WriteJSON(os.Stdout, data)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, data)
}
