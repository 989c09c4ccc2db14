package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/timemarch/internal/dynamo"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	System           string             `json:"system"`
	Scheme           string             `json:"scheme"`
	Boundary         string             `json:"boundary"`
	Timestamp        time.Time          `json:"timestamp"`
	Nodes            int                `json:"nodes"`
	Points           int                `json:"points"`
	Start            float64            `json:"start"`
	End              float64            `json:"end"`
	Params           map[string]float64 `json:"params,omitempty"`
	Steps            int64              `json:"steps"`
	BoundaryCalls    int                `json:"boundary_calls"`
	SolverIterations int                `json:"solver_iterations"`
	Metrics          Metrics            `json:"metrics"`
}

// Save writes meta and the trajectory to a fresh run directory. ID,
// Timestamp and the grid fields of meta are filled in from the trajectory.
// A failed write removes the run directory.
func (s *Store) Save(meta RunMetadata, traj *dynamo.Trajectory) (id string, err error) {
	if traj == nil {
		return "", errors.New("storage: nil trajectory")
	}
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%s_%d", meta.System, meta.Scheme, now.UnixNano())
	meta.Timestamp = now
	meta.Nodes = traj.N()
	meta.Points = traj.Rows()
	times := traj.Times()
	meta.Start, meta.End = times[0], times[len(times)-1]

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), traj); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Header names the columns: time, the left ghost g0, the interior cells
// x1..xN and the right ghost g{N+1}.
func Header(n int) []string {
	header := make([]string, 0, n+3)
	header = append(header, "time", "g0")
	for i := 1; i <= n; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	return append(header, fmt.Sprintf("g%d", n+1))
}

func writeTrajectory(path string, traj *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header(traj.N())); err != nil {
		return err
	}

	times := traj.Times()
	record := make([]string, traj.Cols()+1)
	for i := range times {
		record[0] = strconv.FormatFloat(times[i], 'g', -1, 64)
		for j, v := range traj.Row(i) {
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("run %s: %w: no rows", runID, dynamo.ErrInvalidGrid)
	}

	times := make([]float64, 0, len(records)-1)
	rows := make([]dynamo.State, 0, len(records)-1)
	for line, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
			}
			values[j] = v
		}
		times = append(times, values[0])
		rows = append(rows, values[1:])
	}

	return dynamo.FromStates(times, rows)
}

// Delete removes a run directory.
func (s *Store) Delete(runID string) error {
	dir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
