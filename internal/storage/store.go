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

	"github.com/san-kum/psmsim/internal/config"
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/experiment"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	positionColumn = "t"
	derivativeCol  = "dx0"
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
	ID         string             `json:"id"`
	Equation   string             `json:"equation"`
	Method     string             `json:"method"`
	Timestamp  time.Time          `json:"timestamp"`
	Params     []float64          `json:"params"`
	X0         []float64          `json:"x0"`
	StateNames []string           `json:"state_names"`
	Steps      int                `json:"steps"`
	ElapsedMS  float64            `json:"elapsed_ms"`
	Failed     string             `json:"failed,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	Config     *config.Config     `json:"config"`
}

// Save writes a run directory holding metadata.json and trajectory.csv. A
// non-nil runErr marks the run as failed; its partial trajectory is kept.
func (s *Store) Save(res *experiment.Result, runErr error) (string, error) {
	if res == nil || res.Trajectory == nil {
		return "", errors.New("storage: nothing to save")
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", res.Equation, res.Method, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Equation:   res.Equation,
		Method:     res.Method,
		Timestamp:  now,
		Params:     res.Params,
		X0:         res.X0,
		StateNames: res.StateNames,
		Steps:      res.Trajectory.Len() - 1,
		ElapsedMS:  float64(res.Elapsed.Microseconds()) / 1000,
		Metrics:    res.Metrics,
		Config:     res.Config,
	}
	if runErr != nil {
		meta.Failed = runErr.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, trajectoryFile), res.Trajectory, res.StateNames, res.Derivative); err != nil {
		return "", err
	}
	return runID, nil
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, tr *dynamo.Trajectory[float64], names []string, derivative []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{positionColumn}
	for j := 0; j < tr.Dim(); j++ {
		if j < len(names) {
			header = append(header, names[j])
		} else {
			header = append(header, fmt.Sprintf("x%d", j))
		}
	}
	withDerivative := len(derivative) == tr.Len()
	if withDerivative {
		header = append(header, derivativeCol)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < tr.Len(); i++ {
		row := []string{formatFloat(tr.Positions[i])}
		for j := 0; j < tr.Dim(); j++ {
			row = append(row, formatFloat(tr.Values[j][i]))
		}
		if withDerivative {
			row = append(row, formatFloat(derivative[i]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("storage: no runs")
	}
	return runs[len(runs)-1].ID, nil
}

// LoadTrajectory reads a run's trajectory and, when it was recorded, the
// derivative of its primary variable.
func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory[float64], []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("storage: run %s has no samples", runID)
	}

	header := records[0]
	dim := len(header) - 1
	withDerivative := header[len(header)-1] == derivativeCol
	if withDerivative {
		dim--
	}

	var tr *dynamo.Trajectory[float64]
	var derivative []float64
	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: row %d column %d: %w", i+1, j, err)
			}
			row[j] = v
		}

		if tr == nil {
			tr = &dynamo.Trajectory[float64]{Values: make([][]float64, dim)}
		}
		tr.Append(row[0], row[1:1+dim])
		if withDerivative {
			derivative = append(derivative, row[1+dim])
		}
	}

	return tr, derivative, nil
}
