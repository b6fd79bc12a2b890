package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/psmsim/internal/dynamo"
)

type ExportData struct {
	Equation   string             `json:"equation"`
	Method     string             `json:"method"`
	Params     []float64          `json:"params"`
	StateNames []string           `json:"state_names"`
	Steps      int                `json:"steps"`
	Positions  []float64          `json:"positions"`
	Values     [][]float64        `json:"values"`
	Derivative []float64          `json:"derivative,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

func NewExportData(meta *RunMetadata, tr *dynamo.Trajectory[float64], derivative []float64) ExportData {
	return ExportData{
		Equation:   meta.Equation,
		Method:     meta.Method,
		Params:     meta.Params,
		StateNames: meta.StateNames,
		Steps:      tr.Len() - 1,
		Positions:  tr.Positions,
		Values:     tr.Values,
		Derivative: derivative,
		Metrics:    meta.Metrics,
	}
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, data)
}

// ExportCSV writes the trajectory in the same layout as a stored run.
func ExportCSV(path string, meta *RunMetadata, tr *dynamo.Trajectory[float64], derivative []float64) error {
	return writeCSV(path, tr, meta.StateNames, derivative)
}
