package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
)

// Reference gives the reference state at position t.
type Reference func(t float64) ([]float64, error)

type ErrorReport struct {
	MaxAbs float64 `json:"max_abs"`
	// MaxAt is the position of the largest error.
	MaxAt float64 `json:"max_at"`
	RMS   float64 `json:"rms"`
	Final float64 `json:"final"`
}

// CompareTrajectory measures one variable of tr against ref at every sample.
func CompareTrajectory(tr *dynamo.Trajectory[float64], variable int, ref Reference) (ErrorReport, error) {
	var rep ErrorReport
	if variable < 0 || variable >= tr.Dim() {
		return rep, dynamo.ErrDimensionMismatch
	}
	var sum float64
	for i, t := range tr.Positions {
		want, err := ref(t)
		if err != nil {
			return rep, fmt.Errorf("reference at %g: %w", t, err)
		}
		e := math.Abs(tr.Values[variable][i] - want[variable])
		if e > rep.MaxAbs || i == 0 {
			rep.MaxAbs, rep.MaxAt = e, t
		}
		sum += e * e
		rep.Final = e
	}
	if n := tr.Len(); n > 0 {
		rep.RMS = math.Sqrt(sum / float64(n))
	}
	return rep, nil
}
