package analysis

import (
	"errors"
	"sort"

	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/integrators"
	"github.com/san-kum/psmsim/internal/series"
)

// ErrOutOfRange is returned when a position lies outside a trajectory.
var ErrOutOfRange = errors.New("analysis: position outside the trajectory")

// Dense evaluates a power series trajectory at arbitrary positions.
type Dense struct {
	solver *integrators.Solver[float64]
	params []float64
	tr     *dynamo.Trajectory[float64]
	degree int
}

func NewDense(solver *integrators.Solver[float64], params []float64, tr *dynamo.Trajectory[float64], degree int) *Dense {
	return &Dense{solver: solver, params: params, tr: tr, degree: degree}
}

// Range returns the smallest and largest sampled positions.
func (d *Dense) Range() (float64, float64) {
	first, last := d.tr.Positions[0], d.tr.Positions[d.tr.Len()-1]
	return min(first, last), max(first, last)
}

// nearest returns the index of the sample closest to t.
func (d *Dense) nearest(t float64) int {
	pos := d.tr.Positions
	n := len(pos)
	increasing := n < 2 || pos[n-1] > pos[0]
	i := sort.Search(n, func(i int) bool {
		if increasing {
			return pos[i] >= t
		}
		return pos[i] <= t
	})
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	}
	if dynamo.Abs(pos[i]-t) < dynamo.Abs(t-pos[i-1]) {
		return i
	}
	return i - 1
}

// At expands the solution around the sample nearest to t and evaluates it
// at t.
func (d *Dense) At(t float64) ([]float64, error) {
	lo, hi := d.Range()
	if t < lo || t > hi {
		return nil, ErrOutOfRange
	}
	i := d.nearest(t)
	coeff, err := d.solver.ComputeCoefficients(d.params, d.tr.At(i), d.degree)
	if err != nil {
		return nil, err
	}
	return series.EvaluateAll(coeff, t-d.tr.Positions[i]), nil
}

// Trajectory evaluates every tracked variable on n uniformly spaced positions
// spanning the trajectory.
func (d *Dense) Trajectory(n int) (*dynamo.Trajectory[float64], error) {
	if n < 2 {
		n = 2
	}
	lo, hi := d.Range()
	dt := (hi - lo) / float64(n-1)
	out := &dynamo.Trajectory[float64]{
		Positions: make([]float64, 0, n),
		Values:    make([][]float64, d.tr.Dim()),
	}
	for i := 0; i < n; i++ {
		t := min(lo+float64(i)*dt, hi)
		x, err := d.At(t)
		if err != nil {
			return nil, err
		}
		out.Append(t, x)
	}
	return out, nil
}
