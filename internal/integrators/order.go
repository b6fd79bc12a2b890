package integrators

import (
	"log/slog"
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// orderDivergence bounds the scaled term a_k·h^k of the primary variable.
// Past it the step lies outside the radius of convergence.
const orderDivergence = 10

// FindSolutionAdaptiveOrder takes int(end/step) steps of length step like
// FindSolution, but grows every expansion one term at a time until no tracked
// variable changes by more than eta. An expansion that needs more than
// maxDegree terms fails with ErrNoConvergence.
func (s *Solver[T]) FindSolutionAdaptiveOrder(params, init []T, step, end T, eta float64, maxDegree int, forward bool) (*dynamo.Trajectory[T], error) {
	if err := validateEnd(end); err != nil {
		return nil, err
	}
	if f := float64(step); math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, dynamo.ErrNonFiniteStep
	}
	if step <= 0 {
		return nil, dynamo.ErrNonPositiveStep
	}
	if err := validateTolerance(eta); err != nil {
		return nil, err
	}
	if maxDegree < 3 {
		return nil, dynamo.ErrDegreeTooSmall
	}
	if err := s.validateInit(init); err != nil {
		return nil, err
	}

	steps := int(end / step)
	s.resetMetrics()
	x := dynamo.State[T](init).Clone()
	tr := dynamo.NewTrajectory[T](x, steps+1)
	offset := signed(step, forward)
	coeff := series.NewTable[T](len(x), maxDegree)

	for i := 1; i <= steps; i++ {
		next, order, err := s.expandToTolerance(params, x, coeff, offset, eta)
		if err != nil {
			return tr, s.stepError(i, offset*T(i-1), x, err)
		}
		if !next.IsValid() {
			return tr, s.stepError(i, offset*T(i-1), x, dynamo.ErrInvalidState)
		}

		pos := offset * T(i)
		tr.Append(pos, next)
		x = next
		s.notify(pos, offset, x)

		if s.cfg.Debug {
			s.logger.Debug("psm: step",
				slog.String("policy", "order"),
				slog.Int("iter", i),
				slog.Int("degree", order),
				slog.Float64("position", float64(pos)))
		}
	}
	return tr, nil
}

// expandToTolerance evaluates the expansion around x at h, adding terms
// until each one moves every variable by at most eta. It returns the new
// state and the number of terms used.
func (s *Solver[T]) expandToTolerance(params []T, x dynamo.State[T], coeff series.Table[T], h T, eta float64) (dynamo.State[T], int, error) {
	for j := range coeff {
		clear(coeff[j])
		coeff[j][0] = x[j]
	}
	s.eq.Recur(params, coeff, 0)

	sum := make(dynamo.State[T], len(x))
	for j := range sum {
		sum[j] = x[j] + h*coeff[j][1]
	}

	hp := h * h
	for p := 1; p < coeff.Degree()-1; p++ {
		s.eq.Recur(params, coeff, p)

		converged := true
		for j := range sum {
			term := coeff[j][p+1] * hp
			sum[j] += term
			if math.Abs(float64(term)) > eta {
				converged = false
			}
		}
		if math.Abs(float64(coeff[0][p+1]*hp)) > orderDivergence {
			return nil, p + 2, dynamo.ErrDivergence
		}
		if converged {
			return sum, p + 2, nil
		}
		hp *= h
	}
	return nil, coeff.Degree(), dynamo.ErrNoConvergence
}
