package integrators

import (
	"log/slog"
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// FindSolution is the fixed-step baseline: int(end/step) steps of length
// step, each re-expanded to degree coefficients.
func (s *Solver[T]) FindSolution(params, init []T, step, end T, degree int, forward bool) (*dynamo.Trajectory[T], error) {
	if err := validateEnd(end); err != nil {
		return nil, err
	}
	if f := float64(step); math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, dynamo.ErrNonFiniteStep
	}
	if step <= 0 {
		return nil, dynamo.ErrNonPositiveStep
	}
	if degree < 2 {
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

	for i := 1; i <= steps; i++ {
		coeff, err := s.ComputeCoefficients(params, x, degree)
		if err != nil {
			return tr, s.stepError(i, offset*T(i-1), x, err)
		}
		next := series.EvaluateAll(coeff, offset)
		if !next.IsValid() {
			return tr, s.stepError(i, offset*T(i-1), x, dynamo.ErrInvalidState)
		}

		pos := offset * T(i)
		tr.Append(pos, next)
		x = next
		s.notify(pos, offset, x)

		if s.cfg.Debug {
			s.logger.Debug("psm: step",
				slog.String("policy", "fixed"),
				slog.Int("iter", i),
				slog.Int("degree", degree),
				slog.Float64("position", float64(pos)))
		}
	}
	return tr, nil
}
