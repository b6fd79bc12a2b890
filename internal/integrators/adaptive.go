package integrators

import (
	"log/slog"
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// stepPolicy chooses the expansion degree and the step length of one
// adaptive iteration.
type stepPolicy[T dynamo.Float] interface {
	name() string
	degree() int
	step(coeff series.Table[T]) T
	accept(x dynamo.State[T])
	// resolution is the relative step length below which the expansion
	// error exceeds what the step can still resolve.
	resolution() float64
}

// maxResolution caps every policy's resolution so that low-degree or
// loose-tolerance runs are not cut short.
const maxResolution = 1e-6

type radiusPolicy[T dynamo.Float] struct {
	deg      int
	fraction T
}

// newRadiusPolicy steps 1/divisor of the radius, or with tol > 0 the
// fraction whose geometric tail at degree deg stays below tol.
func newRadiusPolicy[T dynamo.Float](deg int, divisor, tol float64) *radiusPolicy[T] {
	fraction := 1 / divisor
	if tol > 0 {
		fraction = series.MaximumTimeStep(deg, tol)
	}
	return &radiusPolicy[T]{deg: deg, fraction: T(fraction)}
}

func (p *radiusPolicy[T]) name() string { return "radius" }
func (p *radiusPolicy[T]) degree() int  { return p.deg }

func (p *radiusPolicy[T]) step(coeff series.Table[T]) T {
	return series.ApproximateRadius(coeff) * p.fraction
}

func (p *radiusPolicy[T]) accept(dynamo.State[T]) {}

// resolution is the relative truncation error of evaluating deg terms at
// the stepped fraction of the radius.
func (p *radiusPolicy[T]) resolution() float64 {
	return math.Min(math.Pow(float64(p.fraction), float64(p.deg-1)), maxResolution)
}

type truncationPolicy[T dynamo.Float] struct {
	deg     int
	eps     float64
	refined bool
}

func (p *truncationPolicy[T]) name() string { return "truncation" }
func (p *truncationPolicy[T]) degree() int  { return p.deg }

func (p *truncationPolicy[T]) step(coeff series.Table[T]) T {
	a := coeff[0]
	d := p.deg
	last := math.Abs(float64(a[d-1]))
	prev := math.Abs(float64(a[d-2]))

	if p.refined {
		r1 := math.Pow(last/p.eps, 1/float64(d-1))
		r2 := math.Pow(prev/p.eps, 1/float64(d-2))
		return T(1 / math.Max(r1, r2))
	}
	return T(math.Pow(p.eps/(2*math.Max(last, prev)), 1/float64(d-1)))
}

func (p *truncationPolicy[T]) accept(dynamo.State[T]) {}

func (p *truncationPolicy[T]) resolution() float64 { return math.Min(p.eps, maxResolution) }

type jorbaZouPolicy[T dynamo.Float] struct {
	deg     int
	eps     float64
	infNorm float64
	safety  float64
}

func newJorbaZouPolicy[T dynamo.Float](eps float64) *jorbaZouPolicy[T] {
	deg := JorbaZouDegree(eps)
	return &jorbaZouPolicy[T]{
		deg:     deg,
		eps:     math.Min(eps, maxResolution),
		infNorm: 1,
		safety:  math.Exp(-2) * math.Exp(-0.7/float64(deg-1)),
	}
}

// JorbaZouDegree returns the expansion degree the Jorba–Zou policy uses for
// tolerance eps: ceil(-ln(eps)/2) + 1, and never less than 3.
func JorbaZouDegree(eps float64) int {
	return max(int(math.Ceil(-math.Log(eps)/2))+1, 3)
}

func (p *jorbaZouPolicy[T]) name() string { return "jorbazou" }
func (p *jorbaZouPolicy[T]) degree() int  { return p.deg }

func (p *jorbaZouPolicy[T]) step(coeff series.Table[T]) T {
	a := coeff[0]
	rho := math.Inf(1)
	for _, j := range []int{p.deg - 2, p.deg - 1} {
		rho = math.Min(rho, math.Pow(p.infNorm/math.Abs(float64(a[j])), 1/float64(j)))
	}
	return T(rho * p.safety)
}

func (p *jorbaZouPolicy[T]) accept(x dynamo.State[T]) {
	p.infNorm = math.Max(p.infNorm, math.Abs(float64(x[0])))
}

func (p *jorbaZouPolicy[T]) resolution() float64 { return p.eps }

// FindSolutionAdaptive solves on [0, end] (or [-end, 0] when forward is
// false) with steps of ApproximateRadius / SafetyDivisor at degree MaxDegree.
// A positive RadiusTolerance picks the fraction of the radius with
// series.MaximumTimeStep instead.
func (s *Solver[T]) FindSolutionAdaptive(params, init []T, end T, forward bool) (*dynamo.Trajectory[T], error) {
	if tol := s.cfg.RadiusTolerance; tol != 0 {
		if err := validateTolerance(tol); err != nil {
			return nil, err
		}
	}
	return s.run(params, init, end, forward,
		newRadiusPolicy[T](s.cfg.MaxDegree, s.cfg.SafetyDivisor, s.cfg.RadiusTolerance))
}

// FindAdaptiveSolutionTruncation chooses each step so that the first dropped
// term of the primary variable's series stays below eps.
func (s *Solver[T]) FindAdaptiveSolutionTruncation(params, init []T, end T, forward bool, eps float64) (*dynamo.Trajectory[T], error) {
	if err := validateTolerance(eps); err != nil {
		return nil, err
	}
	if s.cfg.MaxDegree < 3 {
		return nil, dynamo.ErrDegreeTooSmall
	}
	return s.run(params, init, end, forward, &truncationPolicy[T]{
		deg:     s.cfg.MaxDegree,
		eps:     eps,
		refined: s.cfg.RefinedTruncation,
	})
}

// FindAdaptiveSolutionJorbaAndZou uses a degree fixed by eps alone and a step
// scaled by the largest primary value seen so far.
func (s *Solver[T]) FindAdaptiveSolutionJorbaAndZou(params, init []T, end T, forward bool, eps float64) (*dynamo.Trajectory[T], error) {
	if err := validateTolerance(eps); err != nil {
		return nil, err
	}
	return s.run(params, init, end, forward, newJorbaZouPolicy[T](eps))
}

func validateTolerance(eps float64) error {
	if !(eps > 0 && eps < 1) {
		return dynamo.ErrInvalidTolerance
	}
	return nil
}

func validateEnd[T dynamo.Float](end T) error {
	f := float64(end)
	if !(f > 0) || math.IsInf(f, 0) {
		return dynamo.ErrInvalidInterval
	}
	return nil
}

// limit validates a proposed step and applies MaxStep.
func (s *Solver[T]) limit(h T) (T, error) {
	f := float64(h)
	switch {
	case math.IsNaN(f):
		return 0, dynamo.ErrNonFiniteStep
	case math.IsInf(f, 1):
		if s.cfg.MaxStep > 0 {
			return T(s.cfg.MaxStep), nil
		}
		return 0, dynamo.ErrNonFiniteStep
	case f <= 0:
		return 0, dynamo.ErrNonPositiveStep
	}
	if s.cfg.MaxStep > 0 && f > s.cfg.MaxStep {
		return T(s.cfg.MaxStep), nil
	}
	return h, nil
}

func signed[T dynamo.Float](v T, forward bool) T {
	if forward {
		return v
	}
	return -v
}

// run is the loop shared by the adaptive solvers: expand around the current
// state, pick a step, evaluate, record, re-center.
func (s *Solver[T]) run(params, init []T, end T, forward bool, p stepPolicy[T]) (*dynamo.Trajectory[T], error) {
	if err := validateEnd(end); err != nil {
		return nil, err
	}
	if err := s.validateInit(init); err != nil {
		return nil, err
	}
	if p.degree() < 2 {
		return nil, dynamo.ErrDegreeTooSmall
	}

	s.resetMetrics()
	x := dynamo.State[T](init).Clone()
	tr := dynamo.NewTrajectory[T](x, 64)

	var cur T
	for iter := 1; cur < end; iter++ {
		if s.cfg.MaxSteps > 0 && iter > s.cfg.MaxSteps {
			return tr, s.stepError(iter, signed(cur, forward), x, dynamo.ErrStepLimit)
		}

		coeff, err := s.ComputeCoefficients(params, x, p.degree())
		if err != nil {
			return tr, s.stepError(iter, signed(cur, forward), x, err)
		}

		h, err := s.limit(p.step(coeff))
		if err != nil {
			return tr, s.stepError(iter, signed(cur, forward), x, err)
		}
		if cur+h == cur {
			// the step vanished against the accumulated position
			return tr, s.stepError(iter, signed(cur, forward), x, dynamo.ErrNonPositiveStep)
		}
		if float64(h) < p.resolution()*math.Max(1, float64(cur)) {
			// a pole closer than the expansion can resolve
			return tr, s.stepError(iter, signed(cur, forward), x, dynamo.ErrDivergence)
		}

		offset := signed(h, forward)
		next := series.EvaluateAll(coeff, offset)
		if !next.IsValid() {
			return tr, s.stepError(iter, signed(cur, forward), x, dynamo.ErrInvalidState)
		}

		cur += h
		pos := signed(cur, forward)
		tr.Append(pos, next)
		x = next
		p.accept(x)
		s.notify(pos, offset, x)

		if s.cfg.Debug {
			s.logger.Debug("psm: step",
				slog.String("policy", p.name()),
				slog.Int("iter", iter),
				slog.Int("degree", p.degree()),
				slog.Float64("position", float64(pos)),
				slog.Float64("step", float64(h)))
		}
	}
	return tr, nil
}
