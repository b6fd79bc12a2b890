package integrators

import (
	"log/slog"

	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// Equation supplies the power series recurrence of an ODE system.
//
// Recur is called once per order n with the coefficients of every tracked
// series known up to index n. It fills index n+1, and index n+2 for systems
// that carry a second-order variable, using Series.Set so that writes past
// the table's capacity are dropped.
type Equation[T dynamo.Float] interface {
	Recur(params []T, y series.Table[T], n int)
}

// Dimensioned is implemented by equations that know how many series they track.
type Dimensioned interface {
	Dim() int
}

// Deriver is the first-order right-hand side of an equation on its tracked
// variables. It lets reference integrators run the same system.
type Deriver[T dynamo.Float] interface {
	Derive(params []T, x []T) []T
}

// Solver integrates an Equation with the power series method.
type Solver[T dynamo.Float] struct {
	eq        Equation[T]
	cfg       dynamo.Config
	logger    *slog.Logger
	metrics   []dynamo.Metric[T]
	observers []dynamo.Observer[T]
}

// New returns a solver for eq. Zero MaxDegree and SafetyDivisor take the
// values of dynamo.DefaultConfig, and a nil Logger uses slog.Default().
func New[T dynamo.Float](eq Equation[T], cfg dynamo.Config) *Solver[T] {
	def := dynamo.DefaultConfig()
	if cfg.MaxDegree == 0 {
		cfg.MaxDegree = def.MaxDegree
	}
	if cfg.SafetyDivisor <= 0 {
		cfg.SafetyDivisor = def.SafetyDivisor
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Solver[T]{
		eq:     eq,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Solver[T]) Config() dynamo.Config { return s.cfg }

func (s *Solver[T]) AddMetric(m dynamo.Metric[T])     { s.metrics = append(s.metrics, m) }
func (s *Solver[T]) AddObserver(o dynamo.Observer[T]) { s.observers = append(s.observers, o) }

// Metrics returns the current value of every registered metric.
func (s *Solver[T]) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Solver[T]) validateInit(init []T) error {
	if len(init) == 0 {
		return dynamo.ErrDimensionMismatch
	}
	if d, ok := s.eq.(Dimensioned); ok && d.Dim() != len(init) {
		return dynamo.ErrDimensionMismatch
	}
	return nil
}

// ComputeCoefficients expands the solution around the state init into a
// table of degree coefficients per tracked variable. Runs in O(degree²).
func (s *Solver[T]) ComputeCoefficients(params, init []T, degree int) (series.Table[T], error) {
	if degree < 2 {
		return nil, dynamo.ErrDegreeTooSmall
	}
	if err := s.validateInit(init); err != nil {
		return nil, err
	}

	coeff := series.NewTable[T](len(init), degree)
	for i, v := range init {
		coeff[i][0] = v
	}
	for n := 0; n < degree-1; n++ {
		s.eq.Recur(params, coeff, n)
	}
	return coeff, nil
}

// DerivativeTrajectory re-expands the series of degree terms around every
// sample of tr and returns the derivative of the given variable there.
func (s *Solver[T]) DerivativeTrajectory(params []T, tr *dynamo.Trajectory[T], variable, degree int) ([]T, error) {
	if variable < 0 || variable >= tr.Dim() {
		return nil, dynamo.ErrDimensionMismatch
	}
	out := make([]T, tr.Len())
	for i := range out {
		coeff, err := s.ComputeCoefficients(params, tr.At(i), degree)
		if err != nil {
			return nil, err
		}
		out[i] = series.Eval(series.Derivative(coeff[variable]), 0)
	}
	return out, nil
}

func (s *Solver[T]) resetMetrics() {
	for _, m := range s.metrics {
		m.Reset()
	}
}

func (s *Solver[T]) notify(position, step T, x dynamo.State[T]) {
	for _, m := range s.metrics {
		m.OnStep(position, step, x)
	}
	for _, o := range s.observers {
		o.OnStep(position, step, x)
	}
}

func (s *Solver[T]) stepError(step int, position T, x dynamo.State[T], err error) error {
	state := make([]float64, len(x))
	for i, v := range x {
		state[i] = float64(v)
	}
	s.logger.Warn("psm: step failed",
		slog.Int("step", step),
		slog.Float64("position", float64(position)),
		slog.String("error", err.Error()))
	return &dynamo.StepError{
		Step:     step,
		Position: float64(position),
		State:    state,
		Wrapped:  err,
	}
}
