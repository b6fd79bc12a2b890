package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/psmsim/internal/config"
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/integrators"
	"github.com/san-kum/psmsim/internal/metrics"
	"github.com/san-kum/psmsim/internal/physics"
)

// Result is the outcome of one run. On failure it holds the partial
// trajectory solved before the error.
type Result struct {
	Equation   string
	Method     string
	Config     *config.Config
	Params     []float64
	X0         []float64
	StateNames []string
	Trajectory *dynamo.Trajectory[float64]
	// Derivative is the derivative of the primary variable at every sample,
	// filled when requested.
	Derivative []float64
	Metrics    map[string]float64
	Elapsed    time.Duration
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option { return func(e *Experiment) { e.logger = l } }

func WithDebug(debug bool) Option { return func(e *Experiment) { e.debug = debug } }

// WithObserver attaches o to the power series solver.
func WithObserver(o dynamo.Observer[float64]) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

func WithDerivative() Option { return func(e *Experiment) { e.derivative = true } }

type Experiment struct {
	cfg        *config.Config
	model      physics.Model[float64]
	params     []float64
	x0         []float64
	solver     *integrators.Solver[float64]
	logger     *slog.Logger
	debug      bool
	derivative bool
	observers  []dynamo.Observer[float64]
	metrics    []dynamo.Metric[float64]
}

// New validates cfg and resolves its equation, parameters and initial state.
func New(cfg *config.Config, reg *Registry, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := reg.GetEquation(cfg.Equation)
	if err != nil {
		return nil, err
	}
	params, err := physics.ResolveParams(model, cfg.Params)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:    cfg,
		model:  model,
		params: params,
		x0:     model.InitialConditions(cfg.X0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.solver = integrators.New[float64](model, cfg.SolverConfig(e.logger, e.debug))
	for _, o := range e.observers {
		e.solver.AddObserver(o)
	}
	e.metrics = DefaultMetrics(model, params, e.x0, cfg.StabilityBound)
	if IsSeries(cfg.Method) {
		for _, m := range e.metrics {
			e.solver.AddMetric(m)
		}
	}
	return e, nil
}

func (e *Experiment) Model() physics.Model[float64]         { return e.model }
func (e *Experiment) Params() []float64                     { return e.params }
func (e *Experiment) Solver() *integrators.Solver[float64] { return e.solver }

// IsSeries reports whether method is one of the power series methods.
func IsSeries(method string) bool {
	switch method {
	case config.MethodFixed, config.MethodOrder, config.MethodRadius, config.MethodTruncation, config.MethodJorbaZou:
		return true
	}
	return false
}

// Degree is the expansion degree the run's power series method uses.
func (e *Experiment) Degree() int {
	switch e.cfg.Method {
	case config.MethodFixed:
		return e.cfg.Degree
	case config.MethodJorbaZou:
		return integrators.JorbaZouDegree(e.cfg.Eps)
	default:
		return e.solver.Config().MaxDegree
	}
}

func (e *Experiment) solve(forward bool) (*dynamo.Trajectory[float64], error) {
	c := e.cfg
	switch c.Method {
	case config.MethodFixed:
		return e.solver.FindSolution(e.params, e.x0, c.Step, c.End, c.Degree, forward)
	case config.MethodOrder:
		return e.solver.FindSolutionAdaptiveOrder(e.params, e.x0, c.Step, c.End, c.Eps, e.solver.Config().MaxDegree, forward)
	case config.MethodRadius:
		return e.solver.FindSolutionAdaptive(e.params, e.x0, c.End, forward)
	case config.MethodTruncation:
		return e.solver.FindAdaptiveSolutionTruncation(e.params, e.x0, c.End, forward, c.Eps)
	case config.MethodJorbaZou:
		return e.solver.FindAdaptiveSolutionJorbaAndZou(e.params, e.x0, c.End, forward, c.Eps)
	case config.MethodRK4:
		return integrators.NewRK4[float64]().Integrate(e.model, e.params, e.x0, c.Step, c.End, forward)
	case config.MethodRK45:
		return integrators.NewRK45[float64]().Integrate(e.model, e.params, e.x0, c.End, forward, c.Eps)
	case config.MethodEuler:
		return integrators.NewEuler[float64]().Integrate(e.model, e.params, e.x0, c.Step, c.End, forward)
	}
	return nil, fmt.Errorf("unknown method: %s", c.Method)
}

func direction(forward bool) string {
	if forward {
		return config.Forward
	}
	return config.Backward
}

// Run solves in every configured direction. Both directions are merged into
// one trajectory ordered by position.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		Equation:   e.model.Name(),
		Method:     e.cfg.Method,
		Config:     e.cfg,
		Params:     e.params,
		X0:         e.x0,
		StateNames: e.model.StateNames(),
	}

	start := time.Now()
	var parts []*dynamo.Trajectory[float64]
	for _, forward := range e.cfg.Directions() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr, err := e.solve(forward)
		if err != nil {
			res.Elapsed = time.Since(start)
			if tr != nil {
				res.Trajectory = tr
				res.Metrics = e.measure(tr, IsSeries(e.cfg.Method))
			}
			return res, fmt.Errorf("%s %s %s: %w", res.Equation, res.Method, direction(forward), err)
		}
		parts = append(parts, tr)
	}
	res.Elapsed = time.Since(start)

	res.Trajectory = parts[0]
	if len(parts) == 2 {
		res.Trajectory = dynamo.Merge(parts[0], parts[1])
	}
	res.Metrics = e.measure(res.Trajectory, IsSeries(e.cfg.Method) && len(parts) == 1)

	if e.derivative {
		d, err := e.derivativeOf(res.Trajectory)
		if err != nil {
			return res, fmt.Errorf("derivative: %w", err)
		}
		res.Derivative = d
	}

	e.logger.Info("run complete",
		slog.String("equation", res.Equation),
		slog.String("method", res.Method),
		slog.Int("steps", res.Trajectory.Len()-1),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (e *Experiment) derivativeOf(tr *dynamo.Trajectory[float64]) ([]float64, error) {
	if IsSeries(e.cfg.Method) {
		return e.solver.DerivativeTrajectory(e.params, tr, 0, max(e.Degree(), 2))
	}
	out := make([]float64, tr.Len())
	for i := range out {
		out[i] = e.model.Derive(e.params, tr.At(i))[0]
	}
	return out, nil
}

// DefaultMetrics returns the metrics recorded for every run of model. States
// beyond stabilityBound in any variable count against stability; a bound of
// zero takes config.DefaultStabilityBound.
func DefaultMetrics(model physics.Model[float64], params, x0 []float64, stabilityBound float64) []dynamo.Metric[float64] {
	if stabilityBound <= 0 {
		stabilityBound = config.DefaultStabilityBound
	}
	ms := []dynamo.Metric[float64]{
		metrics.NewStepCount(),
		metrics.NewMeanStep(),
		metrics.NewMinStep(),
		metrics.NewMaxStep(),
		metrics.NewExtent(0),
		metrics.NewStability(stabilityBound),
	}
	if h, ok := model.(physics.Hamiltonian[float64]); ok {
		ms = append(ms,
			metrics.NewEnergy(h, params),
			metrics.NewEnergyDrift(h, params, x0))
	}
	return ms
}

// measure reads the metrics of tr. A single power series solve has fed them
// step by step through the solver; merged halves and reference integrators
// are replayed sample by sample, which gives the same values.
func (e *Experiment) measure(tr *dynamo.Trajectory[float64], live bool) map[string]float64 {
	if live {
		return e.solver.Metrics()
	}
	ms := e.metrics
	for _, m := range ms {
		m.Reset()
	}
	for i := 1; i < tr.Len(); i++ {
		x := tr.At(i)
		for _, m := range ms {
			m.OnStep(tr.Positions[i], tr.Positions[i]-tr.Positions[i-1], x)
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
