package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/psmsim/internal/analysis"
	"github.com/san-kum/psmsim/internal/config"
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/integrators"
	"github.com/san-kum/psmsim/internal/physics"
)

// referenceEps is the Jorba–Zou tolerance of numerical reference solutions.
const referenceEps = 1e-15

// Reference returns the closed-form solution of the model when it has one.
// Otherwise it solves the configured directions up to reach with a tight
// Jorba–Zou tolerance and evaluates that solution densely.
func (e *Experiment) Reference(reach float64) (analysis.Reference, error) {
	if sol, ok := e.model.(physics.Solution[float64]); ok {
		return func(t float64) ([]float64, error) {
			return sol.Exact(e.params, e.x0, t), nil
		}, nil
	}

	s := integrators.New[float64](e.model, e.solver.Config())
	var parts []*dynamo.Trajectory[float64]
	for _, forward := range e.cfg.Directions() {
		tr, err := s.FindAdaptiveSolutionJorbaAndZou(e.params, e.x0, reach, forward, referenceEps)
		if err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
		parts = append(parts, tr)
	}
	tr := parts[0]
	if len(parts) == 2 {
		tr = dynamo.Merge(parts[0], parts[1])
	}
	return analysis.NewDense(s, e.params, tr, integrators.JorbaZouDegree(referenceEps)).At, nil
}

func reach(trs ...*dynamo.Trajectory[float64]) float64 {
	var r float64
	for _, tr := range trs {
		if tr == nil {
			continue
		}
		for _, p := range tr.Positions {
			r = math.Max(r, math.Abs(p))
		}
	}
	return r
}

type Comparison struct {
	Method        string
	Steps         int
	FinalPosition float64
	Final         []float64
	Elapsed       time.Duration
	Error         analysis.ErrorReport
	Metrics       map[string]float64
	// Err is the solver failure, if any. The other fields then describe
	// the partial trajectory.
	Err error
}

// Compare runs cfg once per method and measures every primary variable
// against the same reference.
func Compare(ctx context.Context, cfg *config.Config, reg *Registry, methods []string, opts ...Option) ([]Comparison, error) {
	if len(methods) == 0 {
		return nil, errors.New("compare: no methods")
	}

	out := make([]Comparison, len(methods))
	results := make([]*Result, len(methods))
	var base *Experiment
	for i, m := range methods {
		c := cfg.Clone()
		c.Method = m
		exp, err := New(c, reg, opts...)
		if err != nil {
			return nil, fmt.Errorf("compare %s: %w", m, err)
		}
		if base == nil {
			base = exp
		}

		res, err := exp.Run(ctx)
		if res == nil {
			return nil, err
		}
		results[i] = res
		out[i] = Comparison{Method: m, Elapsed: res.Elapsed, Metrics: res.Metrics, Err: err}
		if tr := res.Trajectory; tr != nil {
			out[i].Steps = tr.Len() - 1
			out[i].FinalPosition = tr.Positions[tr.Len()-1]
			out[i].Final = tr.Final()
		}
	}

	trs := make([]*dynamo.Trajectory[float64], len(results))
	for i, r := range results {
		trs[i] = r.Trajectory
	}
	ref, err := base.Reference(reach(trs...))
	if err != nil {
		return out, err
	}
	for i, r := range results {
		if r.Trajectory == nil {
			continue
		}
		rep, err := analysis.CompareTrajectory(r.Trajectory, 0, ref)
		if err != nil {
			return out, fmt.Errorf("compare %s: %w", methods[i], err)
		}
		out[i].Error = rep
	}
	return out, nil
}
