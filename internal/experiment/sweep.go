package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/psmsim/internal/analysis"
	"github.com/san-kum/psmsim/internal/config"
	"github.com/san-kum/psmsim/internal/dynamo"
)

type SweepPoint struct {
	Degree  int
	Steps   int
	Elapsed time.Duration
	Error   analysis.ErrorReport
	Err     error
}

// Sweep runs cfg once per expansion degree. The fixed method varies its
// degree, the radius and truncation methods their maximum degree. Runs are
// spread over workers goroutines; use 1 for undisturbed timings.
func Sweep(ctx context.Context, cfg *config.Config, reg *Registry, degrees []int, workers int, opts ...Option) ([]SweepPoint, error) {
	switch cfg.Method {
	case config.MethodFixed, config.MethodRadius, config.MethodTruncation:
	default:
		return nil, fmt.Errorf("sweep: method %q has no tunable degree", cfg.Method)
	}

	exps := make([]*Experiment, len(degrees))
	for i, d := range degrees {
		c := cfg.Clone()
		c.Degree = d
		c.Solver.MaxDegree = d
		exp, err := New(c, reg, opts...)
		if err != nil {
			return nil, fmt.Errorf("sweep degree %d: %w", d, err)
		}
		exps[i] = exp
	}

	points := make([]SweepPoint, len(degrees))
	results := make([]*Result, len(degrees))
	parallelFor(len(exps), workers, func(i int) {
		res, err := exps[i].Run(ctx)
		results[i] = res
		points[i] = SweepPoint{Degree: degrees[i], Err: err}
		if res != nil {
			points[i].Elapsed = res.Elapsed
			if res.Trajectory != nil {
				points[i].Steps = res.Trajectory.Len() - 1
			}
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trs := make([]*dynamo.Trajectory[float64], 0, len(results))
	for _, r := range results {
		if r != nil {
			trs = append(trs, r.Trajectory)
		}
	}
	if len(exps) == 0 {
		return points, nil
	}
	ref, err := exps[0].Reference(reach(trs...))
	if err != nil {
		return points, err
	}
	for i, r := range results {
		if r == nil || r.Trajectory == nil {
			continue
		}
		rep, err := analysis.CompareTrajectory(r.Trajectory, 0, ref)
		if err != nil {
			return points, fmt.Errorf("sweep degree %d: %w", degrees[i], err)
		}
		points[i].Error = rep
	}
	return points, nil
}
