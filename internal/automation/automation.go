// Package automation runs scripted batches of solves: YAML scenarios and
// sweeps over an equation parameter.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/psmsim/internal/config"
	"github.com/san-kum/psmsim/internal/experiment"
	"github.com/san-kum/psmsim/internal/storage"
)

// Scenario defines a scripted sequence of solves
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one solve. With Preset set, the preset of Equation is the
// base and the step's non-zero fields override it.
type ScenarioStep struct {
	Label         string `yaml:"label"`
	Preset        string `yaml:"preset"`
	Save          bool   `yaml:"save"`
	config.Config `yaml:",inline"`
}

// StepResult is the outcome of one scenario step. Err is the solver failure;
// Result then holds the partial trajectory.
type StepResult struct {
	Label  string
	Result *experiment.Result
	RunID  string
	Err    error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Resolve returns the configuration the step runs with: the preset, or the
// defaults when there is none, overlaid with the step's own fields.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Equation, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s/%s", s.Equation, s.Preset)
		}
	}
	overlay(cfg, &s.Config)
	return cfg, cfg.Validate()
}

func overlay(dst, src *config.Config) {
	if src.Equation != "" {
		dst.Equation = src.Equation
	}
	if src.Method != "" {
		dst.Method = src.Method
	}
	if src.X0 != nil {
		dst.X0 = src.X0
	}
	for k, v := range src.Params {
		if dst.Params == nil {
			dst.Params = map[string]float64{}
		}
		dst.Params[k] = v
	}
	if src.End != 0 {
		dst.End = src.End
	}
	if src.Step != 0 {
		dst.Step = src.Step
	}
	if src.Degree != 0 {
		dst.Degree = src.Degree
	}
	if src.Eps != 0 {
		dst.Eps = src.Eps
	}
	if src.Direction != "" {
		dst.Direction = src.Direction
	}
	if src.Solver.MaxDegree != 0 {
		dst.Solver.MaxDegree = src.Solver.MaxDegree
	}
	if src.Solver.SafetyDivisor != 0 {
		dst.Solver.SafetyDivisor = src.Solver.SafetyDivisor
	}
	if src.Solver.RadiusTolerance != 0 {
		dst.Solver.RadiusTolerance = src.Solver.RadiusTolerance
	}
	if src.Solver.RefinedTruncation {
		dst.Solver.RefinedTruncation = true
	}
	if src.Solver.MaxStep != 0 {
		dst.Solver.MaxStep = src.Solver.MaxStep
	}
	if src.Solver.MaxSteps != 0 {
		dst.Solver.MaxSteps = src.Solver.MaxSteps
	}
	if src.StabilityBound != 0 {
		dst.StabilityBound = src.StabilityBound
	}
}

// RunScenario executes all steps in order. An invalid step aborts the
// scenario; a failing solve is recorded and the scenario goes on. Steps
// marked Save are stored in st, which may be nil when none are.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, st *storage.Store, opts ...experiment.Option) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))
	logger := slog.Default()

	for i, step := range scenario.Steps {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("%s: %w", label, err)
		}
		exp, err := experiment.New(cfg, reg, opts...)
		if err != nil {
			return results, fmt.Errorf("%s: %w", label, err)
		}

		logger.Info("scenario step",
			slog.String("scenario", scenario.Name),
			slog.String("step", label),
			slog.Int("index", i+1),
			slog.Int("of", len(scenario.Steps)))

		res, runErr := exp.Run(ctx)
		if res == nil {
			return results, fmt.Errorf("%s: %w", label, runErr)
		}

		sr := StepResult{Label: label, Result: res, Err: runErr}
		if step.Save {
			if st == nil {
				return results, fmt.Errorf("%s: no store to save to", label)
			}
			sr.RunID, err = st.Save(res, runErr)
			if err != nil {
				return results, fmt.Errorf("%s save: %w", label, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep solves one configuration across evenly spaced values of a
// named equation parameter.
type ParameterSweep struct {
	Param  string
	Min    float64
	Max    float64
	Points int
}

type ParamPoint struct {
	Value   float64
	Steps   int
	Final   []float64
	Metrics map[string]float64
	Err     error
}

var ErrInvalidSweep = errors.New("automation: invalid parameter sweep")

func RunParameterSweep(ctx context.Context, base *config.Config, reg *experiment.Registry, sweep ParameterSweep, opts ...experiment.Option) ([]ParamPoint, error) {
	if sweep.Points < 2 || !(sweep.Max > sweep.Min) || sweep.Param == "" {
		return nil, ErrInvalidSweep
	}

	results := make([]ParamPoint, 0, sweep.Points)
	paramStep := (sweep.Max - sweep.Min) / float64(sweep.Points-1)

	for i := 0; i < sweep.Points; i++ {
		v := sweep.Min + float64(i)*paramStep

		cfg := base.Clone()
		if cfg.Params == nil {
			cfg.Params = map[string]float64{}
		}
		cfg.Params[sweep.Param] = v

		exp, err := experiment.New(cfg, reg, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		res, runErr := exp.Run(ctx)
		if res == nil {
			return results, runErr
		}

		p := ParamPoint{Value: v, Metrics: res.Metrics, Err: runErr}
		if tr := res.Trajectory; tr != nil {
			p.Steps = tr.Len() - 1
			p.Final = tr.Final()
		}
		results = append(results, p)
	}

	return results, nil
}
