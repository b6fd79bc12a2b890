package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/psmsim/internal/dynamo"
)

const (
	DefaultEquation  = "pendulum"
	DefaultMethod    = MethodRadius
	DefaultEnd       = 10.0
	DefaultStep      = 0.1
	DefaultDegree    = 10
	DefaultEps       = 1e-6
	DefaultMaxDegree = 25
	DefaultSafety    = 2.0
	DefaultMaxSteps  = 1_000_000

	// DefaultStabilityBound is the magnitude past which a state counts as
	// unstable in the stability metric.
	DefaultStabilityBound = 1e6
)

// Solution methods. The first five are power series methods, the rest are
// reference integrators.
const (
	MethodFixed      = "fixed"
	MethodOrder      = "order"
	MethodRadius     = "radius"
	MethodTruncation = "truncation"
	MethodJorbaZou   = "jorbazou"
	MethodRK4        = "rk4"
	MethodRK45       = "rk45"
	MethodEuler      = "euler"
)

var Methods = []string{
	MethodFixed, MethodOrder, MethodRadius, MethodTruncation, MethodJorbaZou,
	MethodRK4, MethodRK45, MethodEuler,
}

// Directions of integration away from t = 0.
const (
	Forward  = "forward"
	Backward = "backward"
	Both     = "both"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Equation  string             `yaml:"equation"`
	Method    string             `yaml:"method"`
	X0        []float64          `yaml:"x0,flow"`
	Params    map[string]float64 `yaml:"params,omitempty"`
	End       float64            `yaml:"end"`
	Step      float64            `yaml:"step"`
	Degree    int                `yaml:"degree"`
	Eps       float64            `yaml:"eps"`
	Direction string             `yaml:"direction"`
	Solver    SolverOptions      `yaml:"solver"`

	// StabilityBound is the state magnitude the stability metric tolerates.
	StabilityBound float64 `yaml:"stability_bound,omitempty"`
}

// SolverOptions are the knobs of the adaptive power series solvers.
type SolverOptions struct {
	MaxDegree         int     `yaml:"max_degree"`
	SafetyDivisor     float64 `yaml:"safety_divisor"`
	RadiusTolerance   float64 `yaml:"radius_tolerance,omitempty"`
	RefinedTruncation bool    `yaml:"refined_truncation"`
	MaxStep           float64 `yaml:"max_step"`
	MaxSteps          int     `yaml:"max_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Equation:       DefaultEquation,
		Method:         DefaultMethod,
		End:            DefaultEnd,
		Step:           DefaultStep,
		Degree:         DefaultDegree,
		Eps:            DefaultEps,
		Direction:      Forward,
		StabilityBound: DefaultStabilityBound,
		Solver: SolverOptions{
			MaxDegree:     DefaultMaxDegree,
			SafetyDivisor: DefaultSafety,
			MaxSteps:      DefaultMaxSteps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be tweaked without changing the table.
func (c *Config) Clone() *Config {
	out := *c
	out.X0 = slices.Clone(c.X0)
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}

func (c *Config) Validate() error {
	if !slices.Contains(Methods, c.Method) {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, c.Method)
	}
	switch c.Direction {
	case Forward, Backward, Both:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidConfig, c.Direction)
	}
	if !(c.End > 0) || math.IsInf(c.End, 0) {
		return fmt.Errorf("%w: end must be positive and finite, got %v", ErrInvalidConfig, c.End)
	}

	switch c.Method {
	case MethodFixed, MethodRK4, MethodEuler, MethodOrder:
		if !(c.Step > 0) {
			return fmt.Errorf("%w: step must be positive, got %v", ErrInvalidConfig, c.Step)
		}
	}
	switch c.Method {
	case MethodTruncation, MethodJorbaZou, MethodRK45, MethodOrder:
		if !(c.Eps > 0 && c.Eps < 1) {
			return fmt.Errorf("%w: eps must lie in (0, 1), got %v", ErrInvalidConfig, c.Eps)
		}
	}
	if c.Method == MethodFixed && c.Degree < 2 {
		return fmt.Errorf("%w: degree must be at least 2, got %d", ErrInvalidConfig, c.Degree)
	}
	if (c.Method == MethodTruncation || c.Method == MethodOrder) && c.Solver.MaxDegree < 3 {
		return fmt.Errorf("%w: %s needs max_degree >= 3, got %d", ErrInvalidConfig, c.Method, c.Solver.MaxDegree)
	}
	if t := c.Solver.RadiusTolerance; t < 0 || t >= 1 {
		return fmt.Errorf("%w: radius_tolerance must lie in [0, 1), got %v", ErrInvalidConfig, t)
	}
	if c.StabilityBound < 0 {
		return fmt.Errorf("%w: stability_bound must not be negative", ErrInvalidConfig)
	}
	if c.Solver.MaxStep < 0 || c.Solver.MaxSteps < 0 {
		return fmt.Errorf("%w: solver limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Directions expands Direction into the forward flags to solve for.
func (c *Config) Directions() []bool {
	switch c.Direction {
	case Backward:
		return []bool{false}
	case Both:
		return []bool{false, true}
	default:
		return []bool{true}
	}
}

// SolverConfig maps the solver options onto the solver's own configuration.
func (c *Config) SolverConfig(logger *slog.Logger, debug bool) dynamo.Config {
	return dynamo.Config{
		MaxDegree:         c.Solver.MaxDegree,
		SafetyDivisor:     c.Solver.SafetyDivisor,
		RadiusTolerance:   c.Solver.RadiusTolerance,
		RefinedTruncation: c.Solver.RefinedTruncation,
		MaxStep:           c.Solver.MaxStep,
		MaxSteps:          c.Solver.MaxSteps,
		Debug:             debug,
		Logger:            logger,
	}
}
