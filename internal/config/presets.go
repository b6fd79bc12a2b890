package config

import "sort"

func preset(equation, method string, x0 []float64, end float64, tweak func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Equation = equation
	cfg.Method = method
	cfg.X0 = x0
	cfg.End = end
	if tweak != nil {
		tweak(cfg)
	}
	return cfg
}

var Presets = map[string]map[string]*Config{
	"flame": {
		"ignition": preset("flame", MethodFixed, []float64{0.5}, 4, func(c *Config) {
			c.Step = 0.1
			c.Degree = 10
		}),
		"slow": preset("flame", MethodRadius, []float64{0.01}, 200, nil),
	},
	"sine": {
		"default": preset("sine", MethodRadius, []float64{1}, 5, func(c *Config) {
			c.Direction = Both
		}),
	},
	"pendulum": {
		"small": preset("pendulum", MethodRadius, []float64{0.2, 0}, 20, nil),
		"large": preset("pendulum", MethodJorbaZou, []float64{2.5, 0}, 20, func(c *Config) {
			c.Eps = 1e-12
		}),
		"spinning": preset("pendulum", MethodTruncation, []float64{0.1, 8}, 30, func(c *Config) {
			c.Eps = 1e-10
		}),
		"order": preset("pendulum", MethodOrder, []float64{1, 0}, 20, func(c *Config) {
			c.Step = 0.1
			c.Eps = 1e-12
		}),
	},
	"vanderpol": {
		"gentle": preset("vanderpol", MethodRadius, []float64{2, 0}, 20, nil),
		"relaxation": preset("vanderpol", MethodTruncation, []float64{2, 0}, 30, func(c *Config) {
			c.Params = map[string]float64{"a": 5}
			c.Eps = 1e-8
		}),
	},
	"linear": {
		"growth": preset("linear", MethodTruncation, []float64{1}, 10, nil),
		"decay": preset("linear", MethodTruncation, []float64{1}, 10, func(c *Config) {
			c.Params = map[string]float64{"a": -1}
		}),
	},
	"quadratic": {
		"tangent": preset("quadratic", MethodRadius, []float64{0}, 1.5, func(c *Config) {
			c.Direction = Both
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(equation, name string) *Config {
	equationPresets, ok := Presets[equation]
	if !ok {
		return nil
	}
	cfg, ok := equationPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(equation string) []string {
	equationPresets, ok := Presets[equation]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(equationPresets))
	for name := range equationPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
