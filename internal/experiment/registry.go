package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/psmsim/internal/physics"
)

type Registry struct {
	equations map[string]func() physics.Model[float64]
}

func NewRegistry() *Registry {
	r := &Registry{
		equations: make(map[string]func() physics.Model[float64]),
	}

	r.equations["flame"] = func() physics.Model[float64] { return physics.NewFlame[float64]() }
	r.equations["sine"] = func() physics.Model[float64] { return physics.NewSine[float64]() }
	r.equations["pendulum"] = func() physics.Model[float64] { return physics.NewPendulum[float64]() }
	r.equations["vanderpol"] = func() physics.Model[float64] { return physics.NewVanDerPol[float64]() }
	r.equations["linear"] = func() physics.Model[float64] { return physics.NewLinear[float64]() }
	r.equations["quadratic"] = func() physics.Model[float64] { return physics.NewQuadratic[float64]() }

	return r
}

// Register adds or replaces an equation.
func (r *Registry) Register(name string, fn func() physics.Model[float64]) {
	r.equations[name] = fn
}

func (r *Registry) GetEquation(name string) (physics.Model[float64], error) {
	fn, ok := r.equations[name]
	if !ok {
		return nil, fmt.Errorf("unknown equation: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListEquations() []string {
	names := make([]string, 0, len(r.equations))
	for name := range r.equations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
