package physics

import (
	"fmt"

	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/integrators"
)

// Model is an equation ready to be solved: its recurrence, its right-hand
// side, and the description of its tracked variables and parameters.
type Model[T dynamo.Float] interface {
	integrators.Equation[T]
	integrators.Deriver[T]
	Name() string
	Dim() int
	StateNames() []string
	ParamNames() []string
	DefaultParams() []T
	DefaultState() []T
	// InitialConditions expands a user-facing state into every tracked
	// variable. x0 holds the leading variables only.
	InitialConditions(x0 []T) []T
}

// Solution is implemented by models with a closed-form solution.
type Solution[T dynamo.Float] interface {
	Exact(params, x0 []T, t T) []T
}

// Hamiltonian is implemented by conservative models.
type Hamiltonian[T dynamo.Float] interface {
	Energy(params, x []T) T
}

// ResolveParams maps named values onto a model's parameter vector, starting
// from its defaults.
func ResolveParams[T dynamo.Float](m Model[T], named map[string]float64) ([]T, error) {
	params := append([]T(nil), m.DefaultParams()...)
	names := m.ParamNames()
	for key, v := range named {
		found := false
		for i, n := range names {
			if n == key {
				params[i] = T(v)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%s: unknown parameter %q", m.Name(), key)
		}
	}
	return params, nil
}

// leading pads or truncates x0 to the n user-facing variables of a model,
// taking missing entries from def.
func leading[T dynamo.Float](x0, def []T, n int) []T {
	out := make([]T, n)
	copy(out, def)
	copy(out, x0)
	return out
}
