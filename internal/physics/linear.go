package physics

import (
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// Linear is x' = a x, the reference problem with a closed form.
type Linear[T dynamo.Float] struct{}

func NewLinear[T dynamo.Float]() *Linear[T] { return &Linear[T]{} }

func (l *Linear[T]) Name() string         { return "linear" }
func (l *Linear[T]) Dim() int             { return 1 }
func (l *Linear[T]) StateNames() []string { return []string{"x"} }
func (l *Linear[T]) ParamNames() []string { return []string{"a"} }
func (l *Linear[T]) DefaultParams() []T   { return []T{1} }
func (l *Linear[T]) DefaultState() []T    { return []T{1} }

func (l *Linear[T]) InitialConditions(x0 []T) []T {
	return leading(x0, l.DefaultState(), 1)
}

func (l *Linear[T]) Recur(params []T, y series.Table[T], n int) {
	if n+1 >= len(y[0]) {
		return
	}
	y[0].Set(n+1, params[0]*y[0][n]/T(n+1))
}

func (l *Linear[T]) Derive(params []T, x []T) []T {
	return []T{params[0] * x[0]}
}

func (l *Linear[T]) Exact(params, x0 []T, t T) []T {
	return []T{x0[0] * exp(params[0]*t)}
}
