package physics

import (
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// Quadratic is the Riccati equation x' = a x² + b x + c. With the default
// parameters (1, 0, 1) and x(0) = 0 the solution is tan t, whose radius of
// convergence around 0 is π/2.
type Quadratic[T dynamo.Float] struct{}

func NewQuadratic[T dynamo.Float]() *Quadratic[T] { return &Quadratic[T]{} }

func (q *Quadratic[T]) Name() string         { return "quadratic" }
func (q *Quadratic[T]) Dim() int             { return 1 }
func (q *Quadratic[T]) StateNames() []string { return []string{"x"} }
func (q *Quadratic[T]) ParamNames() []string { return []string{"a", "b", "c"} }
func (q *Quadratic[T]) DefaultParams() []T   { return []T{1, 0, 1} }
func (q *Quadratic[T]) DefaultState() []T    { return []T{0} }

func (q *Quadratic[T]) InitialConditions(x0 []T) []T {
	return leading(x0, q.DefaultState(), 1)
}

func (q *Quadratic[T]) Recur(params []T, y series.Table[T], n int) {
	if n+1 >= len(y[0]) {
		return
	}
	a, b, c := params[0], params[1], params[2]
	v := a*series.NthProduct(y[0], y[0], n) + b*y[0][n]
	if n == 0 {
		v += c
	}
	y[0].Set(n+1, v/T(n+1))
}

func (q *Quadratic[T]) Derive(params []T, x []T) []T {
	a, b, c := params[0], params[1], params[2]
	return []T{a*x[0]*x[0] + b*x[0] + c}
}
