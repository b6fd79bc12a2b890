package physics

import (
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// VanDerPol implements the Van der Pol oscillator x'' + a(x² - 1)x' + x = 0.
// Tracked: [x, x² - 1, x'].
//
//	y0'' = -a·y1·y2 - y0
//	y1   = y0² - 1
//	y2   = y0'
//
// The recurrence is second order: step n fills y0 at n+1 and n+2.
type VanDerPol[T dynamo.Float] struct{}

func NewVanDerPol[T dynamo.Float]() *VanDerPol[T] { return &VanDerPol[T]{} }

func (v *VanDerPol[T]) Name() string         { return "vanderpol" }
func (v *VanDerPol[T]) Dim() int             { return 3 }
func (v *VanDerPol[T]) StateNames() []string { return []string{"x", "x^2-1", "x'"} }
func (v *VanDerPol[T]) ParamNames() []string { return []string{"a"} }
func (v *VanDerPol[T]) DefaultParams() []T   { return []T{1} }
func (v *VanDerPol[T]) DefaultState() []T    { return []T{1, 0} }

func (v *VanDerPol[T]) InitialConditions(x0 []T) []T {
	x := leading(x0, v.DefaultState(), 2)
	return []T{x[0], x[0]*x[0] - 1, x[1]}
}

func (v *VanDerPol[T]) Recur(params []T, y series.Table[T], n int) {
	if n+1 >= len(y[0]) {
		return
	}
	a := params[0]

	y[0].Set(n+1, y[2][n]/T(n+1))
	// the constant -1 of y1 lives in its initial condition
	square(y[0], y[1], n+1)

	next := (-a*series.NthProduct(y[1], y[2], n) - y[0][n]) / T((n+1)*(n+2))
	y[0].Set(n+2, next)
	y[2].Set(n+1, T(n+2)*next)
}

func (v *VanDerPol[T]) Derive(params []T, x []T) []T {
	a := params[0]
	return []T{x[2], 2 * x[0] * x[2], -a*x[1]*x[2] - x[0]}
}
