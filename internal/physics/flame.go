package physics

import (
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// Flame models the radius of a ball of flame, x' = x² - x³.
// Tracked: [x, x²].
//
//	y0' = y1 - y1·y0
//	y1  = y0²
type Flame[T dynamo.Float] struct{}

func NewFlame[T dynamo.Float]() *Flame[T] { return &Flame[T]{} }

func (f *Flame[T]) Name() string         { return "flame" }
func (f *Flame[T]) Dim() int             { return 2 }
func (f *Flame[T]) StateNames() []string { return []string{"x", "x^2"} }
func (f *Flame[T]) ParamNames() []string { return nil }
func (f *Flame[T]) DefaultParams() []T   { return nil }
func (f *Flame[T]) DefaultState() []T    { return []T{0.5} }

func (f *Flame[T]) InitialConditions(x0 []T) []T {
	x := leading(x0, f.DefaultState(), 1)[0]
	return []T{x, x * x}
}

func (f *Flame[T]) Recur(_ []T, y series.Table[T], n int) {
	if n+1 >= len(y[0]) {
		return
	}
	y[0].Set(n+1, (y[1][n]-series.NthProduct(y[1], y[0], n))/T(n+1))
	square(y[0], y[1], n+1)
}

func (f *Flame[T]) Derive(_ []T, x []T) []T {
	dx := x[1] - x[1]*x[0]
	return []T{dx, 2 * x[0] * dx}
}
