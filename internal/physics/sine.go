package physics

import (
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// Sine is the autonomous first-order system x' = sin x.
// Tracked: [x, sin x, cos x].
//
//	y0' = y1
//	y1' = y1·y2
//	y2' = -y1²
type Sine[T dynamo.Float] struct{}

func NewSine[T dynamo.Float]() *Sine[T] { return &Sine[T]{} }

func (s *Sine[T]) Name() string         { return "sine" }
func (s *Sine[T]) Dim() int             { return 3 }
func (s *Sine[T]) StateNames() []string { return []string{"x", "sin x", "cos x"} }
func (s *Sine[T]) ParamNames() []string { return nil }
func (s *Sine[T]) DefaultParams() []T   { return nil }
func (s *Sine[T]) DefaultState() []T    { return []T{1} }

func (s *Sine[T]) InitialConditions(x0 []T) []T {
	x := leading(x0, s.DefaultState(), 1)[0]
	sin, cos := sincos(x)
	return []T{x, sin, cos}
}

func (s *Sine[T]) Recur(_ []T, y series.Table[T], n int) {
	if n+1 >= len(y[0]) {
		return
	}
	y[0].Set(n+1, y[1][n]/T(n+1))
	sinCos(y[0], y[1], y[2], n)
}

func (s *Sine[T]) Derive(_ []T, x []T) []T {
	return []T{x[1], x[1] * x[2], -x[1] * x[1]}
}

// Exact is the closed form x(t) = 2·atan(tan(x0/2)·e^t), valid for x0 in (-π, π).
func (s *Sine[T]) Exact(_ []T, x0 []T, t T) []T {
	x := 2 * atan(tan(x0[0]/2)*exp(t))
	sin, cos := sincos(x)
	return []T{x, sin, cos}
}
