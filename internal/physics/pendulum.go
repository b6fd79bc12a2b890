package physics

import (
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// Pendulum is the undamped pendulum θ'' = -k sin θ with k = g/L.
// Tracked: [θ, ω, sin θ, cos θ].
//
//	θ' = ω
//	ω' = -k·s
//	s' = c·ω
//	c' = -s·ω
type Pendulum[T dynamo.Float] struct{}

func NewPendulum[T dynamo.Float]() *Pendulum[T] { return &Pendulum[T]{} }

func (p *Pendulum[T]) Name() string         { return "pendulum" }
func (p *Pendulum[T]) Dim() int             { return 4 }
func (p *Pendulum[T]) StateNames() []string { return []string{"theta", "omega", "sin theta", "cos theta"} }
func (p *Pendulum[T]) ParamNames() []string { return []string{"k"} }
func (p *Pendulum[T]) DefaultParams() []T   { return []T{1} }
func (p *Pendulum[T]) DefaultState() []T    { return []T{0.5, 0} }

func (p *Pendulum[T]) InitialConditions(x0 []T) []T {
	x := leading(x0, p.DefaultState(), 2)
	sin, cos := sincos(x[0])
	return []T{x[0], x[1], sin, cos}
}

func (p *Pendulum[T]) Recur(params []T, y series.Table[T], n int) {
	if n+1 >= len(y[0]) {
		return
	}
	k := params[0]
	y[0].Set(n+1, y[1][n]/T(n+1))
	y[1].Set(n+1, -k*y[2][n]/T(n+1))
	sinCos(y[0], y[2], y[3], n)
}

func (p *Pendulum[T]) Derive(params []T, x []T) []T {
	k := params[0]
	return []T{x[1], -k * x[2], x[3] * x[1], -x[2] * x[1]}
}

// Energy is ω²/2 + k(1 - cos θ), conserved along exact solutions.
func (p *Pendulum[T]) Energy(params, x []T) T {
	return x[1]*x[1]/2 + params[0]*(1-x[3])
}
