package integrators

import (
	"github.com/san-kum/psmsim/internal/dynamo"
)

// RK4 is the classical fourth-order Runge–Kutta method. It serves as the
// reference the power series solutions are compared against.
type RK4[T dynamo.Float] struct {
	k1, k2, k3, k4 dynamo.State[T]
	scratch        dynamo.State[T]
}

func NewRK4[T dynamo.Float]() *RK4[T] {
	return &RK4[T]{}
}

func (r *RK4[T]) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State[T], n)
		r.k2 = make(dynamo.State[T], n)
		r.k3 = make(dynamo.State[T], n)
		r.k4 = make(dynamo.State[T], n)
		r.scratch = make(dynamo.State[T], n)
	}
}

func (r *RK4[T]) Step(dyn Deriver[T], params []T, x dynamo.State[T], dt T) dynamo.State[T] {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, dyn.Derive(params, x))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, dyn.Derive(params, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, dyn.Derive(params, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, dyn.Derive(params, r.scratch))

	result := make(dynamo.State[T], n)
	dt6 := dt / 6
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}

func (r *RK4[T]) Integrate(dyn Deriver[T], params, init []T, step, end T, forward bool) (*dynamo.Trajectory[T], error) {
	return IntegrateFixed[T](r, dyn, params, init, step, end, forward)
}
