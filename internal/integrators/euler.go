package integrators

import "github.com/san-kum/psmsim/internal/dynamo"

// Stepper advances a state by one explicit step of length dt.
type Stepper[T dynamo.Float] interface {
	Step(dyn Deriver[T], params []T, x dynamo.State[T], dt T) dynamo.State[T]
}

type Euler[T dynamo.Float] struct{}

func NewEuler[T dynamo.Float]() *Euler[T] {
	return &Euler[T]{}
}

func (e *Euler[T]) Step(dyn Deriver[T], params []T, x dynamo.State[T], dt T) dynamo.State[T] {
	dx := dyn.Derive(params, x)
	result := make(dynamo.State[T], len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

func (e *Euler[T]) Integrate(dyn Deriver[T], params, init []T, step, end T, forward bool) (*dynamo.Trajectory[T], error) {
	return IntegrateFixed[T](e, dyn, params, init, step, end, forward)
}

// IntegrateFixed runs int(end/step) steps of st and records a trajectory laid
// out like the power series solvers' output.
func IntegrateFixed[T dynamo.Float](st Stepper[T], dyn Deriver[T], params, init []T, step, end T, forward bool) (*dynamo.Trajectory[T], error) {
	if err := validateEnd(end); err != nil {
		return nil, err
	}
	if !(step > 0) {
		return nil, dynamo.ErrNonPositiveStep
	}
	if len(init) == 0 {
		return nil, dynamo.ErrDimensionMismatch
	}

	steps := int(end / step)
	dt := signed(step, forward)
	x := dynamo.State[T](init).Clone()
	tr := dynamo.NewTrajectory[T](x, steps+1)

	for i := 1; i <= steps; i++ {
		x = st.Step(dyn, params, x, dt)
		if !x.IsValid() {
			return tr, &dynamo.StepError{Step: i, Position: float64(dt * T(i-1)), Wrapped: dynamo.ErrInvalidState}
		}
		tr.Append(dt*T(i), x)
	}
	return tr, nil
}
