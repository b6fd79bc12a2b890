package integrators

import (
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
const (
	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the embedded Dormand–Prince pair, the adaptive reference the power
// series policies are timed against.
type RK45[T dynamo.Float] struct {
	safety   float64
	minScale float64
	maxScale float64
	// MaxRejects bounds the retries of one step before it is reported as failed.
	MaxRejects int
}

func NewRK45[T dynamo.Float]() *RK45[T] {
	return &RK45[T]{
		safety:     0.9,
		minScale:   0.2,
		maxScale:   10.0,
		MaxRejects: 50,
	}
}

func (r *RK45[T]) Step(dyn Deriver[T], params []T, x dynamo.State[T], dt T) dynamo.State[T] {
	newX, _, _ := r.StepAdaptive(dyn, params, x, dt, 1e-6)
	return newX
}

func combine[T dynamo.Float](x dynamo.State[T], dt T, ks [][]T, w []float64) dynamo.State[T] {
	out := make(dynamo.State[T], len(x))
	for i := range x {
		var acc float64
		for j, k := range ks {
			acc += w[j] * float64(k[i])
		}
		out[i] = x[i] + dt*T(acc)
	}
	return out
}

// StepAdaptive takes one fifth-order step and returns the new state, the
// proposed next step, and the scaled error estimate (accepted when <= 1).
func (r *RK45[T]) StepAdaptive(dyn Deriver[T], params []T, x dynamo.State[T], dt T, tol float64) (dynamo.State[T], T, float64) {
	k1 := dyn.Derive(params, x)
	k2 := dyn.Derive(params, combine(x, dt, [][]T{k1}, []float64{b21}))
	k3 := dyn.Derive(params, combine(x, dt, [][]T{k1, k2}, []float64{b31, b32}))
	k4 := dyn.Derive(params, combine(x, dt, [][]T{k1, k2, k3}, []float64{b41, b42, b43}))
	k5 := dyn.Derive(params, combine(x, dt, [][]T{k1, k2, k3, k4}, []float64{b51, b52, b53, b54}))
	k6 := dyn.Derive(params, combine(x, dt, [][]T{k1, k2, k3, k4, k5}, []float64{b61, b62, b63, b64, b65}))

	xNew := combine(x, dt, [][]T{k1, k3, k4, k5, k6}, []float64{c1, c3, c4, c5, c6})
	k7 := dyn.Derive(params, xNew)

	errMax := 0.0
	h := float64(dt)
	for i := range x {
		errEst := h * (dc1*float64(k1[i]) + dc3*float64(k3[i]) + dc4*float64(k4[i]) +
			dc5*float64(k5[i]) + dc6*float64(k6[i]) + dc7*float64(k7[i]))
		scale := math.Abs(float64(x[i])) + math.Abs(h*float64(k1[i])) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / tol

	var scale float64
	switch {
	case errRatio > 1:
		scale = math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		scale = math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		scale = r.maxScale
	}

	return xNew, dt * T(scale), errRatio
}

// Integrate solves on [0, end] (or [-end, 0]) with error control tol,
// starting from a trial step of end/100. The last step is shortened to land
// on end.
func (r *RK45[T]) Integrate(dyn Deriver[T], params, init []T, end T, forward bool, tol float64) (*dynamo.Trajectory[T], error) {
	if err := validateEnd(end); err != nil {
		return nil, err
	}
	if err := validateTolerance(tol); err != nil {
		return nil, err
	}
	if len(init) == 0 {
		return nil, dynamo.ErrDimensionMismatch
	}

	x := dynamo.State[T](init).Clone()
	tr := dynamo.NewTrajectory[T](x, 64)
	h := end / 100

	var cur T
	for iter := 1; cur < end; iter++ {
		h = min(h, end-cur)
		accepted := false
		for try := 0; try <= r.MaxRejects; try++ {
			next, proposal, ratio := r.StepAdaptive(dyn, params, x, signed(h, forward), tol)
			if ratio <= 1 && next.IsValid() {
				cur += h
				x = next
				tr.Append(signed(cur, forward), x)
				h = dynamo.Abs(proposal)
				accepted = true
				break
			}
			if next.IsValid() {
				h = dynamo.Abs(proposal)
			} else {
				h /= 2
			}
			if !(h > 0) || cur+h == cur {
				break
			}
		}
		if !accepted {
			return tr, &dynamo.StepError{Step: iter, Position: float64(signed(cur, forward)), Wrapped: dynamo.ErrNonPositiveStep}
		}
	}
	return tr, nil
}
