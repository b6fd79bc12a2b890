package series

import (
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
)

// MinAitkenTerms is the number of coefficients below which the estimator
// falls back to the plain root test.
const MinAitkenTerms = 8

// stationaryTol is the relative change of x_k below which the root sequence
// is treated as converged.
const stationaryTol = 1e-12

// Parity selects the even- or odd-indexed coefficients of a series.
type Parity int

const (
	Even Parity = iota
	Odd
)

func (p Parity) String() string {
	if p == Even {
		return "even"
	}
	return "odd"
}

// lastIndex returns the largest index below n with parity p, or 0 when only
// the constant term qualifies.
func lastIndex(n int, p Parity) int {
	k := n - 1
	if k%2 != int(p) {
		k--
	}
	if k < 1 {
		return 0
	}
	return k
}

func rootTerm[T dynamo.Float](a Series[T], k int) float64 {
	return math.Pow(math.Abs(float64(a[k])), 1/float64(k))
}

// RadiusOfConvergence estimates 1/r, the reciprocal radius of convergence,
// from the coefficients of one parity class.
//
// With fewer than MinAitkenTerms coefficients it returns the root test
// |a_k|^(1/k) on the last coefficient of that parity. Otherwise it applies
// Aitken's delta-squared to x_k = |a_k|^(1/k) at the last three indices of
// the class. The result may be NaN or Inf when the sequence is degenerate.
func RadiusOfConvergence[T dynamo.Float](a Series[T], p Parity) T {
	k := lastIndex(len(a), p)
	if k == 0 {
		return 0
	}
	if len(a) < MinAitkenTerms {
		return T(rootTerm(a, k))
	}

	xn := rootTerm(a, k)
	xn1 := rootTerm(a, k-2)
	xn2 := rootTerm(a, k-4)

	d1 := xn - xn1
	if math.Abs(d1) <= stationaryTol*math.Abs(xn) {
		// stationary: xn is already the limit
		return T(xn)
	}
	d0 := xn1 - xn2
	return T(xn - d1*d1/(d1-d0))
}

// InverseRadius returns the larger, and so more conservative, of the even
// and odd reciprocal radius estimates.
func InverseRadius[T dynamo.Float](a Series[T]) T {
	return max(RadiusOfConvergence(a, Even), RadiusOfConvergence(a, Odd))
}

// MaximumTimeStep returns the largest fraction c of the radius of
// convergence for which the geometric tail c^k/(1-c) of a series with
// coefficients bounded by 1 stays below eps. It returns 0 when k < 1 or eps
// lies outside (0, 1).
func MaximumTimeStep(k int, eps float64) float64 {
	if k < 1 || !(eps > 0 && eps < 1) {
		return 0
	}
	a, b := 0.0, 1.0
	for b-a > 1e-12 {
		c := a + (b-a)/2
		if math.Pow(c, float64(k))/(1-c) < eps {
			a = c
		} else {
			b = c
		}
	}
	return a
}

// ApproximateRadius returns a radius of convergence that is valid for every
// series of the table: the reciprocal of the largest per-series estimate.
// It is +Inf when every series is constant.
func ApproximateRadius[T dynamo.Float](t Table[T]) T {
	if len(t) == 0 {
		return T(math.Inf(1))
	}
	invR := InverseRadius(t[0])
	for _, s := range t[1:] {
		invR = max(invR, InverseRadius(s))
	}
	if invR == 0 {
		return T(math.Inf(1))
	}
	return 1 / invR
}
