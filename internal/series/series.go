package series

import "github.com/san-kum/psmsim/internal/dynamo"

// Series is a fixed-capacity sequence of power series coefficients.
type Series[T dynamo.Float] []T

// New allocates a zero-filled series of the given capacity.
func New[T dynamo.Float](capacity int) Series[T] {
	return make(Series[T], capacity)
}

// Set writes coefficient k. Writing outside the capacity is a no-op that
// reports false, so recurrences may run past the end of a table.
func (s Series[T]) Set(k int, v T) bool {
	if k < 0 || k >= len(s) {
		return false
	}
	s[k] = v
	return true
}

// Cap returns the number of coefficients the series can hold.
func (s Series[T]) Cap() int { return len(s) }

// Table holds one series per tracked variable.
type Table[T dynamo.Float] []Series[T]

// NewTable allocates vars zero-filled series of capacity degree.
func NewTable[T dynamo.Float](vars, degree int) Table[T] {
	t := make(Table[T], vars)
	for i := range t {
		t[i] = New[T](degree)
	}
	return t
}

// Degree returns the common capacity of the table's series.
func (t Table[T]) Degree() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// NthProduct returns the degree n coefficient of the product x·y.
// Both series must hold at least n+1 coefficients.
func NthProduct[T dynamo.Float](x, y Series[T], n int) T {
	var sum T
	for i := 0; i <= n; i++ {
		sum += x[i] * y[n-i]
	}
	return sum
}

// Eval evaluates the series at offset x with Horner's method.
func Eval[T dynamo.Float](coeff Series[T], x T) T {
	var val T
	for i := len(coeff) - 1; i >= 0; i-- {
		val = val*x + coeff[i]
	}
	return val
}

// EvaluateAll evaluates every series of the table at offset x.
func EvaluateAll[T dynamo.Float](t Table[T], x T) dynamo.State[T] {
	out := make(dynamo.State[T], len(t))
	for i, s := range t {
		out[i] = Eval(s, x)
	}
	return out
}

// Derivative differentiates the series term by term. The result is one
// coefficient shorter.
func Derivative[T dynamo.Float](coeff Series[T]) Series[T] {
	if len(coeff) < 2 {
		return Series[T]{}
	}
	d := make(Series[T], len(coeff)-1)
	for i := range d {
		d[i] = coeff[i+1] * T(i+1)
	}
	return d
}
