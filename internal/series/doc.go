// Package series implements truncated power series: the capacity-aware
// coefficient container, the Cauchy product coefficient, Horner evaluation,
// term-by-term differentiation, and radius of convergence estimation.
//
// A [Series] holds the coefficients a_0 … a_{d-1} of Σ a_k (x - c)^k around
// an implicit center c. A [Table] holds one series per tracked variable.
package series
