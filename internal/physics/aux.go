package physics

import (
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/series"
)

// sinCos fills index n+1 of s = sin(u) and c = cos(u) from
// s' = c·u' and c' = -s·u'. The coefficients of u must be known up to n+1.
func sinCos[T dynamo.Float](u, s, c series.Series[T], n int) {
	if n+1 >= len(u) {
		return
	}
	var ds, dc T
	for i := 0; i <= n; i++ {
		du := T(n-i+1) * u[n-i+1]
		ds += c[i] * du
		dc -= s[i] * du
	}
	s.Set(n+1, ds/T(n+1))
	c.Set(n+1, dc/T(n+1))
}

// square fills index k of sq = u² from the coefficients of u up to k.
func square[T dynamo.Float](u, sq series.Series[T], k int) {
	if k >= len(u) {
		return
	}
	sq.Set(k, series.NthProduct(u, u, k))
}
