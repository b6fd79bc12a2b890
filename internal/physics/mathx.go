package physics

import (
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
)

func sincos[T dynamo.Float](x T) (T, T) {
	s, c := math.Sincos(float64(x))
	return T(s), T(c)
}

func exp[T dynamo.Float](x T) T  { return T(math.Exp(float64(x))) }
func tan[T dynamo.Float](x T) T  { return T(math.Tan(float64(x))) }
func atan[T dynamo.Float](x T) T { return T(math.Atan(float64(x))) }
