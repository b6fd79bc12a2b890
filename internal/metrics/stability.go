package metrics

import (
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
)

// Stability is the fraction of steps whose state stays within threshold in
// every variable.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnStep(_, _ float64, x dynamo.State[float64]) {
	s.samples++
	for _, val := range x {
		if math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Extent tracks the largest absolute value one variable reaches.
type Extent struct {
	name     string
	variable int
	max      float64
}

func NewExtent(variable int) *Extent {
	return &Extent{name: "extent", variable: variable}
}

func (e *Extent) Name() string { return e.name }

func (e *Extent) OnStep(_, _ float64, x dynamo.State[float64]) {
	if e.variable < len(x) {
		e.max = math.Max(e.max, math.Abs(x[e.variable]))
	}
}

func (e *Extent) Value() float64 { return e.max }

func (e *Extent) Reset() { e.max = 0 }
