package metrics

import (
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
)

// StepCount counts accepted steps.
type StepCount struct {
	name  string
	count int
}

func NewStepCount() *StepCount {
	return &StepCount{name: "steps"}
}

func (c *StepCount) Name() string { return c.name }

func (c *StepCount) OnStep(_, _ float64, _ dynamo.State[float64]) {
	c.count++
}

func (c *StepCount) Value() float64 { return float64(c.count) }

func (c *StepCount) Reset() { c.count = 0 }

type stepMode int

const (
	meanStep stepMode = iota
	minStep
	maxStep
)

// StepSize aggregates the absolute length of accepted steps.
type StepSize struct {
	name    string
	mode    stepMode
	sum     float64
	min     float64
	max     float64
	samples int
}

func NewMeanStep() *StepSize { return &StepSize{name: "mean_step", mode: meanStep} }
func NewMinStep() *StepSize  { return &StepSize{name: "min_step", mode: minStep} }
func NewMaxStep() *StepSize  { return &StepSize{name: "max_step", mode: maxStep} }

func (s *StepSize) Name() string { return s.name }

func (s *StepSize) OnStep(_, step float64, _ dynamo.State[float64]) {
	h := math.Abs(step)
	if s.samples == 0 {
		s.min, s.max = h, h
	}
	s.min = math.Min(s.min, h)
	s.max = math.Max(s.max, h)
	s.sum += h
	s.samples++
}

func (s *StepSize) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	switch s.mode {
	case minStep:
		return s.min
	case maxStep:
		return s.max
	default:
		return s.sum / float64(s.samples)
	}
}

func (s *StepSize) Reset() {
	s.sum, s.min, s.max = 0, 0, 0
	s.samples = 0
}
