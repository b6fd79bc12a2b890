package dynamo

import (
	"log/slog"
	"math"

	"golang.org/x/exp/constraints"
)

// Float is the scalar type the solver is generic over.
type Float interface {
	constraints.Float
}

type State[T Float] []T

func (s State[T]) Clone() State[T] {
	c := make(State[T], len(s))
	copy(c, s)
	return c
}

func (s State[T]) IsValid() bool {
	for _, v := range s {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func (s State[T]) Norm() T {
	var sum T
	for _, v := range s {
		sum += v * v
	}
	return T(math.Sqrt(float64(sum)))
}

// InfNorm returns the largest absolute entry.
func (s State[T]) InfNorm() T {
	var m T
	for _, v := range s {
		if a := Abs(v); a > m {
			m = a
		}
	}
	return m
}

func Abs[T Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Trajectory holds the positions visited by a stepper and, for every tracked
// variable, the value sampled at each position. Values[j][i] is variable j at
// Positions[i].
type Trajectory[T Float] struct {
	Positions []T
	Values    [][]T
}

// NewTrajectory starts a trajectory at position 0 with state x0.
func NewTrajectory[T Float](x0 []T, capacity int) *Trajectory[T] {
	if capacity < 1 {
		capacity = 1
	}
	tr := &Trajectory[T]{
		Positions: make([]T, 0, capacity),
		Values:    make([][]T, len(x0)),
	}
	for j := range x0 {
		tr.Values[j] = make([]T, 0, capacity)
	}
	tr.Append(0, x0)
	return tr
}

func (tr *Trajectory[T]) Append(position T, x []T) {
	tr.Positions = append(tr.Positions, position)
	for j := range tr.Values {
		tr.Values[j] = append(tr.Values[j], x[j])
	}
}

func (tr *Trajectory[T]) Len() int { return len(tr.Positions) }

// Dim returns the number of tracked variables.
func (tr *Trajectory[T]) Dim() int { return len(tr.Values) }

func (tr *Trajectory[T]) Variable(j int) []T { return tr.Values[j] }

// At returns the state sampled at index i.
func (tr *Trajectory[T]) At(i int) State[T] {
	x := make(State[T], len(tr.Values))
	for j := range tr.Values {
		x[j] = tr.Values[j][i]
	}
	return x
}

func (tr *Trajectory[T]) Final() State[T] {
	return tr.At(tr.Len() - 1)
}

// Steps returns the signed distance between consecutive positions.
func (tr *Trajectory[T]) Steps() []T {
	if tr.Len() < 2 {
		return nil
	}
	steps := make([]T, tr.Len()-1)
	for i := 1; i < tr.Len(); i++ {
		steps[i-1] = tr.Positions[i] - tr.Positions[i-1]
	}
	return steps
}

// Merge joins a backward and a forward trajectory that share their origin
// into one trajectory ordered by increasing position.
func Merge[T Float](backward, forward *Trajectory[T]) *Trajectory[T] {
	n := backward.Len() + forward.Len() - 1
	out := &Trajectory[T]{
		Positions: make([]T, 0, n),
		Values:    make([][]T, len(forward.Values)),
	}
	for j := range out.Values {
		out.Values[j] = make([]T, 0, n)
	}
	for i := backward.Len() - 1; i >= 0; i-- {
		out.Append(backward.Positions[i], backward.At(i))
	}
	for i := 1; i < forward.Len(); i++ {
		out.Append(forward.Positions[i], forward.At(i))
	}
	return out
}

// Observer is notified after every accepted step.
type Observer[T Float] interface {
	OnStep(position, step T, x State[T])
}

type Metric[T Float] interface {
	Observer[T]
	Name() string
	Value() float64
	Reset()
}

type Config struct {
	// MaxDegree is the expansion degree of the radius and truncation policies.
	MaxDegree int
	// SafetyDivisor shrinks the radius estimate: step = radius / SafetyDivisor.
	SafetyDivisor float64
	// RadiusTolerance, if > 0, replaces SafetyDivisor: the radius policy steps
	// the fraction of the radius whose geometric tail stays below it.
	RadiusTolerance float64
	// RefinedTruncation selects the two-term truncation estimate.
	RefinedTruncation bool
	// MaxStep, if > 0, bounds every adaptive step and replaces an infinite one.
	MaxStep float64
	// MaxSteps, if > 0, caps the number of iterations of an adaptive solve.
	MaxSteps int
	Debug    bool
	Logger   *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		MaxDegree:     25,
		SafetyDivisor: 2,
		MaxSteps:      1_000_000,
	}
}
