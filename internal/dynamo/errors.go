package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidState indicates a state containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates initial conditions that do not match the equation.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between initial conditions and equation")

	// ErrDegreeTooSmall indicates an expansion degree below 2.
	ErrDegreeTooSmall = errors.New("dynamo: expansion degree must be at least 2")

	// ErrNonFiniteStep indicates a step length that evaluated to NaN or Inf.
	ErrNonFiniteStep = errors.New("dynamo: step length is not finite")

	// ErrNonPositiveStep indicates a step length of zero or less.
	ErrNonPositiveStep = errors.New("dynamo: step length must be positive")

	// ErrDivergence indicates a solution blowing up at a pole ahead of the stepper.
	ErrDivergence = errors.New("dynamo: solution diverges (pole ahead)")

	// ErrNoConvergence indicates an expansion that met no tolerance within its degree limit.
	ErrNoConvergence = errors.New("dynamo: series did not converge within the degree limit")

	// ErrStepLimit indicates the configured iteration cap was reached before the endpoint.
	ErrStepLimit = errors.New("dynamo: step limit reached before interval end")

	// ErrInvalidInterval indicates a non-positive or non-finite interval endpoint.
	ErrInvalidInterval = errors.New("dynamo: interval end must be positive and finite")

	// ErrInvalidTolerance indicates a tolerance outside (0, 1).
	ErrInvalidTolerance = errors.New("dynamo: tolerance must lie in (0, 1)")
)

// StepError wraps an error with the stepper context it happened in.
type StepError struct {
	Step     int
	Position float64
	State    []float64
	Wrapped  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (position=%.6g): %v", e.Step, e.Position, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
