// Package dynamo provides the shared primitives of the power series solver.
//
// The package defines the types every other package exchanges:
//
//   - [Float]: scalar constraint the solver is generic over
//   - [State]: vector of tracked variables (auxiliaries included)
//   - [Trajectory]: positions reached by a stepper and the sampled values
//   - [Config]: degree, safety and logging knobs passed to a solver
//   - [Observer] and [Metric]: per-step hooks
//
// # Example
//
//	eq := physics.NewFlame[float64]()
//	s := integrators.New[float64](eq, dynamo.DefaultConfig())
//	tr, err := s.FindSolutionAdaptive(eq.DefaultParams(), eq.InitialConditions([]float64{0.5}), 4, true)
//
// # Errors
//
// Step failures are reported as [*StepError] wrapping one of the sentinel
// errors of this package; match them with errors.Is.
//
// # Thread Safety
//
// Trajectories are plain values and are not synchronized. A solver owns the
// trajectory it builds until it returns it.
package dynamo
