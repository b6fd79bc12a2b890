// Package physics provides concrete ODE systems written as power series
// recurrences.
//
// Each system is rewritten, Parker–Sochacki style, as a polynomial system by
// tracking auxiliary variables next to the state (sin and cos of an angle,
// the square of a variable, ...). The tracked variables are what a solver
// integrates; [Model.InitialConditions] expands a user-facing state into them.
//
// Available systems:
//
//   - [Flame]: x' = x² - x³
//   - [Sine]: x' = sin x
//   - [Pendulum]: θ'' = -k sin θ
//   - [VanDerPol]: x'' = -a(x² - 1)x' - x
//   - [Linear]: x' = a x
//   - [Quadratic]: x' = a x² + b x + c
package physics
