// Package analysis inspects solved trajectories.
//
// The package includes:
//
//   - [Dense]: continuous evaluation of a power series trajectory between its samples
//   - [CompareTrajectory]: error of a trajectory against a reference solution
//   - [Spectrum]: power spectrum of a uniformly resampled variable
//   - [PhasePortraitFromTrajectory]: 2D phase space view of two tracked variables
//   - [PoincareSectionFromTrajectory]: crossings of a threshold by one variable
//
// # Dense output
//
// A power series solution carries its own interpolant: re-expanding at the
// nearest sample and evaluating the series there is as accurate as a step.
//
//	dense := analysis.NewDense(solver, params, tr, 25)
//	x, err := dense.At(1.25)
package analysis
