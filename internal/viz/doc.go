// Package viz renders solver output in the terminal.
//
// The package provides:
//
//   - [PlotVariable], [PlotSeries]: line charts of trajectory variables
//   - [Canvas]: Braille-based pixel canvas for phase portraits
//   - [Summary], [ComparisonTable], [SweepTable], [RunsTable]: styled reports
//   - Theme selection with built-in color schemes
//
// Plots resample to their width, so long trajectories render in constant space:
//
//	fmt.Println(viz.PlotVariable(res.Trajectory, 0, "x(t)", 80, 12))
package viz
