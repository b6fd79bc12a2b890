package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/psmsim/internal/config"
	"github.com/san-kum/psmsim/internal/experiment"
	"github.com/san-kum/psmsim/internal/export"
	"github.com/san-kum/psmsim/internal/storage"
	"github.com/san-kum/psmsim/internal/viz"
)

func equationArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func solveCmd() *cobra.Command {
	var (
		f          solveFlags
		save       bool
		plotTerm   bool
		pngPath    string
		derivative bool
	)
	cmd := &cobra.Command{
		Use:   "solve [equation]",
		Short: "solve an equation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd, equationArg(args))
			if err != nil {
				return err
			}

			opts := runOptions()
			if derivative {
				opts = append(opts, experiment.WithDerivative())
			}
			exp, err := experiment.New(cfg, experiment.NewRegistry(), opts...)
			if err != nil {
				return err
			}

			// a failed run still reports, plots and saves its partial trajectory
			res, runErr := exp.Run(cmd.Context())
			if res == nil {
				return runErr
			}

			fmt.Println(viz.Summary(res, runErr))
			if plotTerm && res.Trajectory != nil {
				for j := 0; j < min(res.Trajectory.Dim(), 4); j++ {
					fmt.Println(viz.PlotVariable(res.Trajectory, j, res.StateNames[j], 80, 10))
					fmt.Println()
				}
			}
			if pngPath != "" && res.Trajectory != nil {
				p, err := export.TrajectoryPlot(res.Trajectory, res.StateNames, nil, fmt.Sprintf("%s (%s)", res.Equation, res.Method))
				if err != nil {
					return err
				}
				if err := export.Save(p, pngPath); err != nil {
					return err
				}
				slog.Info("plot written", slog.String("path", pngPath))
			}
			if save {
				st := storage.New(dataDir)
				if err := st.Init(); err != nil {
					return err
				}
				runID, err := st.Save(res, runErr)
				if err != nil {
					return err
				}
				fmt.Printf("saved: %s\n", runID)
			}
			return runErr
		},
	}
	f.register(cmd, true)
	cmd.Flags().BoolVar(&save, "save", false, "store the run in the data directory")
	cmd.Flags().BoolVar(&plotTerm, "plot", false, "plot the tracked variables in the terminal")
	cmd.Flags().StringVar(&pngPath, "png", "", "write a plot of the trajectory to this file")
	cmd.Flags().BoolVar(&derivative, "derivative", false, "record the derivative of the primary variable")
	return cmd
}

func compareCmd() *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "compare [equation] [methods...]",
		Short: "compare solution methods on one equation",
		Long: "Runs the equation once per method and reports steps, time and the error of the\n" +
			"primary variable against the exact solution, or a tight Jorba-Zou solution when\n" +
			"the equation has none.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd, args[0])
			if err != nil {
				return err
			}
			methods := args[1:]
			for _, m := range methods {
				if !slices.Contains(config.Methods, m) {
					return fmt.Errorf("unknown method: %s (available: %s)", m, strings.Join(config.Methods, ", "))
				}
			}

			cs, err := experiment.Compare(cmd.Context(), cfg, experiment.NewRegistry(), methods, runOptions()...)
			if cs == nil {
				return err
			}
			fmt.Printf("%s on [0, %g], direction %s\n", cfg.Equation, cfg.End, cfg.Direction)
			fmt.Println(viz.ComparisonTable(cs))
			return err
		},
	}
	f.register(cmd, false)
	return cmd
}

func sweepCmd() *cobra.Command {
	var (
		f        solveFlags
		from, to int
		workers  int
		pngPath  string
	)
	cmd := &cobra.Command{
		Use:   "sweep [equation]",
		Short: "time one method over a range of expansion degrees",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd, equationArg(args))
			if err != nil {
				return err
			}
			if from < 2 || to < from {
				return fmt.Errorf("invalid degree range [%d, %d]", from, to)
			}
			degrees := make([]int, 0, to-from+1)
			for d := from; d <= to; d++ {
				degrees = append(degrees, d)
			}

			points, err := experiment.Sweep(cmd.Context(), cfg, experiment.NewRegistry(), degrees, workers, runOptions()...)
			if err != nil {
				return err
			}
			fmt.Printf("%s / %s on [0, %g]\n", cfg.Equation, cfg.Method, cfg.End)
			fmt.Println(viz.SweepTable(points))

			if pngPath != "" {
				p, err := export.ConvergencePlot(points, fmt.Sprintf("%s (%s)", cfg.Equation, cfg.Method))
				if err != nil {
					return err
				}
				return export.Save(p, pngPath)
			}
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().IntVar(&from, "from", 4, "lowest degree")
	cmd.Flags().IntVar(&to, "to", 20, "highest degree")
	cmd.Flags().IntVar(&workers, "workers", 1, "concurrent runs, 1 keeps timings clean")
	cmd.Flags().StringVar(&pngPath, "png", "", "write the error against degree to this file")
	return cmd
}
