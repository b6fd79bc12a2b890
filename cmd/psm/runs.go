package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"

	"github.com/san-kum/psmsim/internal/analysis"
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/experiment"
	"github.com/san-kum/psmsim/internal/export"
	"github.com/san-kum/psmsim/internal/storage"
	"github.com/san-kum/psmsim/internal/tui"
	"github.com/san-kum/psmsim/internal/viz"
)

type storedRun struct {
	meta       *storage.RunMetadata
	tr         *dynamo.Trajectory[float64]
	derivative []float64
}

// loadRun reads the run named by args, or the latest run when args is empty.
func loadRun(st *storage.Store, args []string) (*storedRun, error) {
	runID := ""
	if len(args) > 0 {
		runID = args[0]
	} else {
		latest, err := st.Latest()
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	tr, derivative, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, err
	}
	return &storedRun{meta: meta, tr: tr, derivative: derivative}, nil
}

func (r *storedRun) result() (*experiment.Result, error) {
	res := &experiment.Result{
		Equation:   r.meta.Equation,
		Method:     r.meta.Method,
		Config:     r.meta.Config,
		Params:     r.meta.Params,
		X0:         r.meta.X0,
		StateNames: r.meta.StateNames,
		Trajectory: r.tr,
		Derivative: r.derivative,
		Metrics:    r.meta.Metrics,
	}
	var runErr error
	if r.meta.Failed != "" {
		runErr = errors.New(r.meta.Failed)
	}
	return res, runErr
}

func (r *storedRun) entry() tui.Entry {
	return tui.Entry{
		Title:      fmt.Sprintf("%s  %s/%s", r.meta.ID, r.meta.Equation, r.meta.Method),
		Names:      r.meta.StateNames,
		Trajectory: r.tr,
		Derivative: r.derivative,
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}
			fmt.Println(viz.RunsTable(runs))
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	var height int
	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarize and plot a stored run (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(storage.New(dataDir), args)
			if err != nil {
				return err
			}
			res, runErr := run.result()
			fmt.Println(viz.Summary(res, runErr))
			fmt.Println()
			for j := 0; j < min(run.tr.Dim(), 4); j++ {
				name := ""
				if j < len(run.meta.StateNames) {
					name = run.meta.StateNames[j]
				}
				fmt.Println(viz.PlotVariable(run.tr, j, name, 80, height))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&height, "height", 10, "plot height in rows")
	return cmd
}

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [run_id...]",
		Short: "browse stored runs interactively (default: all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			ids := args
			if len(ids) == 0 {
				runs, err := st.List()
				if err != nil {
					return err
				}
				for _, r := range runs {
					ids = append(ids, r.ID)
				}
			}
			if len(ids) == 0 {
				return errors.New("no runs found")
			}

			entries := make([]tui.Entry, 0, len(ids))
			for _, id := range ids {
				run, err := loadRun(st, []string{id})
				if err != nil {
					return fmt.Errorf("run %s: %w", id, err)
				}
				entries = append(entries, run.entry())
			}
			return tui.Run(entries...)
		},
	}
}

func exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as csv, json or an image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(storage.New(dataDir), args)
			if err != nil {
				return err
			}
			if out == "" && format != "json" {
				out = run.meta.ID + "." + format
			}

			switch format {
			case "json":
				data := storage.NewExportData(run.meta, run.tr, run.derivative)
				if out == "" {
					return storage.WriteJSON(os.Stdout, data)
				}
				err = storage.ExportJSON(out, data)
			case "csv":
				err = storage.ExportCSV(out, run.meta, run.tr, run.derivative)
			case "png", "svg", "pdf":
				p, perr := export.TrajectoryPlot(run.tr, run.meta.StateNames, nil,
					fmt.Sprintf("%s (%s)", run.meta.Equation, run.meta.Method))
				if perr != nil {
					return perr
				}
				err = export.Save(p, out)
			default:
				return fmt.Errorf("unknown format: %s (available: csv, json, png, svg, pdf)", format)
			}
			if err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv|json|png|svg|pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (json defaults to stdout)")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var (
		variable  int
		samples   int
		phase     bool
		poincare  bool
		cross     int
		threshold float64
		out       string
	)
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum, phase portrait and Poincaré section of a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(storage.New(dataDir), args)
			if err != nil {
				return err
			}
			if run.meta.Config == nil {
				return fmt.Errorf("run %s has no stored configuration", run.meta.ID)
			}
			if variable < 0 || variable >= run.tr.Dim() {
				return fmt.Errorf("variable %d out of range", variable)
			}
			if (phase || poincare) && run.tr.Dim() < 2 {
				return fmt.Errorf("phase views need two tracked variables, run has %d", run.tr.Dim())
			}

			// the run's own solver re-expands between samples, so adaptive
			// runs resample onto a uniform grid without interpolation error
			exp, err := experiment.New(run.meta.Config, experiment.NewRegistry(), runOptions()...)
			if err != nil {
				return err
			}
			dense, err := analysis.NewDense(exp.Solver(), exp.Params(), run.tr, max(exp.Degree(), 2)).Trajectory(samples)
			if err != nil {
				return err
			}
			positions, values := dense.Positions, dense.Values[variable]
			freqs, power := analysis.Spectrum(values, positions[1]-positions[0])

			fmt.Printf("frequency analysis: %s\n", run.meta.ID)
			fmt.Printf("equation: %s, variable %d, %d samples\n\n", run.meta.Equation, variable, samples)
			fmt.Println(viz.PlotSpectrum(power, fmt.Sprintf("power spectrum (x%d)", variable), 80, 15))
			fmt.Println()

			freq := analysis.DominantFrequency(freqs, power)
			fmt.Printf("dominant frequency: %.4g\n", freq)
			if freq > 0 {
				fmt.Printf("period: %.4g\n", 1/freq)
			}

			y := (variable + 1) % run.tr.Dim()
			names := run.meta.StateNames
			if phase {
				portrait := analysis.PhasePortraitFromTrajectory(dense, variable, y)
				fmt.Printf("\nphase portrait x%d vs x%d\n", y, variable)
				fmt.Print(viz.PhaseCanvas(portrait, 60, 20))
				if out != "" {
					p, err := export.PhasePlot(portrait, names, fmt.Sprintf("%s phase portrait", run.meta.Equation))
					if err != nil {
						return err
					}
					if err := saveFigure(p, out, "phase"); err != nil {
						return err
					}
				}
			}
			if poincare {
				if !cmd.Flags().Changed("cross") {
					cross = y
				}
				section := analysis.PoincareSectionFromTrajectory(dense, cross, threshold, variable, y)
				if section == nil {
					return fmt.Errorf("crossing variable %d out of range", cross)
				}
				fmt.Printf("\npoincaré section: x%d crossing %.4g upwards, %d points\n", cross, threshold, len(section.Points))
				if len(section.Points) == 0 {
					return nil
				}
				fmt.Print(viz.PoincareCanvas(section, 60, 20))
				if out != "" {
					p, err := export.PoincarePlot(section, names, fmt.Sprintf("%s Poincaré section", run.meta.Equation))
					if err != nil {
						return err
					}
					if err := saveFigure(p, out, "poincare"); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&variable, "variable", 0, "tracked variable to analyze")
	cmd.Flags().IntVar(&samples, "samples", 1024, "uniform samples for the transform")
	cmd.Flags().BoolVar(&phase, "phase", false, "also draw the phase portrait")
	cmd.Flags().BoolVar(&poincare, "poincare", false, "also draw the Poincaré section")
	cmd.Flags().IntVar(&cross, "cross", 0, "variable whose upward crossings define the section (default: the phase partner)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "crossing level of the section")
	cmd.Flags().StringVarP(&out, "out", "o", "", "save the phase views as figures, e.g. run.png becomes run-phase.png")
	return cmd
}

// saveFigure writes p next to base, tagging the file name with kind.
func saveFigure(p *plot.Plot, base, kind string) error {
	ext := filepath.Ext(base)
	path := strings.TrimSuffix(base, ext) + "-" + kind + ext
	if err := export.Save(p, path); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", path)
	return nil
}
