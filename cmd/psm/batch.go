package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/psmsim/internal/automation"
	"github.com/san-kum/psmsim/internal/experiment"
	"github.com/san-kum/psmsim/internal/storage"
	"github.com/san-kum/psmsim/internal/viz"
)

func scenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the solves scripted in a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}

			results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), st, runOptions()...)
			fmt.Println(viz.Title.Render(sc.Name))
			if sc.Description != "" {
				fmt.Println(viz.Subtle.Render(sc.Description))
			}
			failed := 0
			for _, r := range results {
				fmt.Println(viz.Subtle.Render(r.Label))
				fmt.Println(viz.Summary(r.Result, r.Err))
				if r.RunID != "" {
					fmt.Printf("saved: %s\n", r.RunID)
				}
				if r.Err != nil {
					failed++
				}
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d steps failed", failed, len(results))
			}
			return nil
		},
	}
}

func paramsCmd() *cobra.Command {
	var (
		f     solveFlags
		sweep automation.ParameterSweep
	)
	cmd := &cobra.Command{
		Use:   "params [equation]",
		Short: "solve across a range of one equation parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd, equationArg(args))
			if err != nil {
				return err
			}
			points, err := automation.RunParameterSweep(cmd.Context(), cfg, experiment.NewRegistry(), sweep, runOptions()...)
			if points != nil {
				fmt.Printf("%s / %s on [0, %g]\n", cfg.Equation, cfg.Method, cfg.End)
				fmt.Println(viz.ParamTable(sweep.Param, points))
			}
			return err
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&sweep.Param, "name", "", "parameter to vary")
	cmd.Flags().Float64Var(&sweep.Min, "min", 0, "lowest value")
	cmd.Flags().Float64Var(&sweep.Max, "max", 1, "highest value")
	cmd.Flags().IntVar(&sweep.Points, "points", 5, "number of values")
	return cmd
}
