package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/psmsim/internal/config"
	"github.com/san-kum/psmsim/internal/experiment"
	"github.com/san-kum/psmsim/internal/viz"
)

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [equation]",
		Short: "list presets for an equation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for %s\n", args[0])
				return nil
			}
			for _, name := range names {
				p := config.GetPreset(args[0], name)
				fmt.Printf("  %s  %s\n",
					viz.Selected.Render(fmt.Sprintf("%-12s", name)),
					viz.Subtle.Render(fmt.Sprintf("%s x0=%v end=%g %s", p.Method, p.X0, p.End, p.Direction)))
			}
			return nil
		},
	}
}

func equationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "equations",
		Short: "list the available equations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			for _, name := range reg.ListEquations() {
				m, err := reg.GetEquation(name)
				if err != nil {
					return err
				}
				params := make([]string, len(m.ParamNames()))
				for i, p := range m.ParamNames() {
					params[i] = fmt.Sprintf("%s=%g", p, m.DefaultParams()[i])
				}
				fmt.Printf("  %s  %s  %s\n",
					viz.Selected.Render(fmt.Sprintf("%-10s", name)),
					viz.MetricValue.Render("["+strings.Join(m.StateNames(), " ")+"]"),
					viz.Subtle.Render(strings.Join(params, " ")))
			}
			return nil
		},
	}
}
