package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/psmsim/internal/config"
	"github.com/san-kum/psmsim/internal/experiment"
	"github.com/san-kum/psmsim/internal/viz"
)

var (
	dataDir string
	debug   bool
	theme   string
)

// solveFlags are the run settings shared by solve, compare and sweep. Flags
// the user sets override the config file and the preset.
type solveFlags struct {
	configFile string
	preset     string
	method     string
	x0         []float64
	params     map[string]string
	end        float64
	step       float64
	degree     int
	eps        float64
	backward   bool
	both       bool
	maxDegree  int
	divisor    float64
	refined    bool
	maxStep    float64
	maxSteps   int
	radiusTol  float64
	stability  float64
}

func (f *solveFlags) register(cmd *cobra.Command, withMethod bool) {
	def := config.DefaultConfig()
	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.preset, "preset", "", "use preset configuration")
	if withMethod {
		fs.StringVar(&f.method, "method", def.Method, "solution method: fixed|order|radius|truncation|jorbazou|rk4|rk45|euler")
	}
	fs.Float64SliceVar(&f.x0, "x0", nil, "initial state of the leading variables")
	fs.StringToStringVar(&f.params, "param", nil, "equation parameters, name=value")
	fs.Float64Var(&f.end, "end", def.End, "length of the interval")
	fs.Float64Var(&f.step, "step", def.Step, "step of the fixed-step methods")
	fs.IntVar(&f.degree, "degree", def.Degree, "expansion degree of the fixed method")
	fs.Float64Var(&f.eps, "eps", def.Eps, "tolerance of order, truncation, jorbazou and rk45")
	fs.BoolVar(&f.backward, "backward", false, "integrate towards negative positions")
	fs.BoolVar(&f.both, "both", false, "integrate in both directions")
	fs.IntVar(&f.maxDegree, "max-degree", def.Solver.MaxDegree, "expansion degree of the adaptive methods, term limit of order")
	fs.Float64Var(&f.divisor, "divisor", def.Solver.SafetyDivisor, "radius safety divisor")
	fs.Float64Var(&f.radiusTol, "radius-tol", 0, "step the radius fraction whose series tail stays below this, instead of --divisor")
	fs.BoolVar(&f.refined, "refined", false, "use the refined truncation step")
	fs.Float64Var(&f.maxStep, "max-step", 0, "upper bound on adaptive steps, 0 for none")
	fs.IntVar(&f.maxSteps, "max-steps", def.Solver.MaxSteps, "iteration cap of the adaptive methods")
	fs.Float64Var(&f.stability, "stability-bound", def.StabilityBound, "state magnitude the stability metric tolerates")
}

// resolve builds the run configuration: defaults, then the config file, then
// the preset, then every flag the user set.
func (f *solveFlags) resolve(cmd *cobra.Command, equation string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if equation != "" {
		cfg.Equation = equation
	}
	if f.preset != "" {
		p := config.GetPreset(cfg.Equation, f.preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets(cfg.Equation))
		}
		cfg = p
	}

	changed := cmd.Flags().Changed
	if changed("method") {
		cfg.Method = f.method
	}
	if changed("x0") {
		cfg.X0 = f.x0
	}
	if changed("param") {
		if cfg.Params == nil {
			cfg.Params = map[string]float64{}
		}
		for k, s := range f.params {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", k, err)
			}
			cfg.Params[k] = v
		}
	}
	if changed("end") {
		cfg.End = f.end
	}
	if changed("step") {
		cfg.Step = f.step
	}
	if changed("degree") {
		cfg.Degree = f.degree
	}
	if changed("eps") {
		cfg.Eps = f.eps
	}
	switch {
	case f.both:
		cfg.Direction = config.Both
	case f.backward:
		cfg.Direction = config.Backward
	}
	if changed("max-degree") {
		cfg.Solver.MaxDegree = f.maxDegree
	}
	if changed("divisor") {
		cfg.Solver.SafetyDivisor = f.divisor
	}
	if changed("refined") {
		cfg.Solver.RefinedTruncation = f.refined
	}
	if changed("max-step") {
		cfg.Solver.MaxStep = f.maxStep
	}
	if changed("max-steps") {
		cfg.Solver.MaxSteps = f.maxSteps
	}
	if changed("radius-tol") {
		cfg.Solver.RadiusTolerance = f.radiusTol
	}
	if changed("stability-bound") {
		cfg.StabilityBound = f.stability
	}
	return cfg, cfg.Validate()
}

func runOptions() []experiment.Option {
	return []experiment.Option{
		experiment.WithLogger(slog.Default()),
		experiment.WithDebug(debug),
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "psm",
		Short:         "power series method ODE solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
			viz.SetTheme(theme)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".psmsim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every solver step")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeCyberpunk.Name, "color theme")

	rootCmd.AddCommand(
		solveCmd(),
		compareCmd(),
		sweepCmd(),
		listCmd(),
		showCmd(),
		browseCmd(),
		exportCmd(),
		analyzeCmd(),
		presetsCmd(),
		equationsCmd(),
		scenarioCmd(),
		paramsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusFail.Render("error:"), err)
		stop()
		os.Exit(1)
	}
}
