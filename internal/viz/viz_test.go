package viz

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/psmsim/internal/analysis"
	"github.com/san-kum/psmsim/internal/automation"
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/experiment"
	"github.com/san-kum/psmsim/internal/storage"
)

func circle(n int) *dynamo.Trajectory[float64] {
	tr := dynamo.NewTrajectory[float64]([]float64{1, 0}, n)
	for i := 1; i < n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n-1)
		tr.Append(t, []float64{math.Cos(t), math.Sin(t)})
	}
	return tr
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if c.Grid[0][0] != 0x2801 {
		t.Errorf("cell 0 = %U, want U+2801", c.Grid[0][0])
	}
	if c.Grid[0][1] != 0x2880 {
		t.Errorf("cell 1 = %U, want U+2880", c.Grid[0][1])
	}

	c.Clear()
	if c.String() != "\u2800\u2800\n" {
		t.Errorf("clear left %q", c.String())
	}
}

func TestCanvasPolyline(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Polyline([]float64{0, 1}, []float64{0, 1})

	// the diagonal runs from the bottom-left to the top-right cell
	if c.Grid[4][0] == blank || c.Grid[0][9] == blank {
		t.Errorf("diagonal not drawn:\n%s", c.String())
	}
	if c.Grid[0][0] != blank {
		t.Errorf("top-left should be empty:\n%s", c.String())
	}

	c.Clear()
	c.Polyline([]float64{math.NaN(), 0}, []float64{0, math.Inf(1)})
	if strings.Trim(c.String(), "\u2800\n") != "" {
		t.Error("non-finite points should not be drawn")
	}
}

func TestPhaseCanvas(t *testing.T) {
	portrait := analysis.PhasePortraitFromTrajectory(circle(64), 0, 1)
	out := PhaseCanvas(portrait, 20, 10)
	if lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n"); len(lines) != 10 {
		t.Errorf("expected 10 rows, got %d", len(lines))
	}
	if PhaseCanvas(nil, 20, 10) != "" {
		t.Error("nil portrait should render empty")
	}
}

func TestCanvasScatter(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Scatter([]float64{0, 1, math.NaN()}, []float64{0, 1, 0})
	if got, want := c.String(), "\u2840\u2808\n"; got != want {
		t.Errorf("scatter = %q, want %q", got, want)
	}
}

func TestPoincareCanvas(t *testing.T) {
	section := analysis.PoincareSectionFromTrajectory(circle(200), 1, -0.5, 0, 1)
	if section == nil || len(section.Points) == 0 {
		t.Fatal("expected sin t to cross -1/2 upwards")
	}
	out := PoincareCanvas(section, 10, 5)
	if strings.Trim(out, "\u2800\n") == "" {
		t.Errorf("expected lit dots:\n%s", out)
	}
	if PoincareCanvas(&analysis.PoincareSection{}, 10, 5) != "" {
		t.Error("empty section should render empty")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("empty sparkline = %q", got)
	}
	out := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if !strings.Contains(out, "▁") || !strings.Contains(out, "█") {
		t.Errorf("expected full range in %q", out)
	}
}

func TestPlotVariable(t *testing.T) {
	tr := circle(100)
	out := PlotVariable(tr, 0, "cos", 40, 8)
	if !strings.Contains(out, "cos on [0, 6.283]") {
		t.Errorf("caption missing from:\n%s", out)
	}
	if PlotVariable(tr, 5, "", 40, 8) != "" {
		t.Error("out of range variable should render empty")
	}
}

func TestPlotSeries(t *testing.T) {
	tr := circle(50)
	out := PlotSeries(tr.Values, []string{"x", "y"}, 40, 8)
	if !strings.Contains(out, "x, y") {
		t.Errorf("legend missing from:\n%s", out)
	}
	if PlotSeries([][]float64{{math.NaN()}}, nil, 40, 8) != "" {
		t.Error("all non-finite series should render empty")
	}
}

func TestSetTheme(t *testing.T) {
	defer SetTheme(ThemeCyberpunk.Name)

	SetTheme("retro")
	if CurrentTheme.Name != "retro" {
		t.Errorf("expected retro, got %s", CurrentTheme.Name)
	}
	SetTheme("no-such-theme")
	if CurrentTheme.Name != ThemeCyberpunk.Name {
		t.Errorf("unknown theme should fall back, got %s", CurrentTheme.Name)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("ThemeNames out of sync")
	}
}

func TestSummary(t *testing.T) {
	res := &experiment.Result{
		Equation:   "linear",
		Method:     "radius",
		Params:     []float64{1},
		X0:         []float64{1},
		Trajectory: circle(10),
		Metrics:    map[string]float64{"steps": 9},
		Elapsed:    time.Millisecond,
	}
	out := Summary(res, nil)
	for _, want := range []string{"linear / radius", "steps", "ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	out = Summary(res, errors.New("step 4: boom"))
	if !strings.Contains(out, "failed") || !strings.Contains(out, "step 4: boom") {
		t.Errorf("failure not shown:\n%s", out)
	}
}

func TestTables(t *testing.T) {
	cmp := ComparisonTable([]experiment.Comparison{
		{Method: "radius", Steps: 12, Error: analysis.ErrorReport{MaxAbs: 1e-9}},
		{Method: "rk4", Steps: 100, Err: errors.New("boom")},
	})
	for _, want := range []string{"method", "radius", "rk4", "1e-09", "failed"} {
		if !strings.Contains(cmp, want) {
			t.Errorf("comparison table missing %q:\n%s", want, cmp)
		}
	}

	sweep := SweepTable([]experiment.SweepPoint{{Degree: 6, Steps: 10}})
	if !strings.Contains(sweep, "degree") || !strings.Contains(sweep, "6") {
		t.Errorf("unexpected sweep table:\n%s", sweep)
	}

	params := ParamTable("a", []automation.ParamPoint{{Value: 0.5, Steps: 10, Final: []float64{1.5}}})
	if !strings.Contains(params, "0.5") || !strings.Contains(params, "[1.5]") {
		t.Errorf("unexpected param table:\n%s", params)
	}

	runs := RunsTable([]storage.RunMetadata{{ID: "flame_fixed_1", Equation: "flame", Method: "fixed"}})
	if !strings.Contains(runs, "flame_fixed_1") {
		t.Errorf("unexpected runs table:\n%s", runs)
	}
}
