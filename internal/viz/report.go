package viz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/psmsim/internal/automation"
	"github.com/san-kum/psmsim/internal/experiment"
	"github.com/san-kum/psmsim/internal/storage"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = formatFloat(x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}

func status(err error) string {
	if err != nil {
		return StatusFail.Render("failed")
	}
	return StatusOK.Render("ok")
}

func row(label, value string) string {
	return MetricLabel.Render(fmt.Sprintf("%-14s", label)) + MetricValue.Render(value)
}

// Summary describes one run: its setup, final state and metrics. runErr is
// the error the run returned, if any.
func Summary(res *experiment.Result, runErr error) string {
	lines := []string{
		Title.Render(fmt.Sprintf("%s / %s", res.Equation, res.Method)),
		row("params", formatVector(res.Params)),
		row("x0", formatVector(res.X0)),
	}
	if tr := res.Trajectory; tr != nil && tr.Len() > 0 {
		lines = append(lines,
			row("steps", strconv.Itoa(tr.Len()-1)),
			row("reached", formatFloat(tr.Positions[tr.Len()-1])),
			row("final", formatVector(tr.Final())),
		)
	}
	lines = append(lines, row("elapsed", formatDuration(res.Elapsed)))

	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, row(name, formatFloat(res.Metrics[name])))
	}

	lines = append(lines, row("status", status(runErr)))
	if runErr != nil {
		lines = append(lines, StatusFail.Render(runErr.Error()))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return Title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// ComparisonTable lays out one row per compared method.
func ComparisonTable(cs []experiment.Comparison) string {
	t := newTable("method", "steps", "reached", "max err", "rms err", "final err", "elapsed", "status")
	for _, c := range cs {
		t.Row(
			c.Method,
			strconv.Itoa(c.Steps),
			formatFloat(c.FinalPosition),
			formatFloat(c.Error.MaxAbs),
			formatFloat(c.Error.RMS),
			formatFloat(c.Error.Final),
			formatDuration(c.Elapsed),
			status(c.Err),
		)
	}
	return t.Render()
}

func SweepTable(points []experiment.SweepPoint) string {
	t := newTable("degree", "steps", "max err", "final err", "elapsed", "status")
	for _, p := range points {
		t.Row(
			strconv.Itoa(p.Degree),
			strconv.Itoa(p.Steps),
			formatFloat(p.Error.MaxAbs),
			formatFloat(p.Error.Final),
			formatDuration(p.Elapsed),
			status(p.Err),
		)
	}
	return t.Render()
}

func RunsTable(runs []storage.RunMetadata) string {
	t := newTable("id", "equation", "method", "steps", "elapsed ms", "time")
	for _, r := range runs {
		id := r.ID
		if r.Failed != "" {
			id = StatusFail.Render(id)
		}
		t.Row(
			id,
			r.Equation,
			r.Method,
			strconv.Itoa(r.Steps),
			formatFloat(r.ElapsedMS),
			r.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return t.Render()
}

// ParamTable lays out a parameter sweep, one row per value.
func ParamTable(param string, points []automation.ParamPoint) string {
	t := newTable(param, "steps", "final", "status")
	for _, p := range points {
		t.Row(
			formatFloat(p.Value),
			strconv.Itoa(p.Steps),
			formatVector(p.Final),
			status(p.Err),
		)
	}
	return t.Render()
}
