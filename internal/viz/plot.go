package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/psmsim/internal/analysis"
	"github.com/san-kum/psmsim/internal/dynamo"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Red,
	asciigraph.Blue,
}

// finiteOnly drops non-finite values, which asciigraph cannot scale.
func finiteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if finite(v) {
			out = append(out, v)
		}
	}
	return out
}

// PlotVariable charts one tracked variable of tr against its sample index.
func PlotVariable(tr *dynamo.Trajectory[float64], variable int, caption string, width, height int) string {
	if tr == nil || variable < 0 || variable >= tr.Dim() {
		return ""
	}
	data := finiteOnly(tr.Variable(variable))
	if len(data) == 0 {
		return ""
	}
	if caption == "" {
		caption = fmt.Sprintf("x%d", variable)
	}
	first, last := tr.Positions[0], tr.Positions[tr.Len()-1]
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s on [%.4g, %.4g]", caption, math.Min(first, last), math.Max(first, last))),
	)
}

// PlotSeries charts several equally long series on shared axes, one color each.
func PlotSeries(series [][]float64, names []string, width, height int) string {
	data := make([][]float64, 0, len(series))
	labels := make([]string, 0, len(series))
	colors := make([]asciigraph.AnsiColor, 0, len(series))
	for i, s := range series {
		s = finiteOnly(s)
		if len(s) == 0 {
			continue
		}
		data = append(data, s)
		colors = append(colors, seriesColors[i%len(seriesColors)])
		if i < len(names) {
			labels = append(labels, names[i])
		} else {
			labels = append(labels, fmt.Sprintf("x%d", i))
		}
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(strings.Join(labels, ", ")),
	)
}

// PlotSpectrum charts the lower quarter of a power spectrum, where the
// interesting frequencies of a smooth solution live.
func PlotSpectrum(power []float64, caption string, width, height int) string {
	n := len(power) / 4
	if n < 2 {
		n = len(power)
	}
	data := finiteOnly(power[:n])
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

func coordinates(points []analysis.Point) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// PhaseCanvas draws the portrait as a connected curve on a Braille canvas.
func PhaseCanvas(portrait *analysis.PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}
	c := NewCanvas(width, height)
	c.Polyline(coordinates(portrait.Points))
	return c.String()
}

// PoincareCanvas plots the crossings of a Poincaré section as isolated dots.
func PoincareCanvas(section *analysis.PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return ""
	}
	c := NewCanvas(width, height)
	c.Scatter(coordinates(section.Points))
	return c.String()
}
