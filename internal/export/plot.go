// Package export renders trajectories to image files with gonum/plot.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/psmsim/internal/analysis"
	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/experiment"
)

var ErrNoData = errors.New("export: nothing to plot")

// Size of saved figures, in inches.
const (
	FigureWidth  = 8.0
	FigureHeight = 6.0
	pngDPI       = 150
)

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Padding = vg.Points(8)
	p.Y.Padding = vg.Points(8)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
}

func line(xs, ys []float64, i int) (*plotter.Line, error) {
	pts := make(plotter.XYs, 0, len(xs))
	for k := range xs {
		if finite(xs[k]) && finite(ys[k]) {
			pts = append(pts, plotter.XY{X: xs[k], Y: ys[k]})
		}
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Color = plotutil.Color(i)
	return l, nil
}

// TrajectoryPlot draws the given variables of tr against the position. A nil
// variables slice draws every variable.
func TrajectoryPlot(tr *dynamo.Trajectory[float64], names []string, variables []int, title string) (*plot.Plot, error) {
	if tr == nil || tr.Len() == 0 {
		return nil, ErrNoData
	}
	if variables == nil {
		for j := 0; j < tr.Dim(); j++ {
			variables = append(variables, j)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	stylePlot(p)

	for i, j := range variables {
		if j < 0 || j >= tr.Dim() {
			return nil, fmt.Errorf("export: variable %d out of range", j)
		}
		l, err := line(tr.Positions, tr.Values[j], i)
		if err != nil {
			return nil, err
		}
		p.Add(l)
		p.Legend.Add(label(names, j), l)
	}
	return p, nil
}

// PhasePlot draws a phase portrait.
func PhasePlot(portrait *analysis.PhasePortrait2D, names []string, title string) (*plot.Plot, error) {
	if portrait == nil || len(portrait.Points) == 0 {
		return nil, ErrNoData
	}
	xs, ys := coordinates(portrait.Points)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = label(names, portrait.XIndex)
	p.Y.Label.Text = label(names, portrait.YIndex)
	stylePlot(p)

	l, err := line(xs, ys, 0)
	if err != nil {
		return nil, err
	}
	p.Add(l)
	return p, nil
}

// PoincarePlot draws the crossings of a Poincaré section as a scatter.
func PoincarePlot(section *analysis.PoincareSection, names []string, title string) (*plot.Plot, error) {
	if section == nil {
		return nil, ErrNoData
	}
	pts := make(plotter.XYs, 0, len(section.Points))
	for _, pt := range section.Points {
		if finite(pt.X) && finite(pt.Y) {
			pts = append(pts, plotter.XY{X: pt.X, Y: pt.Y})
		}
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = label(names, section.XIndex)
	p.Y.Label.Text = label(names, section.YIndex)
	stylePlot(p)

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = plotutil.Color(0)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)
	return p, nil
}

// ConvergencePlot draws the maximum error of a degree sweep on a log scale.
// Points with no positive error are left out.
func ConvergencePlot(points []experiment.SweepPoint, title string) (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, len(points))
	for _, sp := range points {
		if sp.Err == nil && sp.Error.MaxAbs > 0 && finite(sp.Error.MaxAbs) {
			pts = append(pts, plotter.XY{X: float64(sp.Degree), Y: sp.Error.MaxAbs})
		}
	}
	if len(pts) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "degree"
	p.Y.Label.Text = "max error"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	stylePlot(p)

	if err := plotutil.AddLinePoints(p, "max error", pts); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes p to path; the extension picks the format (png, svg, pdf, ...).
func Save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return savePNG(p, FigureWidth, FigureHeight, path)
	}
	return p.Save(vg.Length(FigureWidth)*vg.Inch, vg.Length(FigureHeight)*vg.Inch, path)
}

func savePNG(p *plot.Plot, widthIn, heightIn float64, path string) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(pngDPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func label(names []string, j int) string {
	if j >= 0 && j < len(names) {
		return names[j]
	}
	return fmt.Sprintf("x%d", j)
}

func coordinates(points []analysis.Point) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, pt := range points {
		xs[i], ys[i] = pt.X, pt.Y
	}
	return xs, ys
}

func finite(x float64) bool { return x-x == 0 }
