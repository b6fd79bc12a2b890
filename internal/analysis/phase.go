package analysis

import (
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D pairs two tracked variables sample by sample.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// PhasePortraitFromTrajectory pairs two tracked variables of a trajectory.
func PhasePortraitFromTrajectory(tr *dynamo.Trajectory[float64], xIdx, yIdx int) *PhasePortrait2D {
	if xIdx < 0 || yIdx < 0 || xIdx >= tr.Dim() || yIdx >= tr.Dim() {
		return nil
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, tr.Len()),
	}
	for i := 0; i < tr.Len(); i++ {
		portrait.Points = append(portrait.Points, Point{X: tr.Values[xIdx][i], Y: tr.Values[yIdx][i]})
	}
	return portrait
}

// PoincareSection holds the (XIndex, YIndex) projection of the state at every
// upward crossing of Threshold by variable CrossIndex.
type PoincareSection struct {
	CrossIndex     int
	Threshold      float64
	XIndex, YIndex int
	Points         []Point
}

// PoincareSectionFromTrajectory records the linearly interpolated state
// whenever the variable crossIdx crosses threshold upwards.
func PoincareSectionFromTrajectory(
	tr *dynamo.Trajectory[float64],
	crossIdx int,
	threshold float64,
	recordX, recordY int,
) *PoincareSection {
	d := tr.Dim()
	for _, j := range []int{crossIdx, recordX, recordY} {
		if j < 0 || j >= d {
			return nil
		}
	}

	section := &PoincareSection{
		CrossIndex: crossIdx,
		Threshold:  threshold,
		XIndex:     recordX,
		YIndex:     recordY,
	}
	for i := 1; i < tr.Len(); i++ {
		prevVal := tr.Values[crossIdx][i-1]
		currVal := tr.Values[crossIdx][i]
		if !(prevVal < threshold && currVal >= threshold) {
			continue
		}

		frac := (threshold - prevVal) / (currVal - prevVal)
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		lerp := func(j int) float64 {
			return tr.Values[j][i-1] + frac*(tr.Values[j][i]-tr.Values[j][i-1])
		}
		section.Points = append(section.Points, Point{X: lerp(recordX), Y: lerp(recordY)})
	}
	return section
}
