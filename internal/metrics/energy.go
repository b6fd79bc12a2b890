package metrics

import (
	"math"

	"github.com/san-kum/psmsim/internal/dynamo"
	"github.com/san-kum/psmsim/internal/physics"
)

// Energy averages the conserved quantity of a model over the accepted steps.
type Energy struct {
	name        string
	model       physics.Hamiltonian[float64]
	params      []float64
	samples     int
	totalEnergy float64
}

func NewEnergy(model physics.Hamiltonian[float64], params []float64) *Energy {
	return &Energy{
		name:   "energy",
		model:  model,
		params: params,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) OnStep(_, _ float64, x dynamo.State[float64]) {
	e.totalEnergy += e.model.Energy(e.params, x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation of the energy from its value
// at the initial state.
type EnergyDrift struct {
	name          string
	model         physics.Hamiltonian[float64]
	params        []float64
	initialEnergy float64
	maxDrift      float64
}

func NewEnergyDrift(model physics.Hamiltonian[float64], params, x0 []float64) *EnergyDrift {
	return &EnergyDrift{
		name:          "energy_drift",
		model:         model,
		params:        params,
		initialEnergy: model.Energy(params, x0),
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnStep(_, _ float64, x dynamo.State[float64]) {
	energy := e.model.Energy(e.params, x)
	drift := math.Abs(energy - e.initialEnergy)
	if e.initialEnergy != 0 {
		drift /= math.Abs(e.initialEnergy)
	}
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.maxDrift = 0
}
