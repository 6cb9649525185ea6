package thermo

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	weightedrand "github.com/mroth/weightedrand"

	"github.com/TimothyStiles/nupack-go/concentration"
	"github.com/TimothyStiles/nupack-go/nucleic_acid"
)

// TubeSpecies is one candidate ordered complex in a Tube: its FoldCompound
// (for partition-function/sampling work) and its strand composition (for
// the equilibrium solver's mass-conservation matrix).
type TubeSpecies struct {
	FoldCompound *FoldCompound
	// Composition maps a strand index (into Tube.Strands) to how many
	// copies of that strand this species contains.
	Composition map[int]int
}

// Tube is a set of monomer strands at given total concentrations together
// with the ordered complexes ("species") they may form -- the top-level
// object concentration.Solve and backtrack.Sample both ultimately serve
// (spec §4.7, "Equilibrium concentration solver").
type Tube struct {
	Strands            []nucleic_acid.Strand
	TotalConcentration []float64
	Species            []TubeSpecies
	Conditions         ModelConditions
	Observer           Observer
}

// EquilibriumConcentrationsResult pairs each Tube.Species with its solved
// equilibrium concentration.
type EquilibriumConcentrationsResult struct {
	Concentration []float64
	Iterations    int
}

// EquilibriumConcentrations computes each species' standard-state free
// energy from its own partition function (dG = -RT*ln(Q)) and hands the
// resulting problem to concentration.Solve.
func (tube *Tube) EquilibriumConcentrations(ctx context.Context, initial concentration.InitialGuess) (*EquilibriumConcentrationsResult, error) {
	tube.notify(Event{Phase: PhaseEquilibriumSolve, Stage: StageStart})
	beta := 1.0 / (0.0019872041 * (tube.Conditions.TemperatureCelsius + 273.15))

	species := make([]concentration.Species, len(tube.Species))
	for i, s := range tube.Species {
		q, err := s.FoldCompound.PartitionFunction(ctx)
		if err != nil {
			return nil, fmt.Errorf("thermo: EquilibriumConcentrations: species %d: %w", i, err)
		}
		if q <= 0 {
			return nil, fmt.Errorf("thermo: EquilibriumConcentrations: species %d has zero partition function", i)
		}
		freeEnergyKcal := -math.Log(q) / beta
		species[i] = concentration.Species{
			Composition: s.Composition,
			FreeEnergy:  int(freeEnergyKcal*100.0 + math.Copysign(0.5, freeEnergyKcal)),
		}
	}

	problem := concentration.Problem{
		TotalConcentration: tube.TotalConcentration,
		Species:            species,
		TemperatureCelsius: tube.Conditions.TemperatureCelsius,
	}
	result, err := concentration.Solve(problem, initial)
	if err != nil {
		return nil, fmt.Errorf("thermo: EquilibriumConcentrations: %w", err)
	}
	tube.notify(Event{Phase: PhaseEquilibriumSolve, Stage: StageDone})
	return &EquilibriumConcentrationsResult{Concentration: result.Concentration, Iterations: result.Iterations}, nil
}

// SampleSpecies draws one species index weighted by its equilibrium
// concentration, then draws a Boltzmann structure from that species' own
// ensemble. This is the "drawing which complex among several to sample
// from next" step backtrack.Sample's per-cell weightedChoice deliberately
// leaves to this outer, tube-level entry point, and is where
// github.com/mroth/weightedrand is actually exercised (a single cell-level
// pick is cheap enough not to need a Chooser's alias-method precompute;
// choosing among a tube's handful of species, repeatedly, is not).
func (tube *Tube) SampleSpecies(ctx context.Context, concentrations []float64, r *rand.Rand) (int, nucleic_acid.PairList, error) {
	if len(concentrations) != len(tube.Species) {
		return 0, nil, fmt.Errorf("thermo: SampleSpecies: %d concentrations for %d species", len(concentrations), len(tube.Species))
	}
	choices := make([]weightedrand.Choice, len(concentrations))
	maxConc := 0.0
	for _, c := range concentrations {
		if c > maxConc {
			maxConc = c
		}
	}
	if maxConc <= 0 {
		return 0, nil, fmt.Errorf("thermo: SampleSpecies: every species has zero concentration")
	}
	const weightScale = 1_000_000
	for i, c := range concentrations {
		weight := uint(c / maxConc * weightScale)
		choices[i] = weightedrand.Choice{Item: i, Weight: weight + 1}
	}

	chooser := weightedrand.NewChooser(choices...)
	idx := chooser.Pick().(int)

	tube.notify(Event{Phase: PhaseTubeSample, Stage: StageStart, Detail: idx})
	structure, err := tube.Species[idx].FoldCompound.Sample(ctx, r)
	if err != nil {
		return idx, nil, fmt.Errorf("thermo: SampleSpecies: %w", err)
	}
	tube.notify(Event{Phase: PhaseTubeSample, Stage: StageDone, Detail: idx})
	return idx, structure, nil
}

func (tube *Tube) notify(e Event) {
	if tube.Observer != nil {
		tube.Observer(e)
	}
}
