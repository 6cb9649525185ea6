/*
Package thermo is the orchestration layer: it wires nucleic_acid,
energy_params, semiring, thermo_model, dp_block, recursion, backtrack, and
concentration together behind a single FoldCompound entry point, the way
mfe.MinimumFreeEnergy sat on top of fold.fold in the teacher package.
*/
package thermo

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/TimothyStiles/nupack-go/backtrack"
	"github.com/TimothyStiles/nupack-go/dp_block"
	"github.com/TimothyStiles/nupack-go/energy_params"
	"github.com/TimothyStiles/nupack-go/nucleic_acid"
	"github.com/TimothyStiles/nupack-go/recursion"
	"github.com/TimothyStiles/nupack-go/semiring"
	"github.com/TimothyStiles/nupack-go/thermo_model"
)

// EnsembleMode names NUPACK's stacking/nostacking/min/all/none ensemble
// flag. It is stored in ModelConditions.Ensemble, but no code reads it:
// every mode evaluates the same recursion equations, which contain no
// dangle or coaxial-stack terms.
type EnsembleMode int

const (
	// EnsembleNoStacking names NUPACK's no-stacking ensemble.
	EnsembleNoStacking EnsembleMode = iota
	// EnsembleStacking names NUPACK's stacking ensemble; it is the value
	// DefaultConditions carries.
	EnsembleStacking
	// EnsembleMin names NUPACK's min-dangle ensemble.
	EnsembleMin
	// EnsembleAll names NUPACK's all-dangles ensemble.
	EnsembleAll
	// EnsembleNone names NUPACK's no-dangles, no-mismatch ensemble.
	EnsembleNone
)

// ModelConditions is the energy-model configuration every driver entry
// point takes, mirroring the teacher's vrna_md_t model-details struct.
type ModelConditions struct {
	TemperatureCelsius float64
	NaMolarity         float64
	MgMolarity         float64
	WobblePairing      bool
	WobbleClosing      bool
	Ensemble           EnsembleMode
	// Workers overrides recursion.Engine's worker-pool size; zero keeps the
	// engine's own default.
	Workers int
}

// PairRule derives the nucleic_acid.PairRule these conditions imply.
func (c ModelConditions) PairRule() nucleic_acid.PairRule {
	return nucleic_acid.PairRule{WobblePairing: c.WobblePairing, WobbleClosing: c.WobbleClosing}
}

// DefaultConditions matches nucleic_acid.DefaultPairRule at 37C with no
// added salt.
var DefaultConditions = ModelConditions{
	TemperatureCelsius: 37.0,
	WobblePairing:      true,
	WobbleClosing:      true,
	Ensemble:           EnsembleStacking,
}

// FoldCompound binds one nucleic-acid complex to an energy table and model
// conditions: the unit every driver entry point below operates on, named
// after NUPACK's own vrna_fold_compound_t-descended abstraction.
type FoldCompound struct {
	Complex    *nucleic_acid.Complex
	Table      *energy_params.Table
	Conditions ModelConditions
	Observer   Observer

	seq []nucleic_acid.Base
}

// NewFoldCompound returns a FoldCompound ready for any of the entry points
// below. It does not validate complex, table or conditions.
func NewFoldCompound(complex *nucleic_acid.Complex, table *energy_params.Table, conditions ModelConditions) *FoldCompound {
	return &FoldCompound{
		Complex:    complex,
		Table:      table,
		Conditions: conditions,
		seq:        complex.Sequence(),
	}
}

func (fc *FoldCompound) scaledTable() *energy_params.Table {
	return fc.Table.Scale(fc.Conditions.TemperatureCelsius, 0)
}

func (fc *FoldCompound) pfModel() *thermo_model.CachedModel[float64] {
	return thermo_model.NewCachedModel[float64](
		fc.scaledTable(), semiring.PFRing[float64]{}, fc.Conditions.PairRule(),
		thermo_model.PFBoltzFunc(fc.Conditions.TemperatureCelsius),
	)
}

func (fc *FoldCompound) mfeModel() *thermo_model.CachedModel[int] {
	return thermo_model.NewCachedModel[int](
		fc.scaledTable(), semiring.MFERing{}, fc.Conditions.PairRule(),
		thermo_model.MFEBoltzFunc(),
	)
}

func withWorkers[S any](e *recursion.Engine[S], n int) *recursion.Engine[S] {
	if n > 0 {
		e.Workers = n
	}
	return e
}

// PartitionFunction evaluates the complex's overall partition function,
// corrected for rotational symmetry among identical strands (spec §8,
// NUPACK's State.h convention).
func (fc *FoldCompound) PartitionFunction(ctx context.Context) (float64, error) {
	fc.notify(Event{Phase: PhasePartitionFunction, Stage: StageStart})
	model := fc.pfModel()
	engine := withWorkers(recursion.NewEngine[float64](model, fc.Conditions.PairRule()), fc.Conditions.Workers)
	block, err := engine.Evaluate(ctx, fc.seq)
	if err != nil {
		return 0, fmt.Errorf("thermo: PartitionFunction: %w", err)
	}
	n := len(fc.seq)
	q := block.Q.Get(0, n-1)
	q /= float64(fc.Complex.SymmetryOrder())
	fc.notify(Event{Phase: PhasePartitionFunction, Stage: StageDone})
	return q, nil
}

// MinimumFreeEnergyResult is MinimumFreeEnergy's return value: the optimal
// structure plus its energy in kcal/mol.
type MinimumFreeEnergyResult struct {
	Structure  nucleic_acid.PairList
	EnergyKcal float64
}

// MinimumFreeEnergy computes the complex's single lowest-energy structure
// and its energy, the structure-energy evaluator NUPACK's mfe/MFE.h and the
// teacher's mfe.MinimumFreeEnergy both provide.
func (fc *FoldCompound) MinimumFreeEnergy(ctx context.Context) (*MinimumFreeEnergyResult, error) {
	fc.notify(Event{Phase: PhaseMinimumFreeEnergy, Stage: StageStart})
	table := fc.scaledTable()
	model := fc.mfeModel()
	engine := withWorkers(recursion.NewEngine[int](model, fc.Conditions.PairRule()), fc.Conditions.Workers)
	block, err := engine.Evaluate(ctx, fc.seq)
	if err != nil {
		return nil, fmt.Errorf("thermo: MinimumFreeEnergy: %w", err)
	}
	n := len(fc.seq)
	energy := block.Q.Get(0, n-1)
	structure := backtrack.Traceback(table, fc.seq, block)
	fc.notify(Event{Phase: PhaseMinimumFreeEnergy, Stage: StageDone})
	return &MinimumFreeEnergyResult{Structure: structure, EnergyKcal: float64(energy) / 100.0}, nil
}

// Subopt enumerates up to limit distinct structures within gapKcal of the
// minimum free energy (see backtrack.Subopt's own documentation for the
// search and deduplication strategy).
func (fc *FoldCompound) Subopt(ctx context.Context, gapKcal float64, limit int) ([]nucleic_acid.PairList, error) {
	fc.notify(Event{Phase: PhaseSubopt, Stage: StageStart})
	table := fc.scaledTable()
	model := fc.mfeModel()
	engine := withWorkers(recursion.NewEngine[int](model, fc.Conditions.PairRule()), fc.Conditions.Workers)
	block, err := engine.Evaluate(ctx, fc.seq)
	if err != nil {
		return nil, fmt.Errorf("thermo: Subopt: %w", err)
	}
	gap := int(gapKcal*100.0 + 0.5)
	results := backtrack.Subopt(table, fc.seq, block, gap, limit)
	fc.notify(Event{Phase: PhaseSubopt, Stage: StageDone})
	return results, nil
}

// Sample draws one structure from the Boltzmann ensemble using r as the
// source of randomness (spec §9's "explicit RNG, never a package-global
// one" decision, recorded in DESIGN.md).
func (fc *FoldCompound) Sample(ctx context.Context, r *rand.Rand) (nucleic_acid.PairList, error) {
	fc.notify(Event{Phase: PhaseSample, Stage: StageStart})
	model := fc.pfModel()
	engine := withWorkers(recursion.NewEngine[float64](model, fc.Conditions.PairRule()), fc.Conditions.Workers)
	block, err := engine.Evaluate(ctx, fc.seq)
	if err != nil {
		return nil, fmt.Errorf("thermo: Sample: %w", err)
	}
	pairs, err := backtrack.Sample(model, fc.seq, block, r)
	if err != nil {
		return nil, fmt.Errorf("thermo: Sample: %w", err)
	}
	fc.notify(Event{Phase: PhaseSample, Stage: StageDone})
	return pairs, nil
}

// PairProbabilities computes base-pair probabilities via the
// duplicated-sequence trick (spec §4.6, NUPACK's PairProbability.h): the
// encoded sequence is internally doubled into one 2N-length sequence and
// P(i,j) is read off the resulting partition functions, exactly as
// backtrack.PairProbabilities expects. Only entries with i < j are filled;
// the diagonal (unpaired probabilities) and the lower triangle stay zero.
func (fc *FoldCompound) PairProbabilities(ctx context.Context) (*dp_block.Matrix[float64], error) {
	fc.notify(Event{Phase: PhasePairProbabilities, Stage: StageStart})
	n := len(fc.seq)
	doubled := make([]nucleic_acid.Base, 0, 2*n)
	doubled = append(doubled, fc.seq...)
	doubled = append(doubled, fc.seq...)

	model := fc.pfModel()
	engine := withWorkers(recursion.NewEngine[float64](model, fc.Conditions.PairRule()), fc.Conditions.Workers)
	block, err := engine.Evaluate(ctx, doubled)
	if err != nil {
		return nil, fmt.Errorf("thermo: PairProbabilities: %w", err)
	}
	probs := backtrack.PairProbabilities(semiring.PFRing[float64]{}, block, n)
	fc.notify(Event{Phase: PhasePairProbabilities, Stage: StageDone})
	return probs, nil
}

func (fc *FoldCompound) notify(e Event) {
	if fc.Observer != nil {
		fc.Observer(e)
	}
}
