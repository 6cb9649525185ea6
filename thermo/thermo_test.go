package thermo

import (
	"context"
	"math/rand"
	"testing"

	"github.com/TimothyStiles/nupack-go/concentration"
	"github.com/TimothyStiles/nupack-go/energy_params"
	"github.com/TimothyStiles/nupack-go/nucleic_acid"
)

func hairpinComplex(t *testing.T) *nucleic_acid.Complex {
	t.Helper()
	strand, err := nucleic_acid.ParseStrand("GGGAAACCC")
	if err != nil {
		t.Fatalf("ParseStrand: %v", err)
	}
	complex, err := nucleic_acid.NewComplex(strand)
	if err != nil {
		t.Fatalf("NewComplex: %v", err)
	}
	return complex
}

func TestMinimumFreeEnergyFindsTheOuterStem(t *testing.T) {
	table := energy_params.NewDefaultTable()
	fc := NewFoldCompound(hairpinComplex(t), table, DefaultConditions)

	result, err := fc.MinimumFreeEnergy(context.Background())
	if err != nil {
		t.Fatalf("MinimumFreeEnergy: %v", err)
	}
	n := len(fc.seq)
	if result.Structure[0] != n-1 {
		t.Errorf("expected the outer stem (0,%d) to be paired in the MFE structure, got p[0]=%d", n-1, result.Structure[0])
	}
}

func TestPartitionFunctionAtLeastOne(t *testing.T) {
	table := energy_params.NewDefaultTable()
	fc := NewFoldCompound(hairpinComplex(t), table, DefaultConditions)

	q, err := fc.PartitionFunction(context.Background())
	if err != nil {
		t.Fatalf("PartitionFunction: %v", err)
	}
	if q < 1.0 {
		t.Errorf("expected Q >= 1 (the unpaired structure alone contributes 1), got %v", q)
	}
}

func TestSubOptIncludesAtLeastOneStructure(t *testing.T) {
	table := energy_params.NewDefaultTable()
	fc := NewFoldCompound(hairpinComplex(t), table, DefaultConditions)

	results, err := fc.Subopt(context.Background(), 0, 5)
	if err != nil {
		t.Fatalf("Subopt: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one structure within a zero kcal/mol gap")
	}
}

func TestSampleProducesAValidStructure(t *testing.T) {
	table := energy_params.NewDefaultTable()
	fc := NewFoldCompound(hairpinComplex(t), table, DefaultConditions)

	r := rand.New(rand.NewSource(7))
	structure, err := fc.Sample(context.Background(), r)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if err := structure.Validate(0, len(fc.seq)); err != nil {
		t.Errorf("Sample produced an invalid structure: %v", err)
	}
}

func TestPairProbabilitiesStayWithinUnitRange(t *testing.T) {
	table := energy_params.NewDefaultTable()
	fc := NewFoldCompound(hairpinComplex(t), table, DefaultConditions)

	probs, err := fc.PairProbabilities(context.Background())
	if err != nil {
		t.Fatalf("PairProbabilities: %v", err)
	}
	n := len(fc.seq)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p := probs.Get(i, j)
			if p < 0 || p > 1.0001 {
				t.Errorf("P(%d,%d) = %v out of [0,1]", i, j, p)
			}
		}
	}
}

func TestTubeEquilibriumConcentrationsAreNonNegative(t *testing.T) {
	table := energy_params.NewDefaultTable()
	strand, err := nucleic_acid.ParseStrand("GGGGCCCC")
	if err != nil {
		t.Fatalf("ParseStrand: %v", err)
	}
	monomerComplex, err := nucleic_acid.NewComplex(strand)
	if err != nil {
		t.Fatalf("NewComplex: %v", err)
	}
	duplexComplex, err := nucleic_acid.NewComplex(strand, strand)
	if err != nil {
		t.Fatalf("NewComplex: %v", err)
	}

	tube := &Tube{
		Strands:            []nucleic_acid.Strand{strand},
		TotalConcentration: []float64{1e-6},
		Conditions:         DefaultConditions,
		Species: []TubeSpecies{
			{FoldCompound: NewFoldCompound(monomerComplex, table, DefaultConditions), Composition: map[int]int{0: 1}},
			{FoldCompound: NewFoldCompound(duplexComplex, table, DefaultConditions), Composition: map[int]int{0: 2}},
		},
	}

	result, err := tube.EquilibriumConcentrations(context.Background(), concentration.LogTotalGuess{})
	if err != nil {
		t.Fatalf("EquilibriumConcentrations: %v", err)
	}
	if len(result.Concentration) != 2 {
		t.Fatalf("expected 2 species concentrations, got %d", len(result.Concentration))
	}
	for i, c := range result.Concentration {
		if c < 0 {
			t.Errorf("species %d has negative concentration %v", i, c)
		}
	}
}

func TestTubeSampleSpeciesPicksAWeightedSpecies(t *testing.T) {
	table := energy_params.NewDefaultTable()
	strand, err := nucleic_acid.ParseStrand("GGGGCCCC")
	if err != nil {
		t.Fatalf("ParseStrand: %v", err)
	}
	monomerComplex, err := nucleic_acid.NewComplex(strand)
	if err != nil {
		t.Fatalf("NewComplex: %v", err)
	}

	tube := &Tube{
		Strands:            []nucleic_acid.Strand{strand},
		TotalConcentration: []float64{1e-6},
		Conditions:         DefaultConditions,
		Species: []TubeSpecies{
			{FoldCompound: NewFoldCompound(monomerComplex, table, DefaultConditions), Composition: map[int]int{0: 1}},
		},
	}

	r := rand.New(rand.NewSource(3))
	idx, structure, err := tube.SampleSpecies(context.Background(), []float64{1e-6}, r)
	if err != nil {
		t.Fatalf("SampleSpecies: %v", err)
	}
	if idx != 0 {
		t.Errorf("expected the only species (index 0) to be picked, got %d", idx)
	}
	if err := structure.Validate(0, len(strand)); err != nil {
		t.Errorf("SampleSpecies produced an invalid structure: %v", err)
	}
}
