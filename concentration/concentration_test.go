package concentration

import (
	"math"
	"testing"
)

func TestSolveConservesMassForSelfDimer(t *testing.T) {
	p := Problem{
		TotalConcentration: []float64{1e-6},
		Species: []Species{
			{Composition: map[int]int{0: 1}, FreeEnergy: 0},     // monomer
			{Composition: map[int]int{0: 2}, FreeEnergy: -4000}, // strongly favored duplex
		},
		TemperatureCelsius: 37.0,
	}

	result, err := Solve(p, LogTotalGuess{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(result.Concentration) != 2 {
		t.Fatalf("expected 2 species concentrations, got %d", len(result.Concentration))
	}

	monomer, duplex := result.Concentration[0], result.Concentration[1]
	if monomer < 0 || duplex < 0 {
		t.Fatalf("concentrations must be non-negative, got monomer=%v duplex=%v", monomer, duplex)
	}

	conserved := monomer + 2*duplex
	if math.Abs(conserved-p.TotalConcentration[0]) > 1e-9*p.TotalConcentration[0]+1e-15 {
		t.Errorf("mass not conserved: monomer + 2*duplex = %v, want %v", conserved, p.TotalConcentration[0])
	}

	// The duplex's free energy is strongly favorable, so at equilibrium most
	// of the strand should be tied up as duplex rather than free monomer.
	if duplex <= monomer {
		t.Errorf("expected the strongly favored duplex to dominate: monomer=%v duplex=%v", monomer, duplex)
	}
}

func TestSolveConservesMassForHeterodimer(t *testing.T) {
	p := Problem{
		TotalConcentration: []float64{2e-6, 5e-6},
		Species: []Species{
			{Composition: map[int]int{0: 1}, FreeEnergy: 0},
			{Composition: map[int]int{1: 1}, FreeEnergy: 0},
			{Composition: map[int]int{0: 1, 1: 1}, FreeEnergy: -3000},
		},
		TemperatureCelsius: 25.0,
	}

	result, err := Solve(p, MonomerBalanceGuess{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	strandA := result.Concentration[0] + result.Concentration[2]
	strandB := result.Concentration[1] + result.Concentration[2]
	if math.Abs(strandA-p.TotalConcentration[0]) > 1e-9*p.TotalConcentration[0]+1e-15 {
		t.Errorf("strand A not conserved: got %v, want %v", strandA, p.TotalConcentration[0])
	}
	if math.Abs(strandB-p.TotalConcentration[1]) > 1e-9*p.TotalConcentration[1]+1e-15 {
		t.Errorf("strand B not conserved: got %v, want %v", strandB, p.TotalConcentration[1])
	}
}

func TestSolveNoSpeciesReturnsEmptyResult(t *testing.T) {
	p := Problem{TotalConcentration: []float64{1e-6}, TemperatureCelsius: 37.0}
	result, err := Solve(p, LogTotalGuess{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if result.Concentration != nil {
		t.Errorf("expected a nil concentration slice for an empty species list, got %v", result.Concentration)
	}
}

func TestMonomerBalanceGuessMatchesLogTotalWhenSpeciesCountIsLow(t *testing.T) {
	p := Problem{
		TotalConcentration: []float64{1e-6},
		Species:            []Species{{Composition: map[int]int{0: 1}, FreeEnergy: 0}},
		TemperatureCelsius: 37.0,
	}
	a := stoichiometryMatrix(p, 1, 1)
	logQ := []float64{0}

	lg := LogTotalGuess{}.Guess(p, a, logQ)
	mg := MonomerBalanceGuess{}.Guess(p, a, logQ)
	if len(lg) != len(mg) || lg[0] != mg[0] {
		t.Errorf("expected MonomerBalanceGuess to fall back to LogTotalGuess when species count <= strand count, got %v vs %v", mg, lg)
	}
}
