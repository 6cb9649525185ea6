package thermo_model

import (
	"math"
	"testing"

	"github.com/TimothyStiles/nupack-go/energy_params"
	"github.com/TimothyStiles/nupack-go/nucleic_acid"
	"github.com/TimothyStiles/nupack-go/semiring"
)

func TestReserveIsIdempotentAndGrowOnly(t *testing.T) {
	table := energy_params.NewDefaultTable()
	model := NewCachedModel(table, semiring.PFRing[float64]{}, nucleic_acid.DefaultPairRule, PFBoltzFunc(37.0))

	if err := model.Reserve(10); err != nil {
		t.Fatalf("Reserve(10): %v", err)
	}
	first := model.IntSize(5)

	if err := model.Reserve(5); err != nil {
		t.Fatalf("Reserve(5): %v", err)
	}
	if model.IntSize(5) != first {
		t.Errorf("shrinking Reserve should not change already-grown values")
	}

	if err := model.Reserve(20); err != nil {
		t.Fatalf("Reserve(20): %v", err)
	}
	if model.IntSize(5) != first {
		t.Errorf("growing Reserve should preserve previously computed entries")
	}
}

func TestPFBoltzFuncMonotonicity(t *testing.T) {
	boltz := PFBoltzFunc(37.0)
	favorable := boltz(-200)
	unfavorable := boltz(200)
	if !(favorable > unfavorable) {
		t.Errorf("more favorable (negative) energy should have larger Boltzmann weight: %v vs %v", favorable, unfavorable)
	}
	if boltz(0) != 1 {
		t.Errorf("Boltz(0) = %v, want 1", boltz(0))
	}
}

func TestPFBoltzFuncCoercesForbiddenToZero(t *testing.T) {
	boltz := PFBoltzFunc(37.0)
	if v := boltz(2_000_000); v != 0 {
		t.Errorf("forbidden energy should coerce to 0 Boltzmann weight, got %v", v)
	}
}

func TestMFEBoltzFuncIsIdentity(t *testing.T) {
	boltz := MFEBoltzFunc()
	if boltz(-140) != -140 {
		t.Errorf("MFEBoltzFunc should be the identity")
	}
}

func TestStackPositiveForCanonicalPairs(t *testing.T) {
	table := energy_params.NewDefaultTable()
	model := NewCachedModel(table, semiring.PFRing[float64]{}, nucleic_acid.DefaultPairRule, PFBoltzFunc(37.0))
	a := model.Stack(nucleic_acid.C, nucleic_acid.G, nucleic_acid.A, nucleic_acid.U)
	if math.IsNaN(a) || a <= 0 {
		t.Errorf("Stack(C,G,A,U) = %v, want a positive finite Boltzmann weight", a)
	}
}

func TestJoinPenaltySingleStrandIsOne(t *testing.T) {
	table := energy_params.NewDefaultTable()
	model := NewCachedModel(table, semiring.PFRing[float64]{}, nucleic_acid.DefaultPairRule, PFBoltzFunc(37.0))
	if model.JoinPenalty(1) != 1 {
		t.Errorf("JoinPenalty(1) = %v, want 1 (ring one)", model.JoinPenalty(1))
	}
	if model.JoinPenalty(2) >= 1 {
		t.Errorf("JoinPenalty(2) should be < 1 (unfavorable join cost)")
	}
}
