package recursion

import (
	"context"
	"testing"

	"github.com/TimothyStiles/nupack-go/energy_params"
	"github.com/TimothyStiles/nupack-go/nucleic_acid"
	"github.com/TimothyStiles/nupack-go/semiring"
	"github.com/TimothyStiles/nupack-go/thermo_model"
)

func shortHairpinSeq(t *testing.T) []nucleic_acid.Base {
	t.Helper()
	strand, err := nucleic_acid.ParseStrand("GGGAAACCC")
	if err != nil {
		t.Fatalf("ParseStrand: %v", err)
	}
	complex, err := nucleic_acid.NewComplex(strand)
	if err != nil {
		t.Fatalf("NewComplex: %v", err)
	}
	return complex.Sequence()
}

func TestEvaluateMFEHairpinIsFinite(t *testing.T) {
	table := energy_params.NewDefaultTable()
	model := thermo_model.NewCachedModel[int](table, semiring.MFERing{}, nucleic_acid.DefaultPairRule, thermo_model.MFEBoltzFunc())
	engine := NewEngine[int](model, nucleic_acid.DefaultPairRule)

	seq := shortHairpinSeq(t)
	block, err := engine.Evaluate(context.Background(), seq)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	n := len(seq)
	mfe := block.Q.Get(0, n-1)
	if mfe >= semiring.InfEnergy {
		t.Fatalf("expected a finite MFE for a stem-loop, got %d", mfe)
	}
	if block.QB.Get(0, n-1) >= semiring.InfEnergy {
		t.Errorf("expected the outer pair to be formable")
	}
}

func TestEvaluatePFAtLeastAsLargeAsQB(t *testing.T) {
	table := energy_params.NewDefaultTable()
	model := thermo_model.NewCachedModel[float64](table, semiring.PFRing[float64]{}, nucleic_acid.DefaultPairRule, thermo_model.PFBoltzFunc(37.0))
	engine := NewEngine[float64](model, nucleic_acid.DefaultPairRule)

	seq := shortHairpinSeq(t)
	block, err := engine.Evaluate(context.Background(), seq)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	n := len(seq)
	q := block.Q.Get(0, n-1)
	qb := block.QB.Get(0, n-1)
	if q < qb {
		t.Errorf("Q(0,n-1) = %v must be >= QB(0,n-1) = %v: QB's structures are a subset of Q's", q, qb)
	}
	if q <= 1.0 {
		t.Errorf("expected Q > 1 (more than just the fully-unpaired structure) for a foldable sequence, got %v", q)
	}
}

func TestEvaluateSingleStrandedSequenceHasNoPairs(t *testing.T) {
	table := energy_params.NewDefaultTable()
	model := thermo_model.NewCachedModel[float64](table, semiring.PFRing[float64]{}, nucleic_acid.DefaultPairRule, thermo_model.PFBoltzFunc(37.0))
	engine := NewEngine[float64](model, nucleic_acid.DefaultPairRule)

	strand, err := nucleic_acid.ParseStrand("AAAA")
	if err != nil {
		t.Fatalf("ParseStrand: %v", err)
	}
	complex, err := nucleic_acid.NewComplex(strand)
	if err != nil {
		t.Fatalf("NewComplex: %v", err)
	}
	seq := complex.Sequence()

	block, err := engine.Evaluate(context.Background(), seq)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	n := len(seq)
	if got := block.Q.Get(0, n-1); got != 1.0 {
		t.Errorf("Q(0,n-1) = %v, want 1.0 (only the unpaired structure, no A-A pairs possible)", got)
	}
}

func TestEvaluateRespectsCancellation(t *testing.T) {
	table := energy_params.NewDefaultTable()
	model := thermo_model.NewCachedModel[float64](table, semiring.PFRing[float64]{}, nucleic_acid.DefaultPairRule, thermo_model.PFBoltzFunc(37.0))
	engine := NewEngine[float64](model, nucleic_acid.DefaultPairRule)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq := shortHairpinSeq(t)
	if _, err := engine.Evaluate(ctx, seq); err == nil {
		t.Errorf("expected Evaluate to report an error for an already-cancelled context")
	}
}
