package semiring

import (
	"math"
	"testing"
)

func TestPFRingBasics(t *testing.T) {
	r := PFRing[float64]{}
	if r.Zero() != 0 || r.One() != 1 {
		t.Fatalf("zero/one identities wrong")
	}
	if r.Plus(2, 3) != 5 {
		t.Errorf("Plus(2,3) = %v, want 5", r.Plus(2, 3))
	}
	if r.Times(2, 3) != 6 {
		t.Errorf("Times(2,3) = %v, want 6", r.Times(2, 3))
	}
}

func TestMFERingBasics(t *testing.T) {
	r := MFERing{}
	if r.Plus(3, -1) != -1 {
		t.Errorf("Plus(3,-1) = %d, want -1 (min)", r.Plus(3, -1))
	}
	if r.Times(3, -1) != 2 {
		t.Errorf("Times(3,-1) = %d, want 2 (sum)", r.Times(3, -1))
	}
	if r.Zero() != InfEnergy {
		t.Errorf("Zero() = %d, want InfEnergy", r.Zero())
	}
}

func TestScaledNormalizeRange(t *testing.T) {
	s := NewScaled(12.0).Normalize()
	if s.Mantissa < 0.5 || s.Mantissa >= 1 {
		t.Errorf("mantissa %v not in [0.5, 1)", s.Mantissa)
	}
	v, err := s.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(v-12.0) > 1e-9 {
		t.Errorf("Value() = %v, want 12.0", v)
	}
}

func TestScaledZeroIsNotFailed(t *testing.T) {
	s := NewScaled(0).Normalize()
	if s.Failed {
		t.Errorf("zero value should not be Failed")
	}
	v, err := s.Value()
	if err != nil || v != 0 {
		t.Errorf("Value() = (%v, %v), want (0, nil)", v, err)
	}
}

func TestScaledOverflowSetsFailed(t *testing.T) {
	huge := Scaled{Mantissa: math.Inf(1), Exponent: 0}.Normalize()
	if !huge.Failed {
		t.Errorf("expected Failed for +Inf mantissa")
	}
	if _, err := huge.Value(); err != ErrOverflow {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestScaledPFRingArithmeticMatchesPlainFloat(t *testing.T) {
	ring := ScaledPFRing{}
	a := NewScaled(3.0).Normalize()
	b := NewScaled(4.0).Normalize()

	sum := ring.Plus(a, b)
	if v, err := sum.Value(); err != nil || math.Abs(v-7.0) > 1e-9 {
		t.Errorf("Plus(3,4).Value() = (%v,%v), want 7", v, err)
	}

	prod := ring.Times(a, b)
	if v, err := prod.Value(); err != nil || math.Abs(v-12.0) > 1e-9 {
		t.Errorf("Times(3,4).Value() = (%v,%v), want 12", v, err)
	}
}

func TestScaledPFRingHandlesWidelySeparatedMagnitudes(t *testing.T) {
	ring := ScaledPFRing{}
	large := Scaled{Mantissa: 0.9, Exponent: 900}
	small := NewScaled(1.0).Normalize()

	sum := ring.Plus(large, small)
	v, err := sum.Value()
	if err != nil {
		t.Fatalf("unexpected overflow: %v", err)
	}
	largeValue, _ := large.Value()
	if math.Abs(v-largeValue) > math.Abs(largeValue)*1e-12 {
		t.Errorf("adding a tiny value to a huge one should not change it materially: got %v, want ~%v", v, largeValue)
	}
}

func TestLogSumExpRingMatchesLogOfSum(t *testing.T) {
	ring := LogSumExpRing{}
	a := math.Log(2.0)
	b := math.Log(3.0)
	got := ring.Plus(a, b)
	want := math.Log(5.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Plus(log2,log3) = %v, want log(5) = %v", got, want)
	}
}
