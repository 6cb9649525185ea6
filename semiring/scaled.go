package semiring

import (
	"errors"
	"math"
)

// ErrOverflow is the error sentinel a Scaled value's finalization produces
// when its mantissa normalizes to 0, NaN, or +Inf: distinct from a finite
// +Inf Boltzmann weight so backtracking never misinterprets an overflowed
// entry as a legitimately zero-weight (forbidden) one (spec §9,
// "Overflow-aware scalars").
var ErrOverflow = errors.New("semiring: scalar overflow")

// Scaled is a (mantissa, exponent) pair: value == mantissa * 2^exponent.
// Accumulating in this representation lets the PF ring represent Boltzmann
// weights across sequence lengths where a plain float64 would overflow.
type Scaled struct {
	Mantissa float64
	Exponent int
	// Failed is set by Normalize when the mantissa collapses to 0, NaN, or
	// +Inf; once set, every further operation on this value propagates the
	// failure instead of producing a misleading finite result.
	Failed bool
}

// NewScaled wraps a plain float64 as an unnormalized Scaled value at
// exponent 0.
func NewScaled(v float64) Scaled {
	return Scaled{Mantissa: v, Exponent: 0}
}

// Normalize rescales Mantissa into [0.5, 1) (or (-1, -0.5] if negative),
// adjusting Exponent to compensate. A zero input normalizes to the
// all-zero Scaled (not Failed: a true zero weight is a legitimate,
// representable value). A non-finite or already-failed input sets Failed.
func (s Scaled) Normalize() Scaled {
	if s.Failed {
		return s
	}
	if s.Mantissa == 0 {
		return Scaled{}
	}
	if math.IsNaN(s.Mantissa) || math.IsInf(s.Mantissa, 0) {
		return Scaled{Failed: true}
	}
	mantissa, exp := math.Frexp(s.Mantissa)
	return Scaled{Mantissa: mantissa, Exponent: s.Exponent + exp}
}

// Value collapses a Scaled back to a plain float64. It returns (0,
// ErrOverflow) rather than panicking if s has failed or the result is NaN
// or infinite; an exponent too small underflows to 0 with no error.
func (s Scaled) Value() (float64, error) {
	if s.Failed {
		return 0, ErrOverflow
	}
	v := math.Ldexp(s.Mantissa, s.Exponent)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrOverflow
	}
	return v, nil
}

// alignTo returns a's mantissa rescaled to exponent target, losing
// precision (not value, beyond float64's own limits) the way ordinary
// floating addition does when operands differ in magnitude.
func (s Scaled) alignTo(target int) float64 {
	return math.Ldexp(s.Mantissa, s.Exponent-target)
}

// ScaledPFRing is the overflow-aware partition-function ring: the same
// plus/times semantics as PFRing, but over Scaled values so very long
// sequences (or very favorable Boltzmann weights) do not silently overflow
// float64's exponent range before the recursion engine notices.
type ScaledPFRing struct{}

func (ScaledPFRing) Zero() Scaled { return Scaled{} }
func (ScaledPFRing) One() Scaled  { return Scaled{Mantissa: 1, Exponent: 0} }

func (ScaledPFRing) Plus(a, b Scaled) Scaled {
	if a.Failed || b.Failed {
		return Scaled{Failed: true}
	}
	if a.Mantissa == 0 {
		return b
	}
	if b.Mantissa == 0 {
		return a
	}
	target := a.Exponent
	if b.Exponent > target {
		target = b.Exponent
	}
	sum := a.alignTo(target) + b.alignTo(target)
	return Scaled{Mantissa: sum, Exponent: target}.Normalize()
}

func (ScaledPFRing) Times(a, b Scaled) Scaled {
	if a.Failed || b.Failed {
		return Scaled{Failed: true}
	}
	return Scaled{Mantissa: a.Mantissa * b.Mantissa, Exponent: a.Exponent + b.Exponent}.Normalize()
}

func (ScaledPFRing) Invert(a Scaled) Scaled {
	if a.Failed || a.Mantissa == 0 {
		return Scaled{Failed: true}
	}
	return Scaled{Mantissa: 1 / a.Mantissa, Exponent: -a.Exponent}.Normalize()
}

func (ScaledPFRing) Ldexp(mantissa Scaled, exp int) Scaled {
	if mantissa.Failed {
		return mantissa
	}
	return Scaled{Mantissa: mantissa.Mantissa, Exponent: mantissa.Exponent + exp}.Normalize()
}

func (ScaledPFRing) Logarithmic() bool { return false }

func (ScaledPFRing) Less(a, b Scaled) bool {
	av, aerr := a.Value()
	bv, berr := b.Value()
	if aerr != nil {
		return false
	}
	if berr != nil {
		return true
	}
	return av < bv
}

// LogSumExpRing is the auxiliary ring defined by spec §4.3 but not used by
// any default construction path (see DESIGN.md "Open questions" -- it is
// an order of magnitude slower than ScaledPFRing and may diverge
// numerically, so it is exposed only for callers that explicitly opt in).
// Scalars are natural-log Boltzmann weights; Plus is the numerically
// stable log-sum-exp.
type LogSumExpRing struct{}

func (LogSumExpRing) Zero() float64 { return math.Inf(-1) }
func (LogSumExpRing) One() float64  { return 0 }

func (LogSumExpRing) Plus(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	return hi + math.Log1p(math.Exp(lo-hi))
}

func (LogSumExpRing) Times(a, b float64) float64   { return a + b }
func (LogSumExpRing) Invert(a float64) float64     { return -a }
func (LogSumExpRing) Ldexp(a float64, exp int) float64 {
	return a + float64(exp)*math.Ln2
}
func (LogSumExpRing) Logarithmic() bool            { return true }
func (LogSumExpRing) Less(a, b float64) bool       { return a < b }
