/*
Package semiring defines the compile-time-selected algebra the recursion
engine folds DP terms with: the partition-function ring (plus = +, times =
x) and the MFE ring (plus = min, times = +), plus the overflow-aware scalar
representation the PF ring needs at large sequence lengths.

Recursion code is written once against the Ring interface and monomorphized
per concrete ring type by the Go compiler via generics -- there is no
runtime dispatch in the inner kernels (spec §9, "Polymorphism over
semirings").
*/
package semiring

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Ring is the algebra a DP block is evaluated over. Scalar is the ring's
// carrier type (float64 for a plain PF ring, Scaled for the overflow-aware
// PF ring, or int for the MFE ring).
type Ring[Scalar any] interface {
	Zero() Scalar
	One() Scalar
	Plus(a, b Scalar) Scalar
	Times(a, b Scalar) Scalar
	Invert(a Scalar) Scalar
	// Ldexp scales a mantissa by 2^exp; rings without a scaled
	// representation ignore exp.
	Ldexp(mantissa Scalar, exp int) Scalar
	// Logarithmic reports whether Scalar values are already in log-space
	// (true for the MFE ring and the log-sum-exp ring, false for PF rings).
	Logarithmic() bool
	// Less orders two scalars from "more optimal" to "less optimal": for
	// PF rings this is just numeric ordering (used only for diagnostics),
	// for the MFE ring it is the ordering backtracking needs to pick a
	// minimum.
	Less(a, b Scalar) bool
}

// Numeric constrains the plain (non-scaled) ring carrier types.
type Numeric interface {
	constraints.Float
}

// PFRing is the plain (unscaled) partition-function ring: plus = +,
// times = x. Suitable for sequences short enough that Boltzmann factors
// never approach the float64 exponent range. Nothing switches to
// ScaledPFRing automatically; the ring is chosen by the caller.
type PFRing[F Numeric] struct{}

func (PFRing[F]) Zero() F                    { return 0 }
func (PFRing[F]) One() F                     { return 1 }
func (PFRing[F]) Plus(a, b F) F              { return a + b }
func (PFRing[F]) Times(a, b F) F             { return a * b }
func (PFRing[F]) Invert(a F) F               { return 1 / a }
func (PFRing[F]) Ldexp(mantissa F, exp int) F {
	return F(ldexpFloat64(float64(mantissa), exp))
}
func (PFRing[F]) Logarithmic() bool { return false }
func (PFRing[F]) Less(a, b F) bool  { return a < b }

// MFERing is the minimum-free-energy ring: plus = min, times = +, zero =
// +Inf, one = 0. Scalars are deca-cal/mol ints (see nucleic_acid package
// doc for the rationale), so no overflow scaling is ever needed: MFE ring
// values never approach int64's range for any physically sized input.
type MFERing struct{}

// InfEnergy is the MFE ring's zero (the "forbidden" / +Inf sentinel).
const InfEnergy = 1 << 30

func (MFERing) Zero() int      { return InfEnergy }
func (MFERing) One() int       { return 0 }
func (MFERing) Plus(a, b int) int {
	if a < b {
		return a
	}
	return b
}
func (MFERing) Times(a, b int) int { return a + b }
func (MFERing) Invert(a int) int   { return -a }
func (MFERing) Ldexp(mantissa int, exp int) int { return mantissa }
func (MFERing) Logarithmic() bool               { return true }
func (MFERing) Less(a, b int) bool              { return a < b }

func ldexpFloat64(mantissa float64, exp int) float64 {
	return math.Ldexp(mantissa, exp)
}
