/*
Package thermo_model wraps an energy_params.Table and a semiring.Ring into a
cached model: Boltzmann-transformed (or identity, for MFE) scalar
accessors for every motif class, plus length-indexed tensors for the
multiloop and interior-loop size/asymmetry corrections. The recursion
engine calls Reserve and otherwise uses only the model's Table, Ring and
Boltz fields; it does not call these accessors or read the tensors.
*/
package thermo_model

import (
	"fmt"
	"math"

	"github.com/TimothyStiles/nupack-go/energy_params"
	"github.com/TimothyStiles/nupack-go/nucleic_acid"
	"github.com/TimothyStiles/nupack-go/semiring"
)

// BoltzFunc converts a raw deca-cal/mol energy into the ring's scalar type:
// exp(-beta*dG) for a PF ring, or the identity (deca-cal/mol as-is) for the
// MFE ring. Supplied by the caller because the conversion result type
// depends on which concrete ring is in play, not just on Ring's interface.
type BoltzFunc[Scalar any] func(energyDcal int) Scalar

// CachedModel is constructed once per (Table, Ring) pair and grows its
// length-indexed tensors on demand via Reserve. Once Reserve(n) has
// returned, every length-indexed accessor is safe to read concurrently up
// to length n; a later Reserve(n' > n) must happen with no concurrent
// readers (spec §4.2 "Contract").
type CachedModel[Scalar any] struct {
	Table *energy_params.Table
	Ring  semiring.Ring[Scalar]
	Rule  nucleic_acid.PairRule
	Boltz BoltzFunc[Scalar]

	// BetaPerMol is a slot for 1/(kB*T) in mol/kcal. NewCachedModel leaves
	// it zero and no code reads it; PFBoltzFunc computes its own beta.
	BetaPerMol float64

	maxLen int
	// multi3/multi3r are the multiloop dangle-side length factors indexed
	// by unpaired-base count; intSize/intAsym/bulge/rbulge are the
	// interior-loop and bulge size corrections, all re-derived from
	// Table's flat arrays through Boltz so every recursion read is O(1).
	multi3, multi3r   []Scalar
	intSize, intAsym  []Scalar
	bulge, rbulge     []Scalar
}

const kBKcalPerMolPerKelvin = 0.0019872041

// PFBoltzFunc returns the partition-function Boltzmann transform
// exp(-beta*dG) at temperatureCelsius, producing float64 scalars.
func PFBoltzFunc(temperatureCelsius float64) BoltzFunc[float64] {
	beta := 1.0 / (kBKcalPerMolPerKelvin * (temperatureCelsius + energy_params.ZeroCelsiusInKelvin))
	return func(energyDcal int) float64 {
		if energyDcal >= 1_000_000 {
			return 0
		}
		kcal := float64(energyDcal) / 100.0
		v := math.Exp(-beta * kcal)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
}

// MFEBoltzFunc is the identity transform used by the MFE ring: the raw
// deca-cal/mol energy, untouched.
func MFEBoltzFunc() BoltzFunc[int] {
	return func(energyDcal int) int { return energyDcal }
}

// NewCachedModel constructs a CachedModel over table using ring and boltz.
func NewCachedModel[Scalar any](table *energy_params.Table, ring semiring.Ring[Scalar], rule nucleic_acid.PairRule, boltz BoltzFunc[Scalar]) *CachedModel[Scalar] {
	return &CachedModel[Scalar]{Table: table, Ring: ring, Rule: rule, Boltz: boltz}
}

// Reserve grows every length-indexed tensor to cover indices [0, n]. The
// driver pre-computes the longest sequence length it will evaluate and
// calls Reserve exactly once before any parallel worker starts reading
// (spec §4.2, §9 "Per-length caches in model"): must not be called
// concurrently with readers, and must not be called from inside a worker.
func (m *CachedModel[Scalar]) Reserve(n int) error {
	if n < 0 {
		return fmt.Errorf("thermo_model: Reserve(%d): negative length", n)
	}
	if n <= m.maxLen {
		return nil
	}
	m.multi3 = m.growMulti(m.multi3, n)
	m.multi3r = m.growMulti(m.multi3r, n)
	m.bulge = m.growSize(m.Table.Bulge, n)
	m.rbulge = m.growSize(reverseInts(m.Table.Bulge), n)
	m.intSize = m.growSize(m.Table.InteriorLoop, n)
	m.intAsym = m.growAsym(n)
	m.maxLen = n
	return nil
}

func (m *CachedModel[Scalar]) growMulti(existing []Scalar, n int) []Scalar {
	out := make([]Scalar, n+1)
	copy(out, existing)
	for l := len(existing); l <= n; l++ {
		out[l] = m.Boltz(m.Table.MultiLoopBase + l*m.Table.MultiLoopPair)
	}
	return out
}

func (m *CachedModel[Scalar]) growSize(table []int, n int) []Scalar {
	out := make([]Scalar, n+1)
	for l := 0; l <= n; l++ {
		out[l] = m.Boltz(energy_params.LoopSize(table, m.Table.LogLoopPenalty, l))
	}
	return out
}

func (m *CachedModel[Scalar]) growAsym(n int) []Scalar {
	out := make([]Scalar, n+1)
	for l := 0; l <= n; l++ {
		idx := l
		if idx >= len(m.Table.Ninio) {
			idx = len(m.Table.Ninio) - 1
		}
		penalty := m.Table.Ninio[idx]
		if penalty > m.Table.MaxNinio {
			penalty = m.Table.MaxNinio
		}
		out[l] = m.Boltz(penalty)
	}
	return out
}

func reverseInts(src []int) []int {
	out := make([]int, len(src))
	for i, v := range src {
		out[len(src)-1-i] = v
	}
	return out
}

// Multi3 returns the length-indexed multiloop dangle factor for l unpaired
// bases (requires Reserve(l) to have returned).
func (m *CachedModel[Scalar]) Multi3(l int) Scalar { return m.multi3[l] }

// Multi3R is Multi3's reversed-direction counterpart.
func (m *CachedModel[Scalar]) Multi3R(l int) Scalar { return m.multi3r[l] }

// IntSize returns the Boltzmann-transformed interior-loop size penalty for
// a loop of total unpaired length l.
func (m *CachedModel[Scalar]) IntSize(l int) Scalar { return m.intSize[l] }

// IntAsym returns the Boltzmann-transformed Ninio asymmetry penalty for an
// interior loop whose two sides differ in length by l.
func (m *CachedModel[Scalar]) IntAsym(l int) Scalar { return m.intAsym[l] }

// Bulge returns the Boltzmann-transformed bulge-loop size penalty for a
// bulge of l unpaired bases.
func (m *CachedModel[Scalar]) Bulge(l int) Scalar { return m.bulge[l] }

// Stack returns the Boltzmann-transformed stacking energy for closing pair
// five/three stacked over neighbor pair nfive/nthree.
func (m *CachedModel[Scalar]) Stack(five, three, nfive, nthree nucleic_acid.Base) Scalar {
	p := energy_params.EncodeBasePair(five, three)
	q := energy_params.EncodeBasePair(nfive, nthree)
	return m.Boltz(m.Table.StackEnergy(p, q))
}

// TerminalPenalty returns the Boltzmann-transformed terminal AU/GU penalty
// for a helix closed by (five, three).
func (m *CachedModel[Scalar]) TerminalPenalty(five, three nucleic_acid.Base) Scalar {
	p := energy_params.EncodeBasePair(five, three)
	if p == energy_params.PairCG || p == energy_params.PairGC {
		return m.Boltz(0)
	}
	return m.Boltz(m.Table.TerminalAUPenalty)
}

// JoinPenalty returns the Boltzmann-transformed per-extra-strand join
// penalty for a complex with nStrands strands.
func (m *CachedModel[Scalar]) JoinPenalty(nStrands int) Scalar {
	if nStrands <= 1 {
		return m.Ring.One()
	}
	return m.Boltz(m.Table.JoinPenalty * (nStrands - 1))
}
