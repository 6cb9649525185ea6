/*
Package energy_params defines the nearest-neighbor free-energy parameter
table consumed by the thermodynamic analysis core: a flat, indexed set of
ΔG/ΔH arrays for every loop motif class (stack, interior loop, hairpin,
dangle, multiloop, ...), plus temperature interpolation.

Loading a populated table from an external parameter file (the ViennaRNA
`.par` text format, a scraped database, or any other upstream source) is
explicitly out of scope for this package: Table is constructed either by
NewDefaultTable (a small internally-consistent placeholder set, useful for
tests and for exercising the DP without a real experimental dataset) or by
Table.UnmarshalJSON, which parses the JSON schema described in the
package's json.go.
Supplying a Turner2004-accurate table is the caller's responsibility.

Energies are stored in deca-cal/mol as `int`, to avoid float64 accumulation
drift across the many small additions the recursion engine performs.
Conversion to kcal/mol (divide by 100, as a float) happens only at public
API boundaries.
*/
package energy_params

import "github.com/TimothyStiles/nupack-go/nucleic_acid"

// Rank/shape constants, matching nucleic_acid's base encoding plus the
// non-standard-pair slot used by the table's first axis.
const (
	NbDistinguishableBasePairs  = 7
	NbDistinguishableNucleotide = nucleic_acid.NbBases
	MaxLenLoop                  = 30

	// ZeroCelsiusInKelvin converts a Celsius temperature to Kelvin.
	ZeroCelsiusInKelvin = 273.15
	// MeasurementTemperatureInCelsius is the reference temperature T_ref at
	// which the ΔG (dG) arrays of a Table are assumed to have been measured;
	// ΔH (dH) arrays extrapolate away from it.
	MeasurementTemperatureInCelsius = 37.0

	// inf is the sentinel "forbidden" energy value, matching the teacher's
	// own INT_MAX/10-style convention so it survives addition without
	// overflowing a 64-bit accumulator.
	inf = 10_000_000
)

// BasePairType enumerates the 7 distinguishable closing-pair identities
// used to index every rank>=1 array below: CG, GC, GU, UG, AU, UA, and a
// catch-all "non-standard" slot (index 6) reserved for pairs that can't
// legally close a loop but that callers may still probe defensively.
type BasePairType int

const (
	PairCG BasePairType = iota
	PairGC
	PairGU
	PairUG
	PairAU
	PairUA
	PairNone
)

// EncodeBasePair returns the BasePairType of (five-prime, three-prime), or
// PairNone if the two bases cannot pair at all.
func EncodeBasePair(five, three nucleic_acid.Base) BasePairType {
	switch {
	case five == nucleic_acid.C && three == nucleic_acid.G:
		return PairCG
	case five == nucleic_acid.G && three == nucleic_acid.C:
		return PairGC
	case five == nucleic_acid.G && three == nucleic_acid.U:
		return PairGU
	case five == nucleic_acid.U && three == nucleic_acid.G:
		return PairUG
	case five == nucleic_acid.A && three == nucleic_acid.U:
		return PairAU
	case five == nucleic_acid.U && three == nucleic_acid.A:
		return PairUA
	default:
		return PairNone
	}
}

// Table holds every motif-class ΔG array needed by the recursion engine,
// already at a fixed temperature (see Scale). Every array is addressed
// "closing pair(s) first, then unpaired bases 5'->3'", matching the
// teacher's documented indexing convention.
type Table struct {
	Material string
	// DefaultWobblePairing is the pair rule this table's dangle/mismatch
	// corrections were tuned against; callers may still override it via
	// nucleic_acid.PairRule at the DP layer.
	DefaultWobblePairing bool

	// Stack[p][q] is the stacking free energy of closing pairs p over q.
	// size: [7][7]
	Stack [][]int
	// CoaxialStack[p][q] is the coaxial-stack analogue of Stack. It is
	// carried and persisted, but no recursion term reads it.
	// size: [7][7]
	CoaxialStack [][]int

	// Interior1x1[p][q][a][b] is a 1x1 interior loop closed by p and q with
	// unpaired bases a (5' side) and b (3' side).
	// size: [7][7][4][4]
	Interior1x1 [][][][]int
	// Interior2x1[p][q][a][b][c] is a 2x1 interior loop (2 unpaired on the
	// p side, 1 on the q side).
	// size: [7][7][4][4][4]
	Interior2x1 [][][][][]int
	// Interior2x2[p][q][a][b][c][d] is a 2x2 interior loop.
	// size: [7][7][4][4][4][4]
	Interior2x2 [][][][][][]int

	// Mismatch*[p][a][b] are closing-pair + flanking-mismatch corrections.
	// The recursion engine reads MismatchInterior (interior loops larger
	// than 2x2) and MismatchHairpin (hairpins); the 1xn, 2x3, multiloop and
	// exterior tables are carried and persisted but no recursion term reads
	// them.
	// size: [7][4][4]
	MismatchInterior      [][][]int
	Mismatch1xnInterior   [][][]int
	Mismatch2x3Interior   [][][]int
	MismatchHairpin       [][][]int
	MismatchMulti         [][][]int
	MismatchExterior      [][][]int

	// Dangle5/Dangle3[p][a] are single-base-overhang corrections.
	// size: [7][4]
	Dangle5 [][]int
	Dangle3 [][]int

	// Hairpin/Bulge/InteriorLoop[len] are size-dependent loop penalties,
	// len in [0, MaxLenLoop]; entries below the physically-possible minimum
	// size are `inf`.
	// size: [MaxLenLoop+1]
	Hairpin      []int
	Bulge        []int
	InteriorLoop []int

	// TriLoop/TetraLoop/HexaLoop map a loop's closing-pair-inclusive
	// sequence (e.g. "CAAAAG" for a tetraloop) to a tabulated bonus that
	// overrides the generic Hairpin[len] + mismatch computation.
	TriLoop   map[string]int
	TetraLoop map[string]int
	HexaLoop  map[string]int

	// Ninio[k] for k in [0,4] is the asymmetry-penalty coefficient array;
	// MaxNinio caps the total asymmetry penalty.
	Ninio    []int
	MaxNinio int

	MultiLoopInit      int
	MultiLoopPair      int
	MultiLoopBase      int
	TerminalAUPenalty  int
	JoinPenalty        int
	LogLoopPenalty     float64

	// measuredAtCelsius records T_ref for Scale's interpolation; dH is only
	// meaningful relative to this.
	measuredAtCelsius float64
}

// StackEnergy returns Table.Stack indexed by encoded pair types.
func (t *Table) StackEnergy(p, q BasePairType) int {
	if p == PairNone || q == PairNone {
		return inf
	}
	return t.Stack[p][q]
}

// LoopSize indexes a size-dependent array, extrapolating beyond MaxLenLoop
// with the log-loop term: dG_cap + log(len/30) * log_loop_penalty, applied
// in deca-cal/mol via the float64 log then rounded.
func LoopSize(table []int, logLoopPenalty float64, length int) int {
	if length <= MaxLenLoop {
		return table[length]
	}
	return table[MaxLenLoop] + extrapolate(logLoopPenalty, length)
}

func extrapolate(logLoopPenalty float64, length int) int {
	return int(logLoopPenalty*logRatio(length) + 0.5)
}
