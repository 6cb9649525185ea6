/*
Package nucleic_acid defines the data model shared by every other package in
this module: nucleotide codes, the pair-ability predicate, strands, ordered
strand complexes, and pair lists.

Energies throughout the sibling packages are carried as `int` deca-cal/mol
values rather than `float64`, the same convention `secondary_structure` uses
in the teacher package, to avoid floating-point accumulation drift across
many small additions in the recursion engine. Conversion to kcal/mol (divide
by 100, as a float) only happens at public API boundaries.
*/
package nucleic_acid

import (
	"errors"
	"fmt"
	"strings"
)

// Base is a single canonical nucleotide code in {0..3} for A, C, G, U (T is
// folded into U by callers before encoding). Gap is a distinguished value
// used only inside a Complex's concatenated sequence to mark strand breaks.
type Base int8

const (
	A Base = iota
	C
	G
	U
	Gap
)

// NbBases is the number of canonical (non-gap) nucleotide codes.
const NbBases = 4

func (b Base) String() string {
	switch b {
	case A:
		return "A"
	case C:
		return "C"
	case G:
		return "G"
	case U:
		return "U"
	case Gap:
		return "-"
	default:
		return "?"
	}
}

// EncodeBase converts a single IUPAC letter (A/C/G/U, T treated as U) into a
// Base. Wildcard codes are rejected: the DP layers only ever operate on
// canonical bases.
func EncodeBase(r rune) (Base, error) {
	switch r {
	case 'A', 'a':
		return A, nil
	case 'C', 'c':
		return C, nil
	case 'G', 'g':
		return G, nil
	case 'U', 'u', 'T', 't':
		return U, nil
	default:
		return 0, fmt.Errorf("nucleic_acid: %q is not a canonical base", r)
	}
}

// complementTable[b] is the Watson-Crick complement of b.
var complementTable = [NbBases]Base{A: U, C: G, G: C, U: A}

// Complement returns the Watson-Crick complement of b.
func Complement(b Base) Base { return complementTable[b] }

// PairRule selects which non-canonical pairs the DP treats as legal.
type PairRule struct {
	// WobblePairing allows G-U as an internal (non-closing) pair.
	WobblePairing bool
	// WobbleClosing allows G-U as a loop-closing pair. Spec open question:
	// when false, a G-U closing pair is forbidden ("+Inf") uniformly across
	// every ensemble mode -- see DESIGN.md "Open questions".
	WobbleClosing bool
}

// DefaultPairRule matches the common RNA default: wobble pairs allowed
// internally and at loop closures.
var DefaultPairRule = PairRule{WobblePairing: true, WobbleClosing: true}

// CanPair reports whether b and c may form an internal pair under r.
// can_pair(b, c) is true if b+c == 3 (Watson-Crick complement under the
// canonical indexing A=0,C=1,G=2,U=3), or (WobblePairing and b+c == 5).
func (r PairRule) CanPair(b, c Base) bool {
	if b == Gap || c == Gap {
		return false
	}
	sum := int(b) + int(c)
	if sum == 3 {
		return true
	}
	return r.WobblePairing && sum == 5
}

// CanClose reports whether (b, c) may close a loop (hairpin, interior,
// multi, exterior) under r.
func (r PairRule) CanClose(b, c Base) bool {
	if !r.CanPair(b, c) {
		return false
	}
	sum := int(b) + int(c)
	if sum == 5 && !r.WobbleClosing {
		return false
	}
	return true
}

// Strand is an ordered, non-empty sequence of canonical bases: no
// wildcards, no gap symbols.
type Strand []Base

// ParseStrand encodes a raw nucleotide string into a Strand.
func ParseStrand(s string) (Strand, error) {
	if len(s) == 0 {
		return nil, errors.New("nucleic_acid: empty strand")
	}
	out := make(Strand, 0, len(s))
	for i, r := range s {
		b, err := EncodeBase(r)
		if err != nil {
			return nil, fmt.Errorf("nucleic_acid: strand position %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s Strand) String() string {
	var sb strings.Builder
	for _, b := range s {
		sb.WriteString(b.String())
	}
	return sb.String()
}

// Complex is an ordered, non-empty list of strands. Two complexes are
// equivalent iff their strand lists are rotations of each other.
type Complex struct {
	Strands []Strand
}

// NewComplex validates and wraps a strand list.
func NewComplex(strands ...Strand) (*Complex, error) {
	if len(strands) == 0 {
		return nil, errors.New("nucleic_acid: complex must have at least one strand")
	}
	for i, s := range strands {
		if len(s) == 0 {
			return nil, fmt.Errorf("nucleic_acid: strand %d is empty", i)
		}
	}
	return &Complex{Strands: append([]Strand(nil), strands...)}, nil
}

// NStrands returns the number of strands in the complex.
func (c *Complex) NStrands() int { return len(c.Strands) }

// PrefixLengths returns the prefix sums of strand lengths: PrefixLengths()[k]
// is the total length of strands 0..k-1 (PrefixLengths()[0] == 0).
func (c *Complex) PrefixLengths() []int {
	out := make([]int, len(c.Strands)+1)
	for i, s := range c.Strands {
		out[i+1] = out[i] + len(s)
	}
	return out
}

// Sequence concatenates the complex's strands separated by gap symbols, two
// consecutive gaps around each nick to fix loop geometry (so a nick between
// two strands looks like "...X - - Y..." in the encoded sequence). This is
// the sequence indexed by the DP block's (i, j).
func (c *Complex) Sequence() []Base {
	out := make([]Base, 0)
	for i, s := range c.Strands {
		if i > 0 {
			out = append(out, Gap, Gap)
		}
		out = append(out, s...)
	}
	return out
}

// NickPositions returns the sequence index of each gap pair's first gap
// symbol in the encoded Sequence(), one per nick (len(Strands)-1 total).
func (c *Complex) NickPositions() []int {
	var nicks []int
	pos := 0
	for i, s := range c.Strands {
		if i > 0 {
			nicks = append(nicks, pos)
			pos += 2
		}
		pos += len(s)
	}
	return nicks
}

// rotate returns the complex obtained by rotating the strand list left by k
// positions.
func (c *Complex) rotate(k int) *Complex {
	n := len(c.Strands)
	k = ((k % n) + n) % n
	rotated := make([]Strand, n)
	for i := range rotated {
		rotated[i] = c.Strands[(i+k)%n]
	}
	return &Complex{Strands: rotated}
}

// strandKey returns a comparable string key for a strand, used only for
// canonical-rotation comparison (never for DP indexing).
func strandKey(s Strand) string { return s.String() }

func (c *Complex) rotationKey() string {
	var sb strings.Builder
	for _, s := range c.Strands {
		sb.WriteString(strandKey(s))
		sb.WriteByte(0)
	}
	return sb.String()
}

// Canonical rotates the complex to the lexicographically smallest rotation
// of its strand list. Rotating a complex by any amount and re-canonicalizing
// returns the same canonical form.
func (c *Complex) Canonical() *Complex {
	n := len(c.Strands)
	if n == 1 {
		return &Complex{Strands: append([]Strand(nil), c.Strands...)}
	}
	best := c
	bestKey := c.rotationKey()
	for k := 1; k < n; k++ {
		cand := c.rotate(k)
		key := cand.rotationKey()
		if key < bestKey {
			best, bestKey = cand, key
		}
	}
	return &Complex{Strands: append([]Strand(nil), best.Strands...)}
}

// SymmetryOrder returns the number of rotations of the strand list that map
// the complex onto itself (the rotational symmetry order used to correct
// the naive partition function of identical-strand complexes). A complex
// with no repeating rotational symmetry has order 1.
func (c *Complex) SymmetryOrder() int {
	n := len(c.Strands)
	key := c.rotationKey()
	order := 0
	for k := 0; k < n; k++ {
		if c.rotate(k).rotationKey() == key {
			order++
		}
	}
	if order == 0 {
		order = 1
	}
	return order
}

// PairList is a length-N vector of indices p[i]. p[i] == i means position i
// is unpaired; otherwise p[p[i]] == i and p[i] != i.
type PairList []int

// NewUnpaired returns a PairList with every position unpaired.
func NewUnpaired(n int) PairList {
	p := make(PairList, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Pair marks i and j as paired to each other.
func (p PairList) Pair(i, j int) {
	p[i] = j
	p[j] = i
}

// Validate checks involution and non-crossing within a single connected
// range [lo, hi). Pseudoknots (crossing pairs) are rejected: DP-produced
// structures must never contain them.
func (p PairList) Validate(lo, hi int) error {
	for i := lo; i < hi; i++ {
		j := p[i]
		if j < lo || j >= hi {
			return fmt.Errorf("nucleic_acid: pair list index %d points outside range [%d,%d)", i, lo, hi)
		}
		if p[j] != i {
			return fmt.Errorf("nucleic_acid: pair list is not involutive at %d,%d", i, j)
		}
	}
	// Non-crossing check: for every pair (i, j) with i < j, no other pair
	// (k, l) may straddle exactly one of i, j.
	for i := lo; i < hi; i++ {
		j := p[i]
		if j <= i {
			continue
		}
		for k := i + 1; k < j; k++ {
			l := p[k]
			if l == k {
				continue
			}
			if l < i || l > j {
				return fmt.Errorf("nucleic_acid: pair list has crossing pairs at (%d,%d) and (%d,%d)", i, j, k, l)
			}
		}
	}
	return nil
}

// CheckPairability verifies every paired position in p satisfies rule.CanPair
// against seq.
func (p PairList) CheckPairability(seq []Base, rule PairRule) error {
	for i, j := range p {
		if j == i || j < i {
			continue
		}
		if !rule.CanPair(seq[i], seq[j]) {
			return fmt.Errorf("nucleic_acid: positions %d,%d (%s,%s) cannot pair", i, j, seq[i], seq[j])
		}
	}
	return nil
}
