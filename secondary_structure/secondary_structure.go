package secondary_structure

import "github.com/TimothyStiles/nupack-go/nucleic_acid"

// LoopKind classifies a Loop by how many base pairs close it.
type LoopKind int

const (
	// ExteriorLoop is the root loop: unenclosed, spans the whole complex.
	ExteriorLoop LoopKind = iota
	// HairpinLoop is closed by exactly one pair and contains no nested pairs.
	HairpinLoop
	// StackOrBulgeOrInteriorLoop is closed by one pair and contains exactly
	// one nested pair (a stack if there are no unpaired bases on either
	// side, a bulge if only one side has unpaired bases, an interior loop
	// otherwise).
	StackOrBulgeOrInteriorLoop
	// MultiLoop is closed by one pair and contains two or more nested pairs.
	MultiLoop
)

// Loop is one node of the arena: the tree of loops rooted at the exterior
// loop, with neighbors around a loop forming a cycle. No shared ownership,
// no back-pointers -- traversal uses arena indices exclusively (spec §9,
// "Cyclic loop topology").
type Loop struct {
	Kind LoopKind
	// Parent is the arena index of the enclosing loop, or -1 for the
	// exterior loop.
	Parent int
	// ClosingFivePrime/ClosingThreePrime are the pair (i, j) that closes
	// this loop; both -1 for the exterior loop.
	ClosingFivePrime, ClosingThreePrime int
	// Children holds, in 5'->3' order, the arena index of every directly
	// nested loop (the "neighbor cycle"): for each nested pair (d, e) this
	// loop encloses, the child loop closed by (d, e).
	Children []int
	// UnpairedRuns holds the sequence index ranges, in 5'->3' order, of
	// every maximal run of unpaired bases directly inside this loop (i.e.
	// between consecutive paired positions at this loop's nesting level).
	// Each entry is a half-open [Start, End) range into the complex's
	// encoded sequence.
	UnpairedRuns [][2]int
}

// Arena is a flat index of Loops built from a PairList.
type Arena struct {
	Loops []Loop
}

// BuildArena walks pairList over [0, n) and constructs the loop tree rooted
// at the exterior loop. pairList must already satisfy
// nucleic_acid.PairList.Validate over the same range.
func BuildArena(pairList nucleic_acid.PairList, n int) *Arena {
	a := &Arena{}
	root := a.newLoop(ExteriorLoop, -1, -1, -1)
	a.fill(pairList, root, 0, n)
	return a
}

func (a *Arena) newLoop(kind LoopKind, parent, i, j int) int {
	a.Loops = append(a.Loops, Loop{Kind: kind, Parent: parent, ClosingFivePrime: i, ClosingThreePrime: j})
	return len(a.Loops) - 1
}

// fill populates loopIdx's Children/UnpairedRuns by scanning [lo, hi) for
// the directly-nested pairs and unpaired runs, recursing into each nested
// pair's own interval.
func (a *Arena) fill(pairList nucleic_acid.PairList, loopIdx, lo, hi int) {
	runStart := -1
	nested := 0
	for k := lo; k < hi; k++ {
		j := pairList[k]
		if j == k || j < k {
			if runStart == -1 {
				runStart = k
			}
			continue
		}
		if runStart != -1 {
			a.Loops[loopIdx].UnpairedRuns = append(a.Loops[loopIdx].UnpairedRuns, [2]int{runStart, k})
			runStart = -1
		}
		nested++
		childIdx := a.newLoop(HairpinLoop, loopIdx, k, j)
		a.fill(pairList, childIdx, k+1, j)
		a.classify(childIdx)
		a.Loops[loopIdx].Children = append(a.Loops[loopIdx].Children, childIdx)
		k = j
	}
	if runStart != -1 {
		a.Loops[loopIdx].UnpairedRuns = append(a.Loops[loopIdx].UnpairedRuns, [2]int{runStart, hi})
	}
}

// classify assigns the correct LoopKind to a non-exterior loop once its
// children are known: hairpin (no nested pairs), stack/bulge/interior
// (exactly one nested pair), or multiloop (two or more).
func (a *Arena) classify(loopIdx int) {
	switch len(a.Loops[loopIdx].Children) {
	case 0:
		a.Loops[loopIdx].Kind = HairpinLoop
	case 1:
		a.Loops[loopIdx].Kind = StackOrBulgeOrInteriorLoop
	default:
		a.Loops[loopIdx].Kind = MultiLoop
	}
}
