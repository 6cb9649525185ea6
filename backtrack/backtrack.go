/*
Package backtrack replays a filled DP Block to answer the three
ensemble-level questions the forward recursion's numbers alone can't:
which single structure is optimal (MFE traceback), what every pair's
marginal probability is (duplicated-sequence pair probability), which
representative structures the ensemble contains within an energy gap of
the optimum (suboptimal enumeration), and what a single structure drawn
from the Boltzmann distribution looks like (stochastic sampling) -- spec
§4.6, "Backtracking".

The MFE traceback and subopt enumeration both re-derive each loop's energy
from the energy_params.Table directly rather than consulting stored parent
pointers, the same space-for-time tradeoff NUPACK's own Backtrack.h makes:
a Block only ever stores the folded (min/sum) value at each cell, so
recovering which term produced it means recomputing each candidate term
and comparing.
*/
package backtrack

import (
	"container/heap"
	"fmt"
	"math/rand"

	"github.com/TimothyStiles/nupack-go/dp_block"
	"github.com/TimothyStiles/nupack-go/energy_params"
	"github.com/TimothyStiles/nupack-go/nucleic_acid"
	"github.com/TimothyStiles/nupack-go/semiring"
	"github.com/TimothyStiles/nupack-go/thermo_model"
)

// loopTerm computes the same hairpin/stack/bulge/interior energy the
// recursion package's forward pass does, used here only to re-derive which
// decomposition a stored QB value came from. Kept deliberately close to
// recursion.loopEnergy's shape; the two are grounded on the same tables and
// necessarily agree.
func loopTerm(table *energy_params.Table, seq []nucleic_acid.Base, i, j, p, q int) int {
	left, right := p-i-1, j-q-1
	outer := energy_params.EncodeBasePair(seq[i], seq[j])
	inner := flip(energy_params.EncodeBasePair(seq[p], seq[q]))
	switch {
	case left == 0 && right == 0:
		return table.StackEnergy(outer, inner)
	case left == 0 || right == 0:
		size := left + right
		e := energy_params.LoopSize(table.Bulge, table.LogLoopPenalty, size)
		if size == 1 {
			e += table.StackEnergy(outer, inner)
		}
		return e
	case left == 1 && right == 1:
		return table.Interior1x1[outer][inner][seq[i+1]][seq[j-1]]
	case left == 2 && right == 1:
		return table.Interior2x1[outer][inner][seq[i+1]][seq[i+2]][seq[j-1]]
	case left == 1 && right == 2:
		return table.Interior2x1[inner][outer][seq[q+1]][seq[q+2]][seq[i+1]]
	case left == 2 && right == 2:
		return table.Interior2x2[outer][inner][seq[i+1]][seq[i+2]][seq[j-2]][seq[j-1]]
	default:
		total := left + right
		e := energy_params.LoopSize(table.InteriorLoop, table.LogLoopPenalty, total)
		diff := left - right
		if diff < 0 {
			diff = -diff
		}
		asym := 0
		if diff < len(table.Ninio) {
			asym = table.Ninio[diff]
		} else if len(table.Ninio) > 0 {
			asym = table.Ninio[len(table.Ninio)-1]
		}
		if asym > table.MaxNinio {
			asym = table.MaxNinio
		}
		e += asym
		p := energy_params.EncodeBasePair(seq[i], seq[j])
		if p != energy_params.PairNone {
			e += table.MismatchInterior[p][seq[i+1]][seq[j-1]]
		}
		return e
	}
}

func hairpinTermValue(table *energy_params.Table, seq []nucleic_acid.Base, i, j int) int {
	unpaired := j - i - 1
	if key, ok := loopKey(seq, i, j); ok {
		if v, found := table.TetraLoop[key]; found {
			return v
		}
		if v, found := table.TriLoop[key]; found {
			return v
		}
		if v, found := table.HexaLoop[key]; found {
			return v
		}
	}
	e := energy_params.LoopSize(table.Hairpin, table.LogLoopPenalty, unpaired)
	p := energy_params.EncodeBasePair(seq[i], seq[j])
	if p != energy_params.PairNone {
		e += table.MismatchHairpin[p][seq[i+1]][seq[j-1]]
	}
	return e
}

func loopKey(seq []nucleic_acid.Base, i, j int) (string, bool) {
	n := j - i + 1
	if n < 5 || n > 8 {
		return "", false
	}
	buf := make([]byte, n)
	for k := 0; k < n; k++ {
		buf[k] = seq[i+k].String()[0]
	}
	return string(buf), true
}

func flip(p energy_params.BasePairType) energy_params.BasePairType {
	switch p {
	case energy_params.PairCG:
		return energy_params.PairGC
	case energy_params.PairGC:
		return energy_params.PairCG
	case energy_params.PairGU:
		return energy_params.PairUG
	case energy_params.PairUG:
		return energy_params.PairGU
	case energy_params.PairAU:
		return energy_params.PairUA
	case energy_params.PairUA:
		return energy_params.PairAU
	default:
		return energy_params.PairNone
	}
}

// Traceback recovers one minimum-free-energy structure from a Block filled
// by a recursion.Engine[int] over the MFE ring (spec §4.6, "MFE
// traceback"). Ties are broken by the first matching term in a fixed
// enumeration order.
func Traceback(table *energy_params.Table, seq []nucleic_acid.Base, block *dp_block.Block[int]) nucleic_acid.PairList {
	n := len(seq)
	pairs := nucleic_acid.NewUnpaired(n)
	if n > 0 {
		tracebackExterior(table, seq, block, pairs, 0, n-1)
	}
	return pairs
}

func tracebackExterior(table *energy_params.Table, seq []nucleic_acid.Base, block *dp_block.Block[int], pairs nucleic_acid.PairList, i, j int) {
	if i >= j {
		return
	}
	q := block.Q.Get(i, j)
	if q == block.Q.Get(i, j-1) {
		tracebackExterior(table, seq, block, pairs, i, j-1)
		return
	}
	if q == block.QB.Get(i, j) {
		pairs.Pair(i, j)
		tracebackPair(table, seq, block, pairs, i, j)
		return
	}
	for k := i; k < j; k++ {
		if q == block.Q.Get(i, k)+block.QB.Get(k+1, j) {
			tracebackExterior(table, seq, block, pairs, i, k)
			pairs.Pair(k+1, j)
			tracebackPair(table, seq, block, pairs, k+1, j)
			return
		}
	}
}

func tracebackPair(table *energy_params.Table, seq []nucleic_acid.Base, block *dp_block.Block[int], pairs nucleic_acid.PairList, i, j int) {
	target := block.QB.Get(i, j)

	if target == hairpinTermValue(table, seq, i, j) {
		return
	}

	for p := i + 1; p < j-1; p++ {
		for q := j - 1; q > p; q-- {
			if !canPairInner(seq, p, q) {
				continue
			}
			e := loopTerm(table, seq, i, j, p, q)
			if target == e+block.QB.Get(p, q) {
				pairs.Pair(p, q)
				tracebackPair(table, seq, block, pairs, p, q)
				return
			}
		}
	}

	init := table.MultiLoopInit
	for m := i + 2; m < j-2; m++ {
		if target == init+block.QM.Get(i+1, m)+block.QM.Get(m+1, j-1) {
			tracebackMulti(table, seq, block, pairs, i+1, m)
			tracebackMulti(table, seq, block, pairs, m+1, j-1)
			return
		}
	}
}

// canPairInner is a cheap pre-filter before consulting QB(p,q): it only
// needs to be a superset of whatever PairRule the forward pass actually
// used, since a disallowed pair's QB entry is already the ring zero and
// will simply never match a traceback target.
func canPairInner(seq []nucleic_acid.Base, p, q int) bool {
	return nucleic_acid.DefaultPairRule.CanPair(seq[p], seq[q])
}

func tracebackMulti(table *energy_params.Table, seq []nucleic_acid.Base, block *dp_block.Block[int], pairs nucleic_acid.PairList, i, j int) {
	if i >= j {
		return
	}
	qm := block.QM.Get(i, j)
	if qm == block.QMS.Get(i, j) {
		pairs.Pair(i, j)
		tracebackPair(table, seq, block, pairs, i, j)
		return
	}
	if qm == block.QM.Get(i+1, j)+(table.MultiLoopBase) {
		tracebackMulti(table, seq, block, pairs, i+1, j)
		return
	}
	for k := i + 1; k < j; k++ {
		if qm == block.QM.Get(i, k)+block.QMS.Get(k+1, j) {
			tracebackMulti(table, seq, block, pairs, i, k)
			pairs.Pair(k+1, j)
			tracebackPair(table, seq, block, pairs, k+1, j)
			return
		}
	}
}

// ErrEmptyEnsemble is returned by Sample when Q(0, n-1) is zero: there is no
// structure to draw from (spec §4.6, "Boltzmann sampling").
var ErrEmptyEnsemble = fmt.Errorf("backtrack: empty ensemble, nothing to sample")

// Sample draws one structure from the Boltzmann distribution a PF Block
// represents, replaying the same decomposition Traceback uses but choosing
// each branch by weighted random draw instead of minimality (spec §4.6,
// "Boltzmann sampling"). r is an explicit parameter so callers control
// reproducibility (see DESIGN.md, "Open questions").
func Sample(model *thermo_model.CachedModel[float64], seq []nucleic_acid.Base, block *dp_block.Block[float64], r *rand.Rand) (nucleic_acid.PairList, error) {
	n := len(seq)
	pairs := nucleic_acid.NewUnpaired(n)
	if n == 0 {
		return pairs, nil
	}
	if block.Q.Get(0, n-1) == 0 {
		return nil, ErrEmptyEnsemble
	}
	sampleExterior(model, seq, block, pairs, r, 0, n-1)
	return pairs, nil
}

func sampleExterior(model *thermo_model.CachedModel[float64], seq []nucleic_acid.Base, block *dp_block.Block[float64], pairs nucleic_acid.PairList, r *rand.Rand, i, j int) {
	if i >= j {
		return
	}
	weights := make([]float64, 0, j-i+1)
	weights = append(weights, block.Q.Get(i, j-1))
	weights = append(weights, block.QB.Get(i, j))
	for k := i; k < j; k++ {
		weights = append(weights, block.Q.Get(i, k)*block.QB.Get(k+1, j))
	}
	choice := weightedChoice(r, weights)
	switch {
	case choice == 0:
		sampleExterior(model, seq, block, pairs, r, i, j-1)
	case choice == 1:
		pairs.Pair(i, j)
		samplePair(model, seq, block, pairs, r, i, j)
	default:
		k := i + (choice - 2)
		sampleExterior(model, seq, block, pairs, r, i, k)
		pairs.Pair(k+1, j)
		samplePair(model, seq, block, pairs, r, k+1, j)
	}
}

func samplePair(model *thermo_model.CachedModel[float64], seq []nucleic_acid.Base, block *dp_block.Block[float64], pairs nucleic_acid.PairList, r *rand.Rand, i, j int) {
	table := model.Table
	type term struct {
		weight  float64
		kind    int // 0 = hairpin, 1 = loop(p,q), 2 = multi(m)
		p, q, m int
	}
	var terms []term
	terms = append(terms, term{weight: model.Boltz(hairpinTermValue(table, seq, i, j)), kind: 0})
	for p := i + 1; p < j-1; p++ {
		for q := j - 1; q > p; q-- {
			if !canPairInner(seq, p, q) {
				continue
			}
			w := model.Boltz(loopTerm(table, seq, i, j, p, q)) * block.QB.Get(p, q)
			terms = append(terms, term{weight: w, kind: 1, p: p, q: q})
		}
	}
	for m := i + 2; m < j-2; m++ {
		w := model.Boltz(table.MultiLoopInit) * block.QM.Get(i+1, m) * block.QM.Get(m+1, j-1)
		terms = append(terms, term{weight: w, kind: 2, m: m})
	}

	weights := make([]float64, len(terms))
	for idx, t := range terms {
		weights[idx] = t.weight
	}
	choice := weightedChoice(r, weights)
	picked := terms[choice]
	switch picked.kind {
	case 0:
		return
	case 1:
		pairs.Pair(picked.p, picked.q)
		samplePair(model, seq, block, pairs, r, picked.p, picked.q)
	case 2:
		sampleMulti(model, seq, block, pairs, r, i+1, picked.m)
		sampleMulti(model, seq, block, pairs, r, picked.m+1, j-1)
	}
}

func sampleMulti(model *thermo_model.CachedModel[float64], seq []nucleic_acid.Base, block *dp_block.Block[float64], pairs nucleic_acid.PairList, r *rand.Rand, i, j int) {
	if i >= j {
		return
	}
	weights := []float64{block.QMS.Get(i, j), block.QM.Get(i+1, j)}
	for k := i + 1; k < j; k++ {
		weights = append(weights, block.QM.Get(i, k)*block.QMS.Get(k+1, j))
	}
	choice := weightedChoice(r, weights)
	switch {
	case choice == 0:
		pairs.Pair(i, j)
		samplePair(model, seq, block, pairs, r, i, j)
	case choice == 1:
		sampleMulti(model, seq, block, pairs, r, i+1, j)
	default:
		k := i + (choice - 2) + 1
		sampleMulti(model, seq, block, pairs, r, i, k)
		pairs.Pair(k+1, j)
		samplePair(model, seq, block, pairs, r, k+1, j)
	}
}

// weightedChoice draws an index in [0, len(weights)) proportional to
// weights, using r directly (plain cumulative-sum sampling): the candidate
// set at each DP cell is small and rebuilt fresh on every call, too
// short-lived to be worth github.com/mroth/weightedrand's pre-built choice
// table -- that package is wired instead in thermo.Tube.SampleSpecies, for
// drawing which complex among several in a tube to sample from next, where
// the same small choice set is reused across many draws (see DESIGN.md).
func weightedChoice(r *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	draw := r.Float64() * total
	running := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		running += w
		if draw < running {
			return i
		}
	}
	return len(weights) - 1
}

// PairProbabilities computes P(i,j) for every i < j from a duplicated-
// sequence evaluation, per spec §4.6's "P(i,j) = QB(j,i)*QB(i+N,j)/Q"
// construction: callers are expected to have evaluated the Block over the
// sequence concatenated with itself (length 2N) before calling this.
func PairProbabilities(ring semiring.Ring[float64], block *dp_block.Block[float64], n int) *dp_block.Matrix[float64] {
	q := block.Q.Get(0, 2*n-1)
	probs := dp_block.NewMatrix[float64](n)
	for i := 0; i < n; i++ {
		probs.Set(i, i, 0)
		for j := i + 1; j < n; j++ {
			if q == 0 {
				probs.Set(i, j, 0)
				continue
			}
			num := ring.Times(block.QB.Get(j, i+n), block.QB.Get(i+n, j+n))
			probs.Set(i, j, num/q)
		}
	}
	return probs
}

// taskKind identifies which DP cell a pending subopt task still has to
// decompose.
type taskKind int

const (
	taskExterior taskKind = iota // resolve Q(i,j)
	taskPair                     // resolve QB(i,j); (i,j) is already recorded in pairs
	taskMulti                    // resolve QM(i,j)
)

type task struct {
	kind taskKind
	i, j int
}

// bound returns the DP table's own optimal value for t's cell: an
// admissible lower bound on whatever this task will eventually cost, since
// the forward recursion already computed the true minimum for every
// sub-range.
func (t task) bound(block *dp_block.Block[int]) int {
	switch t.kind {
	case taskPair:
		return block.QB.Get(t.i, t.j)
	case taskMulti:
		return block.QM.Get(t.i, t.j)
	default:
		return block.Q.Get(t.i, t.j)
	}
}

// candidate is one entry of a subopt best-first search frontier: a partial
// structure, the exact energy of the decomposition choices committed so
// far, and the open tasks (sub-ranges) still needing a decomposition
// choice. priority is committed plus the sum of each open task's DP-table
// lower bound, so popping by priority explores the search space in true
// best-first order even though open tasks haven't been expanded yet (the
// same admissible-heuristic trick an A* search gets from a consistent
// lower bound).
type candidate struct {
	committed int
	priority  int
	pairs     nucleic_acid.PairList
	open      []task
}

func (c *candidate) withOpen(block *dp_block.Block[int], committed int, open []task, pairs nucleic_acid.PairList) *candidate {
	priority := committed
	for _, t := range open {
		priority += t.bound(block)
	}
	return &candidate{committed: committed, priority: priority, pairs: pairs, open: open}
}

type candidateHeap []*candidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(*candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func withoutFirst(open []task) []task {
	return append([]task{}, open[1:]...)
}

// structureKey returns a canonical signature for a completed pair list, so
// Subopt can drop duplicate structures reached via different decomposition
// paths (e.g. the same hairpin found through two different multiloop split
// points).
func structureKey(pairs nucleic_acid.PairList) string {
	buf := make([]byte, 4*len(pairs))
	for i, p := range pairs {
		buf[4*i] = byte(p)
		buf[4*i+1] = byte(p >> 8)
		buf[4*i+2] = byte(p >> 16)
		buf[4*i+3] = byte(p >> 24)
	}
	return string(buf)
}

// Subopt enumerates up to limit distinct structures within gap deca-cal/mol
// of the minimum free energy, best-first by running energy total (spec
// §4.6, "Suboptimal enumeration"). Unlike a traceback that commits to the
// single MFE-consistent decomposition at every DP cell, each cell's branches
// (unpaired/paired/split for an exterior range, hairpin/stack-bulge-
// interior/multiloop for a closed pair, single-stem/unpaired/split for a
// multiloop range) are all pushed as independent candidates, so the gap
// budget is spent wherever it produces a distinct structure, not only at
// the outermost decomposition. A candidate whose priority (committed energy
// plus the DP-table lower bound of everything still open) already exceeds
// the ceiling is dropped without expansion; results are deduplicated by
// their final pair list before being returned, since more than one
// decomposition path can land on the same structure.
func Subopt(table *energy_params.Table, seq []nucleic_acid.Base, block *dp_block.Block[int], gap, limit int) []nucleic_acid.PairList {
	n := len(seq)
	if n == 0 {
		return nil
	}
	mfe := block.Q.Get(0, n-1)
	ceiling := mfe + gap

	results := make([]nucleic_acid.PairList, 0, limit)
	seen := make(map[string]bool)

	start := (&candidate{}).withOpen(block, 0, []task{{kind: taskExterior, i: 0, j: n - 1}}, nucleic_acid.NewUnpaired(n))
	frontier := &candidateHeap{start}
	heap.Init(frontier)

	for frontier.Len() > 0 && len(results) < limit {
		top := heap.Pop(frontier).(*candidate)
		if top.priority > ceiling {
			continue
		}
		if len(top.open) == 0 {
			key := structureKey(top.pairs)
			if !seen[key] {
				seen[key] = true
				results = append(results, top.pairs)
			}
			continue
		}

		t := top.open[0]
		rest := withoutFirst(top.open)
		switch t.kind {
		case taskExterior:
			expandExterior(block, frontier, top, rest, t.i, t.j)
		case taskPair:
			expandPair(table, seq, block, frontier, top, rest, t.i, t.j)
		case taskMulti:
			expandMulti(table, block, frontier, top, rest, t.i, t.j)
		}
	}
	return results
}

// expandExterior pushes every decomposition of Q(i,j): i,j empty, the whole
// range closed by the outer pair (i,j), j left unpaired, or split at some k
// with (k+1,j) as the rightmost outer pair.
func expandExterior(block *dp_block.Block[int], frontier *candidateHeap, top *candidate, rest []task, i, j int) {
	if i >= j {
		heap.Push(frontier, top.withOpen(block, top.committed, rest, top.pairs))
		return
	}

	// j unpaired.
	heap.Push(frontier, top.withOpen(block, top.committed, append(append([]task{}, rest...), task{kind: taskExterior, i: i, j: j - 1}), top.pairs))

	// (i,j) is the sole outer pair.
	if qb := block.QB.Get(i, j); qb < semiring.InfEnergy {
		paired := clonePairs(top.pairs)
		paired.Pair(i, j)
		open := append(append([]task{}, rest...), task{kind: taskPair, i: i, j: j})
		heap.Push(frontier, top.withOpen(block, top.committed, open, paired))
	}

	// Split with (k+1, j) as the rightmost outer pair.
	for k := i; k < j; k++ {
		qb := block.QB.Get(k+1, j)
		if qb >= semiring.InfEnergy {
			continue
		}
		split := clonePairs(top.pairs)
		split.Pair(k+1, j)
		open := append(append([]task{}, rest...), task{kind: taskExterior, i: i, j: k}, task{kind: taskPair, i: k + 1, j: j})
		heap.Push(frontier, top.withOpen(block, top.committed, open, split))
	}
}

// expandPair pushes every decomposition of QB(i,j): a hairpin loop, every
// stack/bulge/interior-loop inner pair (p,q), and every multiloop split m.
func expandPair(table *energy_params.Table, seq []nucleic_acid.Base, block *dp_block.Block[int], frontier *candidateHeap, top *candidate, rest []task, i, j int) {
	hairpin := hairpinTermValue(table, seq, i, j)
	heap.Push(frontier, top.withOpen(block, top.committed+hairpin, rest, top.pairs))

	for p := i + 1; p < j-1; p++ {
		for q := j - 1; q > p; q-- {
			if !canPairInner(seq, p, q) {
				continue
			}
			if block.QB.Get(p, q) >= semiring.InfEnergy {
				continue
			}
			e := loopTerm(table, seq, i, j, p, q)
			inner := clonePairs(top.pairs)
			inner.Pair(p, q)
			open := append(append([]task{}, rest...), task{kind: taskPair, i: p, j: q})
			heap.Push(frontier, top.withOpen(block, top.committed+e, open, inner))
		}
	}

	init := table.MultiLoopInit
	for m := i + 2; m < j-2; m++ {
		open := append(append([]task{}, rest...), task{kind: taskMulti, i: i + 1, j: m}, task{kind: taskMulti, i: m + 1, j: j - 1})
		heap.Push(frontier, top.withOpen(block, top.committed+init, open, top.pairs))
	}
}

// expandMulti pushes every decomposition of QM(i,j): (i,j) as a single
// stem, i left unpaired, or a split with (k+1,j) as the rightmost stem.
func expandMulti(table *energy_params.Table, block *dp_block.Block[int], frontier *candidateHeap, top *candidate, rest []task, i, j int) {
	if i >= j {
		return
	}

	if block.QB.Get(i, j) < semiring.InfEnergy {
		single := clonePairs(top.pairs)
		single.Pair(i, j)
		open := append(append([]task{}, rest...), task{kind: taskPair, i: i, j: j})
		heap.Push(frontier, top.withOpen(block, top.committed+table.MultiLoopPair, open, single))
	}

	if block.QM.Get(i+1, j) < semiring.InfEnergy {
		open := append(append([]task{}, rest...), task{kind: taskMulti, i: i + 1, j: j})
		heap.Push(frontier, top.withOpen(block, top.committed+table.MultiLoopBase, open, top.pairs))
	}

	for k := i + 1; k < j; k++ {
		if block.QM.Get(i, k) >= semiring.InfEnergy || block.QB.Get(k+1, j) >= semiring.InfEnergy {
			continue
		}
		split := clonePairs(top.pairs)
		split.Pair(k+1, j)
		open := append(append([]task{}, rest...), task{kind: taskMulti, i: i, j: k}, task{kind: taskPair, i: k + 1, j: j})
		heap.Push(frontier, top.withOpen(block, top.committed+table.MultiLoopPair, open, split))
	}
}

func clonePairs(p nucleic_acid.PairList) nucleic_acid.PairList {
	out := make(nucleic_acid.PairList, len(p))
	copy(out, p)
	return out
}
