/*
Package recursion evaluates the DP block's recursion equations (hairpin,
stack, bulge, interior, multiloop, and exterior) over anti-diagonals of
increasing range, generic over the semiring so the same equations compute
either a partition function or a minimum free energy (spec §4.5).

The scheduler processes anti-diagonals of the (i, j) grid from short range
to long range, handing each anti-diagonal's cells to a worker pool built on
golang.org/x/sync/errgroup (grounded on the teacher's own use of errgroup
for parallel work distribution). Workers return an error only on context
cancellation, which aborts the whole evaluation. Cells are not checked for
overflow: a value that leaves the scalar's range is stored as is, and
nothing re-runs Evaluate with a wider scalar type.
*/
package recursion

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/TimothyStiles/nupack-go/dp_block"
	"github.com/TimothyStiles/nupack-go/energy_params"
	"github.com/TimothyStiles/nupack-go/nucleic_acid"
	"github.com/TimothyStiles/nupack-go/thermo_model"
)

// MinHairpinUnpaired is the minimum number of unpaired bases a hairpin loop
// must enclose: a pair (i, j) with j - i - 1 < MinHairpinUnpaired can never
// close a hairpin.
const MinHairpinUnpaired = 3

// MaxInteriorSpan bounds the total unpaired-base count (both sides combined)
// an interior loop or bulge enumeration considers, matching
// energy_params.MaxLenLoop. Interior loops and bulges with more unpaired
// bases than this are not enumerated at all, so they contribute nothing,
// even though energy_params.LoopSize gives them a finite (log-extrapolated)
// penalty.
const MaxInteriorSpan = energy_params.MaxLenLoop

// defaultWorkers sizes the errgroup-backed worker pool each anti-diagonal's
// cells are spread across: the concrete realization of the "environment"
// abstraction spec §5 describes, absent a runtime.GOMAXPROCS-derived config.
const defaultWorkers = 8

// Engine evaluates a Block's recursion equations for a single nucleic-acid
// complex (one or more nick-joined strands) under a given CachedModel.
type Engine[Scalar any] struct {
	Model   *thermo_model.CachedModel[Scalar]
	Rule    nucleic_acid.PairRule
	Workers int
}

// NewEngine returns an Engine with the default worker-pool size.
func NewEngine[Scalar any](model *thermo_model.CachedModel[Scalar], rule nucleic_acid.PairRule) *Engine[Scalar] {
	return &Engine[Scalar]{Model: model, Rule: rule, Workers: defaultWorkers}
}

func isNick(seq []nucleic_acid.Base, p int) bool {
	return p >= 0 && p < len(seq) && seq[p] == nucleic_acid.Gap
}

// spansNick reports whether any position strictly between lo and hi is a
// gap, meaning a single loop spanning that range would cross a strand break
// and can therefore never form.
func spansNick(seq []nucleic_acid.Base, lo, hi int) bool {
	for p := lo + 1; p < hi; p++ {
		if isNick(seq, p) {
			return true
		}
	}
	return false
}

// Evaluate fills and returns a fully populated Block for seq (the encoded,
// gap-marked concatenation of a Complex's strands). ctx is checked for
// cancellation every 8 outer anti-diagonal steps (spec §5, "Cancellation and
// timeouts").
func (e *Engine[Scalar]) Evaluate(ctx context.Context, seq []nucleic_acid.Base) (*dp_block.Block[Scalar], error) {
	n := len(seq)
	if err := e.Model.Reserve(n); err != nil {
		return nil, fmt.Errorf("recursion: %w", err)
	}
	block := dp_block.NewBlock[Scalar](n)
	ring := e.Model.Ring

	for i := 0; i < n; i++ {
		block.Q.Set(i, i, ring.One())
		block.QB.Set(i, i, ring.Zero())
		block.QM.Set(i, i, ring.Zero())
		block.QMS.Set(i, i, ring.Zero())
	}

	for span := 1; span < n; span++ {
		if span%8 == 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("recursion: %w", ctx.Err())
			default:
			}
		}

		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(e.Workers)
		for i := 0; i+span < n; i++ {
			i := i
			j := i + span
			group.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				e.evaluateCell(seq, block, i, j)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}
	return block, nil
}

// evaluateCell fills QB(i,j), QMS(i,j), QM(i,j), and Q(i,j) from
// already-finalized shorter-span entries.
func (e *Engine[Scalar]) evaluateCell(seq []nucleic_acid.Base, block *dp_block.Block[Scalar], i, j int) {
	ring := e.Model.Ring

	qb := e.closingPairValue(seq, block, i, j)
	block.QB.Set(i, j, qb)

	// QMS(i,j): exactly one stem, the pair (i,j) itself, dressed with the
	// per-stem multiloop penalty (spec §4.5, "Multiloop substructure, single
	// stem").
	qms := ring.Times(qb, e.Model.Boltz(e.Model.Table.MultiLoopPair))
	block.QMS.Set(i, j, qms)

	// QM(i,j): one or more multiloop stems spanning [i, j], with any number
	// of unpaired bases before the first stem (spec §4.5, "Multiloop
	// substructure"). Stems abut one another and the last stem closes at j:
	// unpaired bases between stems or after the last stem are not counted.
	unpairedFactor := e.Model.Boltz(e.Model.Table.MultiLoopBase)
	qm := qms
	if !isNick(seq, i) {
		qm = ring.Plus(qm, ring.Times(unpairedFactor, block.QM.Get(i+1, j)))
	}
	for k := i + 1; k < j; k++ {
		qm = ring.Plus(qm, ring.Times(block.QM.Get(i, k), block.QMS.Get(k+1, j)))
	}
	block.QM.Set(i, j, qm)

	// Q(i,j): exterior-loop partition function/MFE over [i, j] (spec §4.5,
	// "Exterior loop").
	q := block.Q.Get(i, j-1)
	q = ring.Plus(q, qb)
	for k := i; k < j; k++ {
		q = ring.Plus(q, ring.Times(block.Q.Get(i, k), block.QB.Get(k+1, j)))
	}
	block.Q.Set(i, j, q)
}

// closingPairValue returns QB(i, j): the ring-zero if (i, j) cannot pair,
// else the sum/min over the hairpin, stack/bulge/interior, and multiloop
// closure terms.
func (e *Engine[Scalar]) closingPairValue(seq []nucleic_acid.Base, block *dp_block.Block[Scalar], i, j int) Scalar {
	ring := e.Model.Ring
	if isNick(seq, i) || isNick(seq, j) || !e.Rule.CanClose(seq[i], seq[j]) {
		return ring.Zero()
	}

	total := e.hairpinTerm(seq, i, j)
	total = ring.Plus(total, e.stackBulgeInteriorTerm(seq, block, i, j))
	total = ring.Plus(total, e.multiLoopClosureTerm(seq, block, i, j))
	return total
}

func (e *Engine[Scalar]) hairpinTerm(seq []nucleic_acid.Base, i, j int) Scalar {
	ring := e.Model.Ring
	unpaired := j - i - 1
	if unpaired < MinHairpinUnpaired || spansNick(seq, i, j) {
		return ring.Zero()
	}

	table := e.Model.Table
	if key, ok := loopSequenceKey(seq, i, j); ok {
		if bonus, found := table.TetraLoop[key]; found {
			return e.Model.Boltz(bonus)
		}
		if bonus, found := table.TriLoop[key]; found {
			return e.Model.Boltz(bonus)
		}
		if bonus, found := table.HexaLoop[key]; found {
			return e.Model.Boltz(bonus)
		}
	}

	energy := energy_params.LoopSize(table.Hairpin, table.LogLoopPenalty, unpaired)
	energy += mismatchEnergy(table.MismatchHairpin, seq, i, j)
	return e.Model.Boltz(energy)
}

// loopSequenceKey returns the closing-pair-inclusive sequence of a hairpin
// loop spanning (i, j), for lookup against Table's tri/tetra/hexa loop maps.
func loopSequenceKey(seq []nucleic_acid.Base, i, j int) (string, bool) {
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

func mismatchEnergy(mismatch [][][]int, seq []nucleic_acid.Base, i, j int) int {
	p := energy_params.EncodeBasePair(seq[i], seq[j])
	if p == energy_params.PairNone {
		return 0
	}
	return mismatch[p][seq[i+1]][seq[j-1]]
}

// stackBulgeInteriorTerm sums over every inner closing pair (p, q) with
// i < p < q < j the stack, bulge, or interior-loop contribution of treating
// (i,j) as the outer pair of that loop (spec §4.5, "Stack", "Bulge",
// "Interior loop").
func (e *Engine[Scalar]) stackBulgeInteriorTerm(seq []nucleic_acid.Base, block *dp_block.Block[Scalar], i, j int) Scalar {
	ring := e.Model.Ring
	total := ring.Zero()
	if spansNick(seq, i, j) {
		return total
	}

	outerPair := energy_params.EncodeBasePair(seq[i], seq[j])
	maxP := i + 1 + MaxInteriorSpan
	for p := i + 1; p < j-1 && p <= maxP; p++ {
		if isNick(seq, p) {
			continue
		}
		left := p - i - 1
		for q := j - 1; q > p && (j-q-1)+left <= MaxInteriorSpan; q-- {
			if isNick(seq, q) {
				continue
			}
			if !e.Rule.CanPair(seq[p], seq[q]) {
				continue
			}
			right := j - q - 1
			energy := loopEnergy(e.Model.Table, outerPair, seq, i, j, p, q, left, right)
			total = ring.Plus(total, ring.Times(e.Model.Boltz(energy), block.QB.Get(p, q)))
		}
	}
	return total
}

// loopEnergy computes the stack/bulge/interior-loop free energy of closing
// pair (i,j) around inner pair (p,q), given left/right unpaired-base counts.
func loopEnergy(table *energy_params.Table, outerPair energy_params.BasePairType, seq []nucleic_acid.Base, i, j, p, q, left, right int) int {
	innerPair := energy_params.EncodeBasePair(seq[p], seq[q])
	switch {
	case left == 0 && right == 0:
		return table.StackEnergy(outerPair, flip(innerPair))
	case left == 0 || right == 0:
		size := left + right
		energy := energy_params.LoopSize(table.Bulge, table.LogLoopPenalty, size)
		if size == 1 {
			energy += table.StackEnergy(outerPair, flip(innerPair))
		}
		return energy
	case left == 1 && right == 1:
		return table.Interior1x1[outerPair][flip(innerPair)][seq[i+1]][seq[j-1]]
	case left == 2 && right == 1:
		return table.Interior2x1[outerPair][flip(innerPair)][seq[i+1]][seq[i+2]][seq[j-1]]
	case left == 1 && right == 2:
		return table.Interior2x1[flip(innerPair)][outerPair][seq[q+1]][seq[q+2]][seq[i+1]]
	case left == 2 && right == 2:
		return table.Interior2x2[outerPair][flip(innerPair)][seq[i+1]][seq[i+2]][seq[j-2]][seq[j-1]]
	default:
		total := left + right
		energy := energy_params.LoopSize(table.InteriorLoop, table.LogLoopPenalty, total)
		diff := left - right
		if diff < 0 {
			diff = -diff
		}
		asymmetry := 0
		if diff < len(table.Ninio) {
			asymmetry = table.Ninio[diff]
		} else if len(table.Ninio) > 0 {
			asymmetry = table.Ninio[len(table.Ninio)-1]
		}
		if asymmetry > table.MaxNinio {
			asymmetry = table.MaxNinio
		}
		energy += asymmetry
		energy += mismatchEnergy(table.MismatchInterior, seq, i, j)
		return energy
	}
}

// flip returns the BasePairType of an inner pair as seen "from the outside",
// i.e. with its 5'/3' ends swapped, matching the teacher convention that
// Stack/Interior tables are always indexed outer-pair-first.
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

// multiLoopClosureTerm returns the contribution of (i,j) closing a multiloop
// with two or more enclosed stems (spec §4.5, "Multiloop closure"). QM
// already represents "leading unpaired bases, then at least one stem ending
// at the range end" on each side, so summing QM(i+1,m) * QM(m+1,j-1) over every split point m forces
// at least two stems overall without needing a separate "at least one
// stem" helper matrix.
func (e *Engine[Scalar]) multiLoopClosureTerm(seq []nucleic_acid.Base, block *dp_block.Block[Scalar], i, j int) Scalar {
	ring := e.Model.Ring
	if j-i < 5 || spansNick(seq, i, j) {
		return ring.Zero()
	}
	init := e.Model.Boltz(e.Model.Table.MultiLoopInit)
	total := ring.Zero()
	for m := i + 2; m < j-2; m++ {
		total = ring.Plus(total, ring.Times(block.QM.Get(i+1, m), block.QM.Get(m+1, j-1)))
	}
	return ring.Times(init, total)
}
