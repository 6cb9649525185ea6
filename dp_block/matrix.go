/*
Package dp_block implements the triangular-matrix storage the recursion
engine fills, the sub-block view the anti-diagonal scheduler restricts
parallel workers to, and the LRU cache of serialized blocks keyed by
canonical complex.
*/
package dp_block

import "fmt"

// Matrix is an (N x N) upper-triangular matrix: Get/Set are only valid for
// i <= j (spec §3 "Block matrix (i, j): accessed only with i <= j"). Backed
// by a single flat slice to keep the recursion engine's inner loop
// allocation-free.
type Matrix[Scalar any] struct {
	n    int
	data []Scalar
}

// NewMatrix allocates an (n x n) triangular matrix, every entry set to
// zero.
func NewMatrix[Scalar any](n int) *Matrix[Scalar] {
	return &Matrix[Scalar]{n: n, data: make([]Scalar, n*n)}
}

func (m *Matrix[Scalar]) index(i, j int) int { return i*m.n + j }

// Get returns the entry at (i, j). Panics if i > j or either index is out
// of [0, n) -- reading a forbidden position is a programmer error, not a
// recoverable one, matching spec §7's "internal consistency" error kind.
func (m *Matrix[Scalar]) Get(i, j int) Scalar {
	m.checkBounds(i, j)
	return m.data[m.index(i, j)]
}

// Set writes the entry at (i, j).
func (m *Matrix[Scalar]) Set(i, j int, v Scalar) {
	m.checkBounds(i, j)
	m.data[m.index(i, j)] = v
}

func (m *Matrix[Scalar]) checkBounds(i, j int) {
	if i < 0 || j < 0 || i >= m.n || j >= m.n || i > j {
		panic(fmt.Sprintf("dp_block: index (%d,%d) invalid for %dx%d triangular matrix", i, j, m.n, m.n))
	}
}

// N returns the matrix's side length.
func (m *Matrix[Scalar]) N() int { return m.n }

// SubsquareView is a non-owning reference into the square [lo, hi] x
// [lo, hi] of a Matrix, used by the scheduler to restrict a worker to an
// independent sub-block. Reading a position outside [lo, hi] panics.
type SubsquareView[Scalar any] struct {
	m      *Matrix[Scalar]
	lo, hi int
}

// Subsquare returns a SubsquareView over [lo, hi] (inclusive).
func (m *Matrix[Scalar]) Subsquare(lo, hi int) SubsquareView[Scalar] {
	if lo < 0 || hi >= m.n || lo > hi {
		panic(fmt.Sprintf("dp_block: subsquare [%d,%d] invalid for %dx%d matrix", lo, hi, m.n, m.n))
	}
	return SubsquareView[Scalar]{m: m, lo: lo, hi: hi}
}

func (v SubsquareView[Scalar]) Get(i, j int) Scalar {
	v.checkRange(i, j)
	return v.m.Get(i, j)
}

func (v SubsquareView[Scalar]) Set(i, j int, val Scalar) {
	v.checkRange(i, j)
	v.m.Set(i, j, val)
}

func (v SubsquareView[Scalar]) checkRange(i, j int) {
	if i < v.lo || i > v.hi || j < v.lo || j > v.hi {
		panic(fmt.Sprintf("dp_block: (%d,%d) outside subsquare [%d,%d]", i, j, v.lo, v.hi))
	}
}

// Bounds returns the view's inclusive [lo, hi] range.
func (v SubsquareView[Scalar]) Bounds() (lo, hi int) { return v.lo, v.hi }

// Row returns row i's entries for columns [jlo, jhi) as a contiguous
// sub-slice of the Matrix's own storage (writes through it change m), used
// by the recursion engine's vectorized dot-products over
// interior-loop/multiloop ranges (spec §4.5 "Forward (evaluation)").
func (m *Matrix[Scalar]) Row(i, jlo, jhi int) []Scalar {
	m.checkBounds(i, jlo)
	if jhi > jlo {
		m.checkBounds(i, jhi-1)
	}
	start := m.index(i, jlo)
	end := m.index(i, jhi)
	return m.data[start:end]
}
