package dp_block

// Block is the full set of triangular matrices for one DP call over a
// sequence of length N: the partition-function/MFE recursion variables
// (spec §4.4). Only Q, QB, QM, and QMS are ever read or written by
// recursion's equations or backtrack's traceback/subopt/sample; the
// interior loop itself is computed directly over (p,q) rather than through
// a separate intermediate matrix (recursion.stackBulgeInteriorTerm).
type Block[Scalar any] struct {
	N int

	Q   *Matrix[Scalar] // partition function of [i..j]
	QB  *Matrix[Scalar] // restricted to structures with (i,j) paired
	QM  *Matrix[Scalar] // multiloop substructures
	QMS *Matrix[Scalar] // multiloop substructure, single stem (i,j)
}

// NewBlock allocates every matrix for a sequence of length n.
func NewBlock[Scalar any](n int) *Block[Scalar] {
	return &Block[Scalar]{
		N:   n,
		Q:   NewMatrix[Scalar](n),
		QB:  NewMatrix[Scalar](n),
		QM:  NewMatrix[Scalar](n),
		QMS: NewMatrix[Scalar](n),
	}
}
