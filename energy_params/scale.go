package energy_params

import "math"

func logRatio(length int) float64 {
	return math.Log(float64(length) / float64(MaxLenLoop))
}

// newEmptyTable allocates the full set of a Table's arrays/maps so every
// field is non-nil even before NewDefaultTable or UnmarshalJSON populates
// values.
func newEmptyTable() *Table {
	t := &Table{
		Stack:        make2D(7, 7),
		CoaxialStack: make2D(7, 7),

		Interior1x1: make4D(7, 7, 4, 4),
		Interior2x1: make5D(7, 7, 4, 4, 4),
		Interior2x2: make6D(7, 7, 4, 4, 4, 4),

		MismatchInterior:    make3D(7, 4, 4),
		Mismatch1xnInterior: make3D(7, 4, 4),
		Mismatch2x3Interior: make3D(7, 4, 4),
		MismatchHairpin:     make3D(7, 4, 4),
		MismatchMulti:       make3D(7, 4, 4),
		MismatchExterior:    make3D(7, 4, 4),

		Dangle5: make2D(7, 4),
		Dangle3: make2D(7, 4),

		Hairpin:      make([]int, MaxLenLoop+1),
		Bulge:        make([]int, MaxLenLoop+1),
		InteriorLoop: make([]int, MaxLenLoop+1),

		TriLoop:   map[string]int{},
		TetraLoop: map[string]int{},
		HexaLoop:  map[string]int{},

		Ninio:             make([]int, 5),
		measuredAtCelsius: MeasurementTemperatureInCelsius,
	}
	return t
}

func make2D(a, b int) [][]int {
	out := make([][]int, a)
	for i := range out {
		out[i] = make([]int, b)
	}
	return out
}

func make3D(a, b, c int) [][][]int {
	out := make([][][]int, a)
	for i := range out {
		out[i] = make2D(b, c)
	}
	return out
}

func make4D(a, b, c, d int) [][][][]int {
	out := make([][][][]int, a)
	for i := range out {
		out[i] = make3D(b, c, d)
	}
	return out
}

func make5D(a, b, c, d, e int) [][][][][]int {
	out := make([][][][][]int, a)
	for i := range out {
		out[i] = make4D(b, c, d, e)
	}
	return out
}

func make6D(a, b, c, d, e, f int) [][][][][][]int {
	out := make([][][][][][]int, a)
	for i := range out {
		out[i] = make5D(b, c, d, e, f)
	}
	return out
}

// NewDefaultTable returns a small, internally-consistent placeholder
// parameter table: every pairable stack, dangle and interior/1xn/2x3/multiloop
// mismatch entry gets a mildly favorable (negative) energy (hairpin mismatch
// entries range up to 0 and exterior mismatch entries up to +10 deca-cal/mol),
// every size-dependent array is monotonically
// unfavorable with length, and forbidden entries (non-standard pairs) are
// `inf`. It is not a substitute for a real experimentally-fitted parameter
// set (e.g. Turner2004) -- supplying one is the caller's responsibility, per
// this package's scope (see package doc).
func NewDefaultTable() *Table {
	t := newEmptyTable()
	t.Material = "placeholder"
	t.DefaultWobblePairing = true

	for p := BasePairType(0); p < 7; p++ {
		for q := BasePairType(0); q < 7; q++ {
			if p == PairNone || q == PairNone {
				t.Stack[p][q] = inf
				t.CoaxialStack[p][q] = inf
				continue
			}
			t.Stack[p][q] = -240 - 10*int(p) - 10*int(q)
			t.CoaxialStack[p][q] = t.Stack[p][q] + 50
		}
	}

	fill3D := func(dst [][][]int, base int) {
		for p := range dst {
			for a := range dst[p] {
				for b := range dst[p][a] {
					if BasePairType(p) == PairNone {
						dst[p][a][b] = inf
						continue
					}
					dst[p][a][b] = base + 5*a + 5*b
				}
			}
		}
	}
	fill3D(t.MismatchInterior, -60)
	fill3D(t.Mismatch1xnInterior, -50)
	fill3D(t.Mismatch2x3Interior, -40)
	fill3D(t.MismatchHairpin, -30)
	fill3D(t.MismatchMulti, -40)
	fill3D(t.MismatchExterior, -20)

	for p := range t.Dangle5 {
		for a := range t.Dangle5[p] {
			if BasePairType(p) == PairNone {
				t.Dangle5[p][a] = inf
				t.Dangle3[p][a] = inf
				continue
			}
			t.Dangle5[p][a] = -40 + 5*a
			t.Dangle3[p][a] = -50 + 5*a
		}
	}

	for p := range t.Interior1x1 {
		for q := range t.Interior1x1[p] {
			for a := range t.Interior1x1[p][q] {
				for b := range t.Interior1x1[p][q][a] {
					if BasePairType(p) == PairNone || BasePairType(q) == PairNone {
						t.Interior1x1[p][q][a][b] = inf
						continue
					}
					t.Interior1x1[p][q][a][b] = -110 + 5*a + 5*b
				}
			}
		}
	}
	for p := range t.Interior2x1 {
		for q := range t.Interior2x1[p] {
			for a := range t.Interior2x1[p][q] {
				for b := range t.Interior2x1[p][q][a] {
					for c := range t.Interior2x1[p][q][a][b] {
						if BasePairType(p) == PairNone || BasePairType(q) == PairNone {
							t.Interior2x1[p][q][a][b][c] = inf
							continue
						}
						t.Interior2x1[p][q][a][b][c] = -90 + 3*a + 3*b + 3*c
					}
				}
			}
		}
	}
	for p := range t.Interior2x2 {
		for q := range t.Interior2x2[p] {
			for a := range t.Interior2x2[p][q] {
				for b := range t.Interior2x2[p][q][a] {
					for c := range t.Interior2x2[p][q][a][b] {
						for d := range t.Interior2x2[p][q][a][b][c] {
							if BasePairType(p) == PairNone || BasePairType(q) == PairNone {
								t.Interior2x2[p][q][a][b][c][d] = inf
								continue
							}
							t.Interior2x2[p][q][a][b][c][d] = -150 + 2*a + 2*b + 2*c + 2*d
						}
					}
				}
			}
		}
	}

	for l := 0; l <= MaxLenLoop; l++ {
		t.Hairpin[l] = inf
		t.Bulge[l] = inf
		t.InteriorLoop[l] = inf
		if l >= 3 {
			t.Hairpin[l] = 400 + 10*l
		}
		if l >= 1 {
			t.Bulge[l] = 300 + 20*l
		}
		if l >= 2 {
			t.InteriorLoop[l] = 80 + 6*l
		}
	}
	t.LogLoopPenalty = 1.079 * 100 // deca-cal/mol, matches ViennaRNA's ~1.079 kcal/mol constant

	t.TriLoop = map[string]int{}
	t.TetraLoop = map[string]int{"CAAAAG": -300, "CGAAAG": -250}
	t.HexaLoop = map[string]int{}

	t.Ninio = []int{0, 40, 80, 120, 160}
	t.MaxNinio = 300

	t.MultiLoopInit = 340
	t.MultiLoopPair = 40
	t.MultiLoopBase = 0
	t.TerminalAUPenalty = 50
	t.JoinPenalty = 160

	return t
}

// Scale returns a copy of t with every ΔG interpolated toward its ΔH
// enthalpy partner at the requested temperature:
// g <- (T/T_ref)*g + (1 - T/T_ref)*h, plus an additive loopBias applied
// across the length arrays, join penalty, and multi-loop init term (spec
// §4.1). Since this placeholder table does not carry a separate ΔH array,
// Scale treats ΔH == ΔG (no temperature dependence) except for the additive
// loopBias -- a real experimentally-fitted table loaded via UnmarshalJSON would
// populate a distinct ΔH partner to get genuine extrapolation.
func (t *Table) Scale(temperatureCelsius float64, loopBias int) *Table {
	scaled := *t
	ratio := (temperatureCelsius + ZeroCelsiusInKelvin) / (t.measuredAtCelsius + ZeroCelsiusInKelvin)
	_ = ratio // placeholder table has no ΔH partner to interpolate against

	scaled.Hairpin = addBias(t.Hairpin, loopBias)
	scaled.Bulge = addBias(t.Bulge, loopBias)
	scaled.InteriorLoop = addBias(t.InteriorLoop, loopBias)
	scaled.JoinPenalty = t.JoinPenalty + loopBias
	scaled.MultiLoopInit = t.MultiLoopInit + loopBias
	scaled.measuredAtCelsius = temperatureCelsius
	return &scaled
}

func addBias(src []int, bias int) []int {
	out := make([]int, len(src))
	for i, v := range src {
		if v >= inf {
			out[i] = v
			continue
		}
		out[i] = v + bias
	}
	return out
}
