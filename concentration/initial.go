package concentration

import "math"

// InitialGuess produces a starting point for Solve's dual (per-strand
// log-activity) variables. NUPACK's own solver offers more than one
// strategy because a good guess matters more than the iteration itself for
// avoiding numerical stalls on stiff problems (spec §4.7, "Initial guess
// strategies").
type InitialGuess interface {
	Guess(p Problem, a stoichiometry, logQ []float64) []float64
}

// stoichiometry is the subset of *mat.Dense's API this package's initial
// guesses need, kept as an unexported alias so the two strategies below
// don't need to import gonum directly.
type stoichiometry interface {
	At(i, j int) float64
	Dims() (r, c int)
}

// LogTotalGuess starts every strand's dual variable at log(total
// concentration), the simplest possible guess: it is exact when every
// strand is present only as an unpaired monomer and otherwise just a
// starting point for the trust-region iteration to correct.
type LogTotalGuess struct{}

func (LogTotalGuess) Guess(p Problem, a stoichiometry, logQ []float64) []float64 {
	nStrands, _ := a.Dims()
	y := make([]float64, nStrands)
	for s := 0; s < nStrands; s++ {
		total := p.TotalConcentration[s]
		if total <= 0 {
			y[s] = -700 // effectively zero concentration in log space
			continue
		}
		y[s] = math.Log(total)
	}
	return y
}

// MonomerBalanceGuess refines LogTotalGuess by one fixed-point pass: for
// each strand, it estimates the extra copies of that strand tied up in
// complexes holding two or more copies of it (coefficient - 1 per complex,
// using the previous guess's implied concentrations), and adjusts the
// monomer's dual variable so its own species balances against what is
// left. Complexes holding a single copy of the strand are not subtracted. Used when the tube has a complex
// with C species outnumbering S strands (C > S), where LogTotalGuess tends
// to overestimate every strand's free monomer fraction and the first
// trust-region step would otherwise overshoot (spec §4.7, "C > S
// orthogonalization").
type MonomerBalanceGuess struct{}

func (MonomerBalanceGuess) Guess(p Problem, a stoichiometry, logQ []float64) []float64 {
	base := LogTotalGuess{}.Guess(p, a, logQ)
	nStrands, nSpecies := a.Dims()
	if nSpecies <= nStrands {
		return base
	}

	x := make([]float64, nSpecies)
	for j := 0; j < nSpecies; j++ {
		logX := logQ[j]
		for s := 0; s < nStrands; s++ {
			coeff := a.At(s, j)
			if coeff != 0 {
				logX += coeff * base[s]
			}
		}
		x[j] = math.Exp(logX)
	}

	adjusted := make([]float64, nStrands)
	copy(adjusted, base)
	for s := 0; s < nStrands; s++ {
		usedElsewhere := 0.0
		for j := 0; j < nSpecies; j++ {
			coeff := a.At(s, j)
			if coeff > 1 {
				usedElsewhere += (coeff - 1) * x[j]
			}
		}
		remaining := p.TotalConcentration[s] - usedElsewhere
		if remaining <= 0 {
			adjusted[s] = -700
			continue
		}
		adjusted[s] = math.Log(remaining)
	}
	return adjusted
}
