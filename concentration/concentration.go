/*
Package concentration solves for the equilibrium concentration of every
ordered complex in a tube, given a list of species (each complex's strand
composition and free energy) and every strand's total concentration (spec
§4.7, "Equilibrium concentration solver").

The problem is the convex program NUPACK poses it as: minimize the
Gibbs free energy

	sum_j x_j * (ln(x_j) - 1 + dG_j/RT)

subject to the mass-conservation constraints A*x = total (one row per
monomer strand, one column per complex) and x >= 0, where A[s][j] is the
count of strand s in complex j. This package follows NUPACK's own
`concentration/Solve.h` shape: a trust-region dogleg step in log-
concentration space. When the quadratic model's predicted reduction
disagrees badly with the actual one (ratio below 0.25) the trust radius
shrinks to a quarter, and a step is kept only if the ratio exceeds 0.01.
gonum.org/v1/gonum/mat supplies the dense linear-algebra primitives
(SPD solves of the Hessian, which is always diagonal-plus-low-rank in
this formulation) -- there is no teacher-repo usage pattern for gonum, so
its use here is grounded purely on being the standard Go numerical-linear-
algebra library (see DESIGN.md).
*/
package concentration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Species is one ordered complex entry in the problem: its composition
// (strand index -> count) and its standard-state free energy in deca-
// cal/mol, already corrected for rotational symmetry (spec §4.7, "Species
// free energy").
type Species struct {
	Composition map[int]int
	FreeEnergy  int
}

// Problem is a fully specified equilibrium instance: nStrands monomer
// strands with given total concentrations (mol/L), and a list of candidate
// complexes.
type Problem struct {
	TotalConcentration []float64
	Species            []Species
	TemperatureCelsius float64
}

// ErrNotConverged is returned when the solver exhausts its iteration budget
// without meeting the KKT-residual tolerance (spec §4.7, "Convergence").
var ErrNotConverged = fmt.Errorf("concentration: did not converge")

const (
	kBKcalPerMolPerKelvin = 0.0019872041
	zeroCelsiusInKelvin   = 273.15
	maxIterations         = 200
	gradientTolerance     = 1e-10
)

// Result is the solved equilibrium state.
type Result struct {
	// Concentration[j] is the equilibrium mol/L concentration of Species[j].
	Concentration []float64
	Iterations    int
}

// Solve runs the trust-region dogleg iteration to convergence (or returns
// ErrNotConverged). initial selects the starting guess strategy.
func Solve(p Problem, initial InitialGuess) (*Result, error) {
	nStrands := len(p.TotalConcentration)
	nSpecies := len(p.Species)
	if nSpecies == 0 {
		return &Result{Concentration: nil}, nil
	}

	a := stoichiometryMatrix(p, nStrands, nSpecies)
	beta := 1.0 / (kBKcalPerMolPerKelvin * (p.TemperatureCelsius + zeroCelsiusInKelvin))
	logQ := make([]float64, nSpecies)
	for j, s := range p.Species {
		logQ[j] = -beta * float64(s.FreeEnergy) / 100.0
	}

	y := initial.Guess(p, a, logQ)
	radius := 1.0

	for iter := 0; iter < maxIterations; iter++ {
		x := dualToConcentration(a, y, logQ)
		grad, hess := gradientAndHessian(a, x, p.TotalConcentration)
		residual := mat.Norm(grad, 2)
		if residual < gradientTolerance {
			return &Result{Concentration: x, Iterations: iter}, nil
		}

		step, predictedReduction := doglegStep(grad, hess, radius)
		trial := addVectors(y, step)
		trialX := dualToConcentration(a, trial, logQ)
		trialGrad, _ := gradientAndHessian(a, trialX, p.TotalConcentration)
		actualReduction := mat.Norm(grad, 2) - mat.Norm(trialGrad, 2)

		rho := 0.0
		if predictedReduction > 1e-300 {
			rho = actualReduction / predictedReduction
		}
		switch {
		case rho < 0.25:
			radius *= 0.25
		case rho > 0.75 && vectorNorm(step) >= 0.9*radius:
			radius *= 2
		}
		if rho > 0.01 {
			y = trial
		}
	}
	return nil, ErrNotConverged
}

func stoichiometryMatrix(p Problem, nStrands, nSpecies int) *mat.Dense {
	a := mat.NewDense(nStrands, nSpecies, nil)
	for j, s := range p.Species {
		for strand, count := range s.Composition {
			a.Set(strand, j, float64(count))
		}
	}
	return a
}

// dualToConcentration evaluates the primal concentration x_j implied by the
// dual (per-strand log-activity) variables y, per NUPACK's
// x_j = Q_j * exp(sum_s A[s,j]*y_s) reparametrization (spec §4.7, "Dual
// formulation"): y has one entry per monomer strand, x one per species.
func dualToConcentration(a *mat.Dense, y, logQ []float64) []float64 {
	nStrands, nSpecies := a.Dims()
	x := make([]float64, nSpecies)
	for j := 0; j < nSpecies; j++ {
		logX := logQ[j]
		for s := 0; s < nStrands; s++ {
			coeff := a.At(s, j)
			if coeff != 0 {
				logX += coeff * y[s]
			}
		}
		x[j] = math.Exp(logX)
	}
	return x
}

// gradientAndHessian computes the dual-residual gradient (mass-conservation
// violation A*x - total) and the Hessian of the dual objective,
// A * diag(x) * A^T, both in the nStrands-dimensional dual coordinates
// (spec §4.7, "Dual formulation").
func gradientAndHessian(a *mat.Dense, x []float64, total []float64) (*mat.VecDense, *mat.Dense) {
	nStrands, nSpecies := a.Dims()
	residual := make([]float64, nStrands)
	for s := 0; s < nStrands; s++ {
		sum := 0.0
		for j := 0; j < nSpecies; j++ {
			sum += a.At(s, j) * x[j]
		}
		residual[s] = sum - total[s]
	}
	grad := mat.NewVecDense(nStrands, residual)

	hess := mat.NewDense(nStrands, nStrands, nil)
	for j := 0; j < nSpecies; j++ {
		for s := 0; s < nStrands; s++ {
			as := a.At(s, j)
			if as == 0 {
				continue
			}
			for t := 0; t < nStrands; t++ {
				at := a.At(t, j)
				if at == 0 {
					continue
				}
				hess.Set(s, t, hess.At(s, t)+as*at*x[j])
			}
		}
	}
	for s := 0; s < nStrands; s++ {
		hess.Set(s, s, hess.At(s, s)+1e-12)
	}
	return grad, hess
}

// doglegStep computes the trust-region dogleg step: the full Newton step if
// it lies within the radius; otherwise the Cauchy (steepest-descent) point
// if that already reaches the radius; otherwise the point where the segment
// from the Cauchy point to the Newton point meets the radius (spec §4.7,
// "Trust-region dogleg"). A singular Hessian yields the Cauchy point.
func doglegStep(grad *mat.VecDense, hess *mat.Dense, radius float64) ([]float64, float64) {
	n := grad.Len()
	var newton mat.VecDense
	if err := newton.SolveVec(hess, grad); err != nil {
		cauchy := cauchyPoint(grad, hess, radius)
		return cauchy, predictedReduction(grad, hess, cauchy)
	}
	newtonNeg := make([]float64, n)
	for i := 0; i < n; i++ {
		newtonNeg[i] = -newton.AtVec(i)
	}
	if vectorNorm(newtonNeg) <= radius {
		return newtonNeg, predictedReduction(grad, hess, newtonNeg)
	}

	cauchy := cauchyPoint(grad, hess, radius)
	if vectorNorm(cauchy) >= radius {
		return cauchy, predictedReduction(grad, hess, cauchy)
	}

	// Blend along the segment from the Cauchy point to the Newton point
	// until the trust-region boundary is reached.
	diff := subVectors(newtonNeg, cauchy)
	a := dot(diff, diff)
	b := 2 * dot(cauchy, diff)
	c := dot(cauchy, cauchy) - radius*radius
	tau := 1.0
	if a > 0 {
		disc := b*b - 4*a*c
		if disc < 0 {
			disc = 0
		}
		tau = (-b + math.Sqrt(disc)) / (2 * a)
		if tau > 1 {
			tau = 1
		}
		if tau < 0 {
			tau = 0
		}
	}
	step := addVectors(cauchy, scaleVector(diff, tau))
	return step, predictedReduction(grad, hess, step)
}

func cauchyPoint(grad *mat.VecDense, hess *mat.Dense, radius float64) []float64 {
	n := grad.Len()
	g := make([]float64, n)
	for i := range g {
		g[i] = grad.AtVec(i)
	}
	var hg mat.VecDense
	hg.MulVec(hess, grad)
	denom := dot(g, vecToSlice(&hg))
	gnorm2 := dot(g, g)
	if denom <= 0 {
		scale := radius / math.Sqrt(gnorm2)
		return scaleVector(negate(g), scale)
	}
	alpha := gnorm2 / denom
	step := scaleVector(negate(g), alpha)
	if vectorNorm(step) > radius {
		step = scaleVector(step, radius/vectorNorm(step))
	}
	return step
}

func predictedReduction(grad *mat.VecDense, hess *mat.Dense, step []float64) float64 {
	g := vecToSlice(grad)
	var hs mat.VecDense
	hs.MulVec(hess, mat.NewVecDense(len(step), step))
	quad := 0.5 * dot(step, vecToSlice(&hs))
	linear := dot(g, step)
	return -(linear + quad)
}

func vecToSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func vectorNorm(v []float64) float64 { return math.Sqrt(dot(v, v)) }

func scaleVector(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func negate(v []float64) []float64 { return scaleVector(v, -1) }

func addVectors(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func subVectors(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
