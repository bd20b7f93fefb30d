package tools

import (
	"errors"
	"math"

	"github.com/ChristopherRabotin/kepler"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	ε  = 1e-6 // General epsilon
	tε = 1e-6 // Time epsilon (1e-6 seconds)
	// maxLambertIterations caps the bisection on ψ.
	maxLambertIterations = 1000
)

// Lambert solves the Lambert boundary problem:
// Given the initial and final radii and the mass of the central body, it returns the needed initial and
// final velocities along with ψ which is the square of the difference in eccentric anomaly. When dm is 0,
// the direction of motion is computed directly in this function to simplify the generation of pork chop plots.
func Lambert(Ri, Rf *mat64.Vector, Δt0, dm, mass float64) (Vi, Vf *mat64.Vector, ψ float64, err error) {
	// Initialize return variables
	Vi = mat64.NewVector(3, nil)
	Vf = mat64.NewVector(3, nil)
	// Sanity checks
	Rir, _ := Ri.Dims()
	Rfr, _ := Rf.Dims()
	if Rir != Rfr || Rir != 3 {
		err = errors.New("initial and final radii must be 3x1 vectors")
		return
	}
	if !(Δt0 > 0) {
		err = errors.New("time of flight must be positive")
		return
	}
	μ := kepler.GM(mass)
	rI := mat64.Norm(Ri, 2)
	rF := mat64.Norm(Rf, 2)
	cosΔν := mat64.Dot(Ri, Rf) / (rI * rF)
	// Compute the direction of motion
	νI := math.Atan2(Ri.At(1, 0), Ri.At(0, 0))
	νF := math.Atan2(Rf.At(1, 0), Rf.At(0, 0))
	if dm == 0 {
		if νF-νI < math.Pi {
			dm = 1
		} else {
			dm = -1
		}
	} else if dm != 1 && dm != -1 {
		err = errors.New("direction of motion must be either 0, -1 or 1 (multi rev not supported)")
		return
	}
	A := dm * math.Sqrt(rI*rF*(1+cosΔν))
	if floats.EqualWithinAbs(A, 0, ε) {
		// The transfer plane is undefined when both positions are opposite.
		err = errors.New("Δν ~=π and A ~=0, cannot compute trajectory")
		return
	}
	ψ = 0
	ψup := 4 * math.Pow(math.Pi, 2)
	ψlow := -4 * math.Pi
	c2, c3 := kepler.Stumpff(ψ)
	var Δt, y float64
	iter := 0
	for ; math.Abs(Δt-Δt0) > tε; iter++ {
		if iter == maxLambertIterations {
			err = &kepler.ConvergenceError{Solver: "lambert", Iterations: iter, X0: 0, X: ψ}
			return
		}
		y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
		if A > 0 && y < 0 {
			// ψ is too low for this geometry: move the lower bound up.
			ψlow = ψ
			ψ = (ψup + ψlow) / 2
			c2, c3 = kepler.Stumpff(ψ)
			continue
		}
		χ := math.Sqrt(y / c2)
		Δt = (math.Pow(χ, 3)*c3 + A*math.Sqrt(y)) / math.Sqrt(μ)
		if Δt < Δt0 {
			ψlow = ψ
		} else {
			ψup = ψ
		}
		ψ = (ψup + ψlow) / 2
		c2, c3 = kepler.Stumpff(ψ)
	}
	f := 1 - y/rI
	gDot := 1 - y/rF
	g := (A * math.Sqrt(y/μ))
	// Compute velocities
	Rf2 := mat64.NewVector(3, nil)
	Vi.AddScaledVec(Rf, -f, Ri)
	Vi.ScaleVec(1/g, Vi)
	Rf2.ScaleVec(gDot, Rf)
	Vf.AddScaledVec(Rf2, -1, Ri)
	Vf.ScaleVec(1/g, Vf)
	return
}
