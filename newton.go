package kepler

import (
	"math"
)

const (
	// MaxAnomalyIterations caps the eccentric and hyperbolic anomaly solvers.
	MaxAnomalyIterations = 100000
	// MaxUniversalIterations caps the universal variable propagator.
	MaxUniversalIterations = 500
)

// NewtonRaphson approximates the root of f from the initial guess x0 using its derivative fPrime.
// It stops when two consecutive iterates are less than ε apart and returns the last one.
// A *ConvergenceError is returned if that does not happen within maxIter iterations, or as soon
// as an iterate is not finite.
func NewtonRaphson(f, fPrime func(float64) float64, x0, ε float64, maxIter int) (float64, error) {
	if !(ε > 0) {
		return x0, &ConvergenceError{Solver: "newton (invalid tolerance)", X0: x0, X: x0}
	}
	x := x0
	for iter := 1; iter <= maxIter; iter++ {
		xNext := x - f(x)/fPrime(x)
		if math.IsNaN(xNext) || math.IsInf(xNext, 0) {
			return x, &ConvergenceError{Solver: "newton", Iterations: iter, X0: x0, X: xNext}
		}
		if math.Abs(xNext-x) < ε {
			return xNext, nil
		}
		x = xNext
	}
	return x, &ConvergenceError{Solver: "newton", Iterations: maxIter, X0: x0, X: x}
}
