package kepler

import (
	"errors"
	"math"
)

// anomalyModel gathers the anomaly relations of one orbit class.
type anomalyModel interface {
	// meanMotion returns n from the specific angular momentum h and μ.
	meanMotion(h, μ float64) float64
	// solve returns the auxiliary anomaly (E or F) for the mean anomaly M.
	solve(M, tolerance float64) (float64, error)
	// trueAnomaly converts the auxiliary anomaly into ν.
	trueAnomaly(x float64) float64
	// meanAnomaly is the closed form inverse: ν to M.
	meanAnomaly(ν float64) float64
}

// modelFor dispatches on the eccentricity. The parabolic case is folded in the hyperbolic one.
func modelFor(e float64) anomalyModel {
	if e < 1 {
		return ellipticModel{e}
	}
	return hyperbolicModel{e}
}

// ellipticModel relates the eccentric anomaly E to ν and M, for 0 ≤ e < 1.
type ellipticModel struct {
	e float64
}

func (m ellipticModel) meanMotion(h, μ float64) float64 {
	return (μ * μ / (h * h * h)) * math.Sqrt(math.Pow(1-m.e*m.e, 3))
}

// solve solves Kepler's equation M = E - e*sin(E).
func (m ellipticModel) solve(M, tolerance float64) (float64, error) {
	// Only M modulo 2π matters.
	M = math.Remainder(M, twoPi)
	E, err := NewtonRaphson(
		func(E float64) float64 { return E - m.e*math.Sin(E) - M },
		func(E float64) float64 { return 1 - m.e*math.Cos(E) },
		M, tolerance, MaxAnomalyIterations)
	return E, labelSolver(err, "eccentric anomaly")
}

func (m ellipticModel) trueAnomaly(E float64) float64 {
	sinE2, cosE2 := math.Sincos(E / 2)
	return 2 * math.Atan2(math.Sqrt(1+m.e)*sinE2, math.Sqrt(1-m.e)*cosE2)
}

func (m ellipticModel) meanAnomaly(ν float64) float64 {
	sinν2, cosν2 := math.Sincos(ν / 2)
	E := 2 * math.Atan2(math.Sqrt(1-m.e)*sinν2, math.Sqrt(1+m.e)*cosν2)
	return wrap2π(E - m.e*math.Sin(E))
}

// hyperbolicModel relates the hyperbolic anomaly F to ν and M, for e ≥ 1.
type hyperbolicModel struct {
	e float64
}

func (m hyperbolicModel) meanMotion(h, μ float64) float64 {
	return (μ * μ / (h * h * h)) * math.Sqrt(math.Pow(m.e*m.e-1, 3))
}

// solve solves the hyperbolic Kepler equation M = e*sinh(F) - F.
func (m hyperbolicModel) solve(M, tolerance float64) (float64, error) {
	F0 := M
	if math.Abs(M) > 6 {
		// sinh(M) dwarfs M and the first Newton steps crawl (or overflow), so start on the log asymptote.
		F0 = sign(M) * math.Log(2*math.Abs(M)/m.e+1.8)
	}
	F, err := NewtonRaphson(
		func(F float64) float64 { return m.e*math.Sinh(F) - F - M },
		func(F float64) float64 { return m.e*math.Cosh(F) - 1 },
		F0, tolerance, MaxAnomalyIterations)
	return F, labelSolver(err, "hyperbolic anomaly")
}

func (m hyperbolicModel) trueAnomaly(F float64) float64 {
	return 2 * math.Atan(math.Sqrt((m.e+1)/(m.e-1))*math.Tanh(F/2))
}

func (m hyperbolicModel) meanAnomaly(ν float64) float64 {
	F := 2 * math.Atanh(math.Sqrt((m.e-1)/(m.e+1))*math.Tan(ν/2))
	return m.e*math.Sinh(F) - F
}

func labelSolver(err error, solver string) error {
	var cErr *ConvergenceError
	if errors.As(err, &cErr) {
		cErr.Solver = solver
	}
	return err
}
