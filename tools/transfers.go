package tools

import (
	"fmt"
	"math"

	"github.com/ChristopherRabotin/kepler"
)

// Hohmann computes an Hohmann transfer between the coplanar circular orbits of radii rI and rF about
// the provided mass. It returns the departure and arrival velocities, and the time of flight in seconds.
// To get final computations:
// ΔvInit = vDeparture - vI
// ΔvFinal = vArrival - vF
func Hohmann(rI, rF, mass float64) (vDeparture, vArrival, tof float64, err error) {
	if !(rI > 0 && rF > 0) {
		return 0, 0, 0, fmt.Errorf("radii must be positive: %g and %g", rI, rF)
	}
	μ := kepler.GM(mass)
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * μ / rI) - (μ / aTransfer))
	vArrival = math.Sqrt((2 * μ / rF) - (μ / aTransfer))
	tof = math.Pi * math.Sqrt(math.Pow(aTransfer, 3)/μ)
	return
}

// TurnAngle computes the turn angle of a flyby about the provided mass from the hyperbolic excess
// velocity and the radius of periapsis.
func TurnAngle(vInf, rP, mass float64) float64 {
	ρ := math.Acos(1 / (1 + math.Pow(vInf, 2)*(rP/kepler.GM(mass))))
	return math.Pi - 2*ρ
}
