package kepler

import (
	"fmt"
	"math"
)

// G is the gravitational constant in m³/(kg·s²).
const G = 6.67430e-11

// GM returns the standard gravitational parameter μ of the provided mass.
func GM(mass float64) float64 {
	return G * mass
}

// Period returns the period of a closed orbit of semi major axis a about the provided mass.
func Period(a, mass float64) float64 {
	return twoPi * math.Sqrt(a*a*a/GM(mass))
}

// SOI returns the radius of the sphere of influence (Laplace) of a body of mass mSmall orbiting a
// body of mass mLarge at distance r.
func SOI(r, mSmall, mLarge float64) float64 {
	return r * math.Pow(mSmall/mLarge, 0.4)
}

// Radii2ae returns the semi major axis and the eccentricity of the orbit of apoapsis radius rA
// and periapsis radius rP.
func Radii2ae(rA, rP float64) (a, e float64, err error) {
	if rA < rP || rP <= 0 {
		return 0, 0, fmt.Errorf("invalid radii: apoapsis %g and periapsis %g", rA, rP)
	}
	a = (rP + rA) / 2
	e = (rA - rP) / (rA + rP)
	return
}
