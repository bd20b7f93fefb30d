package kepler

import (
	"errors"
	"fmt"
	"math"

	"github.com/gonum/floats"
)

const (
	eccentricityε = 1e-11                        // below this, an orbit is circular
	equatorialε   = 1e-11                        // |n|/h below this, an orbit is equatorial
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
)

// KeplerianElements defines an orbit via its orbital elements at a reference epoch.
// All angles are in radians. For hyperbolic orbits, SemiMajorAxis is the positive magnitude of a.
type KeplerianElements struct {
	Eccentricity       float64
	SemiMajorAxis      float64
	Inclination        float64
	RAAN               float64 // Ω
	ArgPeriapsis       float64 // ω
	MeanAnomalyAtEpoch float64 // M0
	Epoch              float64
}

// IsHyperbolic returns whether this is an open orbit. The parabolic case is treated as hyperbolic.
func (o KeplerianElements) IsHyperbolic() bool {
	return o.Eccentricity >= 1
}

// SpecificAngularMomentum returns h for the provided central mass.
func (o KeplerianElements) SpecificAngularMomentum(mass float64) float64 {
	e := o.Eccentricity
	if o.IsHyperbolic() {
		return math.Sqrt(GM(mass) * o.SemiMajorAxis * (e*e - 1))
	}
	return math.Sqrt(GM(mass) * o.SemiMajorAxis * (1 - e*e))
}

// SemiParameter returns the semi latus rectum p = h²/μ.
func (o KeplerianElements) SemiParameter() float64 {
	e := o.Eccentricity
	if o.IsHyperbolic() {
		return o.SemiMajorAxis * (e*e - 1)
	}
	return o.SemiMajorAxis * (1 - e*e)
}

// MeanMotion returns n for the provided central mass.
func (o KeplerianElements) MeanMotion(mass float64) float64 {
	return modelFor(o.Eccentricity).meanMotion(o.SpecificAngularMomentum(mass), GM(mass))
}

// MeanAnomaly returns the (elliptic or hyperbolic) mean anomaly at the provided epoch.
func (o KeplerianElements) MeanAnomaly(mass, epoch float64) float64 {
	return o.MeanAnomalyAtEpoch + o.MeanMotion(mass)*(epoch-o.Epoch)
}

// TrueAnomalyAtEpoch solves Kepler's equation at the provided epoch and returns the true anomaly.
func (o KeplerianElements) TrueAnomalyAtEpoch(mass, epoch, tolerance float64) (float64, error) {
	model := modelFor(o.Eccentricity)
	x, err := model.solve(o.MeanAnomaly(mass, epoch), tolerance)
	if err != nil {
		return math.NaN(), err
	}
	return model.trueAnomaly(x), nil
}

// StateAtEpoch returns the state vectors at the provided epoch.
func (o KeplerianElements) StateAtEpoch(mass, epoch, tolerance float64) (StateVectors, error) {
	ν, err := o.TrueAnomalyAtEpoch(mass, epoch, tolerance)
	if err != nil {
		return StateVectors{}, err
	}
	return StateVectors{o.PositionAtTrueAnomaly(mass, ν), o.VelocityAtTrueAnomaly(mass, ν)}, nil
}

// PositionAtTrueAnomaly returns the inertial position at the true anomaly ν.
func (o KeplerianElements) PositionAtTrueAnomaly(mass, ν float64) [3]float64 {
	h := o.SpecificAngularMomentum(mass)
	r := (h * h / GM(mass)) / (1 + o.Eccentricity*math.Cos(ν))
	sinν, cosν := math.Sincos(ν)
	return o.PerifocalToInertial([3]float64{r * cosν, r * sinν, 0})
}

// VelocityAtTrueAnomaly returns the inertial velocity at the true anomaly ν.
func (o KeplerianElements) VelocityAtTrueAnomaly(mass, ν float64) [3]float64 {
	μh := GM(mass) / o.SpecificAngularMomentum(mass)
	sinν, cosν := math.Sincos(ν)
	return o.PerifocalToInertial([3]float64{-μh * sinν, μh * (o.Eccentricity + cosν), 0})
}

// PerifocalToInertial rotates a perifocal (PQW) vector into the inertial frame.
func (o KeplerianElements) PerifocalToInertial(v [3]float64) [3]float64 {
	return MxV33(PQW2Inertial(o.Inclination, o.RAAN, o.ArgPeriapsis), v)
}

// Periapsis returns the position of the periapsis.
func (o KeplerianElements) Periapsis(mass float64) [3]float64 {
	return o.PositionAtTrueAnomaly(mass, 0)
}

// Apoapsis returns the position of the apoapsis, which only exists on closed orbits.
func (o KeplerianElements) Apoapsis(mass float64) ([3]float64, error) {
	if o.IsHyperbolic() {
		return [3]float64{}, ErrUnbound
	}
	return o.PositionAtTrueAnomaly(mass, math.Pi), nil
}

// AscendingNode returns the position of the ascending node.
// On hyperbolic orbits, the node may lie beyond the asymptotes.
func (o KeplerianElements) AscendingNode(mass float64) [3]float64 {
	return o.PositionAtTrueAnomaly(mass, -o.ArgPeriapsis)
}

// DescendingNode returns the position of the descending node.
func (o KeplerianElements) DescendingNode(mass float64) [3]float64 {
	return o.PositionAtTrueAnomaly(mass, math.Pi-o.ArgPeriapsis)
}

// Normal returns the unit normal of the orbital plane (direction of the angular momentum).
func (o KeplerianElements) Normal() [3]float64 {
	return o.PerifocalToInertial([3]float64{0, 0, 1})
}

// Period returns the orbital period (only meaningful for closed orbits).
func (o KeplerianElements) Period(mass float64) float64 {
	return Period(o.SemiMajorAxis, mass)
}

// String implements the stringer interface.
func (o KeplerianElements) String() string {
	return fmt.Sprintf("a=%.3f e=%.6f i=%.3f Ω=%.3f ω=%.3f M0=%.3f @%.3f", o.SemiMajorAxis, o.Eccentricity, Rad2deg(o.Inclination), Rad2deg(o.RAAN), Rad2deg(o.ArgPeriapsis), Rad2deg(o.MeanAnomalyAtEpoch), o.Epoch)
}

// Equals returns whether two sets of elements describe the same orbit about the provided mass.
// Elements which are undefined for the geometry (Ω if equatorial, ω if circular) are compared
// through their defined combinations instead. The mean anomalies are compared at the epoch of o.
func (o KeplerianElements) Equals(o1 KeplerianElements, mass float64) (bool, error) {
	if !floats.EqualWithinRel(o.SemiMajorAxis, o1.SemiMajorAxis, 1e-6) {
		return false, errors.New("semi major axis invalid")
	}
	if !floats.EqualWithinAbs(o.Eccentricity, o1.Eccentricity, 1e-6) {
		return false, errors.New("eccentricity invalid")
	}
	if !floats.EqualWithinAbs(o.Inclination, o1.Inclination, angleε) {
		return false, errors.New("inclination invalid")
	}
	circular := o.Eccentricity < 1e-6
	equatorial := math.Sin(o.Inclination) < 1e-6
	// On retrograde equatorial orbits, ω and ν are measured clockwise from the X axis.
	s := sign(math.Cos(o.Inclination))
	M := o.MeanAnomalyAtEpoch
	M1 := o1.MeanAnomaly(mass, o.Epoch)
	switch {
	case circular && equatorial:
		if !anglesClose(o.RAAN+s*(o.ArgPeriapsis+M), o1.RAAN+s*(o1.ArgPeriapsis+M1)) {
			return false, errors.New("true longitude invalid")
		}
	case circular:
		if !anglesClose(o.RAAN, o1.RAAN) {
			return false, errors.New("RAAN invalid")
		}
		if !anglesClose(o.ArgPeriapsis+M, o1.ArgPeriapsis+M1) {
			return false, errors.New("argument of latitude invalid")
		}
	case equatorial:
		if !anglesClose(o.RAAN+s*o.ArgPeriapsis, o1.RAAN+s*o1.ArgPeriapsis) {
			return false, errors.New("longitude of periapsis invalid")
		}
	default:
		if !anglesClose(o.RAAN, o1.RAAN) {
			return false, errors.New("RAAN invalid")
		}
		if !anglesClose(o.ArgPeriapsis, o1.ArgPeriapsis) {
			return false, errors.New("argument of periapsis invalid")
		}
	}
	if !circular && !anglesClose(M, M1) {
		return false, errors.New("mean anomaly invalid")
	}
	return true, nil
}

// anglesClose compares two angles modulo 2π.
func anglesClose(a, b float64) bool {
	return math.Abs(math.Remainder(a-b, twoPi)) < angleε
}
