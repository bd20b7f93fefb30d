package kepler

import (
	"fmt"
	"math"
)

// StateVectors is the position and velocity in an inertial frame centered on the central body.
type StateVectors struct {
	Position [3]float64
	Velocity [3]float64
}

// NewStateVectors returns the state from its components.
func NewStateVectors(position, velocity [3]float64) StateVectors {
	return StateVectors{position, velocity}
}

// RNorm returns the norm of the position vector.
func (s StateVectors) RNorm() float64 {
	return norm(s.Position)
}

// VNorm returns the norm of the velocity vector.
func (s StateVectors) VNorm() float64 {
	return norm(s.Velocity)
}

// H returns the specific angular momentum vector.
func (s StateVectors) H() [3]float64 {
	return cross(s.Position, s.Velocity)
}

// Energyξ returns the specific mechanical energy ξ for the provided central mass.
func (s StateVectors) Energyξ(mass float64) float64 {
	v := s.VNorm()
	return v*v/2 - GM(mass)/s.RNorm()
}

// IsFinite returns whether no component is NaN or infinite.
func (s StateVectors) IsFinite() bool {
	return finite(s.Position) && finite(s.Velocity)
}

// AbsDiff returns the sum of the position and velocity distances between both states.
func (s StateVectors) AbsDiff(o StateVectors) float64 {
	return norm(sub(s.Position, o.Position)) + norm(sub(s.Velocity, o.Velocity))
}

// Add returns the component-wise sum, i.e. the change of origin by an offset state.
func (s StateVectors) Add(o StateVectors) StateVectors {
	return StateVectors{add(s.Position, o.Position), add(s.Velocity, o.Velocity)}
}

// Sub returns the component-wise difference.
func (s StateVectors) Sub(o StateVectors) StateVectors {
	return StateVectors{sub(s.Position, o.Position), sub(s.Velocity, o.Velocity)}
}

// YUp returns this state with the axes swapped for Y up consumers.
func (s StateVectors) YUp() StateVectors {
	return StateVectors{ZUpToYUp(s.Position), ZUpToYUp(s.Velocity)}
}

// Elements returns the Keplerian elements of this state, with the provided epoch as reference.
func (s StateVectors) Elements(mass, epoch float64) KeplerianElements {
	return ElementsFromState(s, mass, epoch)
}

// Propagate returns the state Δt later. Cf. Propagate.
func (s StateVectors) Propagate(Δt, mass, tolerance float64) (StateVectors, error) {
	return Propagate(s, Δt, mass, tolerance)
}

// String implements the stringer interface.
func (s StateVectors) String() string {
	return fmt.Sprintf("R=%+v V=%+v", s.Position, s.Velocity)
}

// Geometry tags the singular configurations of the state to elements conversion.
type Geometry uint8

const (
	// GeneralGeometry is an inclined and eccentric orbit: all elements are defined.
	GeneralGeometry Geometry = iota + 1
	// EquatorialGeometry has no node line: Ω is 0 and ω is the longitude of periapsis.
	EquatorialGeometry
	// CircularGeometry has no periapsis: ω is 0 and ν is the argument of latitude.
	CircularGeometry
	// CircularEquatorialGeometry has neither: Ω and ω are 0 and ν is the true longitude.
	CircularEquatorialGeometry
)

func (g Geometry) String() string {
	switch g {
	case GeneralGeometry:
		return "general"
	case EquatorialGeometry:
		return "equatorial"
	case CircularGeometry:
		return "circular"
	case CircularEquatorialGeometry:
		return "circular equatorial"
	}
	panic("cannot stringify unknown geometry")
}

// ClassifyGeometry returns the geometry of the orbit from its eccentricity and the ratio
// between the norms of the node vector and of the angular momentum (i.e. sin(i)).
func ClassifyGeometry(e, nOverH float64) Geometry {
	circular := e < eccentricityε
	equatorial := nOverH < equatorialε
	switch {
	case circular && equatorial:
		return CircularEquatorialGeometry
	case circular:
		return CircularGeometry
	case equatorial:
		return EquatorialGeometry
	default:
		return GeneralGeometry
	}
}

// Geometry returns the geometry of the orbit of this state about the provided mass.
func (s StateVectors) Geometry(mass float64) Geometry {
	hVec := s.H()
	e := norm(eccentricityVector(s, GM(mass)))
	return ClassifyGeometry(e, math.Hypot(hVec[0], hVec[1])/norm(hVec))
}

func eccentricityVector(s StateVectors, μ float64) [3]float64 {
	R, V := s.Position, s.Velocity
	r := norm(R)
	v := norm(V)
	rDotV := dot(R, V)
	var eVec [3]float64
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-μ/r)*R[i] - rDotV*V[i]) / μ
	}
	return eVec
}

// ElementsFromState returns the Keplerian elements from the state vectors (Vallado's RV2COE).
// The returned elements use the provided epoch as reference, so their mean anomaly is that of the state.
func ElementsFromState(s StateVectors, mass, epoch float64) KeplerianElements {
	μ := GM(mass)
	R, V := s.Position, s.Velocity
	r := norm(R)
	hVec := cross(R, V)
	h := norm(hVec)
	// Node line, towards the ascending node.
	nVec := cross([3]float64{0, 0, 1}, hVec)
	n := norm(nVec)
	rDotV := dot(R, V)
	eVec := eccentricityVector(s, μ)
	e := norm(eVec)
	i := clampedAcos(hVec[2] / h)
	// Retrograde equatorial orbits are seen from below, which flips the angle direction in the XY plane.
	hSign := sign(hVec[2])

	var Ω, ω, ν float64
	geometry := ClassifyGeometry(e, n/h)
	switch geometry {
	case GeneralGeometry:
		Ω = raan(nVec, n)
		ω = clampedAcos(dot(nVec, eVec) / (n * e))
		if eVec[2] < 0 {
			ω = twoPi - ω
		}
		ν = trueAnomaly(R, r, eVec, e, rDotV)
	case EquatorialGeometry:
		ω = clampedAcos(eVec[0] / e)
		if eVec[1]*hSign < 0 {
			ω = twoPi - ω
		}
		ν = trueAnomaly(R, r, eVec, e, rDotV)
	case CircularGeometry:
		Ω = raan(nVec, n)
		ν = clampedAcos(dot(nVec, R) / (n * r))
		if R[2] < 0 {
			ν = twoPi - ν
		}
	case CircularEquatorialGeometry:
		ν = clampedAcos(R[0] / r)
		if R[1]*hSign < 0 {
			ν = twoPi - ν
		}
	}

	p := h * h / μ
	var a float64
	if e >= 1 {
		a = p / (e*e - 1)
	} else {
		a = p / (1 - e*e)
	}
	return KeplerianElements{
		Eccentricity:       e,
		SemiMajorAxis:      a,
		Inclination:        i,
		RAAN:               wrap2π(Ω),
		ArgPeriapsis:       wrap2π(ω),
		MeanAnomalyAtEpoch: modelFor(e).meanAnomaly(ν),
		Epoch:              epoch,
	}
}

// raan returns Ω from the node vector.
func raan(nVec [3]float64, n float64) float64 {
	Ω := clampedAcos(nVec[0] / n)
	if nVec[1] < 0 {
		Ω = twoPi - Ω
	}
	return Ω
}

// trueAnomaly returns ν from the eccentricity vector. Moving towards the periapsis means ν > π.
func trueAnomaly(R [3]float64, r float64, eVec [3]float64, e, rDotV float64) float64 {
	ν := clampedAcos(dot(eVec, R) / (e * r))
	if rDotV < 0 {
		ν = twoPi - ν
	}
	return ν
}
