package tools

import (
	"math"
	"testing"

	"github.com/ChristopherRabotin/kepler"
	"github.com/gonum/floats"
)

func TestHohmann(t *testing.T) {
	// From Vallado 4th edition, example 6-1 (LEO to GEO).
	earth := 3.986004418e14 / kepler.G
	rI, rF := 6569.4637e3, 42159.48e3
	vDep, vArr, tof, err := Hohmann(rI, rF, earth)
	if err != nil {
		t.Fatal(err)
	}
	vI := math.Sqrt(kepler.GM(earth) / rI)
	vF := math.Sqrt(kepler.GM(earth) / rF)
	if Δv := vDep - vI; !floats.EqualWithinAbs(Δv, 2457.038, 1) {
		t.Fatalf("ΔvInit=%f", Δv)
	}
	if Δv := vF - vArr; !floats.EqualWithinAbs(Δv, 1478.187, 1) {
		t.Fatalf("ΔvFinal=%f", Δv)
	}
	if !floats.EqualWithinAbs(tof/3600, 5.256, 1e-3) {
		t.Fatalf("tof=%f h", tof/3600)
	}
	// Half an orbit on the transfer ellipse leads to the apoapsis.
	sv := kepler.NewStateVectors([3]float64{rI, 0, 0}, [3]float64{0, vDep, 0})
	arrival, err := kepler.Propagate(sv, tof, earth, 1e-9)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(arrival.RNorm(), rF, 1) || !floats.EqualWithinAbs(arrival.VNorm(), vArr, 1e-3) {
		t.Fatalf("arrived at %s", arrival)
	}
	if _, _, _, err := Hohmann(0, rF, earth); err == nil {
		t.Fatal("a null radius should fail")
	}
}

func TestTurnAngle(t *testing.T) {
	mars := 4.2828e13 / kepler.G
	vInf, rP := 3e3, 3796e3
	δ := TurnAngle(vInf, rP, mars)
	// The turn angle is also 2*asin(1/e) of the flyby hyperbola.
	vP := math.Sqrt(vInf*vInf + 2*kepler.GM(mars)/rP)
	sv := kepler.NewStateVectors([3]float64{rP, 0, 0}, [3]float64{0, vP, 0})
	o := sv.Elements(mars, 0)
	if !o.IsHyperbolic() {
		t.Fatal("the flyby should be hyperbolic")
	}
	if exp := 2 * math.Asin(1/o.Eccentricity); !floats.EqualWithinAbs(δ, exp, 1e-9) {
		t.Fatalf("δ=%f expected %f", kepler.Rad2deg(δ), kepler.Rad2deg(exp))
	}
	// A grazing flyby at a very high velocity barely bends the trajectory.
	if TurnAngle(1e6, rP, mars) > 1e-3 {
		t.Fatal("the turn angle should vanish")
	}
}
