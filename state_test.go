package kepler

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestRV2COE(t *testing.T) {
	// From Vallado, example 2-5.
	R := [3]float64{6524.834, 6862.875, 6448.296}
	V := [3]float64{4.901327, 5.533756, -1.976341}
	sv := NewStateVectors(R, V)
	if g := sv.Geometry(earthKm); g != GeneralGeometry {
		t.Fatalf("geometry=%s", g)
	}
	o := sv.Elements(earthKm, 0)
	if !floats.EqualWithinRel(o.SemiMajorAxis, 36127.343, 1e-5) {
		t.Fatalf("a=%f", o.SemiMajorAxis)
	}
	if !floats.EqualWithinAbs(o.Eccentricity, 0.832853, 1e-5) {
		t.Fatalf("e=%f", o.Eccentricity)
	}
	if !floats.EqualWithinRel(o.SemiParameter(), 11067.790, 1e-5) {
		t.Fatalf("p=%f", o.SemiParameter())
	}
	for _, tc := range []struct {
		name     string
		got, exp float64
	}{
		{"i", o.Inclination, Deg2rad(87.869126)},
		{"Ω", o.RAAN, Deg2rad(227.898260)},
		{"ω", o.ArgPeriapsis, Deg2rad(53.384931)},
	} {
		if ok, err := anglesEqual(tc.got, tc.exp); !ok {
			t.Fatalf("%s: %s", tc.name, err)
		}
	}
	ν, err := o.TrueAnomalyAtEpoch(earthKm, 0, 1e-12)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := anglesEqual(ν, Deg2rad(92.335157)); !ok {
		t.Fatalf("ν: %s", err)
	}
}

func TestGeometries(t *testing.T) {
	mass := 5.97217e24
	r := 7e6
	vc := math.Sqrt(GM(mass) / r)
	i := Deg2rad(30)
	for _, tc := range []struct {
		name     string
		sv       StateVectors
		geometry Geometry
		i, Ω, ω  float64
		ν        float64
	}{
		{"prograde equatorial", NewStateVectors([3]float64{r, 0, 0}, [3]float64{0, 8000, 0}), EquatorialGeometry, 0, 0, 0, 0},
		{"retrograde equatorial", NewStateVectors([3]float64{r, 0, 0}, [3]float64{0, -8000, 0}), EquatorialGeometry, math.Pi, 0, 0, 0},
		{"equatorial at apoapsis", NewStateVectors([3]float64{0, r, 0}, [3]float64{7000, 0, 0}), EquatorialGeometry, math.Pi, 0, math.Pi / 2, math.Pi},
		{"circular inclined", NewStateVectors([3]float64{r, 0, 0}, [3]float64{0, vc * math.Cos(i), vc * math.Sin(i)}), CircularGeometry, i, 0, 0, 0},
		{"circular inclined past the node", NewStateVectors([3]float64{0, r * math.Cos(i), r * math.Sin(i)}, [3]float64{-vc, 0, 0}), CircularGeometry, i, 0, 0, math.Pi / 2},
		{"circular equatorial", NewStateVectors([3]float64{0, r, 0}, [3]float64{-vc, 0, 0}), CircularEquatorialGeometry, 0, 0, 0, math.Pi / 2},
		{"retrograde circular equatorial", NewStateVectors([3]float64{0, r, 0}, [3]float64{vc, 0, 0}), CircularEquatorialGeometry, math.Pi, 0, 0, 3 * math.Pi / 2},
	} {
		if g := tc.sv.Geometry(mass); g != tc.geometry {
			t.Fatalf("%s: geometry %s != %s", tc.name, g, tc.geometry)
		}
		o := tc.sv.Elements(mass, 0)
		for _, angle := range []struct {
			name     string
			got, exp float64
		}{{"i", o.Inclination, tc.i}, {"Ω", o.RAAN, tc.Ω}, {"ω", o.ArgPeriapsis, tc.ω}} {
			if ok, err := anglesEqual(angle.got, angle.exp); !ok {
				t.Fatalf("%s: %s %s", tc.name, angle.name, err)
			}
		}
		ν, err := o.TrueAnomalyAtEpoch(mass, 0, 1e-12)
		if err != nil {
			t.Fatal(err)
		}
		if ok, err := anglesEqual(ν, tc.ν); !ok {
			t.Fatalf("%s: ν %s", tc.name, err)
		}
		// Whatever the defaults, the state must be recovered.
		sv, err := o.StateAtEpoch(mass, 0, 1e-12)
		if err != nil {
			t.Fatal(err)
		}
		if !vectorsWithin(sv.Position, tc.sv.Position, 1e-3) || !vectorsWithin(sv.Velocity, tc.sv.Velocity, 1e-6) {
			t.Fatalf("%s: %s != %s", tc.name, sv, tc.sv)
		}
	}
}

func TestClassifyGeometry(t *testing.T) {
	if ClassifyGeometry(0.1, 0.5) != GeneralGeometry {
		t.Fatal("expected general")
	}
	if ClassifyGeometry(0.1, 0) != EquatorialGeometry {
		t.Fatal("expected equatorial")
	}
	if ClassifyGeometry(1e-15, 0.5) != CircularGeometry {
		t.Fatal("expected circular")
	}
	if ClassifyGeometry(0, 1e-15) != CircularEquatorialGeometry {
		t.Fatal("expected circular equatorial")
	}
	for _, g := range []Geometry{GeneralGeometry, EquatorialGeometry, CircularGeometry, CircularEquatorialGeometry} {
		if g.String() == "" {
			t.Fatalf("empty string for %d", g)
		}
	}
	assertPanic(t, func() {
		_ = Geometry(0).String()
	})
}

func TestHyperbolicElements(t *testing.T) {
	mass := 5.97217e24
	r := 7e6
	vEsc := math.Sqrt(2 * GM(mass) / r)
	sv := NewStateVectors([3]float64{r, 0, 0}, [3]float64{0, 0, 1.2 * vEsc})
	o := sv.Elements(mass, 0)
	if !o.IsHyperbolic() {
		t.Fatalf("e=%f", o.Eccentricity)
	}
	if o.SemiMajorAxis <= 0 {
		t.Fatal("the semi major axis of a hyperbola is stored as a positive magnitude")
	}
	// At periapsis: r = a(e-1).
	if !floats.EqualWithinRel(o.SemiMajorAxis*(o.Eccentricity-1), r, 1e-10) {
		t.Fatalf("a(e-1)=%f != %f", o.SemiMajorAxis*(o.Eccentricity-1), r)
	}
	// ξ = μ/2a for hyperbolas.
	if !floats.EqualWithinRel(sv.Energyξ(mass), GM(mass)/(2*o.SemiMajorAxis), 1e-10) {
		t.Fatal("energy does not match the semi major axis")
	}
	if ok, err := anglesEqual(o.Inclination, math.Pi/2); !ok {
		t.Fatalf("i: %s", err)
	}
}

func TestSmallMassFixture(t *testing.T) {
	mass := 19890000.0
	sv := NewStateVectors([3]float64{-661208300, 348866180, 13342606}, [3]float64{-6.13e-7, -1.182874e-6, 1.9689882e-8})
	o := sv.Elements(mass, 0)
	if o.IsHyperbolic() {
		t.Fatalf("expected a closed orbit: %s", o)
	}
	sv1, err := o.StateAtEpoch(mass, 0, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	if !vectorsWithin(sv.Position, sv1.Position, 1) {
		t.Fatalf("round trip off by %f m", norm(sub(sv.Position, sv1.Position)))
	}
	if !vectorsWithin(sv.Velocity, sv1.Velocity, 1e-12) {
		t.Fatalf("round trip off by %g m/s", norm(sub(sv.Velocity, sv1.Velocity)))
	}
}

func TestStateVectorsHelpers(t *testing.T) {
	a := NewStateVectors([3]float64{1, 2, 2}, [3]float64{0, 3, 4})
	b := NewStateVectors([3]float64{1, 1, 1}, [3]float64{1, 1, 1})
	if a.RNorm() != 3 || a.VNorm() != 5 {
		t.Fatal("norms invalid")
	}
	if a.Add(b).Sub(b) != a {
		t.Fatal("add and sub are not inverse")
	}
	if a.AbsDiff(a) != 0 {
		t.Fatal("a state differs from itself")
	}
	if !floats.EqualWithinAbs(a.AbsDiff(b), norm([3]float64{0, 1, 1})+norm([3]float64{-1, 2, 3}), 1e-15) {
		t.Fatal("AbsDiff invalid")
	}
	if a.H() != cross(a.Position, a.Velocity) {
		t.Fatal("H invalid")
	}
	if !a.IsFinite() || NewStateVectors([3]float64{math.NaN(), 0, 0}, b.Velocity).IsFinite() {
		t.Fatal("IsFinite invalid")
	}
	if a.String() != "R=[1 2 2] V=[0 3 4]" {
		t.Fatalf("unexpected string %s", a)
	}
}
