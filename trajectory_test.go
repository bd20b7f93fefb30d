package kepler

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

// sunEarth is a simplified system where the Earth is on a circular orbit in the ecliptic.
func sunEarth(t *testing.T) *System {
	sys, err := NewSystem(
		CelestialObject{Name: "Sun", Mass: 1.989e30},
		CelestialObject{Name: "Earth", Mass: 5.972e24, Parent: "Sun", Orbit: KeplerianElements{SemiMajorAxis: 1.496e11}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return sys
}

func TestStitcherExit(t *testing.T) {
	sys := sunEarth(t)
	var buf bytes.Buffer
	st := NewStitcher(sys, 3600, 200, 1e-9, kitlog.NewLogfmtLogger(&buf))
	sv := NewStateVectors([3]float64{7e6, 0, 0}, [3]float64{0, 12000, 0})
	traj, err := st.Run("Earth", sv, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(traj.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(traj.Segments))
	}
	earthSeg, sunSeg := traj.Segments[0], traj.Segments[1]
	if earthSeg.Body != "Earth" || sunSeg.Body != "Sun" {
		t.Fatalf("segments: %s then %s", earthSeg.Body, sunSeg.Body)
	}
	if earthSeg.Transition != ExitTransition || sunSeg.Transition != NoTransition {
		t.Fatalf("transitions: %s then %s", earthSeg.Transition, sunSeg.Transition)
	}
	if earthSeg.Exit != sunSeg.Entry {
		t.Fatal("segments are not contiguous")
	}
	soi, _ := sys.SOI("Earth")
	crossing := earthSeg.Samples[len(earthSeg.Samples)-1]
	if crossing.Epoch != earthSeg.Exit || !floats.EqualWithinAbs(crossing.State.RNorm(), soi, 1e3) || crossing.State.RNorm() < soi {
		t.Fatalf("crossing at %f m, SOI at %f m", crossing.State.RNorm(), soi)
	}
	// The heliocentric state is continuous at the crossing.
	earth, err := sys.StateOf("Earth", earthSeg.Exit, 1e-9)
	if err != nil {
		t.Fatal(err)
	}
	if sunSeg.EntryState != crossing.State.Add(earth) {
		t.Fatal("state not rebased on the Sun")
	}
	// Every sample of the Earth segment is within its SOI but the crossing.
	for _, sample := range earthSeg.Samples[:len(earthSeg.Samples)-1] {
		if sample.State.RNorm() > soi {
			t.Fatalf("sample at %f outside of the SOI", sample.Epoch)
		}
	}
	final, ok := traj.Final()
	// The crossing consumes one step, which ends at the crossing epoch.
	if !ok || final.Epoch != sunSeg.Exit || final.Epoch <= 199*3600 || final.Epoch > 200*3600 {
		t.Fatalf("final sample at %f", final.Epoch)
	}
	if len(traj.Samples()) != len(earthSeg.Samples)+len(sunSeg.Samples) {
		t.Fatal("samples not flattened")
	}
	if !strings.Contains(buf.String(), "transition=exit") || !strings.Contains(buf.String(), "subsys=stitcher") {
		t.Fatalf("transition not logged:\n%s", buf.String())
	}
}

func TestStitcherEntry(t *testing.T) {
	sys := sunEarth(t)
	earth, err := sys.StateOf("Earth", 0, 1e-9)
	if err != nil {
		t.Fatal(err)
	}
	sv := earth.Add(NewStateVectors([3]float64{1.5e9, 0, 0}, [3]float64{-5000, 0, 0}))
	st := NewStitcher(sys, 3600, 40, 1e-9, nil)
	traj, err := st.Run("Sun", sv, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(traj.Segments) < 2 {
		t.Fatalf("expected at least 2 segments, got %d", len(traj.Segments))
	}
	if traj.Segments[0].Transition != EntryTransition || traj.Segments[1].Body != "Earth" {
		t.Fatalf("expected to enter the Earth SOI, got %s into %s", traj.Segments[0].Transition, traj.Segments[1].Body)
	}
	soi, _ := sys.SOI("Earth")
	entry := traj.Segments[1].EntryState
	if entry.RNorm() > soi || !floats.EqualWithinAbs(entry.RNorm(), soi, 1e3) {
		t.Fatalf("entered at %f m, SOI at %f m", entry.RNorm(), soi)
	}
	if d := traj.Segments[1].Entry; d < 25*3600 || d > 40*3600 {
		t.Fatalf("entered after %f h", d/3600)
	}
}

func TestStitcherStaysInRoot(t *testing.T) {
	sys := sunEarth(t)
	// Far from the Earth, on the other side of the Sun.
	sv := NewStateVectors([3]float64{-2e11, 0, 0}, [3]float64{0, -math.Sqrt(GM(1.989e30) / 2e11), 0})
	traj, err := NewStitcher(sys, 86400, 30, 1e-9, nil).Run("Sun", sv, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(traj.Segments) != 1 || len(traj.Segments[0].Samples) != 31 {
		t.Fatalf("expected one segment with 31 samples, got %d segments", len(traj.Segments))
	}
	if traj.Segments[0].Duration() != 30*86400 {
		t.Fatalf("duration=%f", traj.Segments[0].Duration())
	}
}

func TestStitcherErrors(t *testing.T) {
	sys := sunEarth(t)
	sv := NewStateVectors([3]float64{7e6, 0, 0}, [3]float64{0, 8000, 0})
	if _, err := NewStitcher(sys, 0, 10, 1e-9, nil).Run("Earth", sv, 0); err == nil {
		t.Fatal("a null step should be refused")
	}
	if _, err := NewStitcher(sys, 60, 0, 1e-9, nil).Run("Earth", sv, 0); err == nil {
		t.Fatal("no steps should be refused")
	}
	if _, err := NewStitcher(sys, 60, 10, 1e-9, nil).Run("Pluto", sv, 0); !errors.Is(err, ErrUnknownBody) {
		t.Fatal("expected an unknown body error")
	}
	nan := NewStateVectors([3]float64{math.NaN(), 0, 0}, [3]float64{0, 8000, 0})
	if _, err := NewStitcher(sys, 60, 10, 1e-9, nil).Run("Earth", nan, 0); !errors.Is(err, ErrNonFinite) {
		t.Fatal("expected a non finite error")
	}
	outside := NewStateVectors([3]float64{1e10, 0, 0}, [3]float64{0, 100, 0})
	if _, err := NewStitcher(sys, 60, 10, 1e-9, nil).Run("Earth", outside, 0); err == nil {
		t.Fatal("a state outside of the SOI should be refused")
	}
	// A propagation failure aborts the run with the segments so far.
	traj, err := NewStitcher(sys, 60, 10, 0, nil).Run("Earth", sv, 0)
	if !errors.Is(err, ErrPropagation) {
		t.Fatalf("expected a propagation error, got %v", err)
	}
	if len(traj.Segments) != 1 {
		t.Fatal("the partial segment should be returned")
	}
}

func TestTransitionString(t *testing.T) {
	if NoTransition.String() != "none" || ExitTransition.String() != "exit" || EntryTransition.String() != "entry" {
		t.Fatal("unexpected strings")
	}
	assertPanic(t, func() {
		_ = Transition(42).String()
	})
}
