package kepler

import (
	"errors"
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// bisectionε is the width, in seconds, under which a crossing epoch is considered found.
	bisectionε = 1e-3
	// maxBisections bounds the refinement of a crossing epoch.
	maxBisections = 200
)

// Transition is how a trajectory segment ends.
type Transition uint8

const (
	// NoTransition means that the segment ended with the run.
	NoTransition Transition = iota
	// ExitTransition means that the vehicle left the SOI of the segment body for its parent.
	ExitTransition
	// EntryTransition means that the vehicle entered the SOI of a child of the segment body.
	EntryTransition
)

func (t Transition) String() string {
	switch t {
	case NoTransition:
		return "none"
	case ExitTransition:
		return "exit"
	case EntryTransition:
		return "entry"
	}
	panic("cannot stringify unknown transition")
}

// Sample is a state of the vehicle relative to a body at an epoch.
type Sample struct {
	Epoch float64
	Body  string
	State StateVectors
}

// Segment is the part of a trajectory spent in the SOI of one body, on a single conic.
type Segment struct {
	Body        string
	Entry, Exit float64 // epochs
	EntryState  StateVectors
	Samples     []Sample
	Transition  Transition // how the segment ended
}

// Duration returns the time spent in this segment.
func (s Segment) Duration() float64 {
	return s.Exit - s.Entry
}

// Trajectory is a sequence of patched conics.
type Trajectory struct {
	Segments []Segment
}

// Samples returns all the samples of all the segments, in order.
func (t Trajectory) Samples() []Sample {
	var samples []Sample
	for _, seg := range t.Segments {
		samples = append(samples, seg.Samples...)
	}
	return samples
}

// Final returns the last sample of the trajectory.
func (t Trajectory) Final() (Sample, bool) {
	if len(t.Segments) == 0 {
		return Sample{}, false
	}
	last := t.Segments[len(t.Segments)-1]
	if len(last.Samples) == 0 {
		return Sample{}, false
	}
	return last.Samples[len(last.Samples)-1], true
}

// Stream sends all the samples on the provided channel, and closes it.
func (t Trajectory) Stream(samples chan<- Sample) {
	for _, sample := range t.Samples() {
		samples <- sample
	}
	close(samples)
}

// Stitcher propagates a vehicle through a System with patched conics: the vehicle is always in
// the SOI of exactly one body, and follows a two-body orbit about it until it leaves that SOI or
// enters the SOI of one of its children.
type Stitcher struct {
	System    *System
	Step      float64 // sampling step, in seconds
	MaxSteps  int
	Tolerance float64
	logger    kitlog.Logger
}

// NewStitcher returns a new stitcher. A nil logger disables logging.
func NewStitcher(system *System, step float64, maxSteps int, tolerance float64, logger kitlog.Logger) *Stitcher {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Stitcher{system, step, maxSteps, tolerance, kitlog.With(logger, "subsys", "stitcher")}
}

// Run propagates the vehicle, which is at the provided state relative to the body at the provided
// epoch, for at most MaxSteps steps. Every sample of a segment is propagated from the state at
// the entry in that segment, so that no error accumulates within a conic.
func (s *Stitcher) Run(body string, state StateVectors, epoch float64) (Trajectory, error) {
	var traj Trajectory
	if !(s.Step > 0) {
		return traj, errors.New("step must be positive")
	}
	if s.MaxSteps <= 0 {
		return traj, errors.New("max steps must be positive")
	}
	obj, err := s.System.Object(body)
	if err != nil {
		return traj, err
	}
	if !state.IsFinite() {
		return traj, &PropagationError{state, 0, ErrNonFinite}
	}
	if tr, _, err := s.transition(obj, state, epoch); err != nil {
		return traj, err
	} else if tr != NoTransition {
		return traj, fmt.Errorf("initial state is not within the SOI of %s only", obj.Name)
	}
	seg := newSegment(obj.Name, epoch, state)
	s.logger.Log("level", "info", "body", obj.Name, "epoch", epoch, "state", state, "status", "start")

	t := epoch
	for step := 0; step < s.MaxSteps; step++ {
		tNext := t + s.Step
		next, err := s.stateAt(seg, tNext)
		if err != nil {
			traj.Segments = append(traj.Segments, seg.close(t, NoTransition))
			return traj, err
		}
		tr, child, err := s.transition(obj, next, tNext)
		if err != nil {
			traj.Segments = append(traj.Segments, seg.close(t, NoTransition))
			return traj, err
		}
		if tr == NoTransition {
			seg.Samples = append(seg.Samples, Sample{tNext, seg.Body, next})
			t = tNext
			continue
		}
		// Find when the crossing happens.
		tc, crossing, tr, child, err := s.refine(obj, seg, t, tNext, tr, child)
		if err != nil {
			traj.Segments = append(traj.Segments, seg.close(t, NoTransition))
			return traj, err
		}
		seg.Samples = append(seg.Samples, Sample{tc, seg.Body, crossing})
		traj.Segments = append(traj.Segments, seg.close(tc, tr))

		// Change the origin.
		var newObj CelestialObject
		var rebased StateVectors
		switch tr {
		case ExitTransition:
			newObj, _ = s.System.Object(obj.Parent)
			offset, err := s.System.StateOf(obj.Name, tc, s.Tolerance)
			if err != nil {
				return traj, err
			}
			rebased = crossing.Add(offset)
		case EntryTransition:
			newObj = child
			offset, err := s.System.StateOf(child.Name, tc, s.Tolerance)
			if err != nil {
				return traj, err
			}
			rebased = crossing.Sub(offset)
		}
		s.logger.Log("level", "notice", "transition", tr, "from", obj.Name, "to", newObj.Name, "epoch", tc, "state", rebased)
		obj = newObj
		seg = newSegment(obj.Name, tc, rebased)
		t = tc
	}
	traj.Segments = append(traj.Segments, seg.close(t, NoTransition))
	s.logger.Log("level", "info", "body", obj.Name, "epoch", t, "segments", len(traj.Segments), "status", "done")
	return traj, nil
}

// stateAt returns the state at epoch t on the conic of the segment.
func (s *Stitcher) stateAt(seg Segment, t float64) (StateVectors, error) {
	obj, err := s.System.Object(seg.Body)
	if err != nil {
		return StateVectors{}, err
	}
	return Propagate(seg.EntryState, t-seg.Entry, obj.Mass, s.Tolerance)
}

// transition returns whether the state, relative to obj, is outside the SOI of obj or inside that
// of one of its children. Leaving has priority over entering.
func (s *Stitcher) transition(obj CelestialObject, state StateVectors, t float64) (Transition, CelestialObject, error) {
	soi, err := s.System.SOI(obj.Name)
	if err != nil {
		return NoTransition, CelestialObject{}, err
	}
	if state.RNorm() > soi {
		return ExitTransition, CelestialObject{}, nil
	}
	for _, child := range s.System.Children(obj.Name) {
		childSOI, err := s.System.SOI(child.Name)
		if err != nil {
			return NoTransition, CelestialObject{}, err
		}
		childState, err := s.System.StateOf(child.Name, t, s.Tolerance)
		if err != nil {
			return NoTransition, CelestialObject{}, err
		}
		if norm(sub(state.Position, childState.Position)) < childSOI {
			return EntryTransition, child, nil
		}
	}
	return NoTransition, CelestialObject{}, nil
}

// refine bisects [lo, hi], where the transition tr happens at hi but not at lo, and returns the
// first epoch found past the crossing (so that the rebased state is on the new side) along with
// the transition which happens there.
func (s *Stitcher) refine(obj CelestialObject, seg Segment, lo, hi float64, tr Transition, child CelestialObject) (float64, StateVectors, Transition, CelestialObject, error) {
	hiState, err := s.stateAt(seg, hi)
	if err != nil {
		return math.NaN(), StateVectors{}, NoTransition, child, err
	}
	for iter := 0; iter < maxBisections && hi-lo > bisectionε; iter++ {
		mid := lo + (hi-lo)/2
		midState, err := s.stateAt(seg, mid)
		if err != nil {
			return math.NaN(), StateVectors{}, NoTransition, child, err
		}
		midTr, midChild, err := s.transition(obj, midState, mid)
		if err != nil {
			return math.NaN(), StateVectors{}, NoTransition, child, err
		}
		if midTr == NoTransition {
			lo = mid
		} else {
			hi, hiState, tr, child = mid, midState, midTr, midChild
		}
	}
	return hi, hiState, tr, child, nil
}

func newSegment(body string, epoch float64, state StateVectors) Segment {
	return Segment{Body: body, Entry: epoch, EntryState: state, Samples: []Sample{{epoch, body, state}}}
}

func (s Segment) close(exit float64, tr Transition) Segment {
	s.Exit = exit
	s.Transition = tr
	return s
}
