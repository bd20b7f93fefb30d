package kepler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// CelestialObject defines a celestial object of a System.
// The orbit is about the parent, and is ignored for the root of the system (which has no parent).
type CelestialObject struct {
	Name   string
	Radius float64 // m
	Mass   float64 // kg
	Parent string
	Orbit  KeplerianElements
}

// GM returns μ.
func (c CelestialObject) GM() float64 {
	return GM(c.Mass)
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// System is a hierarchy of celestial objects, each orbiting its parent, with a single root.
type System struct {
	objects map[string]CelestialObject
	order   []string // declaration order, for deterministic children
	root    string
}

// NewSystem returns a system from its objects. Exactly one object must have no parent, and all
// parents must be part of the system. Names are case insensitive.
func NewSystem(objects ...CelestialObject) (*System, error) {
	s := &System{objects: make(map[string]CelestialObject, len(objects))}
	for _, obj := range objects {
		key := strings.ToLower(obj.Name)
		if key == "" {
			return nil, errors.New("celestial object without a name")
		}
		if _, dup := s.objects[key]; dup {
			return nil, fmt.Errorf("duplicate celestial object %s", obj.Name)
		}
		if !(obj.Mass > 0) {
			return nil, fmt.Errorf("%s: mass must be positive", obj.Name)
		}
		if obj.Parent == "" {
			if s.root != "" {
				return nil, fmt.Errorf("both %s and %s have no parent", s.objects[s.root].Name, obj.Name)
			}
			s.root = key
		}
		s.objects[key] = obj
		s.order = append(s.order, key)
	}
	if s.root == "" {
		return nil, errors.New("system has no root")
	}
	for _, key := range s.order {
		obj := s.objects[key]
		if obj.Parent == "" {
			continue
		}
		if _, ok := s.objects[strings.ToLower(obj.Parent)]; !ok {
			return nil, fmt.Errorf("%s orbits %s: %w", obj.Name, obj.Parent, ErrUnknownBody)
		}
	}
	for _, key := range s.order {
		obj := s.objects[key]
		if obj.Parent == "" {
			continue
		}
		// Walking up must reach the root, otherwise there is a cycle.
		seen := map[string]bool{key: true}
		for p := strings.ToLower(obj.Parent); p != s.root; p = strings.ToLower(s.objects[p].Parent) {
			if seen[p] {
				return nil, fmt.Errorf("%s is part of a parent cycle", obj.Name)
			}
			seen[p] = true
		}
	}
	return s, nil
}

// Object returns the celestial object from its name.
func (s *System) Object(name string) (CelestialObject, error) {
	obj, ok := s.objects[strings.ToLower(name)]
	if !ok {
		return CelestialObject{}, fmt.Errorf("%s: %w", name, ErrUnknownBody)
	}
	return obj, nil
}

// Root returns the only object without a parent.
func (s *System) Root() CelestialObject {
	return s.objects[s.root]
}

// Names returns the names of all the objects, in declaration order.
func (s *System) Names() []string {
	names := make([]string, len(s.order))
	for i, key := range s.order {
		names[i] = s.objects[key].Name
	}
	return names
}

// Children returns the objects directly orbiting the provided one, in declaration order.
func (s *System) Children(name string) []CelestialObject {
	key := strings.ToLower(name)
	var children []CelestialObject
	for _, k := range s.order {
		if obj := s.objects[k]; obj.Parent != "" && strings.ToLower(obj.Parent) == key {
			children = append(children, obj)
		}
	}
	return children
}

// SOI returns the sphere of influence radius of the object with respect to its parent.
// The root has an infinite sphere of influence.
func (s *System) SOI(name string) (float64, error) {
	obj, err := s.Object(name)
	if err != nil {
		return math.NaN(), err
	}
	if obj.Parent == "" {
		return math.Inf(1), nil
	}
	parent := s.objects[strings.ToLower(obj.Parent)]
	return SOI(obj.Orbit.SemiMajorAxis, obj.Mass, parent.Mass), nil
}

// StateOf returns the state of the object relative to its parent at the provided epoch.
// The root is always at rest at the origin.
func (s *System) StateOf(name string, epoch, tolerance float64) (StateVectors, error) {
	obj, err := s.Object(name)
	if err != nil {
		return StateVectors{}, err
	}
	if obj.Parent == "" {
		return StateVectors{}, nil
	}
	parent := s.objects[strings.ToLower(obj.Parent)]
	state, err := obj.Orbit.StateAtEpoch(parent.Mass, epoch, tolerance)
	if err != nil {
		return StateVectors{}, fmt.Errorf("state of %s: %w", obj.Name, err)
	}
	return state, nil
}

// HelioState returns the state of the object relative to the root of the system (i.e. the Sun
// for the solar system).
func (s *System) HelioState(name string, epoch, tolerance float64) (StateVectors, error) {
	var state StateVectors
	for key := strings.ToLower(name); ; {
		obj, err := s.Object(key)
		if err != nil {
			return StateVectors{}, err
		}
		if obj.Parent == "" {
			return state, nil
		}
		rel, err := s.StateOf(key, epoch, tolerance)
		if err != nil {
			return StateVectors{}, err
		}
		state = state.Add(rel)
		key = strings.ToLower(obj.Parent)
	}
}

// Depth returns the number of ancestors of the object.
func (s *System) Depth(name string) int {
	depth := 0
	for obj, ok := s.objects[strings.ToLower(name)]; ok && obj.Parent != ""; obj, ok = s.objects[strings.ToLower(obj.Parent)] {
		depth++
	}
	return depth
}

// SortedBySOI returns the names of the non root objects, from the smallest to the largest SOI.
func (s *System) SortedBySOI() []string {
	var names []string
	for _, key := range s.order {
		if key != s.root {
			names = append(names, s.objects[key].Name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		si, _ := s.SOI(names[i])
		sj, _ := s.SOI(names[j])
		return si < sj
	})
	return names
}

/* Definitions, in SI and with respect to the ecliptic of J2000. */

// Sun is our closest star.
var Sun = CelestialObject{Name: "Sun", Radius: 6.957e8, Mass: 1.98847e30}

// Earth is home.
var Earth = CelestialObject{"Earth", 6.3781363e6, 5.97217e24, "Sun", KeplerianElements{
	Eccentricity:       0.01671123,
	SemiMajorAxis:      1.49598023e11,
	Inclination:        Deg2rad(0.00005),
	RAAN:               0,
	ArgPeriapsis:       Deg2rad(102.93768193),
	MeanAnomalyAtEpoch: Deg2rad(357.52688973),
}}

// Moon stays close by.
var Moon = CelestialObject{"Moon", 1.7374e6, 7.342e22, "Earth", KeplerianElements{
	Eccentricity:       0.0549,
	SemiMajorAxis:      3.844e8,
	Inclination:        Deg2rad(5.145),
	RAAN:               Deg2rad(125.08),
	ArgPeriapsis:       Deg2rad(318.15),
	MeanAnomalyAtEpoch: Deg2rad(135.27),
}}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3.39619e6, 6.41691e23, "Sun", KeplerianElements{
	Eccentricity:       0.09339410,
	SemiMajorAxis:      2.279392e11,
	Inclination:        Deg2rad(1.84969142),
	RAAN:               Deg2rad(49.55953891),
	ArgPeriapsis:       Deg2rad(286.49683150),
	MeanAnomalyAtEpoch: Deg2rad(19.39019754),
}}

// SolarSystem returns the Sun with the Earth, the Moon and Mars.
func SolarSystem() *System {
	sys, err := NewSystem(Sun, Earth, Moon, Mars)
	if err != nil {
		panic(fmt.Errorf("invalid solar system: %s", err))
	}
	return sys
}
