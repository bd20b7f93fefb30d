package kepler

import (
	"errors"
	"fmt"
)

var (
	// ErrConvergence is matched by every iteration which exceeded its cap or diverged.
	ErrConvergence = errors.New("kepler: failed to converge")
	// ErrPropagation is matched by every failed propagation.
	ErrPropagation = errors.New("kepler: propagation failed")
	// ErrNonFinite indicates that a computed state holds NaN or infinite components.
	ErrNonFinite = errors.New("kepler: non finite state")
	// ErrUnbound indicates a quantity which only exists on closed orbits (e.g. apoapsis).
	ErrUnbound = errors.New("kepler: undefined for hyperbolic orbits")
	// ErrUnknownBody is returned when a celestial object is not part of a system.
	ErrUnknownBody = errors.New("kepler: unknown body")
)

// ConvergenceError reports a Newton iteration which did not converge.
type ConvergenceError struct {
	Solver     string  // Which solver failed
	Iterations int     // Iterations performed
	X0, X      float64 // Initial guess and last iterate
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %s did not converge after %d iterations (x0=%g, x=%g)", ErrConvergence, e.Solver, e.Iterations, e.X0, e.X)
}

// Unwrap allows errors.Is(err, ErrConvergence).
func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

// PropagationError wraps the reason why a state could not be propagated.
type PropagationError struct {
	State StateVectors // Initial state
	Δt    float64
	Err   error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("%s by Δt=%g from %s: %s", ErrPropagation, e.Δt, e.State, e.Err)
}

// Is allows errors.Is(err, ErrPropagation).
func (e *PropagationError) Is(target error) bool {
	return target == ErrPropagation
}

// Unwrap returns the underlying reason.
func (e *PropagationError) Unwrap() error {
	return e.Err
}
