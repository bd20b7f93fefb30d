package kepler

import (
	"math"
)

const (
	// ψε is the band around ψ = 0 where the Stumpff functions use their series expansion.
	ψε = 1e-6
	// αε is the band around α = 0 (1/a) where an orbit is considered parabolic for seeding.
	αε = 1e-12
)

// Stumpff returns the c2 and c3 Stumpff functions of ψ.
func Stumpff(ψ float64) (c2, c3 float64) {
	switch {
	case ψ > ψε:
		sψ := math.Sqrt(ψ)
		ssψ, csψ := math.Sincos(sψ)
		c2 = (1 - csψ) / ψ
		c3 = (sψ - ssψ) / (ψ * sψ)
	case ψ < -ψε:
		sψ := math.Sqrt(-ψ)
		c2 = (1 - math.Cosh(sψ)) / ψ
		c3 = (math.Sinh(sψ) - sψ) / (-ψ * sψ)
	default:
		// Series around zero, whose limits are 1/2 and 1/6.
		c2 = 1/2. - ψ/24. + ψ*ψ/720.
		c3 = 1/6. - ψ/120. + ψ*ψ/5040.
	}
	return
}

// Propagate returns the state Δt after s (Δt may be negative) about the provided mass, using the
// universal variable formulation (Vallado's KEPLER algorithm), valid for all orbit types.
// The tolerance applies to the universal anomaly χ, relative to |χ| once it exceeds 1.
// Any failure, including a non finite result, is returned as a *PropagationError.
func Propagate(s StateVectors, Δt, mass, tolerance float64) (StateVectors, error) {
	if Δt == 0 {
		return s, nil
	}
	if !s.IsFinite() {
		return StateVectors{}, &PropagationError{s, Δt, ErrNonFinite}
	}
	μ := GM(mass)
	sqrtμ := math.Sqrt(μ)
	R0, V0 := s.Position, s.Velocity
	r0 := norm(R0)
	v0 := norm(V0)
	rDotV := dot(R0, V0)
	α := 2/r0 - v0*v0/μ
	requested := Δt

	var χ float64
	switch {
	case α > αε/r0:
		// Elliptic: only the time modulo the period matters.
		period := twoPi * math.Sqrt(1/(α*α*α*μ))
		if math.Abs(Δt) > period {
			Δt = math.Mod(Δt, period)
		}
		χ = sqrtμ * Δt * α
	case α < -αε/r0:
		a := 1 / α
		χ = sign(Δt) * math.Sqrt(-a) * math.Log((-2*μ*α*Δt)/(rDotV+sign(Δt)*math.Sqrt(-μ*a)*(1-r0*α)))
	default:
		// Parabolic: Barker's equation.
		h := norm(cross(R0, V0))
		p := h * h / μ
		β := 0.5 * math.Atan(1/(3*math.Sqrt(μ/(p*p*p))*Δt))
		w := math.Atan(math.Cbrt(math.Tan(β)))
		χ = math.Sqrt(p) * 2 / math.Tan(2*w)
	}
	if math.IsNaN(χ) || math.IsInf(χ, 0) {
		// The hyperbolic seed fails when the logarithm argument is not positive.
		χ = sqrtμ * Δt / r0
	}
	χ0 := χ

	var ψ, c2, c3, r float64
	converged := false
	for iter := 0; iter < MaxUniversalIterations; iter++ {
		ψ = χ * χ * α
		c2, c3 = Stumpff(ψ)
		r = χ*χ*c2 + rDotV/sqrtμ*χ*(1-ψ*c3) + r0*(1-ψ*c2)
		χNext := χ + (sqrtμ*Δt-χ*χ*χ*c3-rDotV/sqrtμ*χ*χ*c2-r0*χ*(1-ψ*c3))/r
		if math.IsNaN(χNext) || math.IsInf(χNext, 0) {
			return StateVectors{}, &PropagationError{s, requested, &ConvergenceError{"universal anomaly", iter + 1, χ0, χNext}}
		}
		// Relative to |χ|: on long hyperbolic arcs, χ is too large for an absolute bound.
		done := math.Abs(χNext-χ) < tolerance*math.Max(1, math.Abs(χ))
		χ = χNext
		if done {
			converged = true
			break
		}
	}
	if !converged {
		return StateVectors{}, &PropagationError{s, requested, &ConvergenceError{"universal anomaly", MaxUniversalIterations, χ0, χ}}
	}
	// Evaluate the coefficients at the converged anomaly.
	ψ = χ * χ * α
	c2, c3 = Stumpff(ψ)
	r = χ*χ*c2 + rDotV/sqrtμ*χ*(1-ψ*c3) + r0*(1-ψ*c2)

	f := 1 - χ*χ/r0*c2
	g := Δt - χ*χ*χ/sqrtμ*c3
	gDot := 1 - χ*χ/r*c2
	fDot := sqrtμ / (r * r0) * χ * (ψ*c3 - 1)

	next := StateVectors{
		Position: add(scale(f, R0), scale(g, V0)),
		Velocity: add(scale(fDot, R0), scale(gDot, V0)),
	}
	if !next.IsFinite() {
		return StateVectors{}, &PropagationError{s, requested, ErrNonFinite}
	}
	return next, nil
}
