package kepler

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	deg2rad = math.Pi / 180
	twoPi   = 2 * math.Pi
)

// norm returns the norm of a given 3x1 vector.
func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// unit returns the unit vector of a given vector, or the zero vector if its norm is null.
func unit(a [3]float64) (b [3]float64) {
	n := norm(a)
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return
	}
	for i, val := range a {
		b[i] = val / n
	}
	return
}

// sign returns the sign of a given number (zero is positive).
func sign(v float64) float64 {
	if floats.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// dot performs the inner product via mat64/BLAS.
func dot(a, b [3]float64) float64 {
	return mat64.Dot(mat64.NewVector(3, a[:]), mat64.NewVector(3, b[:]))
}

// cross performs the cross product.
func cross(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}

// scale returns s*a.
func scale(s float64, a [3]float64) [3]float64 {
	return [3]float64{s * a[0], s * a[1], s * a[2]}
}

// add returns a+b.
func add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// sub returns a-b.
func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// finite returns whether all components are neither NaN nor infinite.
func finite(a [3]float64) bool {
	for _, val := range a {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}
	return true
}

// clampedAcos returns the arc cosine of x after clamping x to [-1, 1].
// Dot product ratios drift marginally out of range with floating point errors,
// and math.Acos returns NaN for those.
func clampedAcos(x float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, x)))
}

// wrap2π returns the angle in [0, 2π).
func wrap2π(θ float64) float64 {
	θ = math.Mod(θ, twoPi)
	if θ < 0 {
		θ += twoPi
	}
	return θ
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	return wrap2π(a * deg2rad)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	return math.Mod(wrap2π(a)/deg2rad, 360)
}
