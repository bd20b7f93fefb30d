package kepler

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// PQW2Inertial returns the perifocal to inertial rotation, i.e. Rz(Ω)·Rx(i)·Rz(ω).
// R1 and R3 are frame rotations, hence the negated angles.
func PQW2Inertial(i, Ω, ω float64) *mat64.Dense {
	var tmp, rot mat64.Dense
	tmp.Mul(R3(-Ω), R1(-i))
	rot.Mul(&tmp, R3(-ω))
	return &rot
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat64.Matrix, v [3]float64) [3]float64 {
	vVec := mat64.NewVector(3, v[:])
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return [3]float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}

// ZUpToYUp swaps the Y and Z axes for consumers which render with Y up.
// The physics frame is always Z up.
func ZUpToYUp(v [3]float64) [3]float64 {
	return [3]float64{v[0], v[2], v[1]}
}

// YUpToZUp is the inverse of ZUpToYUp.
func YUpToZUp(v [3]float64) [3]float64 {
	return [3]float64{v[0], v[2], v[1]}
}
