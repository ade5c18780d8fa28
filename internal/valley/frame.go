// Package valley holds the four conduction-band valley orientations and the
// rotations between a valley frame and the lab frame.
package valley

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/constants"
)

// Euler angles (phi, theta, psi) of each valley, index 0 is valley 1.
var eulerAngles = [constants.NumValleys][3]float64{
	{-math.Pi / 4, -math.Pi / 4, math.Pi / 4},
	{math.Pi / 4, -math.Pi / 4, -math.Pi / 4},
	{-math.Pi / 4, math.Pi / 4, math.Pi / 4},
	{math.Pi / 4, math.Pi / 4, -math.Pi / 4},
}

// Transform maps vectors between the lab (normal) frame and a valley frame.
// ToNormal is the inverse of ToValley.
type Transform struct {
	rotation *r3.Mat
}

// For builds the transform of valley index in 1..4. Any other index is a
// caller bug and panics.
func For(index int) Transform {
	if index < 1 || index > constants.NumValleys {
		panic(fmt.Sprintf("valley index %d out of range", index))
	}
	a := eulerAngles[index-1]
	return Transform{rotation: euler(a[0], a[1], a[2])}
}

// ToValley expresses a lab-frame axis in the valley frame.
func (t Transform) ToValley(v r3.Vec) r3.Vec {
	return t.rotation.MulVecTrans(v)
}

// ToNormal expresses a valley-frame axis in the lab frame.
func (t Transform) ToNormal(v r3.Vec) r3.Vec {
	return t.rotation.MulVec(v)
}

// Draw maps a uniform u in [0,1) onto a valley index in 1..4.
func Draw(u float64) int {
	return int(math.Floor(u*constants.NumValleys)) + 1
}

// euler builds the rotation for Euler angles in the z-x-z convention.
func euler(phi, theta, psi float64) *r3.Mat {
	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)
	sinPsi, cosPsi := math.Sincos(psi)

	return r3.NewMat([]float64{
		cosPsi*cosPhi - cosTheta*sinPhi*sinPsi,
		cosPsi*sinPhi + cosTheta*cosPhi*sinPsi,
		sinPsi * sinTheta,

		-sinPsi*cosPhi - cosTheta*sinPhi*cosPsi,
		-sinPsi*sinPhi + cosTheta*cosPhi*cosPsi,
		cosPsi * sinTheta,

		sinTheta * sinPhi,
		-sinTheta * cosPhi,
		cosTheta,
	})
}
