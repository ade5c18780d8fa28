package utils

import (
	"math"
	"slices"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/constants"
)

type Number interface {
	constraints.Float | constraints.Integer
}

type Uniform interface {
	Float64() float64
}

func SumSlice[T Number](arr []T) (r T) {
	for i := range arr {
		r += arr[i]
	}
	return
}

func Average[T Number](s []T) (mean float64) {
	if len(s) == 0 {
		return 0
	}
	for i := range s {
		mean += float64(s[i])
	}
	mean /= float64(len(s))
	return
}

func MeanAndVariance[T Number](s []T, unbiased bool) (mean, variance float64) {
	mean = Average(s)
	if len(s) < 2 {
		return mean, 0
	}
	for i := range s {
		variance += (float64(s[i]) - mean) * (float64(s[i]) - mean)
	}
	if unbiased {
		variance /= float64(len(s) - 1)
	} else {
		variance /= float64(len(s))
	}

	return
}

func IntAbs(a int) int {
	if a < 0 {
		return -a
	} else {
		return a
	}

}

// R draws a number of mean free paths to the next interaction.
func R(u Uniform) float64 {
	return -math.Log(1. - u.Float64())
}

// IsotropicDirection returns a unit vector uniform on the sphere.
func IsotropicDirection(u Uniform) r3.Vec {
	cosTheta := 1. - 2.*u.Float64()
	phi := 2. * math.Pi * u.Float64()
	sinTheta := math.Sqrt(math.FMA(cosTheta, -cosTheta, 1.))
	return r3.Vec{X: sinTheta * math.Cos(phi), Y: sinTheta * math.Sin(phi), Z: cosTheta}
}

// UniformInBox returns a point uniform in the box [-half, half].
func UniformInBox(u Uniform, half r3.Vec) r3.Vec {
	return r3.Vec{
		X: (2.*u.Float64() - 1.) * half.X,
		Y: (2.*u.Float64() - 1.) * half.Y,
		Z: (2.*u.Float64() - 1.) * half.Z,
	}
}

func Intersect(a, b []string) *string {
	for i := range a {
		if slices.Contains(b, a[i]) {
			return &a[i]
		}
	}
	return nil
}

func EV2J(val float64) float64 {
	return val * constants.ElectronCharge
}

func EV2electronVelocity(energy float64) (v float64) {
	v = math.Sqrt(2 * energy * constants.ElectronCharge / constants.ElectronMass)
	return
}
