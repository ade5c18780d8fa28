// Package geometry is a minimal volume database: one rectangular crystal
// placed inside a world volume.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/field"
	"github.com/wildstyl3r/cmpdrift/internal/process"
)

// OnSurface is how far from a face a point may be and still get its normal.
const OnSurface = 1e-9 // [m]

// Box is an axis aligned crystal of half extents Half centred at Center.
type Box struct {
	Crystal     string
	World       string
	LatticeName string
	Center      r3.Vec
	Half        r3.Vec
	Sampler     field.Sampler // nil for no field
}

func (b *Box) Lattice(volume string) (string, bool) {
	if volume != b.Crystal || b.LatticeName == "" {
		return "", false
	}
	return b.LatticeName, true
}

func (b *Box) Field(volume string) (field.Sampler, bool) {
	if volume != b.Crystal || b.Sampler == nil {
		return nil, false
	}
	return b.Sampler, true
}

func (b *Box) ToLocal(volume string, pos r3.Vec) r3.Vec {
	if volume != b.Crystal {
		return pos
	}
	return r3.Sub(pos, b.Center)
}

// Volume returns the name of the volume containing pos; points on a face
// belong to the crystal.
func (b *Box) Volume(pos r3.Vec) string {
	l := r3.Sub(pos, b.Center)
	if math.Abs(l.X) <= b.Half.X && math.Abs(l.Y) <= b.Half.Y && math.Abs(l.Z) <= b.Half.Z {
		return b.Crystal
	}
	return b.World
}

// ExitNormal returns the outward normal of the crystal face nearest to pos.
// Points farther than OnSurface from every face have no normal.
func (b *Box) ExitNormal(pos r3.Vec) (r3.Vec, bool) {
	l := r3.Sub(pos, b.Center)
	gaps := [3]float64{
		math.Abs(math.Abs(l.X) - b.Half.X),
		math.Abs(math.Abs(l.Y) - b.Half.Y),
		math.Abs(math.Abs(l.Z) - b.Half.Z),
	}
	best := 0
	for i := 1; i < 3; i++ {
		if gaps[i] < gaps[best] {
			best = i
		}
	}
	if gaps[best] > OnSurface {
		return r3.Vec{}, false
	}
	switch best {
	case 0:
		return r3.Vec{X: math.Copysign(1, l.X)}, true
	case 1:
		return r3.Vec{Y: math.Copysign(1, l.Y)}, true
	}
	return r3.Vec{Z: math.Copysign(1, l.Z)}, true
}

// DistanceToExit is the path length from pos, inside the crystal, along the
// unit direction dir to the first face.
func (b *Box) DistanceToExit(pos, dir r3.Vec) float64 {
	l := r3.Sub(pos, b.Center)
	dist := math.Inf(1)
	for _, axis := range [3][3]float64{
		{l.X, dir.X, b.Half.X},
		{l.Y, dir.Y, b.Half.Y},
		{l.Z, dir.Z, b.Half.Z},
	} {
		p, d, h := axis[0], axis[1], axis[2]
		if d == 0 {
			continue
		}
		t := (math.Copysign(h, d) - p) / d
		dist = min(dist, max(t, 0))
	}
	return dist
}

var _ process.Geometry = (*Box)(nil)
