package field

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/utils"
)

var ErrTableTooShort = errors.New("potential table needs at least two points")

type Axis int

const (
	X Axis = iota
	Y
	Z
)

func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return X, nil
	case "y", "Y":
		return Y, nil
	case "z", "Z", "":
		return Z, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

func (a Axis) of(v r3.Vec) float64 {
	switch a {
	case X:
		return v.X
	case Y:
		return v.Y
	}
	return v.Z
}

func (a Axis) unit() r3.Vec {
	switch a {
	case X:
		return r3.Vec{X: 1}
	case Y:
		return r3.Vec{Y: 1}
	}
	return r3.Vec{Z: 1}
}

// Tabulated is a potential varying along one axis, linearly interpolated
// between tabulated points. Outside the table there is no field.
type Tabulated struct {
	axis      Axis
	coord     []float64 // [m], ascending
	potential []float64 // [V]
	// Origin is subtracted from lab positions before lookup in FieldAt.
	Origin r3.Vec
}

func NewTabulated(axis Axis, coord, potential []float64) (*Tabulated, error) {
	if len(coord) != len(potential) {
		return nil, fmt.Errorf("potential table: %d coordinates but %d values", len(coord), len(potential))
	}
	if len(coord) < 2 {
		return nil, ErrTableTooShort
	}
	t := &Tabulated{
		axis:      axis,
		coord:     append([]float64(nil), coord...),
		potential: append([]float64(nil), potential...),
	}
	sort.Sort(t)
	for i := 1; i < len(t.coord); i++ {
		if t.coord[i] == t.coord[i-1] {
			return nil, fmt.Errorf("potential table: duplicate coordinate %g", t.coord[i])
		}
	}
	return t, nil
}

// LoadTabulated reads "coordinate potential" pairs; coordinates are scaled
// by lengthScale to metres and potentials by potentialScale to volts.
func LoadTabulated(filename string, axis Axis, lengthScale, potentialScale float64) (*Tabulated, error) {
	pairs, err := utils.ReadFloatPairs(filename)
	if err != nil {
		return nil, err
	}
	coord := make([]float64, len(pairs))
	potential := make([]float64, len(pairs))
	for i := range pairs {
		coord[i] = pairs[i][0] * lengthScale
		potential[i] = pairs[i][1] * potentialScale
	}
	return NewTabulated(axis, coord, potential)
}

func (t *Tabulated) Len() int           { return len(t.coord) }
func (t *Tabulated) Less(i, j int) bool { return t.coord[i] < t.coord[j] }
func (t *Tabulated) Swap(i, j int) {
	t.coord[i], t.coord[j] = t.coord[j], t.coord[i]
	t.potential[i], t.potential[j] = t.potential[j], t.potential[i]
}

// cell returns i such that coord[i] <= s <= coord[i+1].
func (t *Tabulated) cell(s float64) (int, bool) {
	if s < t.coord[0] || s > t.coord[len(t.coord)-1] {
		return 0, false
	}
	i := sort.SearchFloat64s(t.coord, s)
	if i > 0 {
		i--
	}
	if i >= len(t.coord)-1 {
		i = len(t.coord) - 2
	}
	return i, true
}

func (t *Tabulated) PotentialAt(local r3.Vec) (float64, bool) {
	s := t.axis.of(local)
	i, ok := t.cell(s)
	if !ok {
		return 0, false
	}
	frac := (s - t.coord[i]) / (t.coord[i+1] - t.coord[i])
	return t.potential[i] + frac*(t.potential[i+1]-t.potential[i]), true
}

// FieldAt returns -dV/ds of the cell containing the position.
func (t *Tabulated) FieldAt(pos r3.Vec) (r3.Vec, bool) {
	s := t.axis.of(r3.Sub(pos, t.Origin))
	i, ok := t.cell(s)
	if !ok {
		return r3.Vec{}, false
	}
	e := -(t.potential[i+1] - t.potential[i]) / (t.coord[i+1] - t.coord[i])
	return r3.Scale(e, t.axis.unit()), true
}

// Range returns the tabulated extent along the axis.
func (t *Tabulated) Range() (from, to float64) {
	return t.coord[0], t.coord[len(t.coord)-1]
}
