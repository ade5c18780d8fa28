package process

import (
	"github.com/wildstyl3r/cmpdrift/internal/utils"
)

// Discrete keeps the number of mean free paths left before a discrete
// process fires. It belongs to one track at a time.
type Discrete struct {
	lengthLeft float64 // in mean free paths, <= 0 means draw again
}

// StartTracking forgets the state of the previous track.
func (d *Discrete) StartTracking() {
	d.lengthLeft = 0
}

// Reset forces a fresh draw at the next step.
func (d *Discrete) Reset() {
	d.lengthLeft = 0
}

// PhysicalInteractionLength converts the remaining mean free paths to a
// distance for the given mean free path, drawing a new count when the
// previous one was used up.
func (d *Discrete) PhysicalInteractionLength(mfp float64, rnd Rand) float64 {
	if d.lengthLeft <= 0 {
		d.lengthLeft = utils.R(rnd)
	}
	if mfp == Unlimited {
		return Unlimited
	}
	return d.lengthLeft * mfp
}

// Advance consumes the path travelled in a step that did not trigger the
// process.
func (d *Discrete) Advance(stepLength, mfp float64) {
	if mfp == Unlimited || mfp <= 0 {
		return
	}
	d.lengthLeft -= stepLength / mfp
	if d.lengthLeft < 0 {
		d.lengthLeft = 0
	}
}

// LengthLeft returns the remaining mean free paths.
func (d *Discrete) LengthLeft() float64 {
	return d.lengthLeft
}
