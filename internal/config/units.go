package config

import (
	"fmt"

	"github.com/wildstyl3r/cmpdrift/internal/utils"
)

// internally lengths are metres, potentials volts, energies eV
var unitToSI = map[string]float64{
	"um":  1e-6,
	"mm":  1e-3,
	"cm":  1e-2,
	"m":   1,
	"mV":  1e-3,
	"V":   1,
	"kV":  1e3,
	"meV": 1e-3,
	"eV":  1,
	"keV": 1e3,
}

type UnitClass int

const (
	Length UnitClass = iota
	Potential
	Energy
)

var unitsInClass = map[UnitClass][]string{
	Length:    {"um", "mm", "cm", "m"},
	Potential: {"mV", "V", "kV"},
	Energy:    {"meV", "eV", "keV"},
}

var classesOfUnits = map[string]UnitClass{
	"um":  Length,
	"mm":  Length,
	"cm":  Length,
	"m":   Length,
	"mV":  Potential,
	"V":   Potential,
	"kV":  Potential,
	"meV": Energy,
	"eV":  Energy,
	"keV": Energy,
}

type UnitElement = struct {
	Class UnitClass
	Power int
}

var defaultUnits = []string{"mm", "V", "eV"}

// checkUnits completes the list with a default for every class it misses.
// Unknown units and a second unit of one class are reported as conflicts.
func checkUnits(units []string) (extended, conflicts []string) {
	classes := map[UnitClass]struct{}{}
	for _, unit := range units {
		class, known := classesOfUnits[unit]
		if !known {
			conflicts = append(conflicts, unit)
			continue
		}
		if _, some := classes[class]; some {
			conflicts = append(conflicts, unit)
		} else {
			classes[class] = struct{}{}
		}
	}
	extended = append([]string(nil), units...)
	for _, unit := range defaultUnits {
		if _, some := classes[classesOfUnits[unit]]; !some {
			extended = append(extended, unit)
		}
	}
	return
}

// Scale is the SI value of one unit of the class chosen in units.
func Scale(class UnitClass, units []string) float64 {
	return SI(1, []UnitElement{{Class: class, Power: 1}}, units, true)
}

// SI converts v given in units to SI when direct is set, and back otherwise.
func SI(v float64, classes []UnitElement, units []string, direct bool) float64 {
	for i := range classes {
		uc := classes[i]
		unit := utils.Intersect(unitsInClass[uc.Class], units)
		if unit == nil {
			panic(fmt.Sprintf("no unit of class %d in %v", uc.Class, units))
		}
		absPower := utils.IntAbs(uc.Power)
		if direct == (uc.Power > 0) {
			for range absPower {
				v *= unitToSI[*unit]
			}
		} else {
			for range absPower {
				v /= unitToSI[*unit]
			}
		}
	}
	return v
}
