package constants

const ElectronCharge = 1.602176634e-19        // C
const ElectronMass float64 = 9.1093837139e-31 // [kg]
const HBar float64 = 1.054571817e-34          // [J s]

// Edelweiss inter-valley rate, fitted for fields of a few V/m.
const IVReferenceField float64 = 217. // [V/m]
const IVRateScale float64 = 6.72e-6
const IVRateExponent float64 = 3.24

// the rate law takes the velocity in mm/ns and yields mm
const IVVelocityToLength float64 = 1e-9 // [m] per [m/s]

// heavy/light mass anisotropy of a valley, longitudinal axis is z
const ValleyMassRatioT float64 = 1.2172
const ValleyMassRatioL float64 = 0.27559

const NumValleys = 4

const SurfaceTolerance float64 = 1e-12 // [m]

// electrode test accepts only surfaces facing mostly along z
const ElectrodeNormalMin float64 = 0.5

const Quantile95 = 1.96
