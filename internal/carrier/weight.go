package carrier

// ChooseWeight thins carrier production: with probability prob a carrier is
// kept with weight 1/prob, otherwise 0 is returned and the carrier must not
// be created. u is a uniform draw from [0,1).
func ChooseWeight(prob, u float64) float64 {
	if prob == 1. {
		return 1.
	}
	// prob == 0 never passes, so no division by zero
	if u < prob {
		return 1. / prob
	}
	return 0.
}
