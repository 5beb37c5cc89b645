package tracker

import "math"

// ShockResistance returns the market shock resistance indicator for a smoothed value.
//
// The function is odd and keeps the sign of mu for every mu other than ±1, where
// the denominator vanishes and the result is ±Inf.
func ShockResistance(mu float64) float64 {
	return 2 * mu / math.Abs(1-mu*mu)
}

// IsSingular reports whether mu sits exactly on the indicator's singularity.
func IsSingular(mu float64) bool {
	return mu == 1 || mu == -1
}

// IsFinite reports whether v is neither infinite nor NaN.
func IsFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
