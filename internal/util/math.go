package util

import (
	"math"
)

// NearlyZero reports whether |v| is below VariationEpsilon
func NearlyZero(v float64) bool {
	return math.Abs(v) < VariationEpsilon
}

// PercentChange is delta relative to base, or 0 when base is 0
func PercentChange(delta, base float64) float64 {
	if base == 0 {
		return 0
	}
	return delta / base * 100
}
