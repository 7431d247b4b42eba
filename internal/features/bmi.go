// Package features turns a validated clinical observation into the ordered
// numeric vector the classifier was fitted on.
package features

import "math"

// DeriveBMI returns weight / (height in metres)², rounded to two decimals.
// A non-positive height yields 0 rather than dividing by zero.
func DeriveBMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	heightM := heightCm / 100
	return round2(weightKg / (heightM * heightM))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
