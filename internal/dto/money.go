package dto

import "math"

// Round2 rounds a money value to two decimal places, as all monetary fields
// in API responses are rendered.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
