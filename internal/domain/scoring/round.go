// Package scoring holds the pure arithmetic behind worker profiles:
// score aggregation, status classification, trends and analytics.
package scoring

import (
	"math"
	"strconv"
)

// noiseDigits is the precision at which binary floating-point noise is
// discarded before rounding (3.005 is stored as 3.00499999...).
const noiseDigits = 6

// Round2 rounds x to two decimal places, half away from zero.
// 3.005 rounds to 3.01 and -0.005 to -0.01. NaN and Inf pass through.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	scaled := x * 100
	if cleaned, err := strconv.ParseFloat(strconv.FormatFloat(scaled, 'f', noiseDigits, 64), 64); err == nil {
		scaled = cleaned
	}
	r := math.Round(scaled) / 100
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}
