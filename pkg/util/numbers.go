package util

import (
	"math"

	"github.com/shopspring/decimal"
)

// CleanFloat maps NaN and ±Inf to 0 so the value is always JSON encodable.
func CleanFloat(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Round rounds x half away from zero to the given number of decimal places, working on
// the shortest decimal representation of x so 1.005 rounds to 1.01. Non-finite input yields 0.
func Round(x float64, places int) float64 {
	x = CleanFloat(x)
	if places < 0 {
		places = 0
	}
	return decimal.NewFromFloat(x).Round(int32(places)).InexactFloat64()
}
