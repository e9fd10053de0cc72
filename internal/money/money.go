// Package money provides the rounding rule applied at every monetary
// computation boundary. Amounts are plain float64; rounding to 2 decimals
// after each aggregation step keeps float drift out of the totals.
package money

import "math"

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
