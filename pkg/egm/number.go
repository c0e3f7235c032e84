package egm

import (
	"math"
	"strconv"
)

// Round rounds v to the given number of decimal places. Halves round to even,
// and negative zero collapses to zero so it never reaches the wire.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	r := math.RoundToEven(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

// FormatFloat rounds v to places decimals and renders the shortest text for
// the rounded value: no trailing zeros and no decimal point for integers.
func FormatFloat(v float64, places int) string {
	return strconv.FormatFloat(Round(v, places), 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
