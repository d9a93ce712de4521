package collector

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ComputeChange derives the absolute and percentage move between the last two
// finite observations. Fewer than two yields zeros, as does a zero previous value
// for the percentage.
func ComputeChange(closes []float64) (change, changePercent float64) {
	valid := make([]float64, 0, len(closes))
	for _, c := range closes {
		if finite(c) {
			valid = append(valid, c)
		}
	}
	if len(valid) < 2 {
		return 0, 0
	}

	current := decimal.NewFromFloat(valid[len(valid)-1])
	previous := decimal.NewFromFloat(valid[len(valid)-2])
	diff := current.Sub(previous)

	change = diff.InexactFloat64()
	if previous.IsZero() {
		return change, 0
	}
	return change, diff.Div(previous).Mul(hundred).InexactFloat64()
}
