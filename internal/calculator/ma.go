package calculator

import (
	"errors"

	"MarketDigest/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMA computes the bias-adjusted exponential moving average of the whole
// series with smoothing 2/(span+1). Older prices get geometrically smaller weights.
func CalculateEMA(prices []float64, span int) (float64, error) {
	if span <= 0 {
		return 0, errors.New("span must be positive")
	}
	if len(prices) == 0 {
		return 0, errors.New("not enough data for EMA calculation")
	}
	decay := 1 - 2/float64(span+1)
	weight, num, den := 1.0, 0.0, 0.0
	for i := len(prices) - 1; i >= 0; i-- {
		num += weight * prices[i]
		den += weight
		weight *= decay
	}
	return num / den, nil
}

// Closes extracts the non-null closes of a series, oldest first.
func Closes(points []model.Point) []float64 {
	closes := make([]float64, 0, len(points))
	for _, p := range points {
		if c, err := p.Close.Take(); err == nil {
			closes = append(closes, c)
		}
	}
	return closes
}
