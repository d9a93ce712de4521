package calculator

import (
	"errors"
	"math"

	"MarketDigest/internal/model"
)

// CalculateRange scans the most recent lookback points and returns the high and low.
// Null highs and lows are skipped.
func CalculateRange(points []model.Point, lookback int) (high, low float64, err error) {
	if len(points) == 0 {
		return 0, 0, errors.New("no points provided")
	}
	start := len(points) - lookback
	if lookback <= 0 || start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range points[start:] {
		if h, err := p.High.Take(); err == nil && h > high {
			high = h
		}
		if l, err := p.Low.Take(); err == nil && l < low {
			low = l
		}
	}
	if math.IsInf(high, 0) || math.IsInf(low, 0) {
		return 0, 0, errors.New("no high/low values in range")
	}
	return high, low, nil
}

// CalculateRangePosition returns where the current price sits within the range (0.0~1.0).
func CalculateRangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// CalculateVolatility is the population standard deviation of the last period prices.
func CalculateVolatility(prices []float64, period int) (float64, error) {
	mean, err := CalculateSMA(prices, period)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, p := range prices[len(prices)-period:] {
		d := p - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(period)), nil
}
