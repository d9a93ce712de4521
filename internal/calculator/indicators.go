package calculator

import "fmt"

// Indicators is the technical summary of one quote's series.
type Indicators struct {
	SMA        float64 `json:"sma"`
	EMA        float64 `json:"ema"`
	Volatility float64 `json:"volatility"`
	RSI        float64 `json:"rsi"`
}

// Compute derives all indicators over window. It needs at least window prices.
func Compute(prices []float64, window int) (Indicators, error) {
	if window <= 0 || len(prices) < window {
		return Indicators{}, fmt.Errorf("not enough data points, need at least %d", window)
	}

	var ind Indicators
	var err error
	if ind.SMA, err = CalculateSMA(prices, window); err != nil {
		return Indicators{}, err
	}
	if ind.EMA, err = CalculateEMA(prices, window); err != nil {
		return Indicators{}, err
	}
	if ind.Volatility, err = CalculateVolatility(prices, window); err != nil {
		return Indicators{}, err
	}
	if ind.RSI, err = CalculateRSI(prices, window); err != nil {
		return Indicators{}, err
	}
	return ind, nil
}
