package calculator

import "errors"

// CalculateRSI computes a simplified RSI: plain averages of the gains and losses over
// the last period price changes, no Wilder smoothing. Needs at least two prices;
// fewer than period changes are averaged as they are.
func CalculateRSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < 2 {
		return 0, errors.New("not enough data for RSI calculation")
	}

	start := len(prices) - period
	if start < 1 {
		start = 1
	}
	var gains, losses float64
	n := 0
	for i := start; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
		n++
	}
	avgGain := gains / float64(n)
	avgLoss := losses / float64(n)

	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}
