package calculator

import (
	"math"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDigest/internal/model"
)

func TestCalculateSMA(t *testing.T) {
	sma, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, 4.0, sma)

	_, err = CalculateSMA([]float64{1}, 3)
	assert.Error(t, err)
	_, err = CalculateSMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestCalculateEMA(t *testing.T) {
	ema, err := CalculateEMA([]float64{10, 10, 10}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, ema, 1e-12)

	// span 3 -> alpha 0.5, weights 1, 0.5 on [1, 2]
	ema, err = CalculateEMA([]float64{1, 2}, 3)
	require.NoError(t, err)
	assert.InDelta(t, (2+0.5)/1.5, ema, 1e-12)

	_, err = CalculateEMA(nil, 3)
	assert.Error(t, err)
}

func TestCalculateVolatility(t *testing.T) {
	vol, err := CalculateVolatility([]float64{100, 2, 4, 4, 4, 5, 5, 7, 9}, 8)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, vol, 1e-12)
}

func TestCalculateRSI(t *testing.T) {
	rsi, err := CalculateRSI([]float64{1, 2, 3, 4}, 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)

	// gains 2, losses 1 over two changes -> rs 2
	rsi, err = CalculateRSI([]float64{10, 12, 11}, 5)
	require.NoError(t, err)
	assert.InDelta(t, 100-100.0/3, rsi, 1e-9)

	_, err = CalculateRSI([]float64{1}, 3)
	assert.Error(t, err)
}

func TestCompute(t *testing.T) {
	ind, err := Compute([]float64{100, 101, 102, 103, 104}, 5)
	require.NoError(t, err)
	assert.Equal(t, 102.0, ind.SMA)
	assert.Equal(t, 100.0, ind.RSI)
	assert.InDelta(t, math.Sqrt(2), ind.Volatility, 1e-12)
	assert.Greater(t, ind.EMA, ind.SMA)

	_, err = Compute([]float64{1, 2}, 5)
	assert.EqualError(t, err, "not enough data points, need at least 5")
}

func TestRangeOverPoints(t *testing.T) {
	points := []model.Point{
		{High: optional.Some(110.0), Low: optional.Some(90.0), Close: optional.Some(100.0)},
		{High: optional.None[float64](), Low: optional.None[float64](), Close: optional.None[float64]()},
		{High: optional.Some(105.0), Low: optional.Some(95.0), Close: optional.Some(104.0)},
	}

	high, low, err := CalculateRange(points, 0)
	require.NoError(t, err)
	assert.Equal(t, 110.0, high)
	assert.Equal(t, 90.0, low)

	high, low, err = CalculateRange(points, 1)
	require.NoError(t, err)
	assert.Equal(t, 105.0, high)
	assert.Equal(t, 95.0, low)

	pos, err := CalculateRangePosition(104, 110, 90)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, pos, 1e-12)

	assert.Equal(t, []float64{100, 104}, Closes(points))

	_, _, err = CalculateRange(points[1:2], 1)
	assert.Error(t, err)
}
