package structure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-trading-engine/internal/market"
)

func flatCandle(i int, h, l float64) market.Candle {
	base := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	mid := (h + l) / 2
	return market.Candle{
		Time: base.Add(time.Duration(i) * time.Minute),
		Open: mid, High: h, Low: l, Close: mid, Volume: 1000,
	}
}

// trendSeries builds an impulsive trend: five bars in the trend direction,
// three shallower bars against it, repeated. Every fractal swing confirms
// and every value is distinct.
func trendSeries(cycles int, start, dir float64) []market.Candle {
	var candles []market.Candle
	p := start
	i := 0
	for c := 0; c < cycles; c++ {
		for j := 0; j < 5; j++ {
			p += dir
			candles = append(candles, flatCandle(i, p+0.1, p-0.1))
			i++
		}
		for j := 0; j < 3; j++ {
			p -= 0.4 * dir
			candles = append(candles, flatCandle(i, p+0.1, p-0.1))
			i++
		}
	}
	return candles
}

func TestSwingDetection(t *testing.T) {
	a := NewAnalyzer(3)

	// 100 - peak at 110 - back to 100: one swing high, no swing lows inside.
	var candles []market.Candle
	prices := []float64{100, 102, 104, 106, 110, 106, 104, 102, 100}
	for i, p := range prices {
		candles = append(candles, flatCandle(i, p+0.5, p-0.5))
	}

	highs := a.SwingHighs(candles)
	require.Len(t, highs, 1)
	assert.Equal(t, 110.5, highs[0].Price)
	assert.Equal(t, 4, highs[0].Index)

	assert.Empty(t, a.SwingLows(candles))
}

func TestSwingTieBreaksToEarlierBar(t *testing.T) {
	a := NewAnalyzer(3)

	// Two equal highs inside one fractal window: the first bar of the flat
	// top carries the swing, the retest does not double-count.
	var candles []market.Candle
	prices := []float64{100, 102, 105, 104, 105, 102, 100, 99, 98}
	for i, p := range prices {
		candles = append(candles, flatCandle(i, p+0.5, p-0.5))
	}
	highs := a.SwingHighs(candles)
	require.Len(t, highs, 1)
	assert.Equal(t, 2, highs[0].Index)
	assert.Equal(t, 105.5, highs[0].Price)
}

func TestSwingConfirmsThroughTiedPullback(t *testing.T) {
	a := NewAnalyzer(3)

	// Impulse leg where the first pullback bar's high ties the peak bar's
	// high. The peak must still confirm as a swing.
	var candles []market.Candle
	type hl struct{ h, l float64 }
	bars := []hl{
		{100.5, 99.5}, {101.5, 100.5}, {102.5, 101.5}, {103.5, 102.5},
		{104.5, 103.5}, // peak
		{104.5, 103.9}, {104.1, 103.5}, {103.7, 103.1},
		{104.0, 103.4}, {104.4, 103.8}, {104.8, 104.2},
	}
	for i, b := range bars {
		candles = append(candles, flatCandle(i, b.h, b.l))
	}

	highs := a.SwingHighs(candles)
	require.Len(t, highs, 1)
	assert.Equal(t, 4, highs[0].Index)
}

func TestAnalyzeBullishStructure(t *testing.T) {
	a := NewAnalyzer(3)
	candles := trendSeries(4, 100, 1) // rising tops and rising bottoms

	ctx := a.Analyze(candles)
	assert.Equal(t, TrendBullish, ctx.Trend)
	assert.True(t, ctx.HasHH)
	assert.True(t, ctx.HasHL)
	assert.False(t, ctx.HasLH)
	assert.False(t, ctx.HasLL)
	assert.Greater(t, ctx.LastSwingHigh, ctx.LastSwingLow)
}

func TestAnalyzeBearishStructure(t *testing.T) {
	a := NewAnalyzer(3)
	candles := trendSeries(4, 100, -1)

	ctx := a.Analyze(candles)
	assert.Equal(t, TrendBearish, ctx.Trend)
	assert.True(t, ctx.HasLH)
	assert.True(t, ctx.HasLL)
}

func TestAnalyzeShortWindow(t *testing.T) {
	a := NewAnalyzer(3)
	ctx := a.Analyze(trendSeries(4, 100, 1)[:5])
	assert.Equal(t, TrendRanging, ctx.Trend)
	assert.Zero(t, ctx.LastSwingHigh)
	assert.Zero(t, ctx.LastSwingLow)
}

func TestLiquidityPoolsEqualHighs(t *testing.T) {
	a := NewAnalyzer(3)

	// Two swing highs at nearly the same level, then a clean break above.
	var candles []market.Candle
	prices := []float64{
		100, 102, 104, 106, 100, 98, 96, // swing high 106
		98, 100, 104, 106.1, 100, 98, 96, // swing high 106.1, same pool
		98, 100, 102, 104, 109, 109, 109, // sweep bar trades through
	}
	for i, p := range prices {
		candles = append(candles, flatCandle(i, p+0.5, p-0.5))
	}

	pools := a.LiquidityPools(candles, 2.0) // tolerance 0.5
	var highPools []LiquidityPool
	for _, p := range pools {
		if p.Kind == EqualHighs {
			highPools = append(highPools, p)
		}
	}
	require.Len(t, highPools, 1)
	p := highPools[0]
	assert.Equal(t, 106.6, p.Level) // extreme of the cluster
	assert.Equal(t, 2, p.Touches)
	assert.True(t, p.Swept)
	assert.Equal(t, 18, p.SweepIndex)
	assert.InDelta(t, 2.9, p.Penetration, 1e-9) // 109.5 - 106.6
}

func TestLiquidityPoolsNoATR(t *testing.T) {
	a := NewAnalyzer(3)
	assert.Nil(t, a.LiquidityPools(trendSeries(4, 100, 1), 0))
}

func TestSingleSwingFormsNoPool(t *testing.T) {
	a := NewAnalyzer(3)

	var candles []market.Candle
	prices := []float64{100, 102, 104, 106, 104, 102, 100, 99, 98, 97, 96, 95}
	for i, p := range prices {
		candles = append(candles, flatCandle(i, p+0.5, p-0.5))
	}
	pools := a.LiquidityPools(candles, 2.0)
	for _, p := range pools {
		assert.NotEqual(t, EqualHighs, p.Kind)
	}
}
