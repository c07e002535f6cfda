package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-trading-engine/internal/market"
)

// syntheticCandles builds a deterministic wavy series with enough texture
// for every indicator to produce non-trivial values.
func syntheticCandles(n int) []market.Candle {
	base := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	candles := make([]market.Candle, n)
	price := 5000.0
	for i := 0; i < n; i++ {
		drift := 0.2 * math.Sin(float64(i)/7)
		open := price
		close := price + drift + 0.5*math.Sin(float64(i)/3)
		high := math.Max(open, close) + 0.75
		low := math.Min(open, close) - 0.75
		candles[i] = market.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: 1000 + 50*math.Sin(float64(i)/5),
		}
		price = close
	}
	return candles
}

func unpack(candles []market.Candle) (highs, lows, closes []float64) {
	for _, c := range candles {
		highs = append(highs, c.High)
		lows = append(lows, c.Low)
		closes = append(closes, c.Close)
	}
	return highs, lows, closes
}

func TestEMAMatchesTALib(t *testing.T) {
	candles := syntheticCandles(200)
	_, _, closes := unpack(candles)

	want := talib.Ema(closes, 20)
	assert.InDelta(t, want[len(want)-1], EMA(candles, 20), 1e-6)
}

func TestSMAMatchesTALib(t *testing.T) {
	candles := syntheticCandles(100)
	_, _, closes := unpack(candles)

	want := talib.Sma(closes, 20)
	assert.InDelta(t, want[len(want)-1], SMA(candles, 20), 1e-6)
}

func TestRSIMatchesTALib(t *testing.T) {
	candles := syntheticCandles(200)
	_, _, closes := unpack(candles)

	want := talib.Rsi(closes, 14)
	assert.InDelta(t, want[len(want)-1], RSI(candles, 14), 1e-6)
}

func TestATRMatchesTALib(t *testing.T) {
	candles := syntheticCandles(200)
	highs, lows, closes := unpack(candles)

	want := talib.Atr(highs, lows, closes, 14)
	assert.InDelta(t, want[len(want)-1], ATR(candles, 14), 1e-6)
}

func TestStreamingMatchesBatch(t *testing.T) {
	candles := syntheticCandles(150)

	ema := NewStreamEMA(20)
	atr := NewStreamATR(14)
	rsi := NewStreamRSI(14)
	for i, c := range candles {
		ema.Update(c.Close)
		atr.Update(c)
		rsi.Update(c.Close)

		prefix := candles[:i+1]
		if ema.Ready() {
			assert.InDelta(t, EMA(prefix, 20), ema.Value(), 1e-9, "ema at bar %d", i)
		}
		if atr.Ready() {
			assert.InDelta(t, ATR(prefix, 14), atr.Value(), 1e-9, "atr at bar %d", i)
		}
		if rsi.Ready() {
			assert.InDelta(t, RSI(prefix, 14), rsi.Value(), 1e-9, "rsi at bar %d", i)
		}
	}
}

func TestATRSeriesLastEqualsATR(t *testing.T) {
	candles := syntheticCandles(100)
	series := ATRSeries(candles, 14)
	require.Len(t, series, 100)
	assert.InDelta(t, ATR(candles, 14), series[99], 1e-9)
	// warmup bars have no reading
	assert.Zero(t, series[0])
}

func TestShortHistoryDefaults(t *testing.T) {
	candles := syntheticCandles(5)

	assert.Zero(t, SMA(candles, 20))
	assert.Zero(t, EMA(candles, 20))
	assert.Zero(t, ATR(candles, 14))
	assert.Equal(t, 50.0, RSI(candles, 14))
	assert.Zero(t, BollingerWidth(candles, 20, 2))

	adx, plusDI, minusDI := ADX(candles, 14)
	assert.Zero(t, adx)
	assert.Zero(t, plusDI)
	assert.Zero(t, minusDI)
}

func TestVolatilityPercentile(t *testing.T) {
	history := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, 100.0, VolatilityPercentile(10, history))
	assert.Equal(t, 50.0, VolatilityPercentile(5, history))
	assert.Equal(t, 0.0, VolatilityPercentile(0.5, history))
	// no history carries no information
	assert.Equal(t, 50.0, VolatilityPercentile(3, nil))
	// zero entries are ignored
	assert.Equal(t, 100.0, VolatilityPercentile(4, []float64{0, 0, 1, 2}))
}

func TestADXTrendingVsFlat(t *testing.T) {
	base := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)

	// Steady rise: +DM dominates completely, ADX saturates high.
	var up []market.Candle
	for i := 0; i < 60; i++ {
		o := 5000.0 + float64(i)
		up = append(up, market.Candle{
			Time: base.Add(time.Duration(i) * time.Minute),
			Open: o, High: o + 1.2, Low: o - 0.1, Close: o + 1, Volume: 1000,
		})
	}
	adx, plusDI, minusDI := ADX(up, 14)
	assert.Greater(t, adx, 60.0)
	assert.Greater(t, plusDI, minusDI)

	// Alternating chop: directional movement cancels out.
	var flat []market.Candle
	for i := 0; i < 60; i++ {
		o := 5000.0
		c := 5000.0 + 0.5*math.Sin(float64(i))
		flat = append(flat, market.Candle{
			Time: base.Add(time.Duration(i) * time.Minute),
			Open: o, High: math.Max(o, c) + 0.5, Low: math.Min(o, c) - 0.5, Close: c, Volume: 1000,
		})
	}
	flatADX, _, _ := ADX(flat, 14)
	assert.Less(t, flatADX, adx)
}

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2, 5}
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 5.0, Percentile(values, 100))
	assert.Equal(t, 3.0, Percentile(values, 50))
	assert.Zero(t, Percentile(nil, 50))
}

func TestVWAPBands(t *testing.T) {
	base := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	candles := []market.Candle{
		{Time: base, Open: 100, High: 102, Low: 98, Close: 100, Volume: 100},
		{Time: base.Add(time.Minute), Open: 100, High: 106, Low: 102, Close: 104, Volume: 100},
	}
	vwap, sd := VWAPBands(candles)
	assert.InDelta(t, 102.0, vwap, 1e-9)
	assert.InDelta(t, 2.0, sd, 1e-9)
}

func TestBuildVolumeProfile(t *testing.T) {
	candles := syntheticCandles(100)
	profile := BuildVolumeProfile(candles, 10)
	require.Len(t, profile.Buckets, 10)

	var total float64
	for _, b := range profile.Buckets {
		total += b.Volume
	}
	var expected float64
	for _, c := range candles {
		expected += c.Volume
	}
	assert.InDelta(t, expected, total, 1e-6)
	assert.GreaterOrEqual(t, profile.PointOfControl, profile.Buckets[0].PriceLow)
}
