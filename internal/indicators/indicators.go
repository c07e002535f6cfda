package indicators

import (
	"math"
	"sort"

	"prop-trading-engine/internal/market"
)

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// SMA calculates the Simple Moving Average of closes over period.
func SMA(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}
	sum := 0.0
	for _, c := range candles[len(candles)-period:] {
		sum += c.Close
	}
	return sum / float64(period)
}

// EMA calculates the Exponential Moving Average of closes over period,
// seeded with an SMA of the first period closes.
func EMA(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}
	ema := NewStreamEMA(period)
	for _, c := range candles {
		ema.Update(c.Close)
	}
	return ema.Value()
}

// ============================================================================
// VOLATILITY
// ============================================================================

// TrueRange returns the true range of cur given the previous candle.
func TrueRange(prev, cur market.Candle) float64 {
	tr := cur.High - cur.Low
	if hc := math.Abs(cur.High - prev.Close); hc > tr {
		tr = hc
	}
	if lc := math.Abs(cur.Low - prev.Close); lc > tr {
		tr = lc
	}
	return tr
}

// ATR calculates the Average True Range using Wilder's smoothing.
func ATR(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}
	atr := NewStreamATR(period)
	for _, c := range candles {
		atr.Update(c)
	}
	return atr.Value()
}

// ATRSeries returns the Wilder ATR value at every bar, zero until the
// indicator has enough history. Computed in a single pass.
func ATRSeries(candles []market.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	if period <= 0 {
		return out
	}
	atr := NewStreamATR(period)
	for i, c := range candles {
		atr.Update(c)
		if atr.Ready() {
			out[i] = atr.Value()
		}
	}
	return out
}

// VolatilityPercentile ranks current against a historical distribution,
// returning 0-100. An empty history yields 50 (no information).
func VolatilityPercentile(current float64, history []float64) float64 {
	var valid []float64
	for _, v := range history {
		if v > 0 {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return 50
	}
	below := 0
	for _, v := range valid {
		if v <= current {
			below++
		}
	}
	return float64(below) / float64(len(valid)) * 100
}

// BollingerWidth returns the band width as a percentage of the middle band
// for the given period and standard deviation multiplier.
func BollingerWidth(candles []market.Candle, period int, mult float64) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}
	mid := SMA(candles, period)
	if mid == 0 {
		return 0
	}
	variance := 0.0
	for _, c := range candles[len(candles)-period:] {
		d := c.Close - mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return (2 * mult * sd) / mid * 100
}

// ============================================================================
// MOMENTUM
// ============================================================================

// RSI calculates the Relative Strength Index using Wilder's smoothing.
// Returns 50 (neutral) when there is insufficient history.
func RSI(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 50
	}
	rsi := NewStreamRSI(period)
	for _, c := range candles {
		rsi.Update(c.Close)
	}
	return rsi.Value()
}

// ADX calculates the Average Directional Index along with +DI and -DI.
// Returns zeros when there is insufficient history.
func ADX(candles []market.Candle, period int) (adx, plusDI, minusDI float64) {
	if period <= 0 || len(candles) < 2*period+1 {
		return 0, 0, 0
	}

	var trSum, plusSum, minusSum float64
	var dxValues []float64

	// Wilder smoothing carried across the series.
	var smTR, smPlus, smMinus float64
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1], candles[i]
		tr := TrueRange(prev, cur)
		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low
		plusDM := 0.0
		minusDM := 0.0
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}

		if i <= period {
			trSum += tr
			plusSum += plusDM
			minusSum += minusDM
			if i == period {
				smTR, smPlus, smMinus = trSum, plusSum, minusSum
			}
			continue
		}

		smTR = smTR - smTR/float64(period) + tr
		smPlus = smPlus - smPlus/float64(period) + plusDM
		smMinus = smMinus - smMinus/float64(period) + minusDM

		if smTR == 0 {
			dxValues = append(dxValues, 0)
			continue
		}
		pdi := smPlus / smTR * 100
		mdi := smMinus / smTR * 100
		plusDI, minusDI = pdi, mdi
		sum := pdi + mdi
		if sum == 0 {
			dxValues = append(dxValues, 0)
			continue
		}
		dxValues = append(dxValues, math.Abs(pdi-mdi)/sum*100)
	}

	if len(dxValues) < period {
		return 0, plusDI, minusDI
	}

	// ADX is the Wilder-smoothed DX.
	adx = 0.0
	for _, dx := range dxValues[:period] {
		adx += dx
	}
	adx /= float64(period)
	for _, dx := range dxValues[period:] {
		adx = (adx*float64(period-1) + dx) / float64(period)
	}
	return adx, plusDI, minusDI
}

// ============================================================================
// VOLUME
// ============================================================================

// AvgVolume returns the average volume over the last period candles.
func AvgVolume(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}
	sum := 0.0
	for _, c := range candles[len(candles)-period:] {
		sum += c.Volume
	}
	return sum / float64(period)
}

// VWAPBands computes the volume-weighted average price over the given
// candles plus its volume-weighted standard deviation.
func VWAPBands(candles []market.Candle) (vwap, stddev float64) {
	var sumPV, sumV, sumPV2 float64
	for _, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		sumPV += typical * c.Volume
		sumV += c.Volume
		sumPV2 += typical * typical * c.Volume
	}
	if sumV == 0 {
		return 0, 0
	}
	vwap = sumPV / sumV
	variance := sumPV2/sumV - vwap*vwap
	if variance < 0 {
		variance = 0
	}
	return vwap, math.Sqrt(variance)
}

// VolumeBucket is one price level of a volume profile.
type VolumeBucket struct {
	PriceLow  float64
	PriceHigh float64
	Volume    float64
}

// VolumeProfile is a bucketed volume-at-price histogram.
type VolumeProfile struct {
	Buckets        []VolumeBucket
	PointOfControl float64 // midpoint of the highest-volume bucket
}

// BuildVolumeProfile distributes each candle's volume across the buckets its
// range spans. Returns an empty profile for degenerate input.
func BuildVolumeProfile(candles []market.Candle, buckets int) VolumeProfile {
	if len(candles) == 0 || buckets <= 0 {
		return VolumeProfile{}
	}
	low := candles[0].Low
	high := candles[0].High
	for _, c := range candles {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
	}
	if high <= low {
		return VolumeProfile{}
	}
	step := (high - low) / float64(buckets)
	profile := VolumeProfile{Buckets: make([]VolumeBucket, buckets)}
	for i := range profile.Buckets {
		profile.Buckets[i].PriceLow = low + float64(i)*step
		profile.Buckets[i].PriceHigh = low + float64(i+1)*step
	}
	for _, c := range candles {
		lo := int((c.Low - low) / step)
		hi := int((c.High - low) / step)
		if hi >= buckets {
			hi = buckets - 1
		}
		if lo < 0 {
			lo = 0
		}
		share := c.Volume / float64(hi-lo+1)
		for i := lo; i <= hi; i++ {
			profile.Buckets[i].Volume += share
		}
	}
	best := 0
	for i, b := range profile.Buckets {
		if b.Volume > profile.Buckets[best].Volume {
			best = i
		}
	}
	profile.PointOfControl = (profile.Buckets[best].PriceLow + profile.Buckets[best].PriceHigh) / 2
	return profile
}

// Percentile returns the p-th percentile (0-100) of values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
