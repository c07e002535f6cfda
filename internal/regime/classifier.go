package regime

import (
	"prop-trading-engine/internal/indicators"
	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/structure"
)

// Classification thresholds. First match wins, in the order implemented in
// Classify.
const (
	newsVolumeRatio   = 3.0
	newsATRRatio      = 2.0
	illiquidVolRatio  = 0.3
	highVolATRRatio   = 1.5
	highVolBBWidth    = 3.0
	lowVolATRRatio    = 0.6
	lowVolBBWidth     = 0.5
	strongTrendADX    = 30.0
	weakTrendADX      = 20.0
	diDominanceGap    = 10.0
	tightRangeATR     = 0.8
	defensiveVolPctle = 90.0
)

// Classifier labels the market regime from a rolling candle window.
type Classifier struct {
	window      int     // bars considered for the classification itself
	atrBaseline int     // bars of ATR history for the baseline ratio
	volumeFloor float64 // average volume below this marks the market illiquid
	analyzer    *structure.Analyzer
}

// NewClassifier returns a classifier with the default 100-bar window.
func NewClassifier() *Classifier {
	return &Classifier{
		window:      100,
		atrBaseline: 50,
		volumeFloor: 100,
		analyzer:    structure.NewAnalyzer(3),
	}
}

// Classify labels the current market state from the candle window. History
// shorter than the lookback yields a zero-confidence NoTrade analysis; the
// classifier never fails.
func (c *Classifier) Classify(candles []market.Candle) Analysis {
	if len(candles) < c.window {
		return Analysis{Regime: Unknown, Recommendation: NoTrade}
	}

	window := candles[len(candles)-c.window:]

	atrHistory := indicators.ATRSeries(candles, 14)
	atr := atrHistory[len(atrHistory)-1]
	baseline := baselineATR(atrHistory, c.atrBaseline)
	atrRatio := 1.0
	if baseline > 0 {
		atrRatio = atr / baseline
	}

	adx, plusDI, minusDI := indicators.ADX(window, 14)
	bbWidth := indicators.BollingerWidth(window, 20, 2)
	avgVol := indicators.AvgVolume(window, 20)
	volRatio := 1.0
	if avgVol > 0 {
		volRatio = window[len(window)-1].Volume / avgVol
	}
	volPctile := indicators.VolatilityPercentile(atr, atrHistory)
	sc := c.analyzer.Analyze(window)

	a := Analysis{
		TrendStrength:        clamp(adx*2, 0, 100),
		VolatilityPercentile: volPctile,
	}

	switch {
	case volRatio > newsVolumeRatio && atrRatio > newsATRRatio:
		a.Regime = NewsDriven
		a.Confidence = 85
	case volRatio < illiquidVolRatio || avgVol < c.volumeFloor:
		a.Regime = Illiquid
		a.Confidence = 80
	case atrRatio > highVolATRRatio || bbWidth > highVolBBWidth:
		a.Regime = HighVolatility
		a.Confidence = 75
	case atrRatio < lowVolATRRatio || bbWidth < lowVolBBWidth:
		a.Regime = LowVolatility
		a.Confidence = 70
	case adx > strongTrendADX:
		a.Regime, a.Confidence = classifyStrongTrend(plusDI, minusDI, sc)
	case adx > weakTrendADX:
		if plusDI > minusDI {
			a.Regime = TrendingUpWeak
		} else {
			a.Regime = TrendingDownWeak
		}
		a.Confidence = 65
	case atrRatio < tightRangeATR:
		a.Regime = RangeTight
		a.Confidence = 70
	default:
		a.Regime = RangeWide
		a.Confidence = 60
	}

	a.Recommendation = recommend(a)
	return a
}

// classifyStrongTrend splits an ADX>30 reading by DI dominance. A strong
// directional call needs a ten-point DI gap plus structure confirmation;
// anything less stays a weak trend.
func classifyStrongTrend(plusDI, minusDI float64, sc structure.Context) (Regime, float64) {
	gap := plusDI - minusDI
	switch {
	case gap >= diDominanceGap && sc.HasHH && sc.HasHL:
		return TrendingUpStrong, 90
	case -gap >= diDominanceGap && sc.HasLH && sc.HasLL:
		return TrendingDownStrong, 90
	case plusDI > minusDI:
		return TrendingUpWeak, 75
	default:
		return TrendingDownWeak, 75
	}
}

func recommend(a Analysis) TradingRecommendation {
	switch {
	case a.Regime == NewsDriven || a.Regime == Illiquid:
		return NoTrade
	case a.Regime == HighVolatility || a.VolatilityPercentile > defensiveVolPctle:
		return Defensive
	case a.Regime.IsStrongTrend() && a.Confidence > 75:
		return Aggressive
	default:
		return Normal
	}
}

// baselineATR averages the last n non-zero ATR readings.
func baselineATR(history []float64, n int) float64 {
	sum, count := 0.0, 0
	for i := len(history) - 1; i >= 0 && count < n; i-- {
		if history[i] > 0 {
			sum += history[i]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
