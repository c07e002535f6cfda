package strategy

import (
	"prop-trading-engine/internal/indicators"
	"prop-trading-engine/internal/market"
)

// BiasFromCandles derives a higher-timeframe directional bias from a
// resampled candle series: EMA20 vs EMA50 with price on the same side.
// Insufficient history yields a neutral bias.
func BiasFromCandles(htf []market.Candle) Bias {
	if len(htf) < 50 {
		return BiasNeutral
	}
	ema20 := indicators.EMA(htf, 20)
	ema50 := indicators.EMA(htf, 50)
	lastClose := htf[len(htf)-1].Close
	switch {
	case ema20 > ema50 && lastClose > ema20:
		return BiasBullish
	case ema20 < ema50 && lastClose < ema20:
		return BiasBearish
	default:
		return BiasNeutral
	}
}
