package strategy

import (
	"math"

	"prop-trading-engine/internal/indicators"
)

// TrendPullback joins an established trend after a controlled retracement
// to the EMA20 with RSI in a pullback band, entering on the expansion
// candle that resumes the trend.
type TrendPullback struct{}

func (d *TrendPullback) Kind() Kind { return KindTrendPullback }

func (d *TrendPullback) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}

	candles := ctx.Candles
	last := ctx.last()
	prev := ctx.prev()

	ema20 := indicators.EMA(candles, 20)
	ema50 := indicators.EMA(candles, 50)
	if ema20 == 0 {
		return nil
	}
	// RSI of the pullback itself, before the expansion candle.
	rsi := indicators.RSI(candles[:len(candles)-1], 14)

	var dir Direction
	switch {
	case ctx.Regime.Regime.IsUp():
		dir = Long
		if rsi < 35 || rsi > 55 {
			return nil
		}
		// The pullback bar must have tagged the EMA20 zone.
		if math.Abs(prev.Low-ema20) > 0.7*ctx.ATR && math.Abs(prev.Close-ema20) > 0.7*ctx.ATR {
			return nil
		}
		// Expansion candle resuming the trend.
		if !last.IsBullish() || last.Body() < ctx.ATR {
			return nil
		}
	case ctx.Regime.Regime.IsDown():
		dir = Short
		if rsi < 45 || rsi > 65 {
			return nil
		}
		if math.Abs(prev.High-ema20) > 0.7*ctx.ATR && math.Abs(prev.Close-ema20) > 0.7*ctx.ATR {
			return nil
		}
		if !last.IsBearish() || last.Body() < ctx.ATR {
			return nil
		}
	default:
		return nil
	}

	entry := last.Close
	var stop float64
	if dir == Long {
		stop = ema50 - 0.25*ctx.ATR
		if s := ctx.Structure.LastSwingLow; s > 0 && s < stop {
			stop = s - 0.25*ctx.ATR
		}
		if stop >= entry || ema50 == 0 {
			stop = entry - 2*ctx.ATR
		}
	} else {
		stop = ema50 + 0.25*ctx.ATR
		if s := ctx.Structure.LastSwingHigh; s > 0 && s > stop {
			stop = s + 0.25*ctx.ATR
		}
		if stop <= entry || ema50 == 0 {
			stop = entry + 2*ctx.ATR
		}
	}

	t1, t2 := atrTargets(dir, entry, ctx.ATR, 2, 4)
	t3 := entry + 6*ctx.ATR
	if dir == Short {
		t3 = entry - 6*ctx.ATR
	}

	volume := volumeConfirmed(candles)
	score := buildScore(55, true, ctx.Bias.Agrees(dir), volume, ctx.Regime.Regime.IsStrongTrend())

	return &Signal{
		ID:           newSignalID(),
		Time:         last.Time,
		Kind:         d.Kind(),
		Direction:    dir,
		Confidence:   score,
		QualityScore: score,
		Entry:        Entry{Price: entry, Type: EntryMarket},
		// Trails by ATR once the first target moves the stop to breakeven.
		StopLoss: Stop{Price: stop, Type: StopATRTrailing},
		Targets: []Target{
			{Price: t1, PercentToExit: 50, Type: TargetATRMultiple},
			{Price: t2, PercentToExit: 25, Type: TargetATRMultiple},
			{Price: t3, PercentToExit: 25, Type: TargetATRMultiple},
		},
		Invalidations: []string{
			"close beyond the EMA50",
			"regime leaving the trend set",
		},
		TimeLimitBars: 90,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: volume,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, t3),
			ExpectedWinRate: 50,
		},
	}
}
