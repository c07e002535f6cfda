package strategy

import (
	"prop-trading-engine/internal/indicators"
	"prop-trading-engine/internal/market"
)

// VolatilityBreakout trades the release of a volatility compression: with
// the ATR percentile depressed, a short-window ATR expanding well past the
// long-window ATR while price closes out of the compression range marks the
// start of an expansion leg.
type VolatilityBreakout struct{}

func (d *VolatilityBreakout) Kind() Kind { return KindVolatilityBreakout }

const compressionLookback = 10

func (d *VolatilityBreakout) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}
	if ctx.Regime.VolatilityPercentile >= 30 {
		return nil
	}

	candles := ctx.Candles
	last := ctx.last()

	atr5 := indicators.ATR(candles, 5)
	if atr5 <= 1.3*ctx.ATR {
		return nil
	}

	base := candles[:len(candles)-1]
	rangeHigh := market.HighestHigh(base, compressionLookback)
	rangeLow := market.LowestLow(base, compressionLookback)
	if rangeHigh <= rangeLow {
		return nil
	}
	size := rangeHigh - rangeLow
	mid := (rangeHigh + rangeLow) / 2

	var dir Direction
	switch {
	case last.Close > rangeHigh:
		dir = Long
	case last.Close < rangeLow:
		dir = Short
	default:
		return nil
	}

	entry := last.Close
	stop := mid
	var t1, t2 float64
	if dir == Long {
		t1 = rangeHigh + size
		t2 = rangeHigh + 1.618*size
	} else {
		t1 = rangeLow - size
		t2 = rangeLow - 1.618*size
	}

	volume := volumeConfirmed(candles)
	score := buildScore(50, isDisplacement(last, ctx.ATR), ctx.Bias.Agrees(dir), volume, false)

	return &Signal{
		ID:           newSignalID(),
		Time:         last.Time,
		Kind:         d.Kind(),
		Direction:    dir,
		Confidence:   score,
		QualityScore: score,
		Entry:        Entry{Price: entry, Type: EntryMarket},
		StopLoss:     Stop{Price: stop, Type: StopRange},
		Targets: []Target{
			{Price: t1, PercentToExit: 50, Type: TargetRangeLevel},
			{Price: t2, PercentToExit: 50, Type: TargetRangeLevel},
		},
		Invalidations: []string{
			"close back inside the compression range",
		},
		TimeLimitBars: 45,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: volume,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, t2),
			ExpectedWinRate: 47,
		},
	}
}
