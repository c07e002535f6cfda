package strategy

import (
	"prop-trading-engine/internal/structure"
)

// LiquiditySweepReversal fades a stop run: an equal-high or equal-low pool
// gets swept by a controlled penetration, and the very next close rejects
// back through the level.
type LiquiditySweepReversal struct{}

func (d *LiquiditySweepReversal) Kind() Kind { return KindLiquiditySweep }

func (d *LiquiditySweepReversal) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}

	last := ctx.last()
	sweep := recentSweep(ctx.Pools, len(ctx.Candles), 2)
	if sweep == nil {
		return nil
	}
	// A shallow poke has no stops behind it; a deep one is a real breakout.
	if sweep.Penetration < 0.2*ctx.ATR || sweep.Penetration > 1.5*ctx.ATR {
		return nil
	}

	var dir Direction
	switch sweep.Kind {
	case structure.EqualHighs:
		// Immediate rejection: close back below the pool on a bearish candle.
		if !(last.Close < sweep.Level && last.IsBearish()) {
			return nil
		}
		dir = Short
	case structure.EqualLows:
		if !(last.Close > sweep.Level && last.IsBullish()) {
			return nil
		}
		dir = Long
	default:
		return nil
	}

	entry := last.Close
	var stop float64
	if dir == Short {
		stop = sweep.Level + sweep.Penetration + 0.25*ctx.ATR
	} else {
		stop = sweep.Level - sweep.Penetration - 0.25*ctx.ATR
	}
	t1, t2 := atrTargets(dir, entry, ctx.ATR, 2, 4)

	volume := volumeConfirmed(ctx.Candles)
	score := buildScore(55, isDisplacement(last, ctx.ATR), ctx.Bias.Agrees(dir), volume,
		ctx.Regime.Regime.IsStrongTrend())

	return &Signal{
		ID:           newSignalID(),
		Time:         last.Time,
		Kind:         d.Kind(),
		Direction:    dir,
		Confidence:   score,
		QualityScore: score,
		Entry:        Entry{Price: entry, Type: EntryMarket},
		StopLoss:     Stop{Price: stop, Type: StopStructure},
		Targets: []Target{
			{Price: t1, PercentToExit: 50, Type: TargetATRMultiple},
			{Price: t2, PercentToExit: 50, Type: TargetATRMultiple},
		},
		Invalidations: []string{
			"close beyond the sweep extreme",
		},
		TimeLimitBars: 30,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: volume,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, t2),
			ExpectedWinRate: 55,
		},
	}
}
