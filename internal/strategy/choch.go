package strategy

import (
	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/structure"
)

// CHoCHReversal trades a change of character: after a liquidity sweep, a
// confirmed close through the last opposing minor swing signals the trend
// may be flipping.
type CHoCHReversal struct{}

func (d *CHoCHReversal) Kind() Kind { return KindCHoCHReversal }

func (d *CHoCHReversal) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}
	if ctx.Regime.TrendStrength <= 40 {
		return nil
	}
	// A CHoCH without a preceding sweep is just a pullback.
	sweep := recentSweep(ctx.Pools, len(ctx.Candles), 10)
	if sweep == nil {
		return nil
	}

	last := ctx.last()
	sc := ctx.Structure

	var dir Direction
	switch {
	case sweep.Kind == structure.EqualHighs && sc.LastSwingLow > 0 &&
		last.Close < sc.LastSwingLow && last.IsBearish():
		dir = Short
	case sweep.Kind == structure.EqualLows && sc.LastSwingHigh > 0 &&
		last.Close > sc.LastSwingHigh && last.IsBullish():
		dir = Long
	default:
		return nil
	}

	// Confirmation candle: a meaningful body through the level, not a doji.
	if last.Body() < 0.5*ctx.ATR {
		return nil
	}

	entry := last.Close
	var stop, t2 float64
	if dir == Short {
		stop = market.HighestHigh(ctx.Candles, 10) + 0.25*ctx.ATR
		t2 = entry - 4*ctx.ATR
	} else {
		stop = market.LowestLow(ctx.Candles, 10) - 0.25*ctx.ATR
		t2 = entry + 4*ctx.ATR
	}
	t1, _ := atrTargets(dir, entry, ctx.ATR, 2, 4)

	volume := volumeConfirmed(ctx.Candles)
	score := buildScore(50, isDisplacement(last, ctx.ATR), ctx.Bias.Agrees(dir), volume, false)

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
			{Price: t2, PercentToExit: 50, Type: TargetStructure},
		},
		Invalidations: []string{
			"close back beyond the swept extreme",
			"reclaim of the broken minor swing",
		},
		TimeLimitBars: 45,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: volume,
			Structure:       describeStructure(sc),
			RiskReward:      riskReward(dir, entry, stop, t2),
			ExpectedWinRate: 48,
		},
	}
}

// recentSweep returns the most recently swept pool whose sweep happened
// within maxAge bars of the current bar, or nil.
func recentSweep(pools []structure.LiquidityPool, totalBars, maxAge int) *structure.LiquidityPool {
	var best *structure.LiquidityPool
	for i := range pools {
		p := &pools[i]
		if !p.Swept || totalBars-1-p.SweepIndex > maxAge {
			continue
		}
		if best == nil || p.SweepIndex > best.SweepIndex {
			best = p
		}
	}
	return best
}
