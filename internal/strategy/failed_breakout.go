package strategy

import (
	"prop-trading-engine/internal/market"
)

// FailedBreakout fades a breakout that could not hold: the prior bar pushed
// through a key range level but the current bar closed firmly back inside.
type FailedBreakout struct{}

func (d *FailedBreakout) Kind() Kind { return KindFailedBreakout }

const failedBreakoutLookback = 20

func (d *FailedBreakout) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}

	candles := ctx.Candles
	last := ctx.last()
	prev := ctx.prev()

	// Key levels: the range extremes before the breakout attempt.
	base := candles[:len(candles)-2]
	keyHigh := market.HighestHigh(base, failedBreakoutLookback)
	keyLow := market.LowestLow(base, failedBreakoutLookback)
	if keyHigh <= keyLow {
		return nil
	}
	mid := (keyHigh + keyLow) / 2

	var dir Direction
	var failedExtreme float64
	switch {
	case prev.High > keyHigh && last.Close < keyHigh && prev.High-last.Close >= 0.5*ctx.ATR:
		dir, failedExtreme = Short, prev.High
		if last.High > failedExtreme {
			failedExtreme = last.High
		}
	case prev.Low < keyLow && last.Close > keyLow && last.Close-prev.Low >= 0.5*ctx.ATR:
		dir, failedExtreme = Long, prev.Low
		if last.Low < failedExtreme {
			failedExtreme = last.Low
		}
	default:
		return nil
	}

	entry := last.Close
	// The rejection must leave room to the range midpoint.
	if (dir == Short && entry <= mid) || (dir == Long && entry >= mid) {
		return nil
	}
	var stop float64
	targets := make([]Target, 0, 2)
	if dir == Short {
		stop = failedExtreme + 0.25*ctx.ATR
		targets = append(targets,
			Target{Price: mid, PercentToExit: 50, Type: TargetRangeLevel},
			Target{Price: keyLow, PercentToExit: 50, Type: TargetRangeLevel})
	} else {
		stop = failedExtreme - 0.25*ctx.ATR
		targets = append(targets,
			Target{Price: mid, PercentToExit: 50, Type: TargetRangeLevel},
			Target{Price: keyHigh, PercentToExit: 50, Type: TargetRangeLevel})
	}

	volume := volumeConfirmed(candles)
	score := buildScore(50, isDisplacement(last, ctx.ATR), ctx.Bias.Agrees(dir), volume, false)

	final := targets[len(targets)-1].Price
	return &Signal{
		ID:           newSignalID(),
		Time:         last.Time,
		Kind:         d.Kind(),
		Direction:    dir,
		Confidence:   score,
		QualityScore: score,
		Entry:        Entry{Price: entry, Type: EntryMarket},
		StopLoss:     Stop{Price: stop, Type: StopStructure},
		Targets:      targets,
		Invalidations: []string{
			"second close beyond the failed extreme",
		},
		TimeLimitBars: 40,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: volume,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, final),
			ExpectedWinRate: 58,
		},
	}
}
