package strategy

import (
	"math"
)

// BOSContinuation trades break-of-structure continuations: a displacement
// close beyond the prior swing extreme in the direction of an established
// trend, after a pullback has already retested the broken level.
type BOSContinuation struct{}

func (d *BOSContinuation) Kind() Kind { return KindBOSContinuation }

func (d *BOSContinuation) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}

	last := ctx.last()
	sc := ctx.Structure

	var dir Direction
	var level float64
	switch {
	case ctx.Regime.Regime.IsUp() && sc.LastSwingHigh > 0 && last.Close > sc.LastSwingHigh:
		dir, level = Long, sc.LastSwingHigh
	case ctx.Regime.Regime.IsDown() && sc.LastSwingLow > 0 && last.Close < sc.LastSwingLow:
		dir, level = Short, sc.LastSwingLow
	default:
		return nil
	}

	// Conviction break only: the breaking candle must be a displacement
	// close, not a drift or a wick poke.
	if !isDisplacement(last, ctx.ATR) {
		return nil
	}

	// The level must already have been retested by a pullback before the
	// break, otherwise this is a first touch rather than a continuation.
	if !retested(ctx, level, dir) {
		return nil
	}

	entry := last.Close
	var stop float64
	if dir == Long {
		stop = sc.LastSwingLow - 0.25*ctx.ATR
		if stop >= entry || sc.LastSwingLow == 0 {
			stop = entry - 2*ctx.ATR
		}
	} else {
		stop = sc.LastSwingHigh + 0.25*ctx.ATR
		if stop <= entry || sc.LastSwingHigh == 0 {
			stop = entry + 2*ctx.ATR
		}
	}

	t1, t2 := atrTargets(dir, entry, ctx.ATR, 2, 4)
	volume := volumeConfirmed(ctx.Candles)
	score := buildScore(55, true, ctx.Bias.Agrees(dir), volume, ctx.Regime.Regime.IsStrongTrend())

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
			"close back through the broken swing level",
			"structure shift against the trend",
		},
		TimeLimitBars: 60,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: volume,
			Structure:       describeStructure(sc),
			RiskReward:      riskReward(dir, entry, stop, t2),
			ExpectedWinRate: 52,
		},
	}
}

// retested reports whether some recent bar pulled back to within half an ATR
// of the broken level before the current breakout bar.
func retested(ctx Context, level float64, dir Direction) bool {
	candles := ctx.Candles
	lookback := 10
	if len(candles)-1 < lookback {
		lookback = len(candles) - 1
	}
	for _, c := range candles[len(candles)-1-lookback : len(candles)-1] {
		var dist float64
		if dir == Long {
			dist = math.Abs(c.Low - level)
		} else {
			dist = math.Abs(c.High - level)
		}
		if dist <= 0.5*ctx.ATR {
			return true
		}
	}
	return false
}

// atrTargets returns two profit targets at the given ATR multiples on the
// profit side of entry.
func atrTargets(dir Direction, entry, atr, m1, m2 float64) (float64, float64) {
	if dir == Long {
		return entry + m1*atr, entry + m2*atr
	}
	return entry - m1*atr, entry - m2*atr
}
