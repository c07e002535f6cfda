package strategy

import (
	"prop-trading-engine/internal/indicators"
)

// VWAPReversion fades a stretched move outside the session VWAP two-sigma
// band when momentum is exhausted and the extreme bar shows a rejection
// wick.
type VWAPReversion struct{}

func (d *VWAPReversion) Kind() Kind { return KindVWAPReversion }

func (d *VWAPReversion) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}

	vwap, sigma := ctx.VWAP.VWAP, ctx.VWAP.StdDev
	if vwap == 0 || sigma == 0 {
		return nil
	}

	last := ctx.last()
	rsi := indicators.RSI(ctx.Candles, 14)
	upper2 := vwap + 2*sigma
	lower2 := vwap - 2*sigma

	var dir Direction
	switch {
	case last.High > upper2 && last.Close < upper2 && rsi >= 70 &&
		last.UpperWick() >= 0.5*last.Range():
		dir = Short
	case last.Low < lower2 && last.Close > lower2 && rsi <= 30 &&
		last.LowerWick() >= 0.5*last.Range():
		dir = Long
	default:
		return nil
	}

	entry := last.Close
	var stop, t1 float64
	if dir == Short {
		stop = last.High + 0.25*ctx.ATR
		t1 = vwap + sigma
	} else {
		stop = last.Low - 0.25*ctx.ATR
		t1 = vwap - sigma
	}
	if (dir == Short && t1 >= entry) || (dir == Long && t1 <= entry) {
		return nil
	}

	volume := volumeConfirmed(ctx.Candles)
	score := buildScore(45, false, ctx.Bias.Agrees(dir), volume, false)

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
			{Price: t1, PercentToExit: 50, Type: TargetVWAP},
			{Price: vwap, PercentToExit: 50, Type: TargetVWAP},
		},
		Invalidations: []string{
			"close beyond the extreme bar",
			"momentum failing to roll over",
		},
		TimeLimitBars: 30,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: volume,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, vwap),
			ExpectedWinRate: 57,
		},
	}
}
