package strategy

import (
	"prop-trading-engine/internal/market"
)

// KillZoneReversal trades the classic open/afternoon reversal: the session
// extreme gets swept to run resting stops, and a structure-shift candle
// confirms the turn.
type KillZoneReversal struct{}

func (d *KillZoneReversal) Kind() Kind { return KindKillZone }

func (d *KillZoneReversal) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}
	if ctx.Regime.TrendStrength > 70 {
		return nil
	}

	last := ctx.last()
	prev := ctx.prev()
	session := sessionOf(last)
	if session != market.SessionNYOpen && session != market.SessionNYAfternoon {
		return nil
	}

	hi, lo := ctx.SessionLevels.NYHigh, ctx.SessionLevels.NYLow
	if hi <= lo || hi == 0 {
		return nil
	}

	var dir Direction
	var sweepExtreme float64
	switch {
	// Previous bar swept the session high; this bar shifts structure down.
	case prev.High > hi && last.IsBearish() && last.Close < prev.Low:
		dir, sweepExtreme = Short, prev.High
	case prev.Low < lo && last.IsBullish() && last.Close > prev.High:
		dir, sweepExtreme = Long, prev.Low
	default:
		return nil
	}

	entry := last.Close
	var stop, t1, t2 float64
	if dir == Short {
		stop = sweepExtreme + 0.25*ctx.ATR
		t1 = ctx.Structure.LastSwingLow
		if t1 <= 0 || t1 >= entry {
			t1 = entry - 2*ctx.ATR
		}
		t2 = entry - 4*ctx.ATR
	} else {
		stop = sweepExtreme - 0.25*ctx.ATR
		t1 = ctx.Structure.LastSwingHigh
		if t1 <= 0 || t1 <= entry {
			t1 = entry + 2*ctx.ATR
		}
		t2 = entry + 4*ctx.ATR
	}

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
			{Price: t1, PercentToExit: 50, Type: TargetStructure},
			{Price: t2, PercentToExit: 50, Type: TargetATRMultiple},
		},
		Invalidations: []string{
			"close back beyond the swept session extreme",
		},
		TimeLimitBars: 60,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         session,
			VolumeConfirmed: volume,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, t2),
			ExpectedWinRate: 53,
		},
	}
}
