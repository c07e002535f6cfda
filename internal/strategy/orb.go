package strategy

import (
	"prop-trading-engine/internal/market"
)

// OpeningRangeBreakout trades a confirmed close out of the NY opening range
// during the open or morning session, with volume behind the break.
type OpeningRangeBreakout struct{}

func (d *OpeningRangeBreakout) Kind() Kind { return KindOpeningRange }

func (d *OpeningRangeBreakout) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}

	last := ctx.last()
	session := sessionOf(last)
	if session != market.SessionNYOpen && session != market.SessionNYMorning {
		return nil
	}

	orb := ctx.OpeningRange
	if !orb.Formed || orb.High <= orb.Low {
		return nil
	}
	size := orb.High - orb.Low
	// Degenerate opening ranges produce untradeable brackets.
	if size < 0.3*ctx.ATR || size > 3*ctx.ATR {
		return nil
	}

	if !volumeConfirmed(ctx.Candles) {
		return nil
	}

	var dir Direction
	switch {
	case last.Close > orb.High:
		dir = Long
	case last.Close < orb.Low:
		dir = Short
	default:
		return nil
	}

	entry := last.Close
	var stop, t1, t2 float64
	if dir == Long {
		stop = orb.Low - 0.25*ctx.ATR
		t1 = orb.High + size
		t2 = orb.High + 2*size
	} else {
		stop = orb.High + 0.25*ctx.ATR
		t1 = orb.Low - size
		t2 = orb.Low - 2*size
	}

	score := buildScore(55, isDisplacement(last, ctx.ATR), ctx.Bias.Agrees(dir), true,
		ctx.Regime.Regime.IsStrongTrend())

	return &Signal{
		ID:           newSignalID(),
		Time:         last.Time,
		Kind:         d.Kind(),
		Direction:    dir,
		Confidence:   score,
		QualityScore: score,
		Entry:        Entry{Price: entry, Type: EntryMarket},
		// Move to breakeven once price has travelled one full range.
		StopLoss: Stop{Price: stop, Type: StopRange},
		Targets: []Target{
			{Price: t1, PercentToExit: 50, Type: TargetRangeLevel},
			{Price: t2, PercentToExit: 50, Type: TargetRangeLevel},
		},
		Invalidations: []string{
			"close back inside the opening range",
		},
		TimeLimitBars: 90,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         session,
			VolumeConfirmed: true,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, t2),
			ExpectedWinRate: 50,
		},
	}
}
