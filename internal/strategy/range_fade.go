package strategy

import (
	"prop-trading-engine/internal/market"
)

// RangeFade sells the top and buys the bottom of an established range:
// a rejection candle at the boundary on declining volume, targeting the
// midpoint and the opposite edge.
type RangeFade struct{}

func (d *RangeFade) Kind() Kind { return KindRangeFade }

const rangeFadeLookback = 30

func (d *RangeFade) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}

	candles := ctx.Candles
	last := ctx.last()

	rangeHigh := market.HighestHigh(candles, rangeFadeLookback)
	rangeLow := market.LowestLow(candles, rangeFadeLookback)
	size := rangeHigh - rangeLow
	// A tradeable range: too narrow is noise, too wide is not a range.
	if size < 2*ctx.ATR || size > 10*ctx.ATR {
		return nil
	}
	mid := (rangeHigh + rangeLow) / 2

	// Fading into rising participation gets run over.
	avgVol := 0.0
	for _, c := range candles[len(candles)-21 : len(candles)-1] {
		avgVol += c.Volume
	}
	avgVol /= 20
	if avgVol > 0 && last.Volume >= avgVol {
		return nil
	}

	var dir Direction
	switch {
	case last.High >= rangeHigh-0.25*ctx.ATR && last.IsBearish() &&
		last.Close < (last.High+last.Low)/2:
		dir = Short
	case last.Low <= rangeLow+0.25*ctx.ATR && last.IsBullish() &&
		last.Close > (last.High+last.Low)/2:
		dir = Long
	default:
		return nil
	}

	entry := last.Close
	if (dir == Short && entry <= mid) || (dir == Long && entry >= mid) {
		return nil
	}

	var stop float64
	targets := make([]Target, 0, 2)
	if dir == Short {
		stop = rangeHigh + 0.5*ctx.ATR
		targets = append(targets,
			Target{Price: mid, PercentToExit: 50, Type: TargetRangeLevel},
			Target{Price: rangeLow + 0.5*ctx.ATR, PercentToExit: 50, Type: TargetRangeLevel})
	} else {
		stop = rangeLow - 0.5*ctx.ATR
		targets = append(targets,
			Target{Price: mid, PercentToExit: 50, Type: TargetRangeLevel},
			Target{Price: rangeHigh - 0.5*ctx.ATR, PercentToExit: 50, Type: TargetRangeLevel})
	}

	score := buildScore(50, false, ctx.Bias.Agrees(dir), false, false)

	final := targets[len(targets)-1].Price
	return &Signal{
		ID:           newSignalID(),
		Time:         last.Time,
		Kind:         d.Kind(),
		Direction:    dir,
		Confidence:   score,
		QualityScore: score,
		Entry:        Entry{Price: entry, Type: EntryMarket},
		StopLoss:     Stop{Price: stop, Type: StopRange},
		Targets:      targets,
		Invalidations: []string{
			"close beyond the range boundary",
			"volume expanding through the boundary",
		},
		TimeLimitBars: 60,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: false,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, final),
			ExpectedWinRate: 62,
		},
	}
}
