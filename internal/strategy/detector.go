package strategy

import (
	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/regime"
	"prop-trading-engine/internal/structure"
)

// minHistory is the fewest execution-timeframe candles any detector will
// evaluate against.
const minHistory = 30

// Context is everything a detector may look at for one evaluation. Candles
// are the execution timeframe (1m); higher-timeframe direction arrives
// pre-digested as Bias.
type Context struct {
	Candles   []market.Candle
	Regime    regime.Analysis
	Structure structure.Context
	Pools     []structure.LiquidityPool
	Bias      Bias

	SessionLevels market.SessionLevels
	OpeningRange  market.OpeningRange
	VWAP          market.VWAPContext

	ATR float64 // ATR(14) on the execution timeframe
}

// last returns the most recent (closed) candle.
func (c Context) last() market.Candle {
	return c.Candles[len(c.Candles)-1]
}

// prev returns the candle before the most recent one.
func (c Context) prev() market.Candle {
	return c.Candles[len(c.Candles)-2]
}

// Detector proposes at most one trade candidate per evaluation. Detectors
// are pure: same context in, same signal out, and they never fail. An
// incompatible regime, insufficient history, or a missing trigger all
// resolve to nil.
type Detector interface {
	Kind() Kind
	Detect(ctx Context) *Signal
}

// All returns the full detector bank in its fixed evaluation order.
func All() []Detector {
	return []Detector{
		&BOSContinuation{},
		&CHoCHReversal{},
		&FailedBreakout{},
		&LiquiditySweepReversal{},
		&SessionExtremeReversion{},
		&TrendPullback{},
		&VolatilityBreakout{},
		&VWAPReversion{},
		&RangeFade{},
		&OpeningRangeBreakout{},
		&KillZoneReversal{},
	}
}

// gate applies the shared preconditions: enough history, a usable ATR, and
// regime compatibility from the shared table.
func gate(kind Kind, ctx Context) bool {
	if len(ctx.Candles) < minHistory || ctx.ATR <= 0 {
		return false
	}
	return Compatible(kind, ctx.Regime.Regime)
}

// isDisplacement reports whether the candle body covers at least one full
// ATR, the expansion move detectors require for conviction entries.
func isDisplacement(c market.Candle, atr float64) bool {
	return atr > 0 && c.Body() >= atr
}

// volumeConfirmed reports whether the last candle printed above-average
// volume relative to the trailing 20 bars.
func volumeConfirmed(candles []market.Candle) bool {
	if len(candles) < 21 {
		return false
	}
	sum := 0.0
	for _, c := range candles[len(candles)-21 : len(candles)-1] {
		sum += c.Volume
	}
	avg := sum / 20
	return avg > 0 && candles[len(candles)-1].Volume > avg*1.2
}

func sessionOf(c market.Candle) market.Session {
	return market.SessionOf(c.Time)
}

// describeStructure renders a structure context for signal metadata.
func describeStructure(sc structure.Context) string {
	switch {
	case sc.HasHH && sc.HasHL:
		return "HH/HL"
	case sc.HasLH && sc.HasLL:
		return "LH/LL"
	case sc.HasHH || sc.HasHL || sc.HasLH || sc.HasLL:
		return "mixed"
	default:
		return "flat"
	}
}

// buildScore accumulates a detector quality score the way every detector in
// the bank does: a base for a clean trigger, plus additive bonuses for
// displacement, higher-timeframe agreement, volume confirmation, and regime
// strength.
func buildScore(base float64, displacement, htfAgrees, volume, regimeStrong bool) float64 {
	score := base
	if displacement {
		score += 15
	}
	if htfAgrees {
		score += 15
	}
	if volume {
		score += 10
	}
	if regimeStrong {
		score += 10
	}
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
