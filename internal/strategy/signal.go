package strategy

import (
	"time"

	"github.com/google/uuid"

	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/regime"
)

// Kind identifies a strategy detector. Closed enum: every signal in the
// system carries exactly one of these tags.
type Kind string

const (
	KindBOSContinuation    Kind = "bos_continuation"
	KindCHoCHReversal      Kind = "choch_reversal"
	KindFailedBreakout     Kind = "failed_breakout"
	KindLiquiditySweep     Kind = "liquidity_sweep_reversal"
	KindSessionReversion   Kind = "session_extreme_reversion"
	KindTrendPullback      Kind = "trend_pullback"
	KindVolatilityBreakout Kind = "volatility_expansion_breakout"
	KindVWAPReversion      Kind = "vwap_deviation_reversion"
	KindRangeFade          Kind = "range_extreme_fade"
	KindOpeningRange       Kind = "opening_range_breakout"
	KindKillZone           Kind = "kill_zone_reversal"
)

// Direction is the trade side of a signal.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// Bias is the higher-timeframe directional bias supplied to detectors.
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// Agrees reports whether the bias supports a trade in the given direction.
func (b Bias) Agrees(d Direction) bool {
	return (b == BiasBullish && d == Long) || (b == BiasBearish && d == Short)
}

// Opposes reports whether the bias contradicts the given direction.
func (b Bias) Opposes(d Direction) bool {
	return (b == BiasBullish && d == Short) || (b == BiasBearish && d == Long)
}

// EntryType describes how the entry should be worked.
type EntryType string

const (
	EntryMarket EntryType = "market"
	EntryLimit  EntryType = "limit"
	EntryStop   EntryType = "stop"
)

// StopType describes how the protective stop was derived.
type StopType string

const (
	StopStructure   StopType = "structure"
	StopATR         StopType = "atr"
	StopATRTrailing StopType = "atr_trailing"
	StopRange       StopType = "range"
)

// TargetType describes how a profit target was derived.
type TargetType string

const (
	TargetATRMultiple TargetType = "atr_multiple"
	TargetStructure   TargetType = "structure"
	TargetVWAP        TargetType = "vwap"
	TargetRangeLevel  TargetType = "range_level"
	TargetSessionMid  TargetType = "session_mid"
)

// Entry is the proposed entry for a signal.
type Entry struct {
	Price         float64
	Type          EntryType
	WaitForRetest bool
}

// Stop is the protective stop for a signal.
type Stop struct {
	Price float64
	Type  StopType
}

// Target is one profit target. PercentToExit values across a signal's
// targets sum to 100.
type Target struct {
	Price         float64
	PercentToExit float64
	Type          TargetType
}

// Meta carries the context a signal was produced under, for scoring and
// post-trade review.
type Meta struct {
	Regime          regime.Regime
	HTFBias         Bias
	Session         market.Session
	VolumeConfirmed bool
	Structure       string // "HH/HL", "LH/LL", "mixed", "flat"
	RiskReward      float64
	ExpectedWinRate float64 // percent
}

// Signal is a fully specified trade candidate. Produced fresh per
// evaluation and never mutated after creation.
type Signal struct {
	ID            string
	Time          time.Time // close time of the bar the signal fired on
	Kind          Kind
	Direction     Direction
	Confidence    float64 // 0-100
	QualityScore  float64 // detector's own 0-100 assessment
	Entry         Entry
	StopLoss      Stop
	Targets       []Target
	Invalidations []string
	TimeLimitBars int
	Meta          Meta
}

// newSignalID returns a fresh signal identifier.
func newSignalID() string {
	return uuid.NewString()
}

// riskReward returns the reward:risk ratio of an entry/stop/final-target set.
func riskReward(direction Direction, entry, stop, finalTarget float64) float64 {
	risk := entry - stop
	reward := finalTarget - entry
	if direction == Short {
		risk = stop - entry
		reward = entry - finalTarget
	}
	if risk <= 0 {
		return 0
	}
	return reward / risk
}
