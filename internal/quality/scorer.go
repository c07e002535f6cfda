package quality

import (
	"fmt"

	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/regime"
	"prop-trading-engine/internal/strategy"
)

// SizeTier is the position-size recommendation derived from a quality score.
type SizeTier string

const (
	TierFull    SizeTier = "full"
	TierHalf    SizeTier = "half"
	TierQuarter SizeTier = "quarter"
	TierNoTrade SizeTier = "no_trade"
)

// Fraction returns the position-size fraction for the tier.
func (t SizeTier) Fraction() float64 {
	switch t {
	case TierFull:
		return 1.0
	case TierHalf:
		return 0.5
	case TierQuarter:
		return 0.25
	default:
		return 0
	}
}

// Breakdown is the per-dimension score split. Each dimension is capped
// independently; see the weights below.
type Breakdown struct {
	HTFAlignment float64 // max 20
	RegimeFit    float64 // max 20
	Volume       float64 // max 15
	Session      float64 // max 15
	Volatility   float64 // max 15
	Structure    float64 // max 15
}

// Score is the scored assessment of one candidate signal.
type Score struct {
	Overall   float64 // 0-100
	Breakdown Breakdown
	SizeTier  SizeTier
	Reasons   []string
}

// Tier thresholds on the overall score.
const (
	fullThreshold    = 80
	halfThreshold    = 60
	quarterThreshold = 40
)

// TierFor maps an overall score to its size tier.
func TierFor(overall float64) SizeTier {
	switch {
	case overall >= fullThreshold:
		return TierFull
	case overall >= halfThreshold:
		return TierHalf
	case overall >= quarterThreshold:
		return TierQuarter
	default:
		return TierNoTrade
	}
}

// Scorer rates candidate signals against the conditions they fired under.
type Scorer struct{}

// NewScorer returns a quality scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score rates a candidate signal across six additive dimensions and maps
// the total to a size tier.
func (s *Scorer) Score(sig *strategy.Signal, analysis regime.Analysis, bias strategy.Bias) Score {
	var sc Score

	// 1. Higher-timeframe alignment.
	switch {
	case bias.Agrees(sig.Direction):
		sc.Breakdown.HTFAlignment = 20
		sc.Reasons = append(sc.Reasons, "higher timeframe agrees")
	case bias == strategy.BiasNeutral:
		sc.Breakdown.HTFAlignment = 10
	default:
		sc.Breakdown.HTFAlignment = 0
		sc.Reasons = append(sc.Reasons, "trading against higher timeframe")
	}

	// 2. Regime compatibility, from the shared strategy-regime table.
	if strategy.Compatible(sig.Kind, analysis.Regime) {
		sc.Breakdown.RegimeFit = 20
	} else {
		sc.Breakdown.RegimeFit = 5
		sc.Reasons = append(sc.Reasons, fmt.Sprintf("%s fired outside its regime set (%s)", sig.Kind, analysis.Regime))
	}

	// 3. Volume / liquidity confirmation.
	if sig.Meta.VolumeConfirmed {
		sc.Breakdown.Volume = 15
		sc.Reasons = append(sc.Reasons, "volume confirmed")
	} else {
		sc.Breakdown.Volume = 5
	}

	// 4. Session timing: the NY open and afternoon windows carry the flow.
	switch {
	case sig.Meta.Session == market.SessionNYOpen || sig.Meta.Session == market.SessionNYAfternoon:
		sc.Breakdown.Session = 15
	case sig.Meta.Session.IsNY():
		sc.Breakdown.Session = 10
	default:
		sc.Breakdown.Session = 5
		sc.Reasons = append(sc.Reasons, "outside NY session")
	}

	// 5. Volatility condition: mid-range percentile is the sweet spot.
	p := analysis.VolatilityPercentile
	switch {
	case p >= 30 && p <= 70:
		sc.Breakdown.Volatility = 15
	case p >= 20 && p <= 85:
		sc.Breakdown.Volatility = 10
	default:
		sc.Breakdown.Volatility = 5
		sc.Reasons = append(sc.Reasons, "volatility at an extreme")
	}

	// 6. Structure clarity.
	switch sig.Meta.Structure {
	case "HH/HL", "LH/LL":
		sc.Breakdown.Structure = 15
		sc.Reasons = append(sc.Reasons, "clean "+sig.Meta.Structure+" structure")
	case "mixed":
		sc.Breakdown.Structure = 10
	default:
		sc.Breakdown.Structure = 5
	}

	sc.Overall = sc.Breakdown.HTFAlignment + sc.Breakdown.RegimeFit +
		sc.Breakdown.Volume + sc.Breakdown.Session +
		sc.Breakdown.Volatility + sc.Breakdown.Structure
	if sc.Overall > 100 {
		sc.Overall = 100
	}
	sc.SizeTier = TierFor(sc.Overall)
	return sc
}
