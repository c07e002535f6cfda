// Package aggregator orchestrates live decisioning: risk gate, regime
// classification, the detector bank, and the quality scorer, yielding a
// ranked list of trade candidates. The aggregator holds no state between
// calls; every evaluation is request/response over the inputs it is handed.
package aggregator

import (
	"sort"

	"github.com/rs/zerolog"

	"prop-trading-engine/internal/indicators"
	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/quality"
	"prop-trading-engine/internal/regime"
	"prop-trading-engine/internal/risk"
	"prop-trading-engine/internal/strategy"
	"prop-trading-engine/internal/structure"
)

// Input is one evaluation request.
type Input struct {
	Candles       []market.Candle // execution timeframe, time-ordered
	HTFCandles    []market.Candle // higher timeframe for bias; optional
	Bias          strategy.Bias   // used when HTFCandles is empty
	Account       risk.AccountFacts
	SessionLevels market.SessionLevels
	OpeningRange  market.OpeningRange
	VWAP          market.VWAPContext
}

// RankedSignal pairs a candidate with its quality assessment.
type RankedSignal struct {
	Signal  *strategy.Signal
	Quality quality.Score
}

// Decision is the aggregator output: candidates ranked best-first, plus the
// context they were judged in. Reason explains an empty list.
type Decision struct {
	Signals []RankedSignal
	Regime  regime.Analysis
	Risk    risk.State
	Reason  string
}

// Best returns the top-ranked candidate, or nil when none qualified.
func (d Decision) Best() *RankedSignal {
	if len(d.Signals) == 0 {
		return nil
	}
	return &d.Signals[0]
}

// Aggregator wires the classifier, detector bank, and scorer together.
type Aggregator struct {
	classifier *regime.Classifier
	analyzer   *structure.Analyzer
	scorer     *quality.Scorer
	detectors  []strategy.Detector
	log        zerolog.Logger
}

// New returns an aggregator with the full detector bank.
func New(log zerolog.Logger) *Aggregator {
	return &Aggregator{
		classifier: regime.NewClassifier(),
		analyzer:   structure.NewAnalyzer(3),
		scorer:     quality.NewScorer(),
		detectors:  strategy.All(),
		log:        log,
	}
}

// Evaluate runs one live decisioning pass.
func (a *Aggregator) Evaluate(in Input) Decision {
	d := Decision{Risk: risk.Evaluate(in.Account)}

	if !d.Risk.CanTrade {
		d.Reason = "risk engine blocked trading: " + d.Risk.Recommendation
		a.log.Info().Str("risk_level", string(d.Risk.RiskLevel)).Msg("evaluation blocked by risk gate")
		return d
	}

	d.Regime = a.classifier.Classify(in.Candles)
	if d.Regime.Recommendation == regime.NoTrade {
		d.Reason = "regime recommends no trading: " + string(d.Regime.Regime)
		a.log.Debug().Str("regime", string(d.Regime.Regime)).Msg("evaluation blocked by regime")
		return d
	}

	bias := in.Bias
	if len(in.HTFCandles) > 0 {
		bias = strategy.BiasFromCandles(in.HTFCandles)
	}
	if bias == "" {
		bias = strategy.BiasNeutral
	}

	atr := indicators.ATR(in.Candles, 14)
	ctx := strategy.Context{
		Candles:       in.Candles,
		Regime:        d.Regime,
		Structure:     a.analyzer.Analyze(in.Candles),
		Pools:         a.analyzer.LiquidityPools(in.Candles, atr),
		Bias:          bias,
		SessionLevels: in.SessionLevels,
		OpeningRange:  in.OpeningRange,
		VWAP:          in.VWAP,
		ATR:           atr,
	}

	for _, det := range a.detectors {
		sig := det.Detect(ctx)
		if sig == nil {
			continue
		}
		score := a.scorer.Score(sig, d.Regime, bias)
		if score.SizeTier == quality.TierNoTrade {
			a.log.Debug().Str("kind", string(sig.Kind)).Float64("score", score.Overall).
				Msg("candidate discarded below quality floor")
			continue
		}
		d.Signals = append(d.Signals, RankedSignal{Signal: sig, Quality: score})
	}

	// Best first; detector order breaks ties deterministically.
	sort.SliceStable(d.Signals, func(i, j int) bool {
		return d.Signals[i].Quality.Overall > d.Signals[j].Quality.Overall
	})

	if len(d.Signals) == 0 {
		d.Reason = "no detector produced a qualifying candidate"
	} else {
		best := d.Signals[0]
		a.log.Info().
			Str("kind", string(best.Signal.Kind)).
			Str("direction", string(best.Signal.Direction)).
			Float64("score", best.Quality.Overall).
			Str("tier", string(best.Quality.SizeTier)).
			Int("candidates", len(d.Signals)).
			Msg("signal selected")
	}
	return d
}
