package main

import (
	"time"

	"github.com/rs/zerolog"

	"prop-trading-engine/config"
	"prop-trading-engine/internal/aggregator"
	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/risk"
	"prop-trading-engine/internal/strategy"
)

// generateWarmup is how many bars the pipeline sees before the first
// evaluation. Matches the longest indicator lookback in the classifier.
const generateWarmup = 100

// generateHTFInterval is the resample interval used for directional bias.
const generateHTFInterval = 15 * time.Minute

// generateSignals runs the live decisioning pipeline over the candle series
// bar by bar and collects the best-ranked signal from each evaluation. The
// account is held at a fresh, healthy state so risk posture never filters
// the run; the engine applies its own equity tracking.
func generateSignals(candles []market.Candle, cfg *config.Config, log zerolog.Logger) []*strategy.Signal {
	agg := aggregator.New(log)
	tracker := market.NewTracker()

	account := risk.AccountFacts{
		Balance:               cfg.Backtest.StartingCapital,
		StartingBalance:       cfg.Backtest.StartingCapital,
		TrailingDrawdownLimit: cfg.Trading.TrailingDrawdownLimit,
	}

	var signals []*strategy.Signal
	for i, bar := range candles {
		tracker.Update(bar)
		if i+1 < generateWarmup {
			continue
		}

		window := candles[:i+1]
		dec := agg.Evaluate(aggregator.Input{
			Candles:       window,
			HTFCandles:    market.Resample(window, generateHTFInterval),
			Account:       account,
			SessionLevels: tracker.Levels(),
			OpeningRange:  tracker.OpeningRange(),
			VWAP:          tracker.VWAP(),
		})
		if best := dec.Best(); best != nil {
			signals = append(signals, best.Signal)
			log.Debug().
				Str("kind", string(best.Signal.Kind)).
				Str("direction", string(best.Signal.Direction)).
				Float64("quality", best.Quality.Overall).
				Time("bar", bar.Time).
				Msg("signal generated")
		}
	}
	return signals
}
