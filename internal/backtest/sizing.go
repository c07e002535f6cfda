package backtest

import (
	"math"

	"prop-trading-engine/internal/strategy"
)

// Kelly sizing priors used until the run has enough closed trades to
// estimate its own statistics.
const (
	kellyMinTrades    = 10
	kellyPriorWinRate = 0.50
	kellyPriorPayoff  = 1.5
	kellyFraction     = 0.25 // quarter-Kelly
	kellyEquityCap    = 0.10 // never risk more than 10% of equity
	marginUsageCap    = 0.50 // margin never exceeds half of equity
)

// size determines the contract count for an entry: the configured sizing
// mode, clamped to [1, MaxContracts], then capped so margin usage stays
// under half of current equity. Returns 0 when no contract fits.
func (e *Engine) size(sig *strategy.Signal, equity float64, closed []Trade) int {
	stopDistance := math.Abs(sig.Entry.Price - sig.StopLoss.Price)
	riskPerContract := stopDistance * e.cfg.PointValue

	var contracts int
	switch e.cfg.SizingMode {
	case SizingPercent:
		if riskPerContract <= 0 {
			return 0
		}
		riskAmount := equity * e.cfg.RiskPercent / 100
		contracts = int(riskAmount / riskPerContract)
	case SizingKelly:
		if riskPerContract <= 0 {
			return 0
		}
		riskAmount := equity * kellyRiskFraction(closed)
		contracts = int(riskAmount / riskPerContract)
	default:
		contracts = e.cfg.FixedContracts
	}

	if contracts < 1 {
		contracts = 1
	}
	if contracts > e.cfg.MaxContracts {
		contracts = e.cfg.MaxContracts
	}

	// Margin cap can push the count to zero; that entry is skipped.
	if e.cfg.MarginPerContract > 0 {
		maxByMargin := int(equity * marginUsageCap / e.cfg.MarginPerContract)
		if contracts > maxByMargin {
			contracts = maxByMargin
		}
	}
	return contracts
}

// kellyRiskFraction computes the quarter-Kelly risk fraction from the
// trailing win rate and payoff ratio of trades closed so far in the run.
func kellyRiskFraction(closed []Trade) float64 {
	winRate, payoff := kellyPriorWinRate, kellyPriorPayoff
	if len(closed) >= kellyMinTrades {
		wins, losses := 0, 0
		winSum, lossSum := 0.0, 0.0
		for _, t := range closed {
			if t.NetPnL > 0 {
				wins++
				winSum += t.NetPnL
			} else {
				losses++
				lossSum += -t.NetPnL
			}
		}
		if wins > 0 && losses > 0 && lossSum > 0 {
			winRate = float64(wins) / float64(len(closed))
			payoff = (winSum / float64(wins)) / (lossSum / float64(losses))
		}
	}

	if payoff <= 0 {
		return 0
	}
	kelly := winRate - (1-winRate)/payoff
	if kelly <= 0 {
		return 0
	}
	fraction := kelly * kellyFraction
	if fraction > kellyEquityCap {
		fraction = kellyEquityCap
	}
	return fraction
}
