package backtest

import (
	"time"

	"github.com/rs/zerolog"

	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/strategy"
)

// ExitReason is why a position was closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitSignal     ExitReason = "signal"
	ExitEndOfTest  ExitReason = "end_of_test"
)

// Trade is one closed, immutable round trip.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64 // fill price including slippage
	ExitPrice  float64 // fill price including slippage
	Side       strategy.Direction
	Contracts  int

	GrossPnL     float64 // from fill prices
	Commission   float64
	SlippageCost float64 // cost already embedded in the fills
	NetPnL       float64

	MFE            float64 // best unrealized excursion, dollars
	MAE            float64 // worst unrealized excursion, dollars
	HoldingMinutes float64
	ExitReason     ExitReason

	Kind             strategy.Kind
	SignalConfidence float64
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Time            time.Time
	Equity          float64
	DrawdownPercent float64
}

// position is the single open position of a run. Transient engine state.
type position struct {
	side       strategy.Direction
	entryPrice float64
	contracts  int
	stopLoss   float64
	takeProfit float64
	entryTime  time.Time
	entryIndex int
	runningMax float64
	runningMin float64
	timeLimit  int

	kind       strategy.Kind
	confidence float64
}

// Engine replays a signal stream against historical candles. The loop is
// strictly sequential: bar i sees only candles[0..i], and position state is
// path-dependent, so one run never executes concurrently.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

// New validates the config and returns an engine.
func New(cfg Config, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg.withDefaults(), log: log}, nil
}

// Run executes the backtest over time-ordered candles and bar-aligned
// signals. Signals bind to the bar whose timestamp they carry exactly;
// signals matching no bar in range are counted, never fuzzily bound.
func (e *Engine) Run(candles []market.Candle, signals []*strategy.Signal) (*Result, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	if err := market.Validate(candles); err != nil {
		return nil, err
	}

	bars := e.restrict(candles)
	if len(bars) == 0 {
		return nil, ErrNoCandles
	}

	byBar := make(map[int64]*strategy.Signal, len(signals))
	for _, s := range signals {
		key := s.Time.UnixNano()
		// first signal per bar wins; later duplicates are unmatched
		if _, dup := byBar[key]; !dup {
			byBar[key] = s
		}
	}

	r := &Result{
		Config:          e.cfg,
		StartingCapital: e.cfg.StartingCapital,
		EquityCurve:     make([]EquityPoint, 0, len(bars)),
	}

	equity := e.cfg.StartingCapital
	peak := equity
	matched := 0
	var pos *position

	for i, bar := range bars {
		// 1. Running excursion extremes for the open position.
		if pos != nil {
			if bar.High > pos.runningMax {
				pos.runningMax = bar.High
			}
			if bar.Low < pos.runningMin {
				pos.runningMin = bar.Low
			}
		}

		// 2. Bracket exits, stop before target: when one bar touches both
		// levels the engine takes the loss (conservative tie-break).
		if pos != nil {
			if price, hit := e.stopHit(pos, bar); hit {
				equity += e.closeTrade(r, pos, price, bar.Time, ExitStopLoss)
				pos = nil
			} else if price, hit := e.targetHit(pos, bar); hit {
				equity += e.closeTrade(r, pos, price, bar.Time, ExitTakeProfit)
				pos = nil
			}
		}

		sig, ok := byBar[bar.Time.UnixNano()]
		if ok {
			matched++
		}

		// 3. Signal-driven exit or flip.
		if pos != nil && ok {
			if sig.Direction != pos.side {
				exit := e.fill(bar.Close, pos.side.Opposite())
				equity += e.closeTrade(r, pos, exit, bar.Time, ExitSignal)
				pos = e.open(r, sig, bar, i, equity)
			} else if e.cfg.AllowPyramiding {
				// Same-direction conviction: give the position fresh time.
				pos.timeLimit = sig.TimeLimitBars
				pos.entryIndex = i
			}
		}

		// Time-limited positions exit at the close of their last bar.
		if pos != nil && pos.timeLimit > 0 && i-pos.entryIndex >= pos.timeLimit {
			exit := e.fill(bar.Close, pos.side.Opposite())
			equity += e.closeTrade(r, pos, exit, bar.Time, ExitSignal)
			pos = nil
		}

		// 4. Flat entries.
		if pos == nil && ok && sig.Direction != "" {
			pos = e.open(r, sig, bar, i, equity)
		}

		// 5. Equity-curve sample, marking the open position to the close.
		markToMarket := equity
		if pos != nil {
			markToMarket += e.unrealized(pos, bar.Close)
		}
		if markToMarket > peak {
			peak = markToMarket
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - markToMarket) / peak * 100
		}
		r.EquityCurve = append(r.EquityCurve, EquityPoint{Time: bar.Time, Equity: markToMarket, DrawdownPercent: dd})
	}

	// Forced close at data end.
	if pos != nil {
		last := bars[len(bars)-1]
		exit := e.fill(last.Close, pos.side.Opposite())
		equity += e.closeTrade(r, pos, exit, last.Time, ExitEndOfTest)
		pos = nil
		if equity > peak {
			peak = equity
		}
		final := &r.EquityCurve[len(r.EquityCurve)-1]
		final.Equity = equity
		final.DrawdownPercent = 0
		if peak > 0 {
			final.DrawdownPercent = (peak - equity) / peak * 100
		}
	}

	r.UnmatchedSignals = len(signals) - matched
	r.FinalEquity = equity
	e.computeMetrics(r)

	e.log.Info().
		Int("trades", r.TotalTrades).
		Float64("net_profit", r.NetProfit).
		Float64("win_rate", r.WinRate).
		Int("unmatched_signals", r.UnmatchedSignals).
		Msg("backtest complete")
	return r, nil
}

// restrict trims the series to the configured date range.
func (e *Engine) restrict(candles []market.Candle) []market.Candle {
	lo, hi := 0, len(candles)
	if !e.cfg.StartDate.IsZero() {
		for lo < hi && candles[lo].Time.Before(e.cfg.StartDate) {
			lo++
		}
	}
	if !e.cfg.EndDate.IsZero() {
		for hi > lo && candles[hi-1].Time.After(e.cfg.EndDate) {
			hi--
		}
	}
	return candles[lo:hi]
}

// slippage returns the adverse fill adjustment in points.
func (e *Engine) slippage() float64 {
	return float64(e.cfg.SlippageTicks) * e.cfg.TickSize
}

// fill applies adverse slippage to a fill: buys fill higher, sells lower.
func (e *Engine) fill(price float64, buyerSide strategy.Direction) float64 {
	if buyerSide == strategy.Long {
		return price + e.slippage()
	}
	return price - e.slippage()
}

// open sizes and opens a position from a signal. Returns nil when sizing
// (margin cap included) leaves no room for even one contract.
func (e *Engine) open(r *Result, sig *strategy.Signal, bar market.Candle, barIndex int, equity float64) *position {
	contracts := e.size(sig, equity, r.Trades)
	if contracts < 1 {
		return nil
	}

	entry := e.fill(sig.Entry.Price, sig.Direction)
	tp := 0.0
	if len(sig.Targets) > 0 {
		tp = sig.Targets[0].Price
	}

	return &position{
		side:       sig.Direction,
		entryPrice: entry,
		contracts:  contracts,
		stopLoss:   sig.StopLoss.Price,
		takeProfit: tp,
		entryTime:  bar.Time,
		entryIndex: barIndex,
		runningMax: bar.High,
		runningMin: bar.Low,
		timeLimit:  sig.TimeLimitBars,
		kind:       sig.Kind,
		confidence: sig.Confidence,
	}
}

// stopHit checks the protective stop against the bar's range and returns
// the fill price. Stop fills take adverse slippage.
func (e *Engine) stopHit(pos *position, bar market.Candle) (float64, bool) {
	if pos.side == strategy.Long {
		if bar.Low <= pos.stopLoss {
			return pos.stopLoss - e.slippage(), true
		}
		return 0, false
	}
	if bar.High >= pos.stopLoss {
		return pos.stopLoss + e.slippage(), true
	}
	return 0, false
}

// targetHit checks the profit target; favorable exits still give up
// slippage.
func (e *Engine) targetHit(pos *position, bar market.Candle) (float64, bool) {
	if pos.takeProfit == 0 {
		return 0, false
	}
	if pos.side == strategy.Long {
		if bar.High >= pos.takeProfit {
			return pos.takeProfit - e.slippage(), true
		}
		return 0, false
	}
	if bar.Low <= pos.takeProfit {
		return pos.takeProfit + e.slippage(), true
	}
	return 0, false
}

// unrealized marks the open position to a reference price.
func (e *Engine) unrealized(pos *position, price float64) float64 {
	diff := price - pos.entryPrice
	if pos.side == strategy.Short {
		diff = -diff
	}
	return diff * e.cfg.PointValue * float64(pos.contracts)
}

// closeTrade records the round trip and returns its net P&L.
func (e *Engine) closeTrade(r *Result, pos *position, exitPrice float64, exitTime time.Time, reason ExitReason) float64 {
	points := exitPrice - pos.entryPrice
	if pos.side == strategy.Short {
		points = -points
	}
	size := e.cfg.PointValue * float64(pos.contracts)
	gross := points * size
	commission := e.cfg.CommissionPerContract * float64(pos.contracts)
	net := gross - commission

	mfe := (pos.runningMax - pos.entryPrice) * size
	mae := (pos.entryPrice - pos.runningMin) * size
	if pos.side == strategy.Short {
		mfe = (pos.entryPrice - pos.runningMin) * size
		mae = (pos.runningMax - pos.entryPrice) * size
	}
	if mfe < 0 {
		mfe = 0
	}
	if mae < 0 {
		mae = 0
	}

	r.Trades = append(r.Trades, Trade{
		EntryTime:        pos.entryTime,
		ExitTime:         exitTime,
		EntryPrice:       pos.entryPrice,
		ExitPrice:        exitPrice,
		Side:             pos.side,
		Contracts:        pos.contracts,
		GrossPnL:         gross,
		Commission:       commission,
		SlippageCost:     2 * e.slippage() * size,
		NetPnL:           net,
		MFE:              mfe,
		MAE:              mae,
		HoldingMinutes:   exitTime.Sub(pos.entryTime).Minutes(),
		ExitReason:       reason,
		Kind:             pos.kind,
		SignalConfidence: pos.confidence,
	})
	return net
}
