package backtest

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-trading-engine/internal/logging"
	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/strategy"
)

var runStart = time.Date(2024, 1, 16, 14, 31, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Symbol:                "ES",
		StartingCapital:       100000,
		SizingMode:            SizingFixed,
		FixedContracts:        1,
		MaxContracts:          5,
		TickSize:              0.25,
		PointValue:            50,
		MarginPerContract:     12000,
		CommissionPerContract: 8.74,
		SlippageTicks:         0,
	}
}

// flatBars is a dead-flat tape at 5000 with a 4-point range per bar.
func flatBars(n int) []market.Candle {
	bars := make([]market.Candle, n)
	for i := 0; i < n; i++ {
		bars[i] = market.Candle{
			Time: runStart.Add(time.Duration(i) * time.Minute),
			Open: 5000, High: 5002, Low: 4998, Close: 5000, Volume: 1000,
		}
	}
	return bars
}

func longSignal(barIndex int, entry, stop, tp float64) *strategy.Signal {
	return &strategy.Signal{
		ID:        "test-long",
		Time:      runStart.Add(time.Duration(barIndex) * time.Minute),
		Kind:      strategy.KindOpeningRange,
		Direction: strategy.Long,
		Entry:     strategy.Entry{Price: entry, Type: strategy.EntryMarket},
		StopLoss:  strategy.Stop{Price: stop, Type: strategy.StopRange},
		Targets:   []strategy.Target{{Price: tp, PercentToExit: 100, Type: strategy.TargetRangeLevel}},
	}
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg, logging.Nop())
	require.NoError(t, err)
	return e
}

func TestConfigValidation(t *testing.T) {
	bad := testConfig()
	bad.StartingCapital = 0
	_, err := New(bad, logging.Nop())
	assert.ErrorIs(t, err, ErrInvalidCapital)

	dates := testConfig()
	dates.StartDate = runStart
	dates.EndDate = runStart.Add(-time.Hour)
	_, err = New(dates, logging.Nop())
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	sizing := testConfig()
	sizing.SizingMode = "martingale"
	_, err = New(sizing, logging.Nop())
	assert.ErrorIs(t, err, ErrInvalidSizing)

	e := newEngine(t, testConfig())
	_, err = e.Run(nil, nil)
	assert.ErrorIs(t, err, ErrNoCandles)
}

func TestRunRejectsUnorderedCandles(t *testing.T) {
	e := newEngine(t, testConfig())
	bars := flatBars(5)
	bars[2].Time = bars[1].Time // duplicate timestamp

	_, err := e.Run(bars, nil)
	assert.Error(t, err)
}

func TestRunNoSignals(t *testing.T) {
	e := newEngine(t, testConfig())
	r, err := e.Run(flatBars(20), nil)
	require.NoError(t, err)

	assert.Zero(t, r.TotalTrades)
	assert.Equal(t, 100000.0, r.FinalEquity)
	assert.Zero(t, r.NetProfit)
	assert.Zero(t, r.ProfitFactor)
	assert.Zero(t, r.SharpeRatio)
	assert.Zero(t, r.UnmatchedSignals)
	require.Len(t, r.EquityCurve, 20)
	for _, p := range r.EquityCurve {
		assert.Equal(t, 100000.0, p.Equity)
		assert.Zero(t, p.DrawdownPercent)
	}
}

func TestRunTakeProfitExit(t *testing.T) {
	e := newEngine(t, testConfig())

	bars := flatBars(10)
	bars[6].High = 5012 // through the target

	r, err := e.Run(bars, []*strategy.Signal{longSignal(2, 5000, 4980, 5010)})
	require.NoError(t, err)

	require.Len(t, r.Trades, 1)
	tr := r.Trades[0]
	assert.Equal(t, ExitTakeProfit, tr.ExitReason)
	assert.Equal(t, 5000.0, tr.EntryPrice)
	assert.Equal(t, 5010.0, tr.ExitPrice)
	assert.Equal(t, 1, tr.Contracts)
	assert.InDelta(t, 500.0, tr.GrossPnL, 1e-9)
	assert.InDelta(t, 8.74, tr.Commission, 1e-9)
	assert.InDelta(t, 491.26, tr.NetPnL, 1e-9)
	assert.InDelta(t, 100491.26, r.FinalEquity, 1e-9)

	// excursions from the bar extremes while the position was open
	assert.InDelta(t, 600.0, tr.MFE, 1e-9) // 5012 high
	assert.InDelta(t, 100.0, tr.MAE, 1e-9) // 4998 low

	assert.Equal(t, 100.0, r.WinRate)
	assert.True(t, math.IsInf(r.ProfitFactor, 1))

	// gross aggregates exclude commission, net ones include it
	assert.InDelta(t, 500.0, r.GrossProfit, 1e-9)
	assert.Zero(t, r.GrossLoss)
	assert.InDelta(t, 491.26, r.NetProfit, 1e-9)
	assert.InDelta(t, 491.26, r.AverageWin, 1e-9)
}

func TestRunStopBeforeTargetSameBar(t *testing.T) {
	e := newEngine(t, testConfig())

	bars := flatBars(10)
	// one bar trades through both bracket levels
	bars[4].High = 5010
	bars[4].Low = 4990

	r, err := e.Run(bars, []*strategy.Signal{longSignal(2, 5000, 4995, 5005)})
	require.NoError(t, err)

	require.Len(t, r.Trades, 1)
	tr := r.Trades[0]
	assert.Equal(t, ExitStopLoss, tr.ExitReason)
	assert.Equal(t, 4995.0, tr.ExitPrice)
	assert.InDelta(t, -258.74, tr.NetPnL, 1e-9) // 5 points against, plus commission
}

func TestRunSlippageIsAdverse(t *testing.T) {
	cfg := testConfig()
	cfg.SlippageTicks = 1
	e := newEngine(t, cfg)

	bars := flatBars(10)
	bars[6].High = 5012

	r, err := e.Run(bars, []*strategy.Signal{longSignal(2, 5000, 4980, 5010)})
	require.NoError(t, err)

	require.Len(t, r.Trades, 1)
	tr := r.Trades[0]
	assert.Equal(t, 5000.25, tr.EntryPrice) // buy fills higher
	assert.Equal(t, 5009.75, tr.ExitPrice)  // favorable exit gives up a tick
	assert.InDelta(t, 9.5*50-8.74, tr.NetPnL, 1e-9)
	assert.InDelta(t, 25.0, tr.SlippageCost, 1e-9) // 2 ticks x $12.50
}

func TestRunTimeLimitExit(t *testing.T) {
	e := newEngine(t, testConfig())

	sig := longSignal(2, 5000, 4900, 5100)
	sig.TimeLimitBars = 2

	r, err := e.Run(flatBars(10), []*strategy.Signal{sig})
	require.NoError(t, err)

	require.Len(t, r.Trades, 1)
	tr := r.Trades[0]
	assert.Equal(t, ExitSignal, tr.ExitReason)
	assert.Equal(t, runStart.Add(4*time.Minute), tr.ExitTime)
	assert.InDelta(t, -8.74, tr.NetPnL, 1e-9) // flat price, commission only
}

func TestRunSignalFlip(t *testing.T) {
	e := newEngine(t, testConfig())

	long := longSignal(2, 5000, 4900, 5100)
	short := &strategy.Signal{
		ID:        "test-short",
		Time:      runStart.Add(5 * time.Minute),
		Kind:      strategy.KindVWAPReversion,
		Direction: strategy.Short,
		Entry:     strategy.Entry{Price: 5000, Type: strategy.EntryMarket},
		StopLoss:  strategy.Stop{Price: 5100, Type: strategy.StopATR},
		Targets:   []strategy.Target{{Price: 4900, PercentToExit: 100, Type: strategy.TargetRangeLevel}},
	}

	r, err := e.Run(flatBars(10), []*strategy.Signal{long, short})
	require.NoError(t, err)

	require.Len(t, r.Trades, 2)
	assert.Equal(t, strategy.Long, r.Trades[0].Side)
	assert.Equal(t, ExitSignal, r.Trades[0].ExitReason)
	assert.Equal(t, strategy.Short, r.Trades[1].Side)
	assert.Equal(t, ExitEndOfTest, r.Trades[1].ExitReason)
	assert.Zero(t, r.UnmatchedSignals)
}

func TestRunForcedCloseAtDataEnd(t *testing.T) {
	e := newEngine(t, testConfig())

	r, err := e.Run(flatBars(10), []*strategy.Signal{longSignal(8, 5000, 4900, 5100)})
	require.NoError(t, err)

	require.Len(t, r.Trades, 1)
	assert.Equal(t, ExitEndOfTest, r.Trades[0].ExitReason)

	// The rewritten final point stays consistent: the round-turn commission
	// pulls equity below the flat-tape peak of 100000.
	last := r.EquityCurve[len(r.EquityCurve)-1]
	assert.Equal(t, r.FinalEquity, last.Equity)
	assert.InDelta(t, 99991.26, last.Equity, 1e-9)
	assert.InDelta(t, (100000-99991.26)/100000*100, last.DrawdownPercent, 1e-9)
}

func TestRunUnmatchedSignals(t *testing.T) {
	e := newEngine(t, testConfig())

	stray := longSignal(2, 5000, 4980, 5010)
	stray.Time = runStart.Add(30 * time.Second) // between bars

	r, err := e.Run(flatBars(10), []*strategy.Signal{stray})
	require.NoError(t, err)

	assert.Zero(t, r.TotalTrades)
	assert.Equal(t, 1, r.UnmatchedSignals)
}

func TestRunDateRangeRestriction(t *testing.T) {
	cfg := testConfig()
	cfg.StartDate = runStart.Add(5 * time.Minute)
	e := newEngine(t, cfg)

	// Signal sits on a bar excluded by the start date.
	r, err := e.Run(flatBars(10), []*strategy.Signal{longSignal(2, 5000, 4980, 5010)})
	require.NoError(t, err)

	assert.Zero(t, r.TotalTrades)
	assert.Equal(t, 1, r.UnmatchedSignals)
	assert.Len(t, r.EquityCurve, 5)
}

func TestPercentSizing(t *testing.T) {
	cfg := testConfig()
	cfg.SizingMode = SizingPercent
	cfg.RiskPercent = 2
	e := newEngine(t, cfg)

	bars := flatBars(10)
	bars[6].High = 5012

	// 2% of 100k is $2000; a 20-point stop risks $1000 per contract.
	r, err := e.Run(bars, []*strategy.Signal{longSignal(2, 5000, 4980, 5010)})
	require.NoError(t, err)

	require.Len(t, r.Trades, 1)
	assert.Equal(t, 2, r.Trades[0].Contracts)
	assert.InDelta(t, 2*500-2*8.74, r.Trades[0].NetPnL, 1e-9)
}

func TestKellySizingUsesPriorsEarly(t *testing.T) {
	cfg := testConfig()
	cfg.SizingMode = SizingKelly
	e := newEngine(t, cfg)

	bars := flatBars(10)
	bars[6].High = 5012

	r, err := e.Run(bars, []*strategy.Signal{longSignal(2, 5000, 4980, 5010)})
	require.NoError(t, err)

	// quarter-Kelly on the 50%/1.5 priors risks ~4.17% of equity:
	// $4166 over $1000 per contract, capped by margin at 4 contracts.
	require.Len(t, r.Trades, 1)
	assert.Equal(t, 4, r.Trades[0].Contracts)
}

func TestMarginCapBlocksEntry(t *testing.T) {
	cfg := testConfig()
	cfg.StartingCapital = 10000 // half of it cannot carry one ES contract
	e := newEngine(t, cfg)

	r, err := e.Run(flatBars(10), []*strategy.Signal{longSignal(2, 5000, 4980, 5010)})
	require.NoError(t, err)

	assert.Zero(t, r.TotalTrades)
	assert.Equal(t, 10000.0, r.FinalEquity)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.SizingMode = SizingPercent
	cfg.RiskPercent = 2

	bars := flatBars(30)
	bars[6].High = 5012
	bars[20].Low = 4985

	signals := []*strategy.Signal{
		longSignal(2, 5000, 4980, 5010),
		longSignal(15, 5000, 4990, 5050),
	}

	first, err := newEngine(t, cfg).Run(bars, signals)
	require.NoError(t, err)
	second, err := newEngine(t, cfg).Run(bars, signals)
	require.NoError(t, err)

	assert.Equal(t, first.FinalEquity, second.FinalEquity)
	assert.Equal(t, first.TotalTrades, second.TotalTrades)
	assert.Equal(t, first.Trades, second.Trades)
	assert.Equal(t, first.EquityCurve, second.EquityCurve)
}

func TestWriteReport(t *testing.T) {
	e := newEngine(t, testConfig())

	bars := flatBars(10)
	bars[6].High = 5012
	r, err := e.Run(bars, []*strategy.Signal{longSignal(2, 5000, 4980, 5010)})
	require.NoError(t, err)

	var sb strings.Builder
	WriteReport(&sb, r)
	out := sb.String()

	assert.Contains(t, out, "BACKTEST RESULTS: ES")
	assert.Contains(t, out, "Final Equity:     $100491.26")
	assert.Contains(t, out, "Total Trades: 1")
	assert.Contains(t, out, "Profit Factor: inf")
}
