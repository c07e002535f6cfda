// Command backtest replays recorded signals (or signals generated by the
// live decisioning pipeline) against historical candles and prints a
// performance report.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"prop-trading-engine/config"
	"prop-trading-engine/internal/backtest"
	"prop-trading-engine/internal/logging"
	"prop-trading-engine/internal/strategy"
)

var (
	flagConfig      string
	flagCandles     string
	flagSignals     string
	flagSymbol      string
	flagStart       string
	flagEnd         string
	flagCapital     float64
	flagSizing      string
	flagMaxCon      int
	flagPyramiding  bool
	flagRiskPercent float64
)

func main() {
	root := &cobra.Command{
		Use:   "backtest --candles data.csv [--signals signals.json]",
		Short: "Replay signals against historical candles",
		Long: "Runs the backtest engine over an OHLCV candle file. Signals come " +
			"either from a recorded signal file or, when none is given, from the " +
			"live decisioning pipeline evaluated bar by bar.",
		RunE: run,
	}

	root.Flags().StringVar(&flagConfig, "config", "", "engine config file (YAML)")
	root.Flags().StringVar(&flagCandles, "candles", "", "OHLCV candle file (CSV)")
	root.Flags().StringVar(&flagSignals, "signals", "", "recorded signal file (JSON); omit to generate")
	root.Flags().StringVar(&flagSymbol, "symbol", "", "instrument symbol (default from config)")
	root.Flags().StringVar(&flagStart, "start", "", "start date (YYYY-MM-DD)")
	root.Flags().StringVar(&flagEnd, "end", "", "end date (YYYY-MM-DD)")
	root.Flags().Float64Var(&flagCapital, "capital", 0, "starting capital (default from config)")
	root.Flags().StringVar(&flagSizing, "sizing", "", "sizing mode: fixed, percent, kelly")
	root.Flags().IntVar(&flagMaxCon, "max-contracts", 0, "contract cap per position")
	root.Flags().BoolVar(&flagPyramiding, "pyramiding", false, "same-direction signals refresh the time limit")
	root.Flags().Float64Var(&flagRiskPercent, "risk-percent", 0, "risk percent for percent sizing")
	_ = root.MarkFlagRequired("candles")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.JSONFormat)

	candles, err := loadCandles(flagCandles)
	if err != nil {
		return err
	}
	log.Info().Int("candles", len(candles)).Str("file", flagCandles).Msg("candles loaded")

	symbol := flagSymbol
	if symbol == "" {
		symbol = cfg.Trading.DefaultInstrument
	}
	btCfg, err := buildConfig(cfg, symbol)
	if err != nil {
		return err
	}

	var signals []*strategy.Signal
	if flagSignals != "" {
		signals, err = loadSignals(flagSignals)
		if err != nil {
			return err
		}
		log.Info().Int("signals", len(signals)).Str("file", flagSignals).Msg("signals loaded")
	} else {
		signals = generateSignals(candles, cfg, log)
		log.Info().Int("signals", len(signals)).Msg("signals generated from live pipeline")
	}

	engine, err := backtest.New(btCfg, log)
	if err != nil {
		return err
	}
	result, err := engine.Run(candles, signals)
	if err != nil {
		return err
	}

	backtest.WriteReport(os.Stdout, result)
	return nil
}

// buildConfig merges the engine config with command-line overrides.
func buildConfig(cfg *config.Config, symbol string) (backtest.Config, error) {
	spec := cfg.InstrumentFor(symbol)
	bt := backtest.Config{
		Symbol:                symbol,
		StartingCapital:       cfg.Backtest.StartingCapital,
		SizingMode:            backtest.SizingMode(cfg.Backtest.SizingMode),
		FixedContracts:        cfg.Backtest.FixedContracts,
		RiskPercent:           cfg.Backtest.RiskPercent,
		MaxContracts:          cfg.Trading.MaxContracts,
		TickSize:              spec.TickSize,
		PointValue:            spec.PointValue,
		MarginPerContract:     spec.MarginPerContract,
		CommissionPerContract: cfg.Backtest.CommissionPerContract,
		SlippageTicks:         cfg.Backtest.SlippageTicks,
		AllowPyramiding:       cfg.Backtest.AllowPyramiding || flagPyramiding,
	}

	if flagCapital > 0 {
		bt.StartingCapital = flagCapital
	}
	if flagSizing != "" {
		bt.SizingMode = backtest.SizingMode(flagSizing)
	}
	if flagMaxCon > 0 {
		bt.MaxContracts = flagMaxCon
	}
	if flagRiskPercent > 0 {
		bt.RiskPercent = flagRiskPercent
	}

	var err error
	if bt.StartDate, err = parseDate(flagStart); err != nil {
		return bt, err
	}
	if bt.EndDate, err = parseDate(flagEnd); err != nil {
		return bt, err
	}
	if !bt.EndDate.IsZero() {
		// Make the end date inclusive of its whole day.
		bt.EndDate = bt.EndDate.Add(24*time.Hour - time.Nanosecond)
	}
	return bt, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
