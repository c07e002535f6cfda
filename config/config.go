package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the engine configuration, loaded from a YAML file with
// environment-variable overrides for deployment-specific settings.
type Config struct {
	Logging     LoggingConfig         `yaml:"logging"`
	Trading     TradingConfig         `yaml:"trading"`
	Backtest    BacktestConfig        `yaml:"backtest"`
	Instruments map[string]Instrument `yaml:"instruments"`
}

// LoggingConfig controls process logging.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // DEBUG, INFO, WARN, ERROR
	JSONFormat bool   `yaml:"json_format"` // structured output for shipping
}

// TradingConfig holds the account safety settings for live decisioning.
type TradingConfig struct {
	DefaultInstrument       string  `yaml:"default_instrument"`
	MaxContracts            int     `yaml:"max_contracts"`
	MaxDailyLoss            float64 `yaml:"max_daily_loss"`
	AutoStopDrawdownPercent float64 `yaml:"auto_stop_drawdown_percent"`
	TrailingDrawdownLimit   float64 `yaml:"trailing_drawdown_limit"`
}

// BacktestConfig holds the default backtest run parameters.
type BacktestConfig struct {
	StartingCapital       float64 `yaml:"starting_capital"`
	SizingMode            string  `yaml:"sizing_mode"` // fixed, percent, kelly
	FixedContracts        int     `yaml:"fixed_contracts"`
	RiskPercent           float64 `yaml:"risk_percent"`
	CommissionPerContract float64 `yaml:"commission_per_contract"`
	SlippageTicks         int     `yaml:"slippage_ticks"`
	AllowPyramiding       bool    `yaml:"allow_pyramiding"`
}

// Instrument is the contract specification of one tradeable symbol.
type Instrument struct {
	TickSize          float64 `yaml:"tick_size"`
	PointValue        float64 `yaml:"point_value"`
	MarginPerContract float64 `yaml:"margin_per_contract"`
}

// Default returns the configuration used when no file is supplied: CME
// index futures with ES as the working instrument.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO"},
		Trading: TradingConfig{
			DefaultInstrument:       "ES",
			MaxContracts:            5,
			MaxDailyLoss:            1500,
			AutoStopDrawdownPercent: 80,
			TrailingDrawdownLimit:   5000,
		},
		Backtest: BacktestConfig{
			StartingCapital:       150000,
			SizingMode:            "fixed",
			FixedContracts:        1,
			RiskPercent:           1,
			CommissionPerContract: 4.37,
			SlippageTicks:         1,
		},
		Instruments: map[string]Instrument{
			"ES":  {TickSize: 0.25, PointValue: 50, MarginPerContract: 12000},
			"MES": {TickSize: 0.25, PointValue: 5, MarginPerContract: 1200},
			"NQ":  {TickSize: 0.25, PointValue: 20, MarginPerContract: 16000},
			"MNQ": {TickSize: 0.25, PointValue: 2, MarginPerContract: 1600},
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults for
// missing sections, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables on the loaded file.
func (c *Config) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DEFAULT_INSTRUMENT"); v != "" {
		c.Trading.DefaultInstrument = v
	}
	if v := os.Getenv("MAX_CONTRACTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Trading.MaxContracts = n
		}
	}
	if v := os.Getenv("MAX_DAILY_LOSS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Trading.MaxDailyLoss = f
		}
	}
}

func (c *Config) validate() error {
	if _, ok := c.Instruments[c.Trading.DefaultInstrument]; !ok {
		return fmt.Errorf("config: default instrument %q has no instrument spec", c.Trading.DefaultInstrument)
	}
	if c.Backtest.StartingCapital <= 0 {
		return fmt.Errorf("config: starting capital must be positive")
	}
	return nil
}

// InstrumentFor returns the contract spec for a symbol, falling back to the
// default instrument's spec for unknown symbols.
func (c *Config) InstrumentFor(symbol string) Instrument {
	if spec, ok := c.Instruments[symbol]; ok {
		return spec
	}
	return c.Instruments[c.Trading.DefaultInstrument]
}
