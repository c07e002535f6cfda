package backtest

import (
	"errors"
	"time"
)

// SizingMode selects how the engine sizes each entry.
type SizingMode string

const (
	SizingFixed   SizingMode = "fixed"
	SizingPercent SizingMode = "percent"
	SizingKelly   SizingMode = "kelly"
)

// Configuration validation failures. These are the only errors the engine
// raises; everything downstream resolves to defined sentinels instead.
var (
	ErrInvalidDateRange = errors.New("backtest: end date before start date")
	ErrInvalidCapital   = errors.New("backtest: starting capital must be positive")
	ErrNoCandles        = errors.New("backtest: candle series is empty")
	ErrInvalidSizing    = errors.New("backtest: unknown sizing mode")
)

// Config is the immutable parameter set of one backtest run.
type Config struct {
	Symbol          string
	StartDate       time.Time
	EndDate         time.Time
	StartingCapital float64
	SizingMode      SizingMode

	// fixed mode
	FixedContracts int
	// percent mode
	RiskPercent float64

	MaxContracts          int
	TickSize              float64 // price increment of the instrument
	PointValue            float64 // dollars per full point per contract
	MarginPerContract     float64 // intraday margin requirement
	CommissionPerContract float64 // round-trip, per contract
	SlippageTicks         int     // adverse ticks applied per fill

	AllowPyramiding bool // same-direction signals refresh the time limit
}

// withDefaults fills unset fields with ES-style defaults.
func (c Config) withDefaults() Config {
	if c.SizingMode == "" {
		c.SizingMode = SizingFixed
	}
	if c.FixedContracts <= 0 {
		c.FixedContracts = 1
	}
	if c.RiskPercent <= 0 {
		c.RiskPercent = 1
	}
	if c.MaxContracts <= 0 {
		c.MaxContracts = 5
	}
	if c.TickSize <= 0 {
		c.TickSize = 0.25
	}
	if c.PointValue <= 0 {
		c.PointValue = 50
	}
	if c.MarginPerContract <= 0 {
		c.MarginPerContract = 12000
	}
	return c
}

// Validate checks the config for structural errors. These are the caller's
// to correct; the engine refuses to run with them.
func (c Config) Validate() error {
	if !c.EndDate.IsZero() && !c.StartDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return ErrInvalidDateRange
	}
	if c.StartingCapital <= 0 {
		return ErrInvalidCapital
	}
	switch c.SizingMode {
	case "", SizingFixed, SizingPercent, SizingKelly:
	default:
		return ErrInvalidSizing
	}
	return nil
}
