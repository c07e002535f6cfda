package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, "ES", cfg.Trading.DefaultInstrument)
	assert.Equal(t, 50.0, cfg.Instruments["ES"].PointValue)
	assert.Equal(t, 0.25, cfg.Instruments["ES"].TickSize)
	assert.Positive(t, cfg.Backtest.StartingCapital)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Trading.DefaultInstrument, cfg.Trading.DefaultInstrument)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
trading:
  default_instrument: NQ
  max_contracts: 3
backtest:
  starting_capital: 25000
  sizing_mode: percent
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "NQ", cfg.Trading.DefaultInstrument)
	assert.Equal(t, 3, cfg.Trading.MaxContracts)
	assert.Equal(t, 25000.0, cfg.Backtest.StartingCapital)
	assert.Equal(t, "percent", cfg.Backtest.SizingMode)
	// untouched sections keep their defaults
	assert.Equal(t, 4.37, cfg.Backtest.CommissionPerContract)
}

func TestLoadRejectsUnknownInstrument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trading:\n  default_instrument: ZB\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEFAULT_INSTRUMENT", "MES")
	t.Setenv("MAX_CONTRACTS", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "MES", cfg.Trading.DefaultInstrument)
	assert.Equal(t, 2, cfg.Trading.MaxContracts)
}

func TestInstrumentFallback(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Instruments["ES"], cfg.InstrumentFor("UNKNOWN"))
	assert.Equal(t, cfg.Instruments["MNQ"], cfg.InstrumentFor("MNQ"))
}
