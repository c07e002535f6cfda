package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-trading-engine/internal/strategy"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCandlesRFC3339(t *testing.T) {
	path := writeFile(t, "candles.csv", `time,open,high,low,close,volume
2024-01-16T14:31:00Z,5000,5002,4998,5001,1200
2024-01-16T14:32:00Z,5001,5003,5000,5002,900
`)

	candles, err := loadCandles(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, time.Date(2024, 1, 16, 14, 31, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 5000.0, candles[0].Open)
	assert.Equal(t, 5002.0, candles[1].Close)
	assert.Equal(t, 900.0, candles[1].Volume)
}

func TestLoadCandlesUnixMillis(t *testing.T) {
	path := writeFile(t, "candles.csv", "1705415460000,5000,5002,4998,5001,1200\n")

	candles, err := loadCandles(path)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(1705415460000), candles[0].Time.UnixMilli())
}

func TestLoadCandlesRejectsBadRows(t *testing.T) {
	short := writeFile(t, "short.csv", "2024-01-16T14:31:00Z,5000,5002\n")
	_, err := loadCandles(short)
	assert.Error(t, err)

	badPrice := writeFile(t, "bad.csv", "2024-01-16T14:31:00Z,5000,oops,4998,5001,1200\n")
	_, err = loadCandles(badPrice)
	assert.Error(t, err)

	outOfOrder := writeFile(t, "order.csv", `2024-01-16T14:32:00Z,5000,5002,4998,5001,1200
2024-01-16T14:31:00Z,5000,5002,4998,5001,1200
`)
	_, err = loadCandles(outOfOrder)
	assert.Error(t, err)
}

func TestLoadSignals(t *testing.T) {
	path := writeFile(t, "signals.json", `[
  {
    "id": "sig-1",
    "time": "2024-01-16T14:35:00Z",
    "kind": "opening_range_breakout",
    "direction": "long",
    "confidence": 72,
    "entry": 5007,
    "stop_loss": 4999,
    "stop_type": "range",
    "targets": [
      {"price": 5010, "percent_to_exit": 50, "type": "range_level"},
      {"price": 5015, "percent_to_exit": 50, "type": "range_level"}
    ],
    "time_limit_bars": 90
  }
]`)

	signals, err := loadSignals(path)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, strategy.KindOpeningRange, sig.Kind)
	assert.Equal(t, strategy.Long, sig.Direction)
	assert.Equal(t, 5007.0, sig.Entry.Price)
	assert.Equal(t, 4999.0, sig.StopLoss.Price)
	require.Len(t, sig.Targets, 2)
	assert.Equal(t, 5015.0, sig.Targets[1].Price)
	assert.Equal(t, 90, sig.TimeLimitBars)
}

func TestLoadSignalsRejectsBadRecords(t *testing.T) {
	noTime := writeFile(t, "notime.json", `[{"direction": "long", "entry": 5000}]`)
	_, err := loadSignals(noTime)
	assert.Error(t, err)

	badDir := writeFile(t, "baddir.json", `[{"time": "2024-01-16T14:35:00Z", "direction": "sideways", "entry": 5000}]`)
	_, err = loadSignals(badDir)
	assert.Error(t, err)
}
