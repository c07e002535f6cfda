package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"prop-trading-engine/internal/market"
	"prop-trading-engine/internal/strategy"
)

// loadCandles reads an OHLCV CSV file. Expected columns are
// time,open,high,low,close,volume with an optional header row. Timestamps
// may be RFC3339 or unix milliseconds.
func loadCandles(path string) ([]market.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var candles []market.Candle
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read candles: %w", err)
		}
		line++
		if len(rec) < 6 {
			return nil, fmt.Errorf("candles line %d: expected 6 columns, got %d", line, len(rec))
		}
		if line == 1 && isHeader(rec[0]) {
			continue
		}
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("candles line %d: %w", line, err)
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("candles line %d col %d: %w", line, i+2, err)
			}
			vals[i] = v
		}
		candles = append(candles, market.Candle{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	if err := market.Validate(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func isHeader(field string) bool {
	_, err := parseTimestamp(field)
	return err != nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}

// signalRecord is the on-disk form of a recorded signal. Only the fields
// the engine consumes are required; scoring context is optional.
type signalRecord struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Kind       string    `json:"kind"`
	Direction  string    `json:"direction"`
	Confidence float64   `json:"confidence"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	StopType   string    `json:"stop_type"`
	Targets    []struct {
		Price         float64 `json:"price"`
		PercentToExit float64 `json:"percent_to_exit"`
		Type          string  `json:"type"`
	} `json:"targets"`
	TimeLimitBars int `json:"time_limit_bars"`
}

// loadSignals reads a JSON array of recorded signals.
func loadSignals(path string) ([]*strategy.Signal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open signals: %w", err)
	}
	var records []signalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse signals: %w", err)
	}

	signals := make([]*strategy.Signal, 0, len(records))
	for i, rec := range records {
		if rec.Time.IsZero() {
			return nil, fmt.Errorf("signal %d: missing time", i)
		}
		dir := strategy.Direction(rec.Direction)
		if dir != strategy.Long && dir != strategy.Short {
			return nil, fmt.Errorf("signal %d: invalid direction %q", i, rec.Direction)
		}
		sig := &strategy.Signal{
			ID:            rec.ID,
			Time:          rec.Time,
			Kind:          strategy.Kind(rec.Kind),
			Direction:     dir,
			Confidence:    rec.Confidence,
			Entry:         strategy.Entry{Price: rec.Entry, Type: strategy.EntryMarket},
			StopLoss:      strategy.Stop{Price: rec.StopLoss, Type: strategy.StopType(rec.StopType)},
			TimeLimitBars: rec.TimeLimitBars,
		}
		for _, t := range rec.Targets {
			sig.Targets = append(sig.Targets, strategy.Target{
				Price:         t.Price,
				PercentToExit: t.PercentToExit,
				Type:          strategy.TargetType(t.Type),
			})
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
