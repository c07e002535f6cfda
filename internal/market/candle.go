package market

import (
	"fmt"
	"time"
)

// Candle represents a single OHLCV bar. Candles are produced externally and
// treated as immutable; series passed into the core must be strictly ordered
// by time with no duplicates.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range returns the full high-to-low range of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// UpperWick returns the distance from the top of the body to the high.
func (c Candle) UpperWick() float64 {
	if c.Close >= c.Open {
		return c.High - c.Close
	}
	return c.High - c.Open
}

// LowerWick returns the distance from the bottom of the body to the low.
func (c Candle) LowerWick() float64 {
	if c.Close >= c.Open {
		return c.Open - c.Low
	}
	return c.Close - c.Low
}

// Validate checks ordering and duplicate constraints on a candle series.
func Validate(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return fmt.Errorf("candle series not strictly ordered at index %d (%s followed by %s)",
				i, candles[i-1].Time.Format(time.RFC3339), candles[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// HighestHigh returns the highest high over the last n candles.
func HighestHigh(candles []Candle, n int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if n > len(candles) {
		n = len(candles)
	}
	highest := candles[len(candles)-n].High
	for _, c := range candles[len(candles)-n:] {
		if c.High > highest {
			highest = c.High
		}
	}
	return highest
}

// LowestLow returns the lowest low over the last n candles.
func LowestLow(candles []Candle, n int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if n > len(candles) {
		n = len(candles)
	}
	lowest := candles[len(candles)-n].Low
	for _, c := range candles[len(candles)-n:] {
		if c.Low < lowest {
			lowest = c.Low
		}
	}
	return lowest
}

// Resample aggregates candles into a higher timeframe. Partial trailing
// buckets are included so the latest bias reflects the most recent data.
func Resample(candles []Candle, interval time.Duration) []Candle {
	if len(candles) == 0 || interval <= 0 {
		return nil
	}
	var out []Candle
	var cur *Candle
	var bucket time.Time
	for _, c := range candles {
		b := c.Time.Truncate(interval)
		if cur == nil || !b.Equal(bucket) {
			if cur != nil {
				out = append(out, *cur)
			}
			bucket = b
			cc := c
			cc.Time = b
			cur = &cc
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}
