package indicators

import (
	"prop-trading-engine/internal/market"
)

// Streaming indicator state with O(1) per-bar updates. The batch functions in
// this package are built on these, and the backtest signal-generation loop
// carries them across bars instead of recomputing over a growing slice.

// StreamEMA is an incrementally updated exponential moving average.
type StreamEMA struct {
	period int
	mult   float64
	value  float64
	seed   float64
	count  int
}

// NewStreamEMA returns a streaming EMA seeded with an SMA of the first
// period values.
func NewStreamEMA(period int) *StreamEMA {
	return &StreamEMA{period: period, mult: 2.0 / float64(period+1)}
}

// Update folds in the next value and returns the current EMA.
func (e *StreamEMA) Update(v float64) float64 {
	e.count++
	if e.count <= e.period {
		e.seed += v
		e.value = e.seed / float64(e.count)
		return e.value
	}
	e.value = v*e.mult + e.value*(1-e.mult)
	return e.value
}

// Value returns the current EMA.
func (e *StreamEMA) Value() float64 { return e.value }

// Ready reports whether the EMA has seen a full seeding period.
func (e *StreamEMA) Ready() bool { return e.count >= e.period }

// StreamATR is an incrementally updated Wilder ATR.
type StreamATR struct {
	period    int
	value     float64
	sum       float64
	count     int
	prevClose float64
	hasPrev   bool
}

// NewStreamATR returns a streaming ATR over period bars.
func NewStreamATR(period int) *StreamATR {
	return &StreamATR{period: period}
}

// Update folds in the next candle and returns the current ATR.
func (a *StreamATR) Update(c market.Candle) float64 {
	if !a.hasPrev {
		a.prevClose = c.Close
		a.hasPrev = true
		return 0
	}
	tr := c.High - c.Low
	if hc := abs(c.High - a.prevClose); hc > tr {
		tr = hc
	}
	if lc := abs(c.Low - a.prevClose); lc > tr {
		tr = lc
	}
	a.prevClose = c.Close

	a.count++
	if a.count <= a.period {
		a.sum += tr
		a.value = a.sum / float64(a.count)
		return a.value
	}
	a.value = (a.value*float64(a.period-1) + tr) / float64(a.period)
	return a.value
}

// Value returns the current ATR.
func (a *StreamATR) Value() float64 { return a.value }

// Ready reports whether the ATR has a full period of true ranges.
func (a *StreamATR) Ready() bool { return a.count >= a.period }

// StreamRSI is an incrementally updated Wilder RSI.
type StreamRSI struct {
	period    int
	avgGain   float64
	avgLoss   float64
	count     int
	prevClose float64
	hasPrev   bool
}

// NewStreamRSI returns a streaming RSI over period bars.
func NewStreamRSI(period int) *StreamRSI {
	return &StreamRSI{period: period}
}

// Update folds in the next close and returns the current RSI.
func (r *StreamRSI) Update(close float64) float64 {
	if !r.hasPrev {
		r.prevClose = close
		r.hasPrev = true
		return 50
	}
	change := close - r.prevClose
	r.prevClose = close
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.count++
	if r.count <= r.period {
		r.avgGain += gain
		r.avgLoss += loss
		if r.count == r.period {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
		}
		return r.Value()
	}
	r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
	r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
	return r.Value()
}

// Value returns the current RSI, 50 until enough history has been seen.
func (r *StreamRSI) Value() float64 {
	if r.count < r.period {
		return 50
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// Ready reports whether the RSI has a full period of changes.
func (r *StreamRSI) Ready() bool { return r.count >= r.period }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
