package structure

import (
	"time"

	"prop-trading-engine/internal/market"
)

// Trend labels the structural direction of a candle window.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendRanging Trend = "ranging"
)

// SwingPoint is a confirmed swing high or low.
type SwingPoint struct {
	Price float64
	Index int
	Time  time.Time
}

// Context summarizes the market structure of a candle window.
type Context struct {
	Trend         Trend
	LastSwingHigh float64
	LastSwingLow  float64
	HasHH         bool
	HasHL         bool
	HasLH         bool
	HasLL         bool
}

// PoolKind distinguishes resting-liquidity cluster types.
type PoolKind string

const (
	EqualHighs PoolKind = "equal_highs"
	EqualLows  PoolKind = "equal_lows"
)

// LiquidityPool is a cluster of equal highs or lows where resting stops
// accumulate. Swept is set once a later bar trades through the level.
type LiquidityPool struct {
	Level       float64
	Kind        PoolKind
	Touches     int
	Swept       bool
	SweepIndex  int     // bar index of the sweep, -1 if not swept
	Penetration float64 // how far the sweep traded beyond the level
}

// Analyzer detects swing structure and liquidity pools.
type Analyzer struct {
	lookback  int     // fractal half-window for swing confirmation
	tolerance float64 // pool clustering tolerance as a fraction of ATR
}

// NewAnalyzer returns an analyzer with the given fractal lookback.
func NewAnalyzer(lookback int) *Analyzer {
	if lookback <= 0 {
		lookback = 3
	}
	return &Analyzer{lookback: lookback, tolerance: 0.25}
}

// SwingHighs returns confirmed swing highs: bars whose high exceeds every
// high within lookback bars on both sides. Ties break to the earlier bar,
// so a flat top still confirms one swing instead of none.
func (a *Analyzer) SwingHighs(candles []market.Candle) []SwingPoint {
	var swings []SwingPoint
	for i := a.lookback; i < len(candles)-a.lookback; i++ {
		high := candles[i].High
		isSwing := true
		for j := i - a.lookback; j <= i+a.lookback; j++ {
			if j == i {
				continue
			}
			if (j < i && candles[j].High >= high) || (j > i && candles[j].High > high) {
				isSwing = false
				break
			}
		}
		if isSwing {
			swings = append(swings, SwingPoint{Price: high, Index: i, Time: candles[i].Time})
		}
	}
	return swings
}

// SwingLows returns confirmed swing lows.
func (a *Analyzer) SwingLows(candles []market.Candle) []SwingPoint {
	var swings []SwingPoint
	for i := a.lookback; i < len(candles)-a.lookback; i++ {
		low := candles[i].Low
		isSwing := true
		for j := i - a.lookback; j <= i+a.lookback; j++ {
			if j == i {
				continue
			}
			if (j < i && candles[j].Low <= low) || (j > i && candles[j].Low < low) {
				isSwing = false
				break
			}
		}
		if isSwing {
			swings = append(swings, SwingPoint{Price: low, Index: i, Time: candles[i].Time})
		}
	}
	return swings
}

// Analyze builds the structure context for a candle window. Windows too
// short for swing confirmation yield a ranging context with zero levels.
func (a *Analyzer) Analyze(candles []market.Candle) Context {
	ctx := Context{Trend: TrendRanging}
	if len(candles) < a.lookback*2+1 {
		return ctx
	}

	highs := a.SwingHighs(candles)
	lows := a.SwingLows(candles)

	if n := len(highs); n > 0 {
		ctx.LastSwingHigh = highs[n-1].Price
		if n > 1 {
			ctx.HasHH = highs[n-1].Price > highs[n-2].Price
			ctx.HasLH = highs[n-1].Price < highs[n-2].Price
		}
	}
	if n := len(lows); n > 0 {
		ctx.LastSwingLow = lows[n-1].Price
		if n > 1 {
			ctx.HasHL = lows[n-1].Price > lows[n-2].Price
			ctx.HasLL = lows[n-1].Price < lows[n-2].Price
		}
	}

	switch {
	case ctx.HasHH && ctx.HasHL:
		ctx.Trend = TrendBullish
	case ctx.HasLH && ctx.HasLL:
		ctx.Trend = TrendBearish
	}
	return ctx
}

// LiquidityPools clusters swing highs and lows that sit within an ATR-scaled
// tolerance of each other, then marks pools swept when a later bar traded
// beyond the level.
func (a *Analyzer) LiquidityPools(candles []market.Candle, atr float64) []LiquidityPool {
	if atr <= 0 {
		return nil
	}
	tol := atr * a.tolerance

	var pools []LiquidityPool
	pools = append(pools, a.clusterPools(a.SwingHighs(candles), EqualHighs, tol)...)
	pools = append(pools, a.clusterPools(a.SwingLows(candles), EqualLows, tol)...)

	for p := range pools {
		pools[p].SweepIndex = -1
		last := lastTouch(pools[p], candles, tol)
		for i := last + 1; i < len(candles); i++ {
			var penetration float64
			if pools[p].Kind == EqualHighs {
				penetration = candles[i].High - pools[p].Level
			} else {
				penetration = pools[p].Level - candles[i].Low
			}
			if penetration > tol {
				pools[p].Swept = true
				pools[p].SweepIndex = i
				pools[p].Penetration = penetration
				break
			}
		}
	}
	return pools
}

// clusterPools groups swings whose prices fall within tol of each other.
// A pool needs at least two touches.
func (a *Analyzer) clusterPools(swings []SwingPoint, kind PoolKind, tol float64) []LiquidityPool {
	var pools []LiquidityPool
	used := make([]bool, len(swings))
	for i := range swings {
		if used[i] {
			continue
		}
		level := swings[i].Price
		touches := 1
		for j := i + 1; j < len(swings); j++ {
			if used[j] {
				continue
			}
			if diff := swings[j].Price - level; diff <= tol && diff >= -tol {
				// extreme of the cluster defines the pool level
				if (kind == EqualHighs && swings[j].Price > level) ||
					(kind == EqualLows && swings[j].Price < level) {
					level = swings[j].Price
				}
				touches++
				used[j] = true
			}
		}
		if touches >= 2 {
			pools = append(pools, LiquidityPool{Level: level, Kind: kind, Touches: touches})
		}
	}
	return pools
}

// lastTouch returns the last bar index that traded at the pool level, so a
// sweep is only counted after the pool finished forming.
func lastTouch(p LiquidityPool, candles []market.Candle, tol float64) int {
	last := 0
	for i, c := range candles {
		if p.Kind == EqualHighs {
			if c.High >= p.Level-tol && c.High <= p.Level+tol {
				last = i
			}
		} else {
			if c.Low >= p.Level-tol && c.Low <= p.Level+tol {
				last = i
			}
		}
	}
	return last
}
