package regime

// Regime labels the current market state.
type Regime string

const (
	TrendingUpStrong   Regime = "trending_up_strong"
	TrendingUpWeak     Regime = "trending_up_weak"
	TrendingDownStrong Regime = "trending_down_strong"
	TrendingDownWeak   Regime = "trending_down_weak"
	RangeTight         Regime = "range_tight"
	RangeWide          Regime = "range_wide"
	HighVolatility     Regime = "high_volatility"
	LowVolatility      Regime = "low_volatility"
	NewsDriven         Regime = "news_driven"
	Illiquid           Regime = "illiquid"
	Unknown            Regime = "unknown"
)

// IsTrending reports whether the regime is one of the four trend states.
func (r Regime) IsTrending() bool {
	switch r {
	case TrendingUpStrong, TrendingUpWeak, TrendingDownStrong, TrendingDownWeak:
		return true
	}
	return false
}

// IsUp reports whether the regime is an up trend.
func (r Regime) IsUp() bool {
	return r == TrendingUpStrong || r == TrendingUpWeak
}

// IsDown reports whether the regime is a down trend.
func (r Regime) IsDown() bool {
	return r == TrendingDownStrong || r == TrendingDownWeak
}

// IsStrongTrend reports whether the regime is a strong trend.
func (r Regime) IsStrongTrend() bool {
	return r == TrendingUpStrong || r == TrendingDownStrong
}

// IsRange reports whether the regime is a range state.
func (r Regime) IsRange() bool {
	return r == RangeTight || r == RangeWide
}

// TradingRecommendation is the aggressiveness guidance attached to a regime.
type TradingRecommendation string

const (
	Aggressive TradingRecommendation = "aggressive"
	Normal     TradingRecommendation = "normal"
	Defensive  TradingRecommendation = "defensive"
	NoTrade    TradingRecommendation = "no_trade"
)

// Analysis is the full classification output. Derived fresh per evaluation.
type Analysis struct {
	Regime               Regime
	Confidence           float64 // 0-100
	TrendStrength        float64 // 0-100
	VolatilityPercentile float64 // 0-100
	Recommendation       TradingRecommendation
}
