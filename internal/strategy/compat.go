package strategy

import (
	"prop-trading-engine/internal/regime"
)

// compatibleRegimes is the single source of truth for which regimes each
// strategy may trade in. Detectors gate through Compatible and the quality
// scorer scores regime fit from the same table.
var compatibleRegimes = map[Kind][]regime.Regime{
	KindBOSContinuation: {
		regime.TrendingUpStrong, regime.TrendingUpWeak,
		regime.TrendingDownStrong, regime.TrendingDownWeak,
	},
	// CHoCH additionally requires trendStrength > 40 and a prior sweep;
	// those gates live in the detector.
	KindCHoCHReversal: {
		regime.TrendingUpStrong, regime.TrendingUpWeak,
		regime.TrendingDownStrong, regime.TrendingDownWeak,
		regime.HighVolatility,
	},
	KindFailedBreakout: {
		regime.RangeTight, regime.RangeWide, regime.LowVolatility,
	},
	KindLiquiditySweep: {
		regime.TrendingUpStrong, regime.TrendingUpWeak,
		regime.TrendingDownStrong, regime.TrendingDownWeak,
		regime.RangeTight, regime.RangeWide,
		regime.HighVolatility, regime.LowVolatility,
	},
	KindSessionReversion: {
		regime.TrendingUpWeak, regime.TrendingDownWeak,
		regime.RangeTight, regime.RangeWide,
		regime.HighVolatility, regime.LowVolatility,
	},
	KindTrendPullback: {
		regime.TrendingUpStrong, regime.TrendingUpWeak,
		regime.TrendingDownStrong, regime.TrendingDownWeak,
	},
	KindVolatilityBreakout: {
		regime.RangeTight, regime.RangeWide, regime.LowVolatility,
	},
	KindVWAPReversion: {
		regime.TrendingUpWeak, regime.TrendingDownWeak,
		regime.RangeTight, regime.RangeWide,
		regime.HighVolatility, regime.LowVolatility,
	},
	KindRangeFade: {
		regime.RangeTight, regime.RangeWide,
	},
	KindOpeningRange: {
		regime.TrendingUpStrong, regime.TrendingUpWeak,
		regime.TrendingDownStrong, regime.TrendingDownWeak,
		regime.RangeTight, regime.RangeWide,
		regime.HighVolatility, regime.LowVolatility,
	},
	KindKillZone: {
		regime.TrendingUpWeak, regime.TrendingDownWeak,
		regime.RangeTight, regime.RangeWide,
		regime.HighVolatility, regime.LowVolatility,
	},
}

// Compatible reports whether the strategy may trade in the given regime.
func Compatible(kind Kind, r regime.Regime) bool {
	for _, cr := range compatibleRegimes[kind] {
		if cr == r {
			return true
		}
	}
	return false
}

// CompatibleRegimes returns the regimes a strategy may trade in.
func CompatibleRegimes(kind Kind) []regime.Regime {
	return compatibleRegimes[kind]
}

// AllRegimes lists every classifiable regime, for property testing against
// the compatibility table.
func AllRegimes() []regime.Regime {
	return []regime.Regime{
		regime.TrendingUpStrong, regime.TrendingUpWeak,
		regime.TrendingDownStrong, regime.TrendingDownWeak,
		regime.RangeTight, regime.RangeWide,
		regime.HighVolatility, regime.LowVolatility,
		regime.NewsDriven, regime.Illiquid,
	}
}
