package backtest

import (
	"math"
	"sort"
	"time"
)

// MonthlyStat is one row of the per-month performance table.
type MonthlyStat struct {
	Year          int
	Month         time.Month
	ReturnPercent float64
	NetPnL        float64
	Trades        int
}

// Result aggregates every closed trade of a run plus the equity curve and
// the derived performance ratios.
type Result struct {
	Config          Config
	StartingCapital float64
	FinalEquity     float64

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percent

	GrossProfit      float64
	GrossLoss        float64
	NetProfit        float64
	NetProfitPercent float64
	ProfitFactor     float64 // +Inf with zero losses and positive profit

	AverageWin   float64
	AverageLoss  float64
	AverageTrade float64
	LargestWin   float64
	LargestLoss  float64

	MaxDrawdown         float64 // dollars
	MaxDrawdownPercent  float64
	MaxDrawdownDuration time.Duration
	RecoveryFactor      float64

	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64
	Expectancy   float64
	PayoffRatio  float64

	LongestWinStreak      int
	LongestLossStreak     int
	AverageHoldingMinutes float64

	BestHour   int
	WorstHour  int
	HourlyPnL  map[int]float64
	WeekdayPnL map[time.Weekday]float64
	Monthly    []MonthlyStat

	Trades           []Trade
	EquityCurve      []EquityPoint
	UnmatchedSignals int
}

const annualizationFactor = 252

// computeMetrics derives every aggregate statistic from the trade ledger
// and equity curve. Degenerate denominators resolve to defined sentinels,
// never errors.
func (e *Engine) computeMetrics(r *Result) {
	r.TotalTrades = len(r.Trades)
	r.NetProfit = r.FinalEquity - r.StartingCapital
	r.NetProfitPercent = r.NetProfit / r.StartingCapital * 100

	var holdSum, winSum, lossSum float64
	winStreak, lossStreak := 0, 0
	r.HourlyPnL = make(map[int]float64)
	r.WeekdayPnL = make(map[time.Weekday]float64)

	for _, t := range r.Trades {
		// Gross aggregates stay commission-exclusive; win/loss stats and
		// the profit factor work on the net ledger.
		if t.GrossPnL > 0 {
			r.GrossProfit += t.GrossPnL
		} else {
			r.GrossLoss += -t.GrossPnL
		}
		if t.NetPnL > 0 {
			r.WinningTrades++
			winSum += t.NetPnL
			if t.NetPnL > r.LargestWin {
				r.LargestWin = t.NetPnL
			}
			winStreak++
			lossStreak = 0
			if winStreak > r.LongestWinStreak {
				r.LongestWinStreak = winStreak
			}
		} else {
			r.LosingTrades++
			lossSum += -t.NetPnL
			if t.NetPnL < r.LargestLoss {
				r.LargestLoss = t.NetPnL
			}
			lossStreak++
			winStreak = 0
			if lossStreak > r.LongestLossStreak {
				r.LongestLossStreak = lossStreak
			}
		}
		holdSum += t.HoldingMinutes
		r.HourlyPnL[t.EntryTime.Hour()] += t.NetPnL
		r.WeekdayPnL[t.EntryTime.Weekday()] += t.NetPnL
	}

	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
		r.AverageTrade = (winSum - lossSum) / float64(r.TotalTrades)
		r.Expectancy = r.AverageTrade
		r.AverageHoldingMinutes = holdSum / float64(r.TotalTrades)
	}
	if r.WinningTrades > 0 {
		r.AverageWin = winSum / float64(r.WinningTrades)
	}
	if r.LosingTrades > 0 {
		r.AverageLoss = lossSum / float64(r.LosingTrades)
	}
	if r.AverageLoss > 0 {
		r.PayoffRatio = r.AverageWin / r.AverageLoss
	}

	switch {
	case lossSum > 0:
		r.ProfitFactor = winSum / lossSum
	case winSum > 0:
		r.ProfitFactor = math.Inf(1)
	default:
		r.ProfitFactor = 0
	}

	r.MaxDrawdown, r.MaxDrawdownPercent, r.MaxDrawdownDuration = maxDrawdown(r.EquityCurve)
	if r.MaxDrawdown > 0 {
		r.RecoveryFactor = r.NetProfit / r.MaxDrawdown
	}

	daily := dailyReturns(r.EquityCurve)
	r.SharpeRatio = sharpe(daily)
	r.SortinoRatio = sortino(daily)
	r.CalmarRatio = e.calmar(r)

	r.BestHour, r.WorstHour = extremeHours(r.HourlyPnL)
	r.Monthly = monthlyTable(r.Trades, r.StartingCapital)
}

// maxDrawdown walks the equity curve for the deepest dollar drawdown, its
// percentage, and the longest stretch spent below a prior peak.
func maxDrawdown(curve []EquityPoint) (dollars, percent float64, duration time.Duration) {
	if len(curve) == 0 {
		return 0, 0, 0
	}
	peak := curve[0].Equity
	peakTime := curve[0].Time
	for _, p := range curve {
		if p.Equity >= peak {
			peak = p.Equity
			peakTime = p.Time
			continue
		}
		dd := peak - p.Equity
		if dd > dollars {
			dollars = dd
			if peak > 0 {
				percent = dd / peak * 100
			}
		}
		if underwater := p.Time.Sub(peakTime); underwater > duration {
			duration = underwater
		}
	}
	return dollars, percent, duration
}

// dailyReturns buckets the equity curve by calendar day and returns the
// day-over-day returns of the closing equity.
func dailyReturns(curve []EquityPoint) []float64 {
	if len(curve) == 0 {
		return nil
	}
	type dayEquity struct {
		day    string
		equity float64
	}
	var days []dayEquity
	for _, p := range curve {
		day := p.Time.Format("2006-01-02")
		if len(days) > 0 && days[len(days)-1].day == day {
			days[len(days)-1].equity = p.Equity
			continue
		}
		days = append(days, dayEquity{day: day, equity: p.Equity})
	}
	var returns []float64
	for i := 1; i < len(days); i++ {
		if days[i-1].equity != 0 {
			returns = append(returns, days[i].equity/days[i-1].equity-1)
		}
	}
	return returns
}

func sharpe(returns []float64) float64 {
	mean, sd := meanStddev(returns)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(annualizationFactor)
}

func sortino(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean, _ := meanStddev(returns)
	var downside float64
	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}
	sd := math.Sqrt(downside / float64(len(returns)))
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(annualizationFactor)
}

// calmar is the annualized return over the maximum drawdown percentage.
func (e *Engine) calmar(r *Result) float64 {
	if r.MaxDrawdownPercent == 0 || len(r.EquityCurve) < 2 {
		return 0
	}
	span := r.EquityCurve[len(r.EquityCurve)-1].Time.Sub(r.EquityCurve[0].Time)
	years := span.Hours() / (24 * 365)
	if years <= 0 {
		return 0
	}
	annualized := r.NetProfitPercent / years
	return annualized / r.MaxDrawdownPercent
}

func meanStddev(values []float64) (mean, sd float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	sd = math.Sqrt(variance / float64(len(values)))
	return mean, sd
}

// extremeHours returns the entry hours with the highest and lowest summed
// P&L. Both are -1 when no trades exist.
func extremeHours(hourly map[int]float64) (best, worst int) {
	best, worst = -1, -1
	bestPnL, worstPnL := math.Inf(-1), math.Inf(1)
	// deterministic iteration
	hours := make([]int, 0, len(hourly))
	for h := range hourly {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	for _, h := range hours {
		if hourly[h] > bestPnL {
			best, bestPnL = h, hourly[h]
		}
		if hourly[h] < worstPnL {
			worst, worstPnL = h, hourly[h]
		}
	}
	return best, worst
}

// monthlyTable aggregates net P&L and trade counts per calendar month, in
// chronological order, with returns relative to the equity entering the
// month.
func monthlyTable(trades []Trade, startingCapital float64) []MonthlyStat {
	if len(trades) == 0 {
		return nil
	}
	type key struct {
		year  int
		month time.Month
	}
	agg := make(map[key]*MonthlyStat)
	var keys []key
	for _, t := range trades {
		k := key{t.ExitTime.Year(), t.ExitTime.Month()}
		if _, seen := agg[k]; !seen {
			agg[k] = &MonthlyStat{Year: k.year, Month: k.month}
			keys = append(keys, k)
		}
		agg[k].NetPnL += t.NetPnL
		agg[k].Trades++
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]MonthlyStat, 0, len(keys))
	equity := startingCapital
	for _, k := range keys {
		m := *agg[k]
		if equity > 0 {
			m.ReturnPercent = m.NetPnL / equity * 100
		}
		equity += m.NetPnL
		out = append(out, m)
	}
	return out
}
