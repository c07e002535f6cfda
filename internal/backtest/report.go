package backtest

import (
	"fmt"
	"io"
	"math"
	"time"
)

// WriteReport renders a human-readable performance summary of a run.
func WriteReport(w io.Writer, r *Result) {
	fmt.Fprintf(w, "=== BACKTEST RESULTS: %s ===\n", r.Config.Symbol)
	fmt.Fprintf(w, "Starting Capital: $%.2f\n", r.StartingCapital)
	fmt.Fprintf(w, "Final Equity:     $%.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Net Profit:       $%.2f (%.2f%%)\n", r.NetProfit, r.NetProfitPercent)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total Trades: %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Winners: %d (%.1f%%)  Losers: %d\n", r.WinningTrades, r.WinRate, r.LosingTrades)
	fmt.Fprintf(w, "Profit Factor: %s\n", formatRatio(r.ProfitFactor))
	fmt.Fprintf(w, "Expectancy: $%.2f per trade\n", r.Expectancy)
	fmt.Fprintf(w, "Average Win: $%.2f  Average Loss: $%.2f  Payoff: %.2f\n",
		r.AverageWin, r.AverageLoss, r.PayoffRatio)
	fmt.Fprintf(w, "Largest Win: $%.2f  Largest Loss: $%.2f\n", r.LargestWin, r.LargestLoss)
	fmt.Fprintf(w, "Longest Streaks: %d wins / %d losses\n", r.LongestWinStreak, r.LongestLossStreak)
	fmt.Fprintf(w, "Average Holding: %.1f minutes\n", r.AverageHoldingMinutes)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Max Drawdown: $%.2f (%.2f%%) over %s\n",
		r.MaxDrawdown, r.MaxDrawdownPercent, r.MaxDrawdownDuration.Round(time.Minute))
	fmt.Fprintf(w, "Recovery Factor: %.2f\n", r.RecoveryFactor)
	fmt.Fprintf(w, "Sharpe: %.2f  Sortino: %.2f  Calmar: %.2f\n",
		r.SharpeRatio, r.SortinoRatio, r.CalmarRatio)
	fmt.Fprintln(w)

	if r.BestHour >= 0 {
		fmt.Fprintf(w, "Best Hour: %02d:00 ($%.2f)  Worst Hour: %02d:00 ($%.2f)\n",
			r.BestHour, r.HourlyPnL[r.BestHour], r.WorstHour, r.HourlyPnL[r.WorstHour])
	}
	if len(r.WeekdayPnL) > 0 {
		fmt.Fprintln(w, "\n--- P&L BY WEEKDAY ---")
		for d := time.Monday; d <= time.Friday; d++ {
			if pnl, ok := r.WeekdayPnL[d]; ok {
				fmt.Fprintf(w, "%-10s $%.2f\n", d, pnl)
			}
		}
	}

	if len(r.Monthly) > 0 {
		fmt.Fprintln(w, "\n--- MONTHLY PERFORMANCE ---")
		for _, m := range r.Monthly {
			fmt.Fprintf(w, "%d-%02d  %+7.2f%%  $%10.2f  %4d trades\n",
				m.Year, m.Month, m.ReturnPercent, m.NetPnL, m.Trades)
		}
	}

	if r.UnmatchedSignals > 0 {
		fmt.Fprintf(w, "\nWARNING: %d signals matched no bar in range\n", r.UnmatchedSignals)
	}
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
