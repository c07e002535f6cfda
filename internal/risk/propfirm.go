// Package risk implements the prop-firm account circuit breaker: a pure
// function of externally supplied account facts that yields a trade gate
// and a position-size multiplier. The engine holds no account state of its
// own; callers pass a fresh snapshot per evaluation.
package risk

// Level grades how much of the trailing drawdown buffer has been consumed.
type Level string

const (
	LevelSafe    Level = "safe"
	LevelCaution Level = "caution"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
	LevelStopped Level = "stopped"
)

// AccountFacts is the externally supplied account snapshot.
type AccountFacts struct {
	Balance               float64
	StartingBalance       float64
	TrailingDrawdownLimit float64
	DailyPnL              float64
	ConsecutiveLosses     int
	DailyTradeCount       int
}

// State is the evaluated risk posture. Recomputed each evaluation; never
// persisted.
type State struct {
	Balance               float64
	StartingBalance       float64
	TrailingDrawdownLimit float64
	CurrentDrawdown       float64
	DrawdownPercentUsed   float64
	DailyPnL              float64
	ConsecutiveLosses     int
	DailyTradeCount       int
	CanTrade              bool
	RiskLevel             Level
	SizeMultiplier        float64
	Recommendation        string
}

// Trailing-drawdown grading thresholds (percent of the buffer consumed).
const (
	stoppedPercent = 90
	dangerPercent  = 75
	warningPercent = 50
	cautionPercent = 30
)

// Daily hard blocks, independent of the drawdown grade.
const (
	maxDailyTrades     = 10
	dailyLossLimitFrac = 0.20 // of the trailing drawdown limit
)

// Evaluate grades the account posture. It never fails: malformed input
// resolves to the most conservative state (stopped, blocked).
func Evaluate(f AccountFacts) State {
	s := State{
		Balance:               f.Balance,
		StartingBalance:       f.StartingBalance,
		TrailingDrawdownLimit: f.TrailingDrawdownLimit,
		DailyPnL:              f.DailyPnL,
		ConsecutiveLosses:     f.ConsecutiveLosses,
		DailyTradeCount:       f.DailyTradeCount,
	}

	if f.TrailingDrawdownLimit <= 0 || f.StartingBalance <= 0 || f.Balance <= 0 {
		s.RiskLevel = LevelStopped
		s.SizeMultiplier = 0
		s.CanTrade = false
		s.Recommendation = "account facts malformed; trading halted"
		return s
	}

	// Trailing-threshold model: the buffer runs from the trailing threshold
	// up to the high-water balance.
	drawdown := f.StartingBalance + f.TrailingDrawdownLimit - f.Balance
	if drawdown < 0 {
		drawdown = 0
	}
	s.CurrentDrawdown = drawdown
	s.DrawdownPercentUsed = drawdown / f.TrailingDrawdownLimit * 100

	switch {
	case s.DrawdownPercentUsed >= stoppedPercent:
		s.RiskLevel = LevelStopped
		s.SizeMultiplier = 0
		s.Recommendation = "drawdown buffer nearly exhausted; stop trading"
	case s.DrawdownPercentUsed >= dangerPercent:
		s.RiskLevel = LevelDanger
		s.SizeMultiplier = 0.25
		s.Recommendation = "deep in the drawdown buffer; quarter size only"
	case s.DrawdownPercentUsed >= warningPercent:
		s.RiskLevel = LevelWarning
		s.SizeMultiplier = 0.5
		s.Recommendation = "half the buffer consumed; reduce size"
	case s.DrawdownPercentUsed >= cautionPercent:
		s.RiskLevel = LevelCaution
		s.SizeMultiplier = 0.75
		s.Recommendation = "drawdown building; trade selectively"
	default:
		s.RiskLevel = LevelSafe
		s.SizeMultiplier = 1.0
		s.Recommendation = "normal sizing"
	}

	// Consecutive-loss decay compounds with the drawdown multiplier.
	switch {
	case f.ConsecutiveLosses >= 3:
		s.SizeMultiplier *= 0.5
		s.Recommendation = "losing streak; size cut in half"
	case f.ConsecutiveLosses == 2:
		s.SizeMultiplier *= 0.75
	}

	s.CanTrade = s.RiskLevel != LevelStopped

	// Hard blocks independent of the drawdown grade.
	if f.DailyPnL <= -dailyLossLimitFrac*f.TrailingDrawdownLimit {
		s.CanTrade = false
		s.Recommendation = "daily loss limit reached; done for the day"
	}
	if f.DailyTradeCount >= maxDailyTrades {
		s.CanTrade = false
		s.Recommendation = "daily trade count reached; done for the day"
	}

	return s
}
