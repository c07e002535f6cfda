package market

import (
	"math"
	"time"
)

// Session identifies a futures trading session window (US Eastern time).
type Session string

const (
	SessionAsia        Session = "asia"         // 18:00 - 03:00 ET
	SessionLondon      Session = "london"       // 03:00 - 09:30 ET
	SessionNYOpen      Session = "ny_open"      // 09:30 - 10:30 ET
	SessionNYMorning   Session = "ny_morning"   // 10:30 - 12:00 ET
	SessionNYLunch     Session = "ny_lunch"     // 12:00 - 13:30 ET
	SessionNYAfternoon Session = "ny_afternoon" // 13:30 - 15:00 ET
	SessionNYClose     Session = "ny_close"     // 15:00 - 16:00 ET
	SessionOffHours    Session = "off_hours"    // 16:00 - 18:00 ET
)

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Fall back to a fixed offset when tzdata is unavailable.
		loc = time.FixedZone("ET", -5*60*60)
	}
	eastern = loc
}

// SessionOf returns the trading session containing t.
func SessionOf(t time.Time) Session {
	et := t.In(eastern)
	minutes := et.Hour()*60 + et.Minute()
	switch {
	case minutes >= 18*60 || minutes < 3*60:
		return SessionAsia
	case minutes < 9*60+30:
		return SessionLondon
	case minutes < 10*60+30:
		return SessionNYOpen
	case minutes < 12*60:
		return SessionNYMorning
	case minutes < 13*60+30:
		return SessionNYLunch
	case minutes < 15*60:
		return SessionNYAfternoon
	case minutes < 16*60:
		return SessionNYClose
	default:
		return SessionOffHours
	}
}

// IsNY reports whether the session falls inside the New York cash session.
func (s Session) IsNY() bool {
	switch s {
	case SessionNYOpen, SessionNYMorning, SessionNYLunch, SessionNYAfternoon, SessionNYClose:
		return true
	}
	return false
}

// SessionLevels carries the running high/low of each major session.
// Zero values mean the session has not traded yet.
type SessionLevels struct {
	AsiaHigh   float64
	AsiaLow    float64
	LondonHigh float64
	LondonLow  float64
	NYHigh     float64
	NYLow      float64
}

// OpeningRange is the high/low of the first 30 minutes of the NY session.
type OpeningRange struct {
	High   float64
	Low    float64
	Formed bool
}

// VWAPContext carries the current session VWAP and its standard deviation.
type VWAPContext struct {
	VWAP   float64
	StdDev float64
}

// Tracker accumulates session levels, the NY opening range, and a running
// session VWAP from a live candle feed. It resets when the trading day rolls
// over at the 18:00 ET futures open.
type Tracker struct {
	day    time.Time
	levels SessionLevels
	orb    OpeningRange

	// running VWAP over the current day
	sumPV  float64
	sumV   float64
	sumPV2 float64
}

// NewTracker returns an empty session tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update folds one candle into the tracker. Candles must arrive in order.
func (t *Tracker) Update(c Candle) {
	day := tradingDay(c.Time)
	if !day.Equal(t.day) {
		*t = Tracker{day: day}
	}

	s := SessionOf(c.Time)
	switch s {
	case SessionAsia:
		t.levels.AsiaHigh, t.levels.AsiaLow = extend(t.levels.AsiaHigh, t.levels.AsiaLow, c)
	case SessionLondon:
		t.levels.LondonHigh, t.levels.LondonLow = extend(t.levels.LondonHigh, t.levels.LondonLow, c)
	default:
		if s.IsNY() {
			t.levels.NYHigh, t.levels.NYLow = extend(t.levels.NYHigh, t.levels.NYLow, c)
		}
	}

	// Opening range: first 30 minutes of the NY session.
	if s == SessionNYOpen {
		et := c.Time.In(eastern)
		minutes := et.Hour()*60 + et.Minute()
		if minutes < 10*60 {
			if t.orb.High == 0 || c.High > t.orb.High {
				t.orb.High = c.High
			}
			if t.orb.Low == 0 || c.Low < t.orb.Low {
				t.orb.Low = c.Low
			}
		} else if t.orb.High > 0 {
			t.orb.Formed = true
		}
	} else if s.IsNY() && t.orb.High > 0 {
		t.orb.Formed = true
	}

	typical := (c.High + c.Low + c.Close) / 3
	t.sumPV += typical * c.Volume
	t.sumV += c.Volume
	t.sumPV2 += typical * typical * c.Volume
}

// Levels returns the accumulated session levels.
func (t *Tracker) Levels() SessionLevels { return t.levels }

// OpeningRange returns the NY opening range accumulated so far.
func (t *Tracker) OpeningRange() OpeningRange { return t.orb }

// VWAP returns the running session VWAP and volume-weighted deviation.
func (t *Tracker) VWAP() VWAPContext {
	if t.sumV == 0 {
		return VWAPContext{}
	}
	vwap := t.sumPV / t.sumV
	variance := t.sumPV2/t.sumV - vwap*vwap
	if variance < 0 {
		variance = 0
	}
	return VWAPContext{VWAP: vwap, StdDev: math.Sqrt(variance)}
}

func extend(high, low float64, c Candle) (float64, float64) {
	if high == 0 || c.High > high {
		high = c.High
	}
	if low == 0 || c.Low < low {
		low = c.Low
	}
	return high, low
}

// tradingDay maps a timestamp to its futures trading day, which opens at
// 18:00 ET the prior calendar day.
func tradingDay(ts time.Time) time.Time {
	et := ts.In(eastern)
	if et.Hour() >= 18 {
		et = et.AddDate(0, 0, 1)
	}
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, eastern)
}
