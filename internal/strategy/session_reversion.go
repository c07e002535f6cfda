package strategy

// SessionExtremeReversion fades an overextension beyond the NY session
// extreme: price stretches at least half an ATR past the session high or
// low, then closes back inside the session range.
type SessionExtremeReversion struct{}

func (d *SessionExtremeReversion) Kind() Kind { return KindSessionReversion }

func (d *SessionExtremeReversion) Detect(ctx Context) *Signal {
	if !gate(d.Kind(), ctx) {
		return nil
	}
	if ctx.Regime.TrendStrength > 60 {
		return nil
	}

	last := ctx.last()
	if !sessionOf(last).IsNY() {
		return nil
	}

	hi, lo := ctx.SessionLevels.NYHigh, ctx.SessionLevels.NYLow
	if hi <= lo || hi == 0 {
		return nil
	}
	mid := (hi + lo) / 2

	var dir Direction
	var overextension float64
	switch {
	case last.High >= hi+0.5*ctx.ATR && last.Close < hi:
		dir, overextension = Short, last.High
	case last.Low <= lo-0.5*ctx.ATR && last.Close > lo:
		dir, overextension = Long, last.Low
	default:
		return nil
	}

	entry := last.Close
	if (dir == Short && entry <= mid) || (dir == Long && entry >= mid) {
		return nil
	}

	var stop float64
	targets := make([]Target, 0, 2)
	if dir == Short {
		stop = overextension + 0.25*ctx.ATR
		targets = append(targets,
			Target{Price: mid, PercentToExit: 50, Type: TargetSessionMid},
			Target{Price: lo, PercentToExit: 50, Type: TargetRangeLevel})
	} else {
		stop = overextension - 0.25*ctx.ATR
		targets = append(targets,
			Target{Price: mid, PercentToExit: 50, Type: TargetSessionMid},
			Target{Price: hi, PercentToExit: 50, Type: TargetRangeLevel})
	}

	volume := volumeConfirmed(ctx.Candles)
	score := buildScore(45, false, ctx.Bias.Agrees(dir), volume, false)

	final := targets[len(targets)-1].Price
	return &Signal{
		ID:           newSignalID(),
		Time:         last.Time,
		Kind:         d.Kind(),
		Direction:    dir,
		Confidence:   score,
		QualityScore: score,
		Entry:        Entry{Price: entry, Type: EntryMarket},
		StopLoss:     Stop{Price: stop, Type: StopStructure},
		Targets:      targets,
		Invalidations: []string{
			"close beyond the overextension",
			"trend strength rising above 60",
		},
		TimeLimitBars: 40,
		Meta: Meta{
			Regime:          ctx.Regime.Regime,
			HTFBias:         ctx.Bias,
			Session:         sessionOf(last),
			VolumeConfirmed: volume,
			Structure:       describeStructure(ctx.Structure),
			RiskReward:      riskReward(dir, entry, stop, final),
			ExpectedWinRate: 60,
		},
	}
}
