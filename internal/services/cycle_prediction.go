package services

import "time"

// DayWindow is an inclusive range of calendar days.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

func (window DayWindow) IsZero() bool {
	return window.Start.IsZero() || window.End.IsZero()
}

func (window DayWindow) Contains(day time.Time) bool {
	return betweenDaysInclusive(day, window.Start, window.End)
}

// CyclePredictor answers the per-day status questions for one user's locked
// history. It is immutable once built and safe to share between goroutines.
type CyclePredictor struct {
	config    CycleConfig
	location  *time.Location
	locked    map[string]bool
	anchor    time.Time
	ongoing   DayWindow
	predicted DayWindow
	ovulation DayWindow
}

func NewCyclePredictor(config CycleConfig, lockedDays []time.Time, location *time.Location) CyclePredictor {
	if location == nil {
		location = time.UTC
	}

	predictor := CyclePredictor{
		config:   ClampCycleConfig(config),
		location: location,
		locked:   make(map[string]bool, len(lockedDays)),
	}

	for _, day := range lockedDays {
		if day.IsZero() {
			continue
		}
		normalized := DateAtLocation(day, location)
		predictor.locked[normalized.Format(DayLayout)] = true
		if predictor.anchor.IsZero() || normalized.After(predictor.anchor) {
			predictor.anchor = normalized
		}
	}

	if predictor.anchor.IsZero() {
		return predictor
	}

	// Every boundary is an independent offset from the same anchor value.
	// The anchor is cycle day 1, so cycle day mid sits at offset mid-1.
	anchor := predictor.anchor
	nextStart := AddDays(anchor, predictor.config.CycleLength)
	midOffset := predictor.config.CycleLength/2 - 1

	predictor.ongoing = DayWindow{
		Start: anchor,
		End:   AddDays(anchor, predictor.config.PeriodLength-1),
	}
	predictor.predicted = DayWindow{
		Start: AddDays(nextStart, -1),
		End:   AddDays(nextStart, 1),
	}
	predictor.ovulation = DayWindow{
		Start: AddDays(anchor, midOffset-1),
		End:   AddDays(anchor, midOffset+1),
	}
	return predictor
}

func (predictor CyclePredictor) Config() CycleConfig {
	return predictor.config
}

// Anchor is the most recent locked day; ok is false without locked history.
func (predictor CyclePredictor) Anchor() (time.Time, bool) {
	return predictor.anchor, !predictor.anchor.IsZero()
}

func (predictor CyclePredictor) HasHistory() bool {
	return !predictor.anchor.IsZero()
}

func (predictor CyclePredictor) NextPeriodStart() time.Time {
	if predictor.anchor.IsZero() {
		return time.Time{}
	}
	return AddDays(predictor.anchor, predictor.config.CycleLength)
}

func (predictor CyclePredictor) OngoingWindow() DayWindow {
	return predictor.ongoing
}

func (predictor CyclePredictor) PredictedWindow() DayWindow {
	return predictor.predicted
}

func (predictor CyclePredictor) OvulationWindow() DayWindow {
	return predictor.ovulation
}

func (predictor CyclePredictor) IsLocked(day time.Time) bool {
	if day.IsZero() {
		return false
	}
	return predictor.locked[DayKey(day, predictor.location)]
}

func (predictor CyclePredictor) IsOngoingPeriod(day time.Time) bool {
	return predictor.windowContains(predictor.ongoing, day)
}

func (predictor CyclePredictor) IsPredicted(day time.Time) bool {
	return predictor.windowContains(predictor.predicted, day)
}

func (predictor CyclePredictor) IsOvulation(day time.Time) bool {
	return predictor.windowContains(predictor.ovulation, day)
}

func (predictor CyclePredictor) windowContains(window DayWindow, day time.Time) bool {
	if day.IsZero() || window.IsZero() {
		return false
	}
	return window.Contains(DateAtLocation(day, predictor.location))
}

// LockedRuns groups the locked days into runs of consecutive days, oldest
// first.
func (predictor CyclePredictor) LockedRuns() []DayWindow {
	days := make(map[string]time.Time, len(predictor.locked))
	for key := range predictor.locked {
		day, err := ParseDay(key, predictor.location)
		if err != nil {
			continue
		}
		days[key] = day
	}

	runs := make([]DayWindow, 0)
	for _, day := range sortedDays(days) {
		if len(runs) > 0 && AddDays(runs[len(runs)-1].End, 1).Equal(day) {
			runs[len(runs)-1].End = day
			continue
		}
		runs = append(runs, DayWindow{Start: day, End: day})
	}
	return runs
}
