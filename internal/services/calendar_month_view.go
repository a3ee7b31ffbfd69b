package services

import "time"

type CalendarCell struct {
	Date        time.Time
	DateString  string
	Day         int
	Blank       bool
	IsToday     bool
	IsMarked    bool
	IsLocked    bool
	IsOngoing   bool
	IsPredicted bool
	IsOvulation bool
}

type MonthView struct {
	Month MonthCursor
	Prev  MonthCursor
	Next  MonthCursor
	Cells []CalendarCell
}

// BuildMonthView evaluates every predicate for each grid cell. Flags are
// independent; several may be true for the same day.
func BuildMonthView(month MonthCursor, snapshot CycleSnapshot, now time.Time, location *time.Location) MonthView {
	if location == nil {
		location = time.UTC
	}

	predictor := snapshot.Predictor(location)
	marked := make(map[string]bool, len(snapshot.Marked))
	for _, day := range snapshot.Marked {
		marked[DayKey(day, location)] = true
	}
	todayKey := DayKey(now, location)

	grid := month.Grid(location)
	cells := make([]CalendarCell, 0, len(grid))
	for _, day := range grid {
		if day.IsZero() {
			cells = append(cells, CalendarCell{Blank: true})
			continue
		}

		key := day.Format(DayLayout)
		cells = append(cells, CalendarCell{
			Date:        day,
			DateString:  key,
			Day:         day.Day(),
			IsToday:     key == todayKey,
			IsMarked:    marked[key],
			IsLocked:    predictor.IsLocked(day),
			IsOngoing:   predictor.IsOngoingPeriod(day),
			IsPredicted: predictor.IsPredicted(day),
			IsOvulation: predictor.IsOvulation(day),
		})
	}

	return MonthView{
		Month: month,
		Prev:  month.Prev(),
		Next:  month.Next(),
		Cells: cells,
	}
}
