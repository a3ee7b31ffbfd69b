package api

import (
	"time"

	"github.com/terraincognita07/cyclemark/internal/services"
)

type dayWindowView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type predictionView struct {
	Anchor          string        `json:"anchor"`
	NextPeriodStart string        `json:"next_period_start"`
	Ongoing         dayWindowView `json:"ongoing"`
	Predicted       dayWindowView `json:"predicted"`
	Ovulation       dayWindowView `json:"ovulation"`
}

type cycleView struct {
	State       services.SessionState `json:"state"`
	HasSetup    bool                  `json:"has_setup"`
	Config      services.CycleConfig  `json:"config"`
	MarkedDates []string              `json:"marked_dates"`
	LockedDates []string              `json:"locked_dates"`
	Prediction  *predictionView       `json:"prediction"`
	SaveNotice  string                `json:"save_notice,omitempty"`
}

type calendarCellView struct {
	Date        string `json:"date,omitempty"`
	Day         int    `json:"day,omitempty"`
	Blank       bool   `json:"blank"`
	IsToday     bool   `json:"is_today"`
	IsMarked    bool   `json:"is_marked"`
	IsLocked    bool   `json:"is_locked"`
	IsOngoing   bool   `json:"is_ongoing"`
	IsPredicted bool   `json:"is_predicted"`
	IsOvulation bool   `json:"is_ovulation"`
}

type calendarView struct {
	Month    string             `json:"month"`
	Label    string             `json:"label"`
	Prev     string             `json:"prev"`
	Next     string             `json:"next"`
	Weekdays []string           `json:"weekdays"`
	Cells    []calendarCellView `json:"cells"`
}

func windowView(window services.DayWindow) dayWindowView {
	return dayWindowView{
		Start: window.Start.Format(services.DayLayout),
		End:   window.End.Format(services.DayLayout),
	}
}

func formatDays(days []time.Time) []string {
	formatted := make([]string, 0, len(days))
	for _, day := range days {
		formatted = append(formatted, day.Format(services.DayLayout))
	}
	return formatted
}

func buildCycleView(snapshot services.CycleSnapshot, location *time.Location) cycleView {
	view := cycleView{
		State:       snapshot.State,
		HasSetup:    snapshot.HasSetup,
		Config:      snapshot.Config,
		MarkedDates: formatDays(snapshot.Marked),
		LockedDates: formatDays(snapshot.Locked),
	}

	predictor := snapshot.Predictor(location)
	if anchor, ok := predictor.Anchor(); ok {
		view.Prediction = &predictionView{
			Anchor:          anchor.Format(services.DayLayout),
			NextPeriodStart: predictor.NextPeriodStart().Format(services.DayLayout),
			Ongoing:         windowView(predictor.OngoingWindow()),
			Predicted:       windowView(predictor.PredictedWindow()),
			Ovulation:       windowView(predictor.OvulationWindow()),
		}
	}
	return view
}

func buildCalendarCells(cells []services.CalendarCell) []calendarCellView {
	views := make([]calendarCellView, 0, len(cells))
	for _, cell := range cells {
		if cell.Blank {
			views = append(views, calendarCellView{Blank: true})
			continue
		}
		views = append(views, calendarCellView{
			Date:        cell.DateString,
			Day:         cell.Day,
			IsToday:     cell.IsToday,
			IsMarked:    cell.IsMarked,
			IsLocked:    cell.IsLocked,
			IsOngoing:   cell.IsOngoing,
			IsPredicted: cell.IsPredicted,
			IsOvulation: cell.IsOvulation,
		})
	}
	return views
}
