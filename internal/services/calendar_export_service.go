package services

import (
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

const (
	calendarProductID = "-//cyclemark//cycle calendar//EN"
	calendarName      = "Cyclemark"

	// ForecastCycles is how many future period starts the export projects.
	ForecastCycles = 3
)

var calendarUIDNamespace = uuid.MustParse("5b0f64c6-86c3-4f25-9f7e-2d6c0f1a9a41")

type CalendarEvent struct {
	Key     string
	Summary string
	Window  DayWindow
}

type CalendarExportService struct {
	location *time.Location
	now      func() time.Time
}

func NewCalendarExportService(location *time.Location) *CalendarExportService {
	if location == nil {
		location = time.UTC
	}
	return &CalendarExportService{location: location, now: time.Now}
}

// Events lists everything the calendar feed publishes for a snapshot:
// locked runs, the ongoing span, the predicted and ovulation windows, and
// the forecast of the next expected starts.
func (service *CalendarExportService) Events(snapshot CycleSnapshot) ([]CalendarEvent, error) {
	predictor := snapshot.Predictor(service.location)

	events := make([]CalendarEvent, 0)
	for _, run := range predictor.LockedRuns() {
		events = append(events, CalendarEvent{
			Key:     "period:" + run.Start.Format(DayLayout),
			Summary: "Period",
			Window:  run,
		})
	}

	if !predictor.HasHistory() {
		return events, nil
	}

	events = append(events,
		CalendarEvent{Key: "ongoing", Summary: "Current period", Window: predictor.OngoingWindow()},
		CalendarEvent{Key: "predicted", Summary: "Expected period", Window: predictor.PredictedWindow()},
		CalendarEvent{Key: "ovulation", Summary: "Ovulation window", Window: predictor.OvulationWindow()},
	)

	starts, err := ForecastPeriodStarts(predictor.NextPeriodStart(), predictor.Config(), ForecastCycles)
	if err != nil {
		return nil, err
	}
	for index, start := range starts {
		events = append(events, CalendarEvent{
			Key:     "forecast:" + strconv.Itoa(index+1),
			Summary: fmt.Sprintf("Expected period (cycle +%d)", index+1),
			Window: DayWindow{
				Start: start,
				End:   AddDays(start, predictor.Config().PeriodLength-1),
			},
		})
	}
	return events, nil
}

// ForecastPeriodStarts repeats the cycle length from nextStart, which is the
// first returned day.
func ForecastPeriodStarts(nextStart time.Time, config CycleConfig, count int) ([]time.Time, error) {
	if nextStart.IsZero() || count <= 0 {
		return nil, nil
	}

	config = ClampCycleConfig(config)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: config.CycleLength,
		Count:    count,
		Dtstart:  nextStart,
	})
	if err != nil {
		return nil, fmt.Errorf("build forecast rule: %w", err)
	}

	occurrences := rule.All()
	starts := make([]time.Time, 0, len(occurrences))
	for _, occurrence := range occurrences {
		starts = append(starts, DateAtLocation(occurrence, nextStart.Location()))
	}
	return starts, nil
}

// BuildICS renders the snapshot as an all-day VCALENDAR. Event UIDs are
// stable for a user and event key, so calendar clients update events in
// place across refreshes.
func (service *CalendarExportService) BuildICS(userID uint, snapshot CycleSnapshot) (string, error) {
	events, err := service.Events(snapshot)
	if err != nil {
		return "", err
	}

	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId(calendarProductID)
	calendar.SetXWRCalName(calendarName)

	stamp := service.now().UTC()
	for _, event := range events {
		if event.Window.IsZero() {
			continue
		}
		vevent := calendar.AddEvent(CalendarEventUID(userID, event.Key))
		vevent.SetSummary(event.Summary)
		vevent.SetDtStampTime(stamp)
		vevent.SetAllDayStartAt(event.Window.Start)
		// DTEND of an all-day event is exclusive.
		vevent.SetAllDayEndAt(AddDays(event.Window.End, 1))
		vevent.SetDescription(fmt.Sprintf("%s to %s",
			event.Window.Start.Format(DayLayout),
			event.Window.End.Format(DayLayout),
		))
	}
	return calendar.Serialize(), nil
}

func CalendarEventUID(userID uint, key string) string {
	name := fmt.Sprintf("%d/%s", userID, key)
	return uuid.NewSHA1(calendarUIDNamespace, []byte(name)).String() + "@cyclemark"
}
