package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/emersion/go-ical"
)

var ErrCalendarImportInvalid = errors.New("calendar import invalid")

// MaxImportedEventDays bounds how many days one imported event may cover.
const MaxImportedEventDays = 31

type CalendarImportService struct {
	location *time.Location
}

func NewCalendarImportService(location *time.Location) *CalendarImportService {
	if location == nil {
		location = time.UTC
	}
	return &CalendarImportService{location: location}
}

// ParseDays decodes every VCALENDAR in reader and returns the calendar days
// covered by its events, sorted and without duplicates. All-day events use
// the exclusive DTEND; timed events cover each day they touch.
func (service *CalendarImportService) ParseDays(reader io.Reader) ([]time.Time, error) {
	decoder := ical.NewDecoder(reader)
	days := make(map[string]time.Time)
	calendars := 0

	for {
		calendar, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCalendarImportInvalid, err)
		}
		calendars++

		for _, component := range calendar.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			window, ok := service.eventWindow(component)
			if !ok {
				continue
			}
			for day := window.Start; !day.After(window.End); day = AddDays(day, 1) {
				days[day.Format(DayLayout)] = day
			}
		}
	}

	if calendars == 0 {
		return nil, ErrCalendarImportInvalid
	}
	return sortedDays(days), nil
}

func (service *CalendarImportService) eventWindow(component *ical.Component) (DayWindow, bool) {
	startProp := component.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return DayWindow{}, false
	}
	startValue, err := startProp.DateTime(service.location)
	if err != nil {
		log.Printf("calendar import: skip event with invalid DTSTART %q: %v", startProp.Value, err)
		return DayWindow{}, false
	}
	allDay := startProp.ValueType() == ical.ValueDate
	start := DateAtLocation(startValue, service.location)
	end := start

	if endProp := component.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		endValue, err := endProp.DateTime(service.location)
		if err == nil {
			end = DateAtLocation(endValue, service.location)
			if allDay || endValue.Equal(end) {
				end = AddDays(end, -1)
			}
		}
	}
	if end.Before(start) {
		end = start
	}

	if limit := AddDays(start, MaxImportedEventDays-1); end.After(limit) {
		log.Printf("calendar import: event starting %s truncated to %d days", start.Format(DayLayout), MaxImportedEventDays)
		end = limit
	}
	return DayWindow{Start: start, End: end}, true
}
