package services

import (
	"errors"
	"strings"
	"time"
)

var ErrMonthInvalid = errors.New("month invalid")

const MonthLayout = "2006-01"

// BuildMonthGrid returns the cells of a Sunday-first month view: one zero
// time.Time per leading blank followed by every day of the month. Month
// values outside 1..12 roll over into the neighbouring years.
func BuildMonthGrid(year int, month time.Month, location *time.Location) []time.Time {
	if location == nil {
		location = time.UTC
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, location)
	daysInMonth := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, location).Day()
	leadingBlanks := int(first.Weekday())

	cells := make([]time.Time, leadingBlanks, leadingBlanks+daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		cells = append(cells, time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, location))
	}
	return cells
}

type MonthCursor struct {
	Year  int
	Month time.Month
}

func NewMonthCursor(year int, month time.Month) MonthCursor {
	normalized := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return MonthCursor{Year: normalized.Year(), Month: normalized.Month()}
}

func MonthCursorFor(day time.Time) MonthCursor {
	return MonthCursor{Year: day.Year(), Month: day.Month()}
}

func ParseMonthCursor(raw string, fallback MonthCursor) (MonthCursor, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(MonthLayout, value)
	if err != nil {
		return MonthCursor{}, ErrMonthInvalid
	}
	return MonthCursorFor(parsed), nil
}

func (cursor MonthCursor) Next() MonthCursor {
	return NewMonthCursor(cursor.Year, cursor.Month+1)
}

func (cursor MonthCursor) Prev() MonthCursor {
	return NewMonthCursor(cursor.Year, cursor.Month-1)
}

func (cursor MonthCursor) String() string {
	return time.Date(cursor.Year, cursor.Month, 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout)
}

func (cursor MonthCursor) Grid(location *time.Location) []time.Time {
	return BuildMonthGrid(cursor.Year, cursor.Month, location)
}
