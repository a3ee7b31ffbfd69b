package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/terraincognita07/cyclemark/internal/services"
)

const monthLegend = "L locked  O ongoing  P predicted  V ovulation  * today"

// RunMonthCommand prints one account's calendar month as a text grid. An
// empty month selects the month containing now.
func RunMonthCommand(dbPath string, email string, month string, location *time.Location, now time.Time, out io.Writer) error {
	if location == nil {
		location = time.UTC
	}

	cursor, err := services.ParseMonthCursor(month, services.MonthCursorFor(now.In(location)))
	if err != nil {
		return fmt.Errorf("invalid month %q: use YYYY-MM", month)
	}

	repositories, user, err := openAccount(dbPath, email)
	if err != nil {
		return err
	}

	tracker := services.NewTrackerService(repositories.CycleRecords, nil, location)
	view := services.BuildMonthView(cursor, tracker.Snapshot(user.ID), now, location)

	fmt.Fprintf(out, "%s (%s)\n", user.Email, view.Month.String())
	_, err = io.WriteString(out, renderMonth(view))
	return err
}

func renderMonth(view services.MonthView) string {
	var builder strings.Builder
	builder.WriteString(" Su   Mo   Tu   We   Th   Fr   Sa\n")

	for index, cell := range view.Cells {
		if index > 0 && index%7 == 0 {
			builder.WriteString("\n")
		}
		if cell.Blank {
			builder.WriteString("     ")
			continue
		}
		fmt.Fprintf(&builder, " %02d%c%c", cell.Day, cellStatus(cell), todayMarker(cell))
	}
	builder.WriteString("\n")
	builder.WriteString(monthLegend)
	builder.WriteString("\n")
	return builder.String()
}

// cellStatus picks one letter per day; history wins over forecasts.
func cellStatus(cell services.CalendarCell) rune {
	switch {
	case cell.IsLocked:
		return 'L'
	case cell.IsOngoing:
		return 'O'
	case cell.IsPredicted:
		return 'P'
	case cell.IsOvulation:
		return 'V'
	default:
		return '.'
	}
}

func todayMarker(cell services.CalendarCell) rune {
	if cell.IsToday {
		return '*'
	}
	return ' '
}
