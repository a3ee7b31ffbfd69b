package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclemark/internal/services"
)

func (handler *Handler) GetCalendar(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	current := services.MonthCursorFor(handler.now().In(handler.location))
	month, err := services.ParseMonthCursor(c.Query("month"), current)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid month")
	}

	language := handler.currentLanguage(c)
	view := handler.tracker.MonthView(user.ID, month)

	weekdays := make([]string, 0, 7)
	for index := 0; index < 7; index++ {
		weekdays = append(weekdays, handler.i18n.Translate(language, fmt.Sprintf("weekday.%d", index)))
	}

	return c.JSON(calendarView{
		Month:    view.Month.String(),
		Label:    handler.i18n.MonthLabel(language, view.Month.Year, view.Month.Month),
		Prev:     view.Prev.String(),
		Next:     view.Next.String(),
		Weekdays: weekdays,
		Cells:    buildCalendarCells(view.Cells),
	})
}
