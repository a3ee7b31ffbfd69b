package api

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclemark/internal/services"
)

func (handler *Handler) GetCycle(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(handler.cycleResponse(c, user.ID, handler.tracker.Snapshot(user.ID)))
}

func (handler *Handler) ToggleDate(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	day, err := services.ParseDay(c.Params("date"), handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	snapshot, changed := handler.tracker.ToggleDate(user.ID, day)
	return handler.respondTransition(c, user.ID, snapshot, changed)
}

func (handler *Handler) LockPeriod(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	snapshot, locked := handler.tracker.LockPeriod(user.ID)
	return handler.respondTransition(c, user.ID, snapshot, locked)
}

func (handler *Handler) StartNewPeriod(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	snapshot, started := handler.tracker.StartNewPeriod(user.ID)
	return handler.respondTransition(c, user.ID, snapshot, started)
}

func (handler *Handler) UpdateCycleSettings(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	input := cycleSettingsInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid settings input")
	}

	snapshot, err := handler.tracker.SaveSettings(user.ID, services.CycleConfig{
		PeriodLength: input.PeriodLength,
		CycleLength:  input.CycleLength,
	})
	switch {
	case errors.Is(err, services.ErrCycleLengthOutOfRange):
		return apiError(c, fiber.StatusBadRequest, "cycle length out of range")
	case errors.Is(err, services.ErrPeriodLengthOutOfRange):
		return apiError(c, fiber.StatusBadRequest, "period length out of range")
	case err != nil:
		return apiError(c, fiber.StatusInternalServerError, "failed to update cycle settings")
	}
	return handler.respondTransition(c, user.ID, snapshot, true)
}

// ImportCalendar marks every day covered by the uploaded ICS events. It
// never locks; the user confirms with LockPeriod as usual.
func (handler *Handler) ImportCalendar(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	body := c.Body()
	if len(body) == 0 {
		return apiError(c, fiber.StatusBadRequest, "invalid calendar")
	}
	if len(body) > maxImportBodyBytes {
		return apiError(c, fiber.StatusRequestEntityTooLarge, "calendar too large")
	}

	days, err := handler.importer.ParseDays(bytes.NewReader(body))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid calendar")
	}
	if handler.tracker.Session(user.ID).State() != services.SessionEditing {
		return apiError(c, fiber.StatusConflict, "period is locked")
	}

	snapshot, added := handler.tracker.MarkDates(user.ID, days)
	return c.JSON(fiber.Map{
		"imported": added,
		"cycle":    handler.cycleResponse(c, user.ID, snapshot),
	})
}

func (handler *Handler) respondTransition(c *fiber.Ctx, userID uint, snapshot services.CycleSnapshot, applied bool) error {
	return c.JSON(fiber.Map{
		"applied": applied,
		"cycle":   handler.cycleResponse(c, userID, snapshot),
	})
}

func (handler *Handler) cycleResponse(c *fiber.Ctx, userID uint, snapshot services.CycleSnapshot) cycleView {
	view := buildCycleView(snapshot, handler.location)
	if err := handler.tracker.SaveFailure(userID); err != nil {
		view.SaveNotice = handler.i18n.Translate(handler.currentLanguage(c), "cycle.save_failed")
	}
	return view
}
