package api

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const calendarContentType = "text/calendar; charset=utf-8"

func (handler *Handler) ExportICS(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	body, err := handler.exporter.BuildICS(user.ID, handler.tracker.Snapshot(user.ID))
	if err != nil {
		log.Printf("export: build calendar failed for user %d: %v", user.ID, err)
		return apiError(c, fiber.StatusInternalServerError, "failed to export calendar")
	}

	c.Set(fiber.HeaderContentType, calendarContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="cyclemark.ics"`)
	return c.SendString(body)
}

// CalendarFeed serves the ICS export to calendar clients that cannot send
// cookies; the secret token in the path identifies the user.
func (handler *Handler) CalendarFeed(c *fiber.Ctx) error {
	token := strings.TrimSpace(strings.TrimSuffix(c.Params("token"), ".ics"))
	if token == "" {
		return apiError(c, fiber.StatusNotFound, "not found")
	}

	user, found, err := handler.authService.FindByFeedToken(token)
	if err != nil {
		log.Printf("export: feed lookup failed: %v", err)
		return apiError(c, fiber.StatusInternalServerError, "failed to load feed")
	}
	if !found {
		return apiError(c, fiber.StatusNotFound, "not found")
	}

	body, err := handler.exporter.BuildICS(user.ID, handler.tracker.Snapshot(user.ID))
	if err != nil {
		log.Printf("export: build feed failed for user %d: %v", user.ID, err)
		return apiError(c, fiber.StatusInternalServerError, "failed to load feed")
	}

	c.Set(fiber.HeaderContentType, calendarContentType)
	return c.SendString(body)
}
