package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/feed/:token", handler.CalendarFeed)

	api := app.Group("/api")
	api.Get("/csrf", handler.CSRFToken)

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)

	api.Get("/account", handler.AuthRequired, handler.Account)
	api.Get("/calendar", handler.AuthRequired, handler.GetCalendar)
	api.Get("/export/ics", handler.AuthRequired, handler.ExportICS)
	api.Post("/settings/cycle", handler.AuthRequired, handler.UpdateCycleSettings)
	api.Post("/settings/notifications", handler.AuthRequired, handler.UpdateNotificationSettings)

	cycle := api.Group("/cycle", handler.AuthRequired)
	cycle.Get("", handler.GetCycle)
	cycle.Post("/toggle/:date", handler.ToggleDate)
	cycle.Post("/lock", handler.LockPeriod)
	cycle.Post("/new-period", handler.StartNewPeriod)
	cycle.Post("/import", handler.ImportCalendar)
}
