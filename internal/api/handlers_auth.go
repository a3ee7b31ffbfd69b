package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclemark/internal/models"
	"github.com/terraincognita07/cyclemark/internal/services"
)

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) CSRFToken(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"csrf_token": csrfToken(c)})
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	input := credentialsInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.authService.Register(input.Email, input.Password)
	switch {
	case errors.Is(err, services.ErrAuthCredentialsInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	case errors.Is(err, services.ErrWeakPassword):
		return apiError(c, fiber.StatusBadRequest, "weak password")
	case errors.Is(err, services.ErrAuthEmailTaken):
		return apiError(c, fiber.StatusConflict, "email already exists")
	case err != nil:
		log.Printf("auth: register failed: %v", err)
		return apiError(c, fiber.StatusInternalServerError, "failed to create account")
	}

	if err := handler.setAuthCookie(c, &user); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	return c.Status(fiber.StatusCreated).JSON(accountResponse(&user))
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	limiterKey := requestLimiterKey(c)
	now := handler.now()
	if handler.loginLimiter.blocked(limiterKey, now) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	input := credentialsInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.authService.Authenticate(input.Email, input.Password)
	if errors.Is(err, services.ErrAuthCredentialsInvalid) {
		handler.loginLimiter.addFailure(limiterKey, now)
		return apiError(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		log.Printf("auth: login failed: %v", err)
		return apiError(c, fiber.StatusInternalServerError, "failed to sign in")
	}

	handler.loginLimiter.reset(limiterKey)
	if err := handler.setAuthCookie(c, &user); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	return c.JSON(accountResponse(&user))
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) Account(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(accountResponse(user))
}

// UpdateNotificationSettings stores the chat that receives this user's
// reminders, in the language of the current request. An empty chat ID
// turns reminders off.
func (handler *Handler) UpdateNotificationSettings(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	input := notificationSettingsInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid settings input")
	}

	language := handler.currentLanguage(c)
	chatID, err := handler.settings.Update(user.ID, input.TelegramChatID, language)
	switch {
	case errors.Is(err, services.ErrTelegramChatIDInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid telegram chat id")
	case err != nil:
		log.Printf("settings: update notifications failed for user %d: %v", user.ID, err)
		return apiError(c, fiber.StatusInternalServerError, "failed to update notification settings")
	}

	updated := *user
	updated.TelegramChatID = chatID
	updated.Language = language
	return c.JSON(accountResponse(&updated))
}

type accountView struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	FeedPath       string `json:"feed_path"`
	TelegramChatID string `json:"telegram_chat_id"`
	Language       string `json:"language,omitempty"`
}

func accountResponse(user *models.User) accountView {
	return accountView{
		ID:             user.ID,
		Email:          user.Email,
		FeedPath:       "/feed/" + user.FeedToken + ".ics",
		TelegramChatID: user.TelegramChatID,
		Language:       user.Language,
	}
}
