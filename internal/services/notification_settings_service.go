package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrTelegramChatIDInvalid = errors.New("telegram chat id invalid")

var (
	numericChatIDPattern = regexp.MustCompile(`^-?\d{1,20}$`)
	channelChatIDPattern = regexp.MustCompile(`^@[A-Za-z0-9_]{5,32}$`)
)

type NotificationSettingsRepository interface {
	UpdateNotificationSettings(userID uint, chatID string, language string) error
}

type NotificationSettingsService struct {
	users NotificationSettingsRepository
}

func NewNotificationSettingsService(users NotificationSettingsRepository) *NotificationSettingsService {
	return &NotificationSettingsService{users: users}
}

// NormalizeTelegramChatID accepts a numeric chat ID or an @channel name.
// An empty value is valid and disables reminders.
func NormalizeTelegramChatID(raw string) (string, error) {
	chatID := strings.TrimSpace(raw)
	if chatID == "" {
		return "", nil
	}
	if !numericChatIDPattern.MatchString(chatID) && !channelChatIDPattern.MatchString(chatID) {
		return "", ErrTelegramChatIDInvalid
	}
	return chatID, nil
}

// Update stores where and in which language the user's reminders are sent.
func (service *NotificationSettingsService) Update(userID uint, chatIDRaw string, language string) (string, error) {
	chatID, err := NormalizeTelegramChatID(chatIDRaw)
	if err != nil {
		return "", err
	}
	if err := service.users.UpdateNotificationSettings(userID, chatID, language); err != nil {
		return "", fmt.Errorf("update notification settings: %w", err)
	}
	return chatID, nil
}
