package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FeedToken    string `gorm:"uniqueIndex;not null"`
	// TelegramChatID is empty until the user opts into reminders.
	TelegramChatID string    `gorm:"not null;default:''"`
	Language       string    `gorm:"not null;default:''"`
	CreatedAt      time.Time `gorm:"not null"`
}
