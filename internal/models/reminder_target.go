package models

// ReminderTarget pairs a cycle record with the chat and language of the
// user who owns it.
type ReminderTarget struct {
	UserID   uint
	ChatID   string
	Language string
	Record   CycleRecord
}
