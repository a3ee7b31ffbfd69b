package api

type credentialsInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type cycleSettingsInput struct {
	CycleLength  int `json:"cycle_length" form:"cycle_length"`
	PeriodLength int `json:"period_length" form:"period_length"`
}

type notificationSettingsInput struct {
	TelegramChatID string `json:"telegram_chat_id" form:"telegram_chat_id"`
}
