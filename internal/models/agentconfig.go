package models

// AgentConfig хранит интеграционные настройки AI-агента пользователя:
// идентификатор и токен внешней страницы, системный промпт и идентификатор
// таблицы с отчётом. Связан с User один-к-одному по UID. Webhook-URL
// не хранится, а вычисляется из email пользователя (см. services/agent).
type AgentConfig struct {
	UserUID       string // Идентификатор владельца конфигурации
	PageID        string // Идентификатор внешней страницы
	PageToken     string // Токен доступа к внешней странице
	SystemPrompt  string // Системный промпт агента
	ReportSheetID string // Идентификатор внешней таблицы с отчётом
}

// DummyAgentConfig используется для приёма данных формы конфигурации
// из JSON-запроса при полном обновлении.
type DummyAgentConfig struct {
	PageID        string `json:"page_id" validate:"omitempty,max=2000"`
	PageToken     string `json:"page_token" validate:"omitempty,max=2000"`
	SystemPrompt  string `json:"system_prompt" validate:"omitempty,max=20000"`
	ReportSheetID string `json:"report_sheet_id" validate:"omitempty,max=255"`
}

// PatchAgentConfig используется для частичного автосохранения полей
// конфигурации: nil означает, что поле не меняется.
type PatchAgentConfig struct {
	PageID        *string `json:"page_id" validate:"omitempty,max=2000"`
	PageToken     *string `json:"page_token" validate:"omitempty,max=2000"`
	SystemPrompt  *string `json:"system_prompt" validate:"omitempty,max=20000"`
	ReportSheetID *string `json:"report_sheet_id" validate:"omitempty,max=255"`
}
