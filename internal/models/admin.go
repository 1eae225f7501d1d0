package models

import "time"

// ProfileListItem — строка административного списка пользователей:
// профиль вместе с данными учётной записи владельца.
type ProfileListItem struct {
	UserUID            string     `json:"user_uid"`
	Email              string     `json:"email"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	Name               string     `json:"name"`
	MobileNumber       string     `json:"mobile_number"`
	KYCStatus          string     `json:"kyc_status"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry,omitempty"`
	PackageName        string     `json:"package_name"`
}

// AdminStats — счётчики для административной панели.
type AdminStats struct {
	TotalUsers          int `json:"total_users"`
	NewUsersToday       int `json:"new_users_today"`
	PendingKYC          int `json:"pending_kyc"`
	TotalAgentConfigs   int `json:"total_agent_configs"`
	ActiveSubscriptions int `json:"active_subscriptions"`
}
