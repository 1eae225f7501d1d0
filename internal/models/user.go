// Package models содержит доменные структуры приложения: учётные записи,
// профили с KYC-статусом и подпиской, конфигурации AI-агента и журнал
// выданных подписок. Структуры используются в бизнес-логике и при работе
// с хранилищем.
package models

import (
	"strings"
	"time"
)

// User представляет учётную запись пользователя. Email служит логином
// и уникальным идентификатором для публичного API.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта, уникальная
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	IsActive     bool      // Признак активной учётной записи
	CreatedAt    time.Time // Дата создания учётной записи
}

// EmailPrefix возвращает локальную часть email (до символа @).
// Используется как человекочитаемый ключ пользователя в публичном API
// и при построении webhook-URL.
func (u *User) EmailPrefix() string {
	return EmailPrefix(u.Email)
}

// EmailPrefix возвращает локальную часть произвольного email.
// Если символа @ нет, строка возвращается как есть.
func EmailPrefix(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
