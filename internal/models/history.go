package models

import "time"

// SubscriptionHistory — запись журнала о ручной выдаче подписки
// администратором. Журнал только пополняется: записи не изменяются
// и не удаляются. Массовая выдача пакетов журнал не пишет, запись
// создаёт только персональная выдача на странице пользователя.
type SubscriptionHistory struct {
	ID          int       // Идентификатор записи
	UserUID     string    // Профиль, которому выдана подписка
	PackageName string    // Название выданного пакета
	ExpiryDate  time.Time // Дата истечения на момент выдачи
	GrantedAt   time.Time // Момент выдачи
}
