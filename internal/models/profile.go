package models

import "time"

// Статусы KYC-проверки профиля. Переходы между статусами описаны
// в services/profile: пользователь может только отправить документ
// (NOT_SUBMITTED/REJECTED -> PENDING), решение принимает администратор.
const (
	KYCStatusNotSubmitted = "NOT_SUBMITTED"
	KYCStatusPending      = "PENDING"
	KYCStatusVerified     = "VERIFIED"
	KYCStatusRejected     = "REJECTED"
)

// Profile хранит персональные данные пользователя, KYC-документ со статусом
// проверки и поля подписки. Связан с User один-к-одному по UID.
type Profile struct {
	UserUID            string     // Идентификатор владельца профиля
	Name               string     // Отображаемое имя
	PictureRef         string     // Ссылка на загруженное фото профиля
	MobileNumber       string     // Номер телефона
	HomeAddress        string     // Домашний адрес
	KYCDocumentRef     string     // Ссылка на загруженный KYC-документ
	KYCStatus          string     // Текущий статус KYC-проверки
	SubscriptionExpiry *time.Time // Дата истечения подписки, nil — бессрочно
	PackageName        string     // Название тарифного пакета
}

// IsSubscriptionActive сообщает, активна ли подписка профиля на момент now.
// Отсутствие даты истечения трактуется как активная подписка, иначе
// подписка активна строго до наступления даты истечения. Чистый предикат,
// вычисляется на каждый запрос, фоновой проверки истечения нет.
func (p *Profile) IsSubscriptionActive(now time.Time) bool {
	if p.SubscriptionExpiry == nil {
		return true
	}
	return now.Before(*p.SubscriptionExpiry)
}

// DummyProfile используется для приёма данных формы профиля из JSON-запроса.
type DummyProfile struct {
	Name         string `json:"name" validate:"required,max=255"`
	PictureRef   string `json:"picture_ref" validate:"omitempty,max=1024"`
	MobileNumber string `json:"mobile_number" validate:"omitempty,max=20"`
	HomeAddress  string `json:"home_address" validate:"omitempty,max=2000"`
}
