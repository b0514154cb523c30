// Package models содержит доменную модель пользователя реестра,
// а также вспомогательные типы для приёма данных из JSON-запросов
// и публикации событий.
package models

import "time"

// User представляет зарегистрированного пользователя.
// Email является уникальным ключом записи.
type User struct {
	Email    string `json:"email"`
	Password string `json:"-"` // Пароль в том виде, в котором его передал сервисный слой
	Name     string `json:"name"`
	Country  string `json:"country"`
	Status   string `json:"status"`
}

// DummyUser используется для приёма данных из JSON-запроса на создание
// пользователя до валидации и преобразования в User.
type DummyUser struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,maxbytes=72" example:"secret"`
	Name     string `json:"name" validate:"required" example:"Alice"`
	Country  string `json:"country" validate:"required" example:"Country1"`
	Status   string `json:"status" validate:"required" example:"Student"`
}

// UserCreatedEvent публикуется в брокер после успешного создания пользователя.
// Пароль в событие не попадает.
type UserCreatedEvent struct {
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
