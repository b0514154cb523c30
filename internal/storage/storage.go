// Package storage описывает абстракцию хранилища пользователей:
// репозиторий с операциями сохранения, поиска по email и фильтрованной выборки,
// а также единицу работы (scope), в рамках которой эти операции выполняются.
//
// Реализации находятся в подпакетах memory, postgresql и sqlite.
package storage

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/user-registry/internal/models"
)

var (
	// ErrUserExists возвращается реляционными хранилищами при попытке сохранить
	// пользователя с уже занятым email. Исходная ошибка драйвера остаётся в цепочке.
	ErrUserExists = errors.New("user with this email already exists")
	// ErrInvalidLimit возвращается, если в фильтре задан Limit меньше единицы.
	ErrInvalidLimit = errors.New("limit must be a positive integer")
	// ErrEmptyConnectionString возвращается при попытке открыть реляционное хранилище без строки подключения.
	ErrEmptyConnectionString = errors.New("connection string is empty")
	// ErrUnknownBackend возвращается при неизвестном типе хранилища в конфиге.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Repository определяет операции над пользователями.
type Repository interface {
	// Save добавляет нового пользователя.
	Save(ctx context.Context, user models.User) error
	// GetByEmail возвращает пользователя по email или nil, если его нет.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Get возвращает пользователей, подходящих под все заданные условия фильтра,
	// в порядке добавления и не более filter.Limit штук.
	Get(ctx context.Context, filter models.UserFilter) ([]models.User, error)
}

// Tx является репозиторием, привязанным к одной единице работы.
type Tx interface {
	Repository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store открывает единицы работы над общим пулом соединений.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close() error
}

// CheckLimit проверяет значение Limit в фильтре.
func CheckLimit(filter models.UserFilter) error {
	if filter.Limit != nil && *filter.Limit < 1 {
		return ErrInvalidLimit
	}
	return nil
}
