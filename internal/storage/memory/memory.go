// Package memory реализует хранилище пользователей в памяти процесса.
//
// В отличие от реляционных реализаций повторное сохранение пользователя
// с тем же email молча перезаписывает запись, а Commit и Rollback ничего
// не делают: откат единицы работы не отменяет уже применённые изменения.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

// Storage хранит пользователей в порядке добавления.
type Storage struct {
	mu      sync.RWMutex
	users   []models.User
	byEmail map[string]int
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		byEmail: make(map[string]int),
	}
}

// Begin возвращает единицу работы над этим же хранилищем.
func (s *Storage) Begin(ctx context.Context) (storage.Tx, error) {
	const op = "storage.memory.Begin"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tx{s: s}, nil
}

// Ping всегда успешен.
func (s *Storage) Ping(context.Context) error { return nil }

// Close ничего не освобождает.
func (s *Storage) Close() error { return nil }

// Save сохраняет пользователя. Запись с тем же email перезаписывается
// и остаётся на своей исходной позиции.
func (s *Storage) Save(ctx context.Context, user models.User) error {
	const op = "storage.memory.Save"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byEmail[user.Email]; ok {
		s.users[i] = user
		return nil
	}
	s.byEmail[user.Email] = len(s.users)
	s.users = append(s.users, user)
	return nil
}

// GetByEmail возвращает копию пользователя или nil.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.memory.GetByEmail"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	u := s.users[i]
	return &u, nil
}

// Get возвращает первые filter.Limit подходящих пользователей в порядке добавления.
func (s *Storage) Get(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	const op = "storage.memory.Get"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := storage.CheckLimit(filter); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.User, 0)
	for _, u := range s.users {
		if filter.Limit != nil && len(result) == *filter.Limit {
			break
		}
		if filter.Match(u) {
			result = append(result, u)
		}
	}
	return result, nil
}

type tx struct {
	s *Storage
}

func (t tx) Save(ctx context.Context, user models.User) error {
	return t.s.Save(ctx, user)
}

func (t tx) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return t.s.GetByEmail(ctx, email)
}

func (t tx) Get(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	return t.s.Get(ctx, filter)
}

func (tx) Commit(context.Context) error   { return nil }
func (tx) Rollback(context.Context) error { return nil }

var _ storage.Store = (*Storage)(nil)
