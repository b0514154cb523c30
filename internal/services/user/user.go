// Package user содержит бизнес-логику работы с пользователями: хеширование пароля,
// сохранение в единице работы хранилища, кеширование и публикацию событий.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/user-registry/internal/lib/sl"
	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

// RoutingKeyCreated используется как ключ маршрутизации события о создании пользователя.
const RoutingKeyCreated = "user.created"

// Cache описывает методы для кеширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет ключ из кеша.
	Invalidate(ctx context.Context, key string) error
}

// Publisher публикует события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Hasher хеширует пароли.
type Hasher interface {
	Hash(password string) (string, error)
}

// Service реализует бизнес-логику работы с пользователями.
type Service struct {
	store     storage.Store
	cache     Cache
	publisher Publisher
	hasher    Hasher
	cacheTTL  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(store storage.Store, cache Cache, publisher Publisher, hasher Hasher, cacheTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		publisher: publisher,
		hasher:    hasher,
		cacheTTL:  cacheTTL,
		log:       log,
		now:       time.Now,
	}
}

func cacheKey(email string) string {
	return "user:" + email
}

// Create хеширует пароль, сохраняет пользователя, кладёт его в кеш и публикует событие.
// Ошибки кеша и брокера только логируются. Если обновить кеш не удалось,
// ключ удаляется, чтобы Read не вернул прежнюю запись.
func (s *Service) Create(ctx context.Context, req models.DummyUser) error {
	const op = "services.user.Create"

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:    req.Email,
		Password: hashed,
		Name:     req.Name,
		Country:  req.Country,
		Status:   req.Status,
	}

	err = storage.WithinScope(ctx, s.store, func(repo storage.Repository) error {
		return repo.Save(ctx, user)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new user", slog.String("email", user.Email))

	key := cacheKey(user.Email)
	if err := s.cache.Set(ctx, key, user, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", key), sl.Err(err))
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("failed to invalidate cached user", slog.String("key", key), sl.Err(err))
		}
	}

	event := models.UserCreatedEvent{
		EventID:   uuid.NewString(),
		Email:     user.Email,
		Name:      user.Name,
		Country:   user.Country,
		Status:    user.Status,
		CreatedAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, RoutingKeyCreated, event); err != nil {
		s.log.Warn("failed to publish user created event", slog.String("event_id", event.EventID), sl.Err(err))
	}
	return nil
}

// Read возвращает пользователя по email, используя кеш или хранилище.
// Если пользователя нет, возвращает nil без ошибки.
func (s *Service) Read(ctx context.Context, email string) (*models.User, error) {
	const op = "services.user.Read"

	var cached models.User
	found, err := s.cache.Get(ctx, cacheKey(email), &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey(email)), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	var result *models.User
	err = storage.WithinScope(ctx, s.store, func(repo storage.Repository) error {
		var err error
		result, err = repo.GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if result != nil {
		if err := s.cache.Set(ctx, cacheKey(email), result, s.cacheTTL); err != nil {
			s.log.Warn("failed to add to cache", slog.String("key", cacheKey(email)), sl.Err(err))
		}
	}
	return result, nil
}

// Find возвращает пользователей по фильтру. Результат не кешируется.
func (s *Service) Find(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	const op = "services.user.Find"

	var result []models.User
	err := storage.WithinScope(ctx, s.store, func(repo storage.Repository) error {
		var err error
		result, err = repo.Get(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
