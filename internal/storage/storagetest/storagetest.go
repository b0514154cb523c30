// Package storagetest содержит общий набор проверок, который должна проходить
// любая реализация storage.Store.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

// NewStore создаёт пустое хранилище для одного теста.
type NewStore func(t *testing.T) storage.Store

// Ptr возвращает указатель на значение. Удобно для полей UserFilter.
func Ptr[T any](v T) *T {
	return &v
}

// NewUser собирает тестового пользователя.
func NewUser(email, name, country, status string) models.User {
	return models.User{
		Email:    email,
		Password: "password-" + email,
		Name:     name,
		Country:  country,
		Status:   status,
	}
}

// SaveAll сохраняет пользователей по порядку в одной единице работы.
func SaveAll(t *testing.T, store storage.Store, users ...models.User) {
	t.Helper()
	err := storage.WithinScope(context.Background(), store, func(repo storage.Repository) error {
		for _, u := range users {
			if err := repo.Save(context.Background(), u); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// Find выполняет Get в отдельной единице работы.
func Find(t *testing.T, store storage.Store, filter models.UserFilter) ([]models.User, error) {
	t.Helper()
	var res []models.User
	err := storage.WithinScope(context.Background(), store, func(repo storage.Repository) error {
		var err error
		res, err = repo.Get(context.Background(), filter)
		return err
	})
	return res, err
}

// Lookup выполняет GetByEmail в отдельной единице работы.
func Lookup(t *testing.T, store storage.Store, email string) *models.User {
	t.Helper()
	var res *models.User
	err := storage.WithinScope(context.Background(), store, func(repo storage.Repository) error {
		var err error
		res, err = repo.GetByEmail(context.Background(), email)
		return err
	})
	require.NoError(t, err)
	return res
}

func emails(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Email)
	}
	return out
}

// Run прогоняет общие проверки репозитория.
func Run(t *testing.T, newStore NewStore) {
	t.Run("save and get by email keeps every field", func(t *testing.T) {
		store := newStore(t)
		u := NewUser("unit2@test.com", "Unit User 2", "Country", "Student")
		SaveAll(t, store, u)

		got := Lookup(t, store, u.Email)
		require.NotNil(t, got)
		assert.Equal(t, u, *got)
	})

	t.Run("get by non-existent email returns nil", func(t *testing.T) {
		store := newStore(t)
		SaveAll(t, store, NewUser("someone@test.com", "Someone", "Country", "Worker"))

		assert.Nil(t, Lookup(t, store, "nonexistent@test.com"))
	})

	t.Run("filter by status", func(t *testing.T) {
		store := newStore(t)
		SaveAll(t, store,
			NewUser("a@x", "A", "C1", "Student"),
			NewUser("b@x", "B", "C2", "Worker"),
		)

		got, err := Find(t, store, models.UserFilter{Status: Ptr("Student")})
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x"}, emails(got))
	})

	t.Run("filter by country", func(t *testing.T) {
		store := newStore(t)
		SaveAll(t, store,
			NewUser("a@x", "A", "C1", "Student"),
			NewUser("b@x", "B", "C2", "Worker"),
		)

		got, err := Find(t, store, models.UserFilter{ByCountry: Ptr("C1")})
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x"}, emails(got))
	})

	t.Run("filter by name", func(t *testing.T) {
		store := newStore(t)
		SaveAll(t, store,
			NewUser("unitname1@test.com", "Alice", "Country1", "Student"),
			NewUser("unitname2@test.com", "Bob", "Country2", "Worker"),
		)

		got, err := Find(t, store, models.UserFilter{ByName: Ptr("Alice")})
		require.NoError(t, err)
		assert.Equal(t, []string{"unitname1@test.com"}, emails(got))
	})

	t.Run("limit keeps first matches in insertion order", func(t *testing.T) {
		store := newStore(t)
		SaveAll(t, store,
			NewUser("a@x", "A", "C1", "Student"),
			NewUser("b@x", "B", "C2", "Worker"),
			NewUser("c@x", "C", "C3", "Student"),
		)

		got, err := Find(t, store, models.UserFilter{Status: Ptr("Student"), Limit: Ptr(1)})
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x"}, emails(got))

		got, err = Find(t, store, models.UserFilter{Limit: Ptr(2)})
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x", "b@x"}, emails(got))
	})

	t.Run("predicates are combined with AND", func(t *testing.T) {
		store := newStore(t)
		SaveAll(t, store,
			NewUser("a@x", "Alice", "C1", "Student"),
			NewUser("b@x", "Alice", "C2", "Student"),
			NewUser("c@x", "Alice", "C1", "Worker"),
			NewUser("d@x", "Bob", "C1", "Student"),
		)

		got, err := Find(t, store, models.UserFilter{
			ByName:    Ptr("Alice"),
			ByCountry: Ptr("C1"),
			Status:    Ptr("Student"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x"}, emails(got))
	})

	t.Run("empty filter returns everything in insertion order", func(t *testing.T) {
		store := newStore(t)
		users := []models.User{
			NewUser("z@x", "Z", "C1", "Student"),
			NewUser("a@x", "A", "C2", "Worker"),
			NewUser("m@x", "M", "C3", "Student"),
		}
		SaveAll(t, store, users...)

		got, err := Find(t, store, models.UserFilter{})
		require.NoError(t, err)
		assert.Equal(t, users, got)
	})

	t.Run("no matches returns empty non-nil slice", func(t *testing.T) {
		store := newStore(t)
		SaveAll(t, store, NewUser("a@x", "A", "C1", "Student"))

		got, err := Find(t, store, models.UserFilter{Status: Ptr("Retired")})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("non-positive limit is rejected", func(t *testing.T) {
		store := newStore(t)

		_, err := Find(t, store, models.UserFilter{Limit: Ptr(0)})
		assert.ErrorIs(t, err, storage.ErrInvalidLimit)

		_, err = Find(t, store, models.UserFilter{Limit: Ptr(-3)})
		assert.ErrorIs(t, err, storage.ErrInvalidLimit)
	})

	t.Run("committed scope is visible to the next scope", func(t *testing.T) {
		store := newStore(t)
		SaveAll(t, store, NewUser("a@x", "A", "C1", "Student"))
		SaveAll(t, store, NewUser("b@x", "B", "C2", "Worker"))

		got, err := Find(t, store, models.UserFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x", "b@x"}, emails(got))
	})

	t.Run("scope error is returned unchanged", func(t *testing.T) {
		store := newStore(t)
		errBoom := errors.New("boom")

		err := storage.WithinScope(context.Background(), store, func(repo storage.Repository) error {
			if err := repo.Save(context.Background(), NewUser("a@x", "A", "C1", "Student")); err != nil {
				return err
			}
			return errBoom
		})
		assert.Same(t, errBoom, err)
	})
}
