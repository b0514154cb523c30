// Package sqlite реализует хранилище пользователей на основе SQLite
// (драйвер modernc.org/sqlite через database/sql).
//
// Соединение одно на процесс, поэтому единицы работы выполняются последовательно.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

const scheme = "sqlite://"

// Open открывает базу по строке подключения вида sqlite://path/to.db
// или по DSN в формате modernc.org/sqlite (например, file::memory:).
func Open(connString string) (*sql.DB, error) {
	const op = "storage.sqlite.Open"

	dsn := strings.TrimPrefix(connString, scheme)
	if dsn == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmptyConnectionString)
	}
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// Storage реализует storage.Store поверх *sql.DB.
type Storage struct {
	db *sql.DB
}

// New оборачивает уже открытую базу.
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Begin открывает транзакцию.
func (s *Storage) Begin(ctx context.Context) (storage.Tx, error) {
	const op = "storage.sqlite.Begin"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &repo{tx: tx}, nil
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает базу.
func (s *Storage) Close() error {
	return s.db.Close()
}

type repo struct {
	tx *sql.Tx
}

// Save вставляет пользователя. Дубликат email возвращает storage.ErrUserExists
// вместе с исходной *sqlite.Error.
func (r *repo) Save(ctx context.Context, user models.User) error {
	const op = "storage.sqlite.Save"

	query := `INSERT INTO user_table (email, password, name, country, status)
			  VALUES (?, ?, ?, ?, ?)`
	_, err := r.tx.ExecContext(ctx, query, user.Email, user.Password, user.Name, user.Country, user.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w: %w", op, storage.ErrUserExists, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetByEmail ищет пользователя по email.
func (r *repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.sqlite.GetByEmail"

	query := `SELECT ` + storage.UserColumns + `
			  FROM user_table
			  WHERE email = ?`
	var u models.User
	err := r.tx.QueryRowContext(ctx, query, email).Scan(&u.Email, &u.Password, &u.Name, &u.Country, &u.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// Get выполняет выборку по фильтру в порядке добавления.
func (r *repo) Get(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	const op = "storage.sqlite.Get"
	if err := storage.CheckLimit(filter); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query, args := storage.BuildFilterQuery(filter, storage.QuestionPlaceholder)
	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Email, &u.Password, &u.Name, &u.Country, &u.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (r *repo) Commit(context.Context) error {
	return r.tx.Commit()
}

func (r *repo) Rollback(context.Context) error {
	return r.tx.Rollback()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

var _ storage.Store = (*Storage)(nil)
