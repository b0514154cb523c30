// Package postgresql реализует хранилище пользователей на основе PostgreSQL.
//
// Пул соединений создаётся один раз через NewPool и передаётся в New;
// каждая единица работы выполняется в отдельной транзакции pgx.
package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/user-registry/internal/migrations"
	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

// PoolOptions задаёт размеры и время жизни соединений пула.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// NewPool разбирает строку подключения, создаёт пул и проверяет соединение.
// Пустая или некорректная строка подключения приводит к ошибке.
func NewPool(ctx context.Context, connString string, opts PoolOptions) (*pgxpool.Pool, error) {
	const op = "storage.postgresql.NewPool"

	if connString == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmptyConnectionString)
	}
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pool, nil
}

// Migrate применяет миграции через отдельное соединение с настройками пула,
// не занимая соединения самого пула.
func Migrate(pool *pgxpool.Pool) error {
	const op = "storage.postgresql.Migrate"

	db := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer db.Close()

	if err := migrations.Run(db, migrations.Postgres); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Storage реализует storage.Store поверх пула pgx.
type Storage struct {
	pool *pgxpool.Pool
}

// New оборачивает уже созданный пул.
func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Begin открывает транзакцию.
func (s *Storage) Begin(ctx context.Context) (storage.Tx, error) {
	const op = "storage.postgresql.Begin"
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &repo{tx: tx}, nil
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close закрывает пул.
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

type repo struct {
	tx pgx.Tx
}

// Save вставляет пользователя. Дубликат email возвращает storage.ErrUserExists
// вместе с исходной *pgconn.PgError.
func (r *repo) Save(ctx context.Context, user models.User) error {
	const op = "storage.postgresql.Save"

	query := `INSERT INTO user_table (email, password, name, country, status)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := r.tx.Exec(ctx, query, user.Email, user.Password, user.Name, user.Country, user.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w: %w", op, storage.ErrUserExists, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetByEmail ищет пользователя по индексированной колонке email.
func (r *repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgresql.GetByEmail"

	query := `SELECT ` + storage.UserColumns + `
			  FROM user_table
			  WHERE email = $1`
	var u models.User
	err := r.tx.QueryRow(ctx, query, email).Scan(&u.Email, &u.Password, &u.Name, &u.Country, &u.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// Get выполняет выборку по фильтру в порядке добавления.
func (r *repo) Get(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	const op = "storage.postgresql.Get"
	if err := storage.CheckLimit(filter); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query, args := storage.BuildFilterQuery(filter, storage.DollarPlaceholder)
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

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

func (r *repo) Commit(ctx context.Context) error {
	return r.tx.Commit(ctx)
}

func (r *repo) Rollback(ctx context.Context) error {
	return r.tx.Rollback(ctx)
}

var _ storage.Store = (*Storage)(nil)
