// Package migrations применяет схему базы данных с помощью golang-migrate.
// Файлы миграций встроены в бинарник для каждого поддерживаемого диалекта.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialect определяет набор миграций и драйвер golang-migrate.
type Dialect string

const (
	// Postgres: миграции для PostgreSQL (драйвер pgx/v5).
	Postgres Dialect = "postgres"
	// SQLite: миграции для SQLite (драйвер modernc.org/sqlite).
	SQLite Dialect = "sqlite"
)

// ErrUnknownDialect возвращается для неподдерживаемого диалекта.
var ErrUnknownDialect = errors.New("unknown migrations dialect")

// Run применяет все миграции диалекта к базе. Отсутствие изменений ошибкой не считается.
// Для Postgres драйвер закрывается по завершении вместе с db, поэтому
// передавайте отдельный *sql.DB. Для SQLite db остаётся открытым.
func Run(db *sql.DB, dialect Dialect) error {
	const op = "migrations.Run"

	var (
		driver     database.Driver
		driverName string
		err        error
	)
	switch dialect {
	case Postgres:
		driverName = "pgx_v5"
		driver, err = pgxv5.WithInstance(db, &pgxv5.Config{})
	case SQLite:
		driverName = "sqlite"
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("%s: %w: %q", op, ErrUnknownDialect, dialect)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if dialect == Postgres {
		// pgx держит выделенное *sql.Conn до Close.
		defer func() { _ = driver.Close() }()
	}

	src, err := iofs.New(files, string(dialect))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
