package userregistry

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/user-registry/internal/config"
	"github.com/magabrotheeeer/user-registry/internal/migrations"
	"github.com/magabrotheeeer/user-registry/internal/storage"
	"github.com/magabrotheeeer/user-registry/internal/storage/memory"
	"github.com/magabrotheeeer/user-registry/internal/storage/postgresql"
	"github.com/magabrotheeeer/user-registry/internal/storage/sqlite"
)

// NewStore создаёт хранилище по типу из конфига. Для реляционных баз
// пул создаётся один раз и сразу применяются миграции.
func NewStore(ctx context.Context, cfg config.Storage) (storage.Store, error) {
	const op = "app.NewStore"

	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil

	case config.BackendPostgres:
		pool, err := postgresql.NewPool(ctx, cfg.ConnectionString, postgresql.PoolOptions{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := postgresql.Migrate(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return postgresql.New(pool), nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := migrations.Run(db, migrations.SQLite); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return sqlite.New(db), nil

	default:
		return nil, fmt.Errorf("%s: %w: %q", op, storage.ErrUnknownBackend, cfg.Backend)
	}
}
