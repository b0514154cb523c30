package storage

import (
	"context"
	"errors"
	"fmt"
)

// WithinScope выполняет fn в рамках одной единицы работы.
//
// Если fn вернула nil, изменения фиксируются; ошибка фиксации возвращается вызывающему.
// Если fn вернула ошибку или запаниковала, выполняется откат, после чего ошибка
// возвращается без подмены (ошибка отката присоединяется через errors.Join),
// а паника пробрасывается дальше.
func WithinScope(ctx context.Context, store Store, fn func(repo Repository) error) (err error) {
	const op = "storage.WithinScope"

	tx, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("%s: rollback: %w", op, rbErr))
		}
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
