package seeders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Beginner - то, что умеет открыть транзакцию (pgxpool.Pool, pgx.Conn).
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SeedDictionaries наполняет справочники статусов и улиц.
// Повторный запуск ничего не меняет.
func SeedDictionaries(ctx context.Context, db Beginner, logger *zap.Logger) error {
	logger.Info("Наполнение справочников")

	if err := seedNames(ctx, db, "order_statuses", statusesData()); err != nil {
		return fmt.Errorf("статусы заказов: %w", err)
	}
	if err := seedNames(ctx, db, "streets", streetsData); err != nil {
		return fmt.Errorf("улицы: %w", err)
	}

	logger.Info("Справочники наполнены",
		zap.Int("statuses", len(statusesData())),
		zap.Int("streets", len(streetsData)))
	return nil
}

// table приходит только из констант этого пакета.
func seedNames(ctx context.Context, db Beginner, table string, names []string) error {
	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table)

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, name := range names {
		if _, err := tx.Exec(ctx, query, name); err != nil {
			return fmt.Errorf("вставка %q: %w", name, err)
		}
	}
	return tx.Commit(ctx)
}
