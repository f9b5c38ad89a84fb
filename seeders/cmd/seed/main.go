package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/pkg/config"
	"github.com/Lightthouse/stirki/pkg/database/postgresql"
	applogger "github.com/Lightthouse/stirki/pkg/logger"
	"github.com/Lightthouse/stirki/seeders"
)

// Отдельный запуск сидеров без старта бота: миграции и справочники.
func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := postgresql.Migrate(cfg.Postgres.DSN); err != nil {
		logger.Fatal("Ошибка миграций", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer db.Close()

	if err := seeders.SeedDictionaries(ctx, db, logger); err != nil {
		logger.Fatal("Ошибка наполнения справочников", zap.Error(err))
	}
}
