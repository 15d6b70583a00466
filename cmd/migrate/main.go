package main

import (
	"context"
	"os"

	"github.com/aumentovaneza/TapLink-sub001/config"
	"github.com/aumentovaneza/TapLink-sub001/internal/migrate"
	"github.com/aumentovaneza/TapLink-sub001/pkg/database"
	"github.com/aumentovaneza/TapLink-sub001/pkg/logger"
	"go.uber.org/zap"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)

	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	ctx := context.Background()

	opts := migrate.DefaultMigrateOptions()

	if err := migrate.MigrateHardwareDB(ctx, db, log, opts); err != nil {
		log.Fatal("Ошибка при выполнении миграции", zap.Error(err))
	}

	log.Info("Миграция успешно завершена")
}
