package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sportsequip/internal/config"
	"sportsequip/internal/database"
	"sportsequip/internal/pkg/logger"
	"sportsequip/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}
	log := logger.New(cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := clearExpired(ctx, db, time.Now().UTC())
	if err != nil {
		log.Fatal("otp cleanup failed", zap.Error(err))
	}
	log.Info("otp cleanup completed", zap.Int64("cleared", n))
}

func clearExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	return repository.NewStudentRepository(db).ClearExpiredOTPs(ctx, now)
}
