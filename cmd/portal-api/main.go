package main

import (
	"fmt"
	"log"

	_ "github.com/icpl-digital/bi-portal-api/api/swagger"
	"github.com/icpl-digital/bi-portal-api/internal/server"
	"github.com/icpl-digital/bi-portal-api/pkg/cache"
	"github.com/icpl-digital/bi-portal-api/pkg/config"
	"github.com/icpl-digital/bi-portal-api/pkg/database"
	"github.com/icpl-digital/bi-portal-api/pkg/logger"
)

// @title BI Report Portal API
// @version 1.0.0
// @description Authenticated portal serving embedded BI reports with per-user access and personalization
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	r := server.New(cfg, db, redisClient, logr)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
