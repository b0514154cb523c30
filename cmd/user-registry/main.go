// Package main User Registry API
//
// @title           User Registry API
// @version         1.0
// @description     Сервис регистрации пользователей: создание, получение по email и поиск по фильтру.
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @host      localhost:8080
// @BasePath  /
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	userregistry "github.com/magabrotheeeer/user-registry/internal/app/user-registry"
	"github.com/magabrotheeeer/user-registry/internal/config"
	"github.com/magabrotheeeer/user-registry/internal/lib/sl"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", sl.Err(err))
	}

	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting user-registry", slog.String("env", cfg.Env), slog.String("backend", cfg.Backend))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := userregistry.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("user-registry stopped gracefully")
}
